package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dantiw/csreview/internal/config"
	"github.com/dantiw/csreview/internal/review"
	"github.com/dantiw/csreview/internal/textutil"
	"github.com/spf13/cobra"
)

var (
	flagRulesConcern string
	flagRulesWidth   int
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule registry",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective rules after the rules pack is applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(".", flagConfig, buildOverrides())
		if err != nil {
			fail(ExitUsageError, err)
			return nil
		}
		rules, err := review.LoadRules(cfg.RulesFile)
		if err != nil {
			fail(ExitUsageError, fmt.Errorf("loading rules: %w", err))
			return nil
		}
		reg, err := rules.Apply(review.Builtin())
		if err != nil {
			fail(ExitUsageError, err)
			return nil
		}
		var concerns []review.Concern
		if flagRulesConcern != "" {
			c, err := review.ParseConcern(flagRulesConcern)
			if err != nil {
				fail(ExitUsageError, err)
				return nil
			}
			concerns = append(concerns, c)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), formatRules(reg.RulesFor(concerns...), flagRulesWidth))
		return err
	},
}

// formatRules renders one aligned row per rule. Titles are truncated so a
// row fits in width columns; zero disables truncation.
func formatRules(rules []review.PatternRule, width int) string {
	header := []string{"ID", "SEVERITY", "CONCERN", "SCOPE", "TITLE"}
	rows := [][]string{header}
	for _, r := range rules {
		scope := r.Scope.String()
		if r.Package != nil {
			scope = "package"
		}
		rows = append(rows, []string{r.ID, string(r.Severity), string(r.Concern), scope, r.Title})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row[:len(row)-1] {
			if w := textutil.VisibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row[:len(row)-1] {
			line.WriteString(textutil.PadRight(cell, widths[i]+2))
		}
		title := row[len(row)-1]
		if width > 0 {
			if avail := width - textutil.VisibleWidth(line.String()); avail > 0 {
				title = textutil.Truncate(title, avail)
			}
		}
		line.WriteString(title)
		b.WriteString(strings.TrimRight(line.String(), " ") + "\n")
	}
	return b.String()
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().StringVar(&flagRulesConcern, "concern", "", "Only list rules of this concern")
	rulesListCmd.Flags().StringVar(&flagRules, "rules", "", "Rules pack file (json, yaml or toml)")
	rulesListCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
	rulesListCmd.Flags().IntVar(&flagRulesWidth, "width", 0, "Truncate titles to fit this many columns")
}
