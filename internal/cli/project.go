package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dantiw/csreview/internal/project"
	"github.com/spf13/cobra"
)

var flagProjectFormat string

var projectCmd = &cobra.Command{
	Use:   "project [path]",
	Short: "Print the parsed .csproj: frameworks, packages and properties",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		if flagProjectFormat != "text" && flagProjectFormat != "json" {
			fail(ExitUsageError, fmt.Errorf("unsupported project format: %s (want text or json)", flagProjectFormat))
			return nil
		}
		descs, err := loadDescriptors(path)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		if err := writeDescriptors(cmd.OutOrStdout(), descs, flagProjectFormat); err != nil {
			fail(ExitRuntimeError, err)
		}
		return nil
	},
}

// loadDescriptors parses every descriptor path resolves to. Any failure is
// fatal here because the command exists to show the parse.
func loadDescriptors(path string) ([]*project.Descriptor, error) {
	paths, err := project.Find(path)
	if err != nil {
		return nil, err
	}
	descs := make([]*project.Descriptor, 0, len(paths))
	for _, p := range paths {
		d, err := project.Load(p)
		if err != nil {
			return nil, err
		}
		d.Path = filepath.ToSlash(p)
		descs = append(descs, d)
	}
	return descs, nil
}

func writeDescriptors(w io.Writer, descs []*project.Descriptor, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(descs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var b strings.Builder
	for i, d := range descs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Path + "\n")
		if d.SDK != "" {
			fmt.Fprintf(&b, "  SDK: %s\n", d.SDK)
		}
		frameworks := "(none)"
		if len(d.Frameworks) > 0 {
			frameworks = strings.Join(d.Frameworks, ", ")
		}
		fmt.Fprintf(&b, "  Target frameworks: %s\n", frameworks)
		if len(d.Packages) > 0 {
			b.WriteString("  Packages:\n")
			for _, p := range d.Packages {
				v := p.Version
				if v == "" {
					v = "(no version)"
				}
				fmt.Fprintf(&b, "    %s %s (line %d)\n", p.Name, v, p.Line)
			}
		}
		if len(d.Properties) > 0 {
			b.WriteString("  Properties:\n")
			for _, p := range d.Properties {
				fmt.Fprintf(&b, "    %s = %s\n", p.Name, p.Value)
			}
		}
		if len(d.ProjectRefs) > 0 {
			b.WriteString("  Project references:\n")
			for _, r := range d.ProjectRefs {
				fmt.Fprintf(&b, "    %s\n", r)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func init() {
	projectCmd.Flags().StringVar(&flagProjectFormat, "format", "text", "Output format (text, json)")
}
