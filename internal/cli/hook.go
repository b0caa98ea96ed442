package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dantiw/csreview/internal/config"
	"github.com/dantiw/csreview/internal/gitctx"
	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> csreview pre-commit hook >>>"
	hookMarkerEnd   = "# <<< csreview pre-commit hook <<<"
	hookShebang     = "#!/bin/sh"
)

// hookPathspecs limit the hook to commits that stage C# sources or project
// descriptors.
var hookPathspecs = []string{"*.cs", "*.csproj"}

// hookSettings are the review flags baked into the installed section.
type hookSettings struct {
	FailOn    string
	Format    string
	MaxIssues int
}

func (h hookSettings) validate() error {
	cfg := config.Default()
	cfg.FailOn = strings.ToLower(h.FailOn)
	cfg.Format = h.Format
	cfg.MaxIssues = h.MaxIssues
	return config.Validate(cfg)
}

var (
	hookRepo  string
	hookFlags hookSettings
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Review staged C# changes before every commit",
	Long: "Adds a marked section to the repository's pre-commit hook. The section\n" +
		"runs only when the commit stages .cs or .csproj files, reviews just those\n" +
		"files and blocks the commit when issues reach --fail-on. Existing hook\n" +
		"content outside the section is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hookFlags.validate(); err != nil {
			fail(ExitUsageError, err)
			return nil
		}
		path, err := preCommitPath(hookRepo)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		existing, err := readHook(path)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		content := installSection(existing, hookSection(hookFlags))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fail(ExitRuntimeError, fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			fail(ExitRuntimeError, fmt.Errorf("writing hook: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed csreview pre-commit hook at %s\n", path)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the csreview section from the pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := preCommitPath(hookRepo)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		existing, err := readHook(path)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		rest, found := uninstallSection(existing)
		switch {
		case !found:
			fmt.Fprintln(cmd.OutOrStdout(), "No csreview pre-commit hook found.")
		case onlyShebang(rest):
			if err := os.Remove(path); err != nil {
				fail(ExitRuntimeError, fmt.Errorf("removing hook: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed csreview pre-commit hook at %s\n", path)
		default:
			if err := os.WriteFile(path, []byte(rest), 0o755); err != nil {
				fail(ExitRuntimeError, fmt.Errorf("writing hook: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed csreview section from %s\n", path)
		}
		return nil
	},
}

func preCommitPath(repo string) (string, error) {
	dir, err := gitctx.HooksDir(repo)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pre-commit"), nil
}

// readHook returns the hook's content, or "" when there is no hook yet.
func readHook(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading hook: %w", err)
	}
	return string(data), nil
}

// hookSection renders the marked block. git's exit status gates the review so
// commits touching no C# files skip it, and a review that fails to run (exit
// 2 or above) warns without blocking.
func hookSection(h hookSettings) string {
	quoted := make([]string, len(hookPathspecs))
	for i, p := range hookPathspecs {
		quoted[i] = "'" + p + "'"
	}
	var b strings.Builder
	fmt.Fprintln(&b, hookMarkerStart)
	fmt.Fprintf(&b, "if ! git diff --cached --quiet --diff-filter=ACMR -- %s; then\n", strings.Join(quoted, " "))
	fmt.Fprintf(&b, "  csreview review . --changed staged --fail-on %s --format %s --max-issues %d\n",
		strings.ToLower(h.FailOn), h.Format, h.MaxIssues)
	fmt.Fprintln(&b, "  csreview_status=$?")
	fmt.Fprintln(&b, `  if [ "$csreview_status" -eq 1 ]; then`)
	fmt.Fprintf(&b, "    echo \"csreview: %s or worse issues in staged files, commit blocked\" >&2\n", strings.ToLower(h.FailOn))
	fmt.Fprintln(&b, "    exit 1")
	fmt.Fprintln(&b, `  elif [ "$csreview_status" -ge 2 ]; then`)
	fmt.Fprintln(&b, `    echo "csreview: review did not run (exit $csreview_status), allowing commit" >&2`)
	fmt.Fprintln(&b, "  fi")
	fmt.Fprintln(&b, "fi")
	fmt.Fprintln(&b, hookMarkerEnd)
	return b.String()
}

// findSection locates the marked block, including the newline after the end
// marker.
func findSection(content string) (start, end int, ok bool) {
	start = strings.Index(content, hookMarkerStart)
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.Index(content[start:], hookMarkerEnd)
	if rel < 0 {
		return 0, 0, false
	}
	end = start + rel + len(hookMarkerEnd)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return start, end, true
}

// installSection puts section into an existing hook, replacing an earlier
// csreview block in place or appending one. An empty hook gets a shebang.
func installSection(existing, section string) string {
	if strings.TrimSpace(existing) == "" {
		return hookShebang + "\n" + section
	}
	if start, end, ok := findSection(existing); ok {
		return existing[:start] + section + existing[end:]
	}
	if !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return existing + section
}

// uninstallSection drops the csreview block and reports whether there was one.
func uninstallSection(existing string) (string, bool) {
	start, end, ok := findSection(existing)
	if !ok {
		return existing, false
	}
	return existing[:start] + existing[end:], true
}

func onlyShebang(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed == "" || strings.HasPrefix(trimmed, "#!") && !strings.Contains(trimmed, "\n")
}

func init() {
	hookCmd.PersistentFlags().StringVar(&hookRepo, "repo", ".", "Repository whose hook is managed")
	hookInstallCmd.Flags().StringVar(&hookFlags.FailOn, "fail-on", "high", "Block commits at this severity (low, medium, high)")
	hookInstallCmd.Flags().StringVar(&hookFlags.Format, "format", "text", "Report format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().IntVar(&hookFlags.MaxIssues, "max-issues", 50, "Maximum number of issues to report")
	hookCmd.AddCommand(hookInstallCmd, hookUninstallCmd)
}
