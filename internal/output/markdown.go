package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dantiw/csreview/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct {
	Options Options
}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	counts := report.Summary.Counts

	ew.printf("## csreview\n\n")
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| High     | %d    |\n", counts.High)
	ew.printf("| Medium   | %d    |\n", counts.Medium)
	ew.printf("| Low      | %d    |\n", counts.Low)
	ew.printf("| **Total** | **%d** |\n\n", len(report.Issues))
	ew.printf("Files scanned: %d\n\n", report.FilesScanned)

	if len(report.Issues) == 0 {
		ew.println(CleanBanner + " :white_check_mark:")
	}

	by := m.Options.groupBy(report)
	for _, g := range groupIssues(report.Issues, by) {
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(highest(g.issues)), mdEscape(g.key), len(g.issues))
		for _, is := range g.issues {
			where := string(is.Type)
			if by == review.GroupByType {
				where = "`" + is.File + "`"
			}
			if is.Line > 0 {
				where += fmt.Sprintf(" line %d", is.Line)
			}
			ew.printf("- **%s** `%s` %s: %s\n", strings.ToUpper(string(is.Severity)), is.RuleID, where, mdEscape(is.Message))
		}
		ew.printf("\n</details>\n\n")
	}

	if len(report.Failures) > 0 {
		ew.printf("### Skipped files\n\n")
		for _, f := range report.Failures {
			ew.printf("- `%s`: %s: %s\n", f.Path, f.Kind, mdEscape(f.Error))
		}
		ew.println("")
	}
	return ew.err
}

func highest(issues []review.Issue) review.Severity {
	var top review.Severity
	for _, is := range issues {
		if review.SeverityRank(is.Severity) > review.SeverityRank(top) {
			top = is.Severity
		}
	}
	return top
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

var mdReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;", "|", "\\|")

// mdEscape keeps generic type names like List<T> from turning into HTML.
func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
