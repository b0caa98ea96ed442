package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dantiw/csreview/internal/review"
	"github.com/dantiw/csreview/internal/termcolor"
	"github.com/dantiw/csreview/internal/textutil"
)

// CleanBanner is printed when a report has no issues.
const CleanBanner = "No issues found."

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	Options Options
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	render(ew, report, t.Options)
	return ew.err
}

// Render returns the text form of report.
func Render(report *review.Report, opts Options) string {
	var b strings.Builder
	render(&errWriter{w: &b}, report, opts)
	return b.String()
}

func render(ew *errWriter, report *review.Report, opts Options) {
	by := opts.groupBy(report)

	if len(report.Issues) == 0 {
		ew.println(CleanBanner)
	} else {
		ew.printf("Found %d issue(s) in %d file(s).\n", len(report.Issues), distinctFiles(report.Issues))
		for _, g := range groupIssues(report.Issues, by) {
			ew.printf("\n%s\n", termcolor.Apply(termcolor.StyleHeader, g.key, opts.Color))
			for _, is := range g.issues {
				writeIssue(ew, is, by, opts)
			}
		}
	}

	if len(report.Failures) > 0 {
		ew.printf("\n%s\n", termcolor.Apply(termcolor.StyleHeader, "Skipped files", opts.Color))
		for _, f := range report.Failures {
			ew.printf("  %s: %s: %s\n", f.Path, f.Kind, f.Error)
		}
	}
}

func writeIssue(ew *errWriter, is review.Issue, by review.GroupBy, opts Options) {
	label := severityLabel(is.Severity)
	var where string
	if by == review.GroupByType {
		where = is.File
		if is.Line > 0 {
			where = fmt.Sprintf("%s:%d", is.File, is.Line)
		}
	} else {
		where = string(is.Type)
		if is.Line > 0 {
			where = fmt.Sprintf("%s line %d", is.Type, is.Line)
		}
		where += ":"
	}
	prefix := "  " + label + " " + where + " "

	msg := []string{is.Message}
	if opts.Width > 0 {
		indent := textutil.VisibleWidth(prefix)
		avail := opts.Width - indent
		if avail < 20 {
			avail = 20
		}
		msg = textutil.Wrap(is.Message, avail)
		for i := 1; i < len(msg); i++ {
			msg[i] = strings.Repeat(" ", indent) + msg[i]
		}
	}

	styled := "  " + termcolor.Apply(severityStyle(is.Severity), label, opts.Color) + " " + where + " "
	ew.printf("%s%s\n", styled, msg[0])
	for _, line := range msg[1:] {
		ew.println(line)
	}
}

func severityStyle(s review.Severity) termcolor.Style {
	switch s {
	case review.SeverityHigh:
		return termcolor.StyleHigh
	case review.SeverityMedium:
		return termcolor.StyleMedium
	default:
		return termcolor.StyleLow
	}
}
