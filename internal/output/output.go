package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dantiw/csreview/internal/review"
)

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "markdown", "sarif"}

// Options controls rendering.
type Options struct {
	GroupBy review.GroupBy
	// Color enables ANSI styling of severity labels and group headers.
	Color bool
	// Width wraps text messages to this many columns; zero disables wrapping.
	Width int
	// Registry supplies rule titles for SARIF; nil falls back to rule IDs.
	Registry *review.Registry
}

func (o Options) groupBy(report *review.Report) review.GroupBy {
	if o.GroupBy != "" {
		return o.GroupBy
	}
	if report.GroupBy != "" {
		return report.GroupBy
	}
	return review.GroupByFile
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextWriter{Options: opts}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{Options: opts}, nil
	case "sarif":
		return &SARIFWriter{Registry: opts.Registry}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *review.Report, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// group is a run of issues sharing a file or a type, in first-seen order.
type group struct {
	key    string
	issues []review.Issue
}

func groupIssues(issues []review.Issue, by review.GroupBy) []group {
	var groups []group
	index := make(map[string]int)
	for _, is := range issues {
		key := is.File
		if by == review.GroupByType {
			key = string(is.Type)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].issues = append(groups[i].issues, is)
	}
	return groups
}

func distinctFiles(issues []review.Issue) int {
	seen := make(map[string]bool)
	for _, is := range issues {
		seen[is.File] = true
	}
	return len(seen)
}

func severityLabel(s review.Severity) string {
	return "[" + strings.ToUpper(string(s)) + "]"
}
