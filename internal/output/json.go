package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dantiw/csreview/internal/review"
)

// JSONWriter emits the report as indented JSON. Generic type names in
// messages stay readable: <, > and & are not escaped. A report without
// issues always carries "issues": [] so consumers never see null.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	out := *report
	if out.Issues == nil {
		out.Issues = []review.Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
