// Package output formats review reports for display or machine consumption.
//
// Four formats are supported:
//   - text     human-readable terminal output grouped by file or by type (default)
//   - json     full structured JSON report
//   - markdown PR-comment-friendly with a collapsible section per group
//   - sarif    SARIF v2.1.0 for upload to code-scanning services
//
// Every writer is a pure function of the report: no timestamps or run IDs
// are added, so the same report always renders to the same bytes.
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [Render] for the text form as a string.
package output
