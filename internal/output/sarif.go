package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dantiw/csreview/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct {
	Registry *review.Registry
}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report, s.Registry)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func buildSARIF(report *review.Report, reg *review.Registry) sarifLog {
	rules := []sarifRule{}
	seen := make(map[string]bool)
	results := make([]sarifResult, 0, len(report.Issues))

	for _, is := range report.Issues {
		if !seen[is.RuleID] {
			seen[is.RuleID] = true
			rules = append(rules, sarifRuleFor(is, reg))
		}
		results = append(results, sarifResult{
			RuleID:              is.RuleID,
			Level:               severityToLevel(is.Severity),
			Message:             sarifMessage{Text: is.Message},
			Locations:           []sarifLocation{physical(is.File, is.Line)},
			PartialFingerprints: map[string]string{"csreview/v1": is.ID},
		})
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    review.ToolName,
				Version: report.Version,
				Rules:   rules,
			},
		},
		Results: results,
	}
	if len(report.Failures) > 0 {
		inv := sarifInvocation{ExecutionSuccessful: true}
		for _, f := range report.Failures {
			inv.Notifications = append(inv.Notifications, sarifNotification{
				Level:     "warning",
				Message:   sarifMessage{Text: fmt.Sprintf("%s: %s", f.Kind, f.Error)},
				Locations: []sarifLocation{physical(f.Path, 0)},
			})
		}
		run.Invocations = []sarifInvocation{inv}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

func sarifRuleFor(is review.Issue, reg *review.Registry) sarifRule {
	title := is.RuleID
	if reg != nil {
		if r, ok := reg.Rule(is.RuleID); ok && r.Title != "" {
			title = r.Title
		}
	}
	return sarifRule{
		ID:               is.RuleID,
		Name:             title,
		ShortDescription: sarifMessage{Text: title},
		DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(is.Severity)},
		Properties:       sarifRuleProperties{Tags: []string{string(is.Type)}},
	}
}

func physical(path string, line int) sarifLocation {
	loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: path},
	}}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
	}
	return loc
}

// severityToLevel maps issue severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
