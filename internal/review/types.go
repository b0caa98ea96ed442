package review

import (
	"fmt"
	"strings"
)

// Severity represents the urgency of an issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity normalizes a user-supplied severity name.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want low, medium or high)", s)
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Concern is the category a rule belongs to. Issues inherit it as their type.
type Concern string

const (
	ConcernResourceLifetime Concern = "resource-lifetime"
	ConcernArchitecture     Concern = "architecture"
	ConcernPerformance      Concern = "performance"
	ConcernDependency       Concern = "dependency-compatibility"
)

// Concerns lists every concern in registry order.
var Concerns = []Concern{
	ConcernResourceLifetime,
	ConcernArchitecture,
	ConcernPerformance,
	ConcernDependency,
}

// ParseConcern accepts a concern name or one of its short aliases.
func ParseConcern(s string) (Concern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resource-lifetime", "memory", "resource":
		return ConcernResourceLifetime, nil
	case "architecture", "arch":
		return ConcernArchitecture, nil
	case "performance", "perf", "async":
		return ConcernPerformance, nil
	case "dependency-compatibility", "dependencies", "deps":
		return ConcernDependency, nil
	default:
		return "", fmt.Errorf("unknown concern %q", s)
	}
}

// Scope says whether a rule looks at the whole file once or at every line.
type Scope int

const (
	ScopeWholeFile Scope = iota
	ScopePerLine
)

func (s Scope) String() string {
	if s == ScopePerLine {
		return "per-line"
	}
	return "whole-file"
}

// RawMatch is one predicate satisfaction, before aggregation.
// Line is 1-based; zero means the match has no line.
type RawMatch struct {
	RuleID  string            `json:"ruleId"`
	File    string            `json:"file"`
	Line    int               `json:"line,omitempty"`
	Context string            `json:"context,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// Issue is a finalized, deduplicated finding.
type Issue struct {
	ID       string   `json:"id"`
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	Type     Concern  `json:"type"`
	RuleID   string   `json:"ruleId"`
	Message  string   `json:"message"`
}

// Failure records a path that could not be scanned.
type Failure struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// GroupBy selects how a report is grouped when rendered.
type GroupBy string

const (
	GroupByFile GroupBy = "file"
	GroupByType GroupBy = "type"
)

// ParseGroupBy validates a grouping name. Empty means by file.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case "", GroupByFile:
		return GroupByFile, nil
	case GroupByType:
		return GroupByType, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (want file or type)", s)
	}
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of issues.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// Total returns the number of counted issues.
func (s Summary) Total() int {
	return s.Counts.Low + s.Counts.Medium + s.Counts.High
}

// Report is the top-level output structure.
//
// FilesScanned separates "nothing matched the source filter" (zero) from
// "files were scanned and were clean", which render to the same banner.
type Report struct {
	Tool         string    `json:"tool"`
	Version      string    `json:"version"`
	Root         string    `json:"root"`
	Concerns     []Concern `json:"concerns"`
	GroupBy      GroupBy   `json:"groupBy"`
	FilesScanned int       `json:"filesScanned"`
	Failures     []Failure `json:"failures,omitempty"`
	Summary      Summary   `json:"summary"`
	Issues       []Issue   `json:"issues"`
}

// Clean reports whether the report carries no issues.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// ComputeSummary calculates the summary from issues.
func ComputeSummary(issues []Issue) Summary {
	var s Summary
	for _, is := range issues {
		switch is.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(is.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = is.Severity
		}
	}
	return s
}
