package review

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dantiw/csreview/internal/scanerr"
)

// ErrInvalidEncoding is returned for content that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// scanContext is the mutable state of one file's scan. It is created by Scan
// and dropped when Scan returns.
type scanContext struct {
	file    string
	content string
	lines   []string
	tracker Tracker
	gates   map[string]bool
}

func newScanContext(file, content string) *scanContext {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &scanContext{
		file:    file,
		content: content,
		lines:   lines,
		gates:   make(map[string]bool),
	}
}

// applies evaluates a rule's whole-file gates, once per file.
func (sc *scanContext) applies(rule PatternRule) bool {
	if rule.When == nil && rule.Unless == nil {
		return true
	}
	if ok, seen := sc.gates[rule.ID]; seen {
		return ok
	}
	ok := true
	in := Input{Text: sc.content}
	if rule.When != nil {
		_, ok = rule.When.Match(in)
	}
	if ok && rule.Unless != nil {
		_, blocked := rule.Unless.Match(in)
		ok = !blocked
	}
	sc.gates[rule.ID] = ok
	return ok
}

func (sc *scanContext) match(rule PatternRule, hit Hit, line int) RawMatch {
	if line > len(sc.lines) {
		line = len(sc.lines)
	}
	return RawMatch{
		RuleID:  rule.ID,
		File:    sc.file,
		Line:    line,
		Context: strings.Join(strings.Fields(hit.Context), " "),
		Values:  hit.Values,
	}
}

// Scan evaluates rules against one file's content and returns the raw
// matches: whole-file rules first, then per-line rules in line order.
// Package rules are ignored. Content that is not valid UTF-8 fails the scan
// with an IOFailure for filename.
func Scan(content, filename string, rules []PatternRule) ([]RawMatch, error) {
	if !utf8.ValidString(content) {
		return nil, scanerr.New(scanerr.IOFailure, filename, ErrInvalidEncoding)
	}
	sc := newScanContext(filename, strings.TrimPrefix(content, "\ufeff"))

	var out []RawMatch
	var lineRules []PatternRule
	for _, rule := range rules {
		if rule.Predicate == nil {
			continue
		}
		if rule.Scope == ScopePerLine {
			lineRules = append(lineRules, rule)
			continue
		}
		if !sc.applies(rule) {
			continue
		}
		if hit, ok := rule.Predicate.Match(Input{Text: sc.content}); ok {
			out = append(out, sc.match(rule, hit, hit.Line))
		}
	}
	if len(lineRules) == 0 {
		return out, nil
	}

	for i, line := range sc.lines {
		state := sc.tracker.Next(line)
		if state.Comment {
			continue
		}
		for _, rule := range lineRules {
			hit, ok := rule.Predicate.Match(Input{Text: line, Depth: state.Depth})
			if !ok || !sc.applies(rule) {
				continue
			}
			out = append(out, sc.match(rule, hit, i+1))
		}
	}
	return out, nil
}
