package review

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type issueKey struct {
	file string
	rule string
	line int
}

// Aggregator turns raw matches into issues. It keeps the first issue for
// each (file, rule, line) and preserves the order matches were added in.
// Add is safe for concurrent use.
type Aggregator struct {
	registry *Registry
	redact   func(string) string

	limit int

	mu      sync.Mutex
	seen    map[issueKey]bool
	issues  []Issue
	unknown int
}

// NewAggregator creates an aggregator resolving rule metadata from reg.
// redact, if non-nil, is applied to the captured context and every value
// before they are substituted into messages.
func NewAggregator(reg *Registry, redact func(string) string) *Aggregator {
	return &Aggregator{
		registry: reg,
		redact:   redact,
		seen:     make(map[issueKey]bool),
	}
}

// Limit caps the number of issues Finalize returns. Zero or less means no cap.
func (a *Aggregator) Limit(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limit = n
}

// Add records one raw match. Matches for rules the registry does not know
// are counted and dropped.
func (a *Aggregator) Add(m RawMatch) {
	rule, ok := a.registry.Rule(m.RuleID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !ok {
		a.unknown++
		return
	}
	key := issueKey{file: m.File, rule: m.RuleID, line: m.Line}
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.issues = append(a.issues, Issue{
		ID:       issueID(m),
		File:     m.File,
		Line:     m.Line,
		Severity: rule.Severity,
		Type:     rule.Concern,
		RuleID:   rule.ID,
		Message:  a.render(rule.Message, m),
	})
}

// AddAll records matches in order.
func (a *Aggregator) AddAll(ms []RawMatch) {
	for _, m := range ms {
		a.Add(m)
	}
}

// Finalize returns the deduplicated issues in first-seen order, truncated
// to the limit if one is set.
func (a *Aggregator) Finalize() []Issue {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.issues)
	if a.limit > 0 && n > a.limit {
		n = a.limit
	}
	out := make([]Issue, n)
	copy(out, a.issues[:n])
	return out
}

// Unknown returns how many matches referenced rules missing from the registry.
func (a *Aggregator) Unknown() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unknown
}

func (a *Aggregator) render(template string, m RawMatch) string {
	clean := func(s string) string {
		if a.redact != nil {
			return a.redact(s)
		}
		return s
	}
	pairs := []string{"{context}", clean(m.Context)}
	names := make([]string, 0, len(m.Values))
	for name := range m.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", clean(m.Values[name]))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func issueID(m RawMatch) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", m.File, m.RuleID, m.Line)))
	return fmt.Sprintf("%x", h[:8])
}
