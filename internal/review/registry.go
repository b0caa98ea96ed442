package review

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

// PatternRule is one reviewable condition. Rules are built once when the
// registry is constructed and never modified afterwards.
type PatternRule struct {
	ID       string
	Title    string
	Concern  Concern
	Severity Severity
	Scope    Scope

	// Predicate is evaluated against the whole file (ScopeWholeFile) or each
	// line (ScopePerLine). Nil for package rules.
	Predicate Predicate
	// When and Unless are whole-file gates evaluated once per file. The rule
	// only fires when When holds (if set) and Unless does not (if set).
	When   Predicate
	Unless Predicate
	// Package is set for dependency-compatibility rules, which are evaluated
	// against a project descriptor rather than source text.
	Package *PackageCheck

	// Message is the issue text. {context} is replaced by the matched text
	// and any other {name} by the hit's named values.
	Message string
}

// PackageCheck matches a package reference in a project descriptor.
type PackageCheck struct {
	Name      *regexp.Regexp
	Version   func(version string) bool
	Framework *regexp.Regexp
}

// Registry is the read-only set of rules shared by every scan.
type Registry struct {
	rules       []PatternRule
	byID        map[string]int
	fingerprint string
}

// NewRegistry validates rules and builds a registry. Order is preserved.
func NewRegistry(rules []PatternRule) (*Registry, error) {
	r := &Registry{
		rules: make([]PatternRule, 0, len(rules)),
		byID:  make(map[string]int, len(rules)),
	}
	h := sha256.New()
	for _, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule with empty id (title %q)", rule.Title)
		}
		if _, dup := r.byID[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %s", rule.ID)
		}
		if SeverityRank(rule.Severity) == 0 {
			return nil, fmt.Errorf("rule %s: invalid severity %q", rule.ID, rule.Severity)
		}
		if (rule.Predicate == nil) == (rule.Package == nil) {
			return nil, fmt.Errorf("rule %s: needs exactly one of predicate or package check", rule.ID)
		}
		if rule.Package != nil && rule.Package.Name == nil {
			return nil, fmt.Errorf("rule %s: package check without name pattern", rule.ID)
		}
		r.byID[rule.ID] = len(r.rules)
		r.rules = append(r.rules, rule)
		fmt.Fprintf(h, "%s|%s|%s|%d|%v|%v|%v|%s\n",
			rule.ID, rule.Concern, rule.Severity, rule.Scope,
			rule.Predicate, rule.When, rule.Unless, rule.Message)
	}
	r.fingerprint = fmt.Sprintf("%x", h.Sum(nil)[:16])
	return r, nil
}

// MustRegistry is NewRegistry for static rule tables; it panics on error.
func MustRegistry(rules []PatternRule) *Registry {
	r, err := NewRegistry(rules)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every rule in registration order.
func (r *Registry) All() []PatternRule {
	out := make([]PatternRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// RulesFor returns the rules of the given concerns in registration order.
// With no concerns it returns every rule.
func (r *Registry) RulesFor(concerns ...Concern) []PatternRule {
	if len(concerns) == 0 {
		return r.All()
	}
	want := make(map[Concern]bool, len(concerns))
	for _, c := range concerns {
		want[c] = true
	}
	var out []PatternRule
	for _, rule := range r.rules {
		if want[rule.Concern] {
			out = append(out, rule)
		}
	}
	return out
}

// SourceRules returns the text rules (not package rules) of the given concerns.
func (r *Registry) SourceRules(concerns ...Concern) []PatternRule {
	var out []PatternRule
	for _, rule := range r.RulesFor(concerns...) {
		if rule.Predicate != nil {
			out = append(out, rule)
		}
	}
	return out
}

// PackageRules returns the descriptor rules.
func (r *Registry) PackageRules() []PatternRule {
	var out []PatternRule
	for _, rule := range r.rules {
		if rule.Package != nil {
			out = append(out, rule)
		}
	}
	return out
}

// Rule looks up a rule by ID.
func (r *Registry) Rule(id string) (PatternRule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return PatternRule{}, false
	}
	return r.rules[i], true
}

// Fingerprint identifies the rule set. It changes whenever a rule's
// patterns, severity or message change.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}
