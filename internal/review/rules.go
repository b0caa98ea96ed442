package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Rules is a rules pack loaded from --rules. It adjusts the built-in
// registry; it cannot add rules.
type Rules struct {
	// Disable lists rule IDs to drop.
	Disable []string `json:"disable,omitempty" yaml:"disable,omitempty" toml:"disable,omitempty"`
	// SeverityOverrides maps a rule ID or a concern to a severity. A rule ID
	// entry wins over its concern's entry.
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty" yaml:"severityOverrides,omitempty" toml:"severityOverrides,omitempty"`
	// Focus restricts full reviews to these concerns.
	Focus []string `json:"focus,omitempty" yaml:"focus,omitempty" toml:"focus,omitempty"`
}

// LoadRules loads a rules file from disk, decoding by extension (.json,
// .yaml, .yml, .toml). Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	rules, err := ParseRules(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a rules pack. format is a file extension; an empty
// format is read as JSON.
func ParseRules(data []byte, format string) (*Rules, error) {
	var rules Rules
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rules); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rules); err != nil {
			return nil, err
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rules); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported rules format %q", format)
	}
	return &rules, nil
}

// FocusConcerns returns the parsed focus list. Nil Rules or an empty list
// yields nil, meaning every concern.
func (r *Rules) FocusConcerns() ([]Concern, error) {
	if r == nil {
		return nil, nil
	}
	var out []Concern
	for _, f := range r.Focus {
		c, err := ParseConcern(f)
		if err != nil {
			return nil, fmt.Errorf("focus: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Apply returns a new registry with the pack's disables and severity
// overrides applied to base. Unknown rule IDs and invalid severities are
// errors. A nil pack returns base unchanged.
func (r *Rules) Apply(base *Registry) (*Registry, error) {
	if r == nil {
		return base, nil
	}
	disabled := make(map[string]bool, len(r.Disable))
	for _, id := range r.Disable {
		id = strings.TrimSpace(id)
		if _, ok := base.Rule(id); !ok {
			return nil, fmt.Errorf("disable: unknown rule %q", id)
		}
		disabled[id] = true
	}

	byRule := make(map[string]Severity)
	byConcern := make(map[Concern]Severity)
	keys := make([]string, 0, len(r.SeverityOverrides))
	for k := range r.SeverityOverrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sev, err := ParseSeverity(r.SeverityOverrides[key])
		if err != nil {
			return nil, fmt.Errorf("severityOverrides[%s]: %w", key, err)
		}
		if _, ok := base.Rule(key); ok {
			byRule[key] = sev
			continue
		}
		c, err := ParseConcern(key)
		if err != nil {
			return nil, fmt.Errorf("severityOverrides: %q is neither a rule ID nor a concern", key)
		}
		byConcern[c] = sev
	}

	var rules []PatternRule
	for _, rule := range base.All() {
		if disabled[rule.ID] {
			continue
		}
		if sev, ok := byRule[rule.ID]; ok {
			rule.Severity = sev
		} else if sev, ok := byConcern[rule.Concern]; ok {
			rule.Severity = sev
		}
		rules = append(rules, rule)
	}
	return NewRegistry(rules)
}
