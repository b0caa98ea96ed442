package review

import (
	"github.com/dantiw/csreview/internal/project"
)

// CheckDependencies evaluates package rules against a descriptor. Each rule
// fires at most once per package, naming the first target framework that
// satisfies its framework pattern.
func CheckDependencies(desc *project.Descriptor, rules []PatternRule) []RawMatch {
	var out []RawMatch
	for _, rule := range rules {
		check := rule.Package
		if check == nil {
			continue
		}
		for _, pkg := range desc.Packages {
			if pkg.Name == "" || !check.Name.MatchString(pkg.Name) {
				continue
			}
			if check.Version != nil && !check.Version(pkg.Version) {
				continue
			}
			framework, ok := matchFramework(desc.Frameworks, check)
			if !ok {
				continue
			}
			out = append(out, RawMatch{
				RuleID:  rule.ID,
				File:    desc.Path,
				Line:    pkg.Line,
				Context: pkg.Name,
				Values: map[string]string{
					"package":   pkg.Name,
					"version":   pkg.Version,
					"framework": framework,
				},
			})
		}
	}
	return out
}

func matchFramework(frameworks []string, check *PackageCheck) (string, bool) {
	if check.Framework == nil {
		if len(frameworks) > 0 {
			return frameworks[0], true
		}
		return "", true
	}
	for _, f := range frameworks {
		if check.Framework.MatchString(f) {
			return f, true
		}
	}
	return "", false
}
