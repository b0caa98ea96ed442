package review

import (
	"regexp"
	"strconv"
	"strings"
)

// Input is the text a predicate is evaluated against. For whole-file rules
// Text is the full file body; for per-line rules it is one line and Depth is
// the iteration depth the structural tracker reported for that line.
type Input struct {
	Text  string
	Depth int
}

// Hit describes a predicate satisfaction.
// Line is relative to Input.Text (1-based) and zero when not meaningful.
type Hit struct {
	Line    int
	Context string
	Values  map[string]string
}

// Predicate is a pure test over an Input. Implementations must not keep state
// between calls; the same input always yields the same result.
type Predicate interface {
	Match(in Input) (Hit, bool)
}

// WholeFileContains holds when Pattern matches anywhere in the text.
// The hit points at the line of the first match.
type WholeFileContains struct {
	Pattern *regexp.Regexp
}

// Contains builds a WholeFileContains predicate from a pattern literal.
func Contains(pattern string) WholeFileContains {
	return WholeFileContains{Pattern: regexp.MustCompile(pattern)}
}

func (p WholeFileContains) Match(in Input) (Hit, bool) {
	loc := p.Pattern.FindStringIndex(in.Text)
	if loc == nil {
		return Hit{}, false
	}
	return Hit{
		Line:    strings.Count(in.Text[:loc[0]], "\n") + 1,
		Context: strings.TrimSpace(in.Text[loc[0]:loc[1]]),
	}, true
}

// LineMatches holds when Pattern matches the line and Escape (if set) does
// not. Escape expresses "this line is the sanctioned form", e.g. a using
// statement around a disposable.
//
// The hit's Context is the first non-empty capture group, or the whole match
// when the pattern has none. The whitespace-collapsed line is exposed as the
// "statement" value.
type LineMatches struct {
	Pattern *regexp.Regexp
	Escape  *regexp.Regexp
}

// Line builds a LineMatches predicate. An empty escape means none.
func Line(pattern, escape string) LineMatches {
	p := LineMatches{Pattern: regexp.MustCompile(pattern)}
	if escape != "" {
		p.Escape = regexp.MustCompile(escape)
	}
	return p
}

func (p LineMatches) Match(in Input) (Hit, bool) {
	if p.Escape != nil && p.Escape.MatchString(in.Text) {
		return Hit{}, false
	}
	loc := p.Pattern.FindStringSubmatchIndex(in.Text)
	if loc == nil {
		return Hit{}, false
	}
	ctx := in.Text[loc[0]:loc[1]]
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 && loc[i+1] > loc[i] {
			ctx = in.Text[loc[i]:loc[i+1]]
			break
		}
	}
	return Hit{
		Line:    1,
		Context: strings.TrimSpace(ctx),
		Values:  map[string]string{"statement": strings.Join(strings.Fields(in.Text), " ")},
	}, true
}

// CountComparison counts non-overlapping matches of Left and Right and holds
// when Left outnumbers Right. With no Right pattern, Left is compared against
// Threshold instead. The counts are exposed as the "left" and "right" values.
type CountComparison struct {
	Left      *regexp.Regexp
	Right     *regexp.Regexp
	Threshold int
}

// CountExceeds holds when left occurs more often than right.
func CountExceeds(left, right string) CountComparison {
	return CountComparison{
		Left:  regexp.MustCompile(left),
		Right: regexp.MustCompile(right),
	}
}

// CountAbove holds when pattern occurs more than n times.
func CountAbove(pattern string, n int) CountComparison {
	return CountComparison{Left: regexp.MustCompile(pattern), Threshold: n}
}

func (p CountComparison) Match(in Input) (Hit, bool) {
	left := len(p.Left.FindAllStringIndex(in.Text, -1))
	right := p.Threshold
	if p.Right != nil {
		right = len(p.Right.FindAllStringIndex(in.Text, -1))
	}
	if left <= right {
		return Hit{}, false
	}
	return Hit{
		Values: map[string]string{
			"left":  strconv.Itoa(left),
			"right": strconv.Itoa(right),
		},
	}, true
}

// ContextGated wraps a line predicate so it only holds inside an iteration
// construct (depth >= MinDepth, default 1) and only when Escape does not
// match the line.
type ContextGated struct {
	Inner    Predicate
	Escape   *regexp.Regexp
	MinDepth int
}

// InLoop gates inner on iteration depth with an optional escape pattern.
func InLoop(inner Predicate, escape string) ContextGated {
	p := ContextGated{Inner: inner, MinDepth: 1}
	if escape != "" {
		p.Escape = regexp.MustCompile(escape)
	}
	return p
}

func (p ContextGated) Match(in Input) (Hit, bool) {
	min := p.MinDepth
	if min < 1 {
		min = 1
	}
	if in.Depth < min {
		return Hit{}, false
	}
	if p.Escape != nil && p.Escape.MatchString(in.Text) {
		return Hit{}, false
	}
	hit, ok := p.Inner.Match(in)
	if !ok {
		return Hit{}, false
	}
	if hit.Values == nil {
		hit.Values = map[string]string{}
	}
	hit.Values["depth"] = strconv.Itoa(in.Depth)
	return hit, true
}
