package review

import (
	"regexp"
	"strings"
)

var (
	iterationRe   = regexp.MustCompile(`^\s*(?:for|foreach|while|do)\b`)
	doWhileTailRe = regexp.MustCompile(`^\s*while\s*\(.*\)\s*;\s*$`)
)

// LineState is what the tracker knows about one line.
type LineState struct {
	// Depth is the number of iteration constructs enclosing the line. A loop
	// header reports the depth outside its own loop unless the line also
	// carries body code, as in "foreach (var x in xs) { Save(x); }".
	Depth int
	// Comment is true when the line holds nothing but comment text.
	Comment bool
}

type loopFrame struct {
	level   int  // brace depth when the header was seen
	entered bool // a '{' opened the body
	body    bool // a body line has been seen (brace-less bodies)
}

// Tracker approximates iteration nesting depth by counting braces line by
// line. It understands braced and single-statement loop bodies, skips string
// and character literals and comments, and nothing else: multi-line headers,
// preprocessor branches and lambdas can make it drift.
type Tracker struct {
	braces  int
	frames  []loopFrame
	inBlock bool
}

// Depth returns the current iteration depth.
func (t *Tracker) Depth() int {
	return len(t.frames)
}

// Next consumes one physical line and returns the state that applies to it.
func (t *Tracker) Next(line string) LineState {
	code := t.strip(line)
	trimmed := strings.TrimSpace(code)
	state := LineState{
		Depth:   len(t.frames),
		Comment: trimmed == "" && strings.TrimSpace(line) != "",
	}
	if trimmed == "" {
		return state
	}

	header := iterationRe.MatchString(code) && !doWhileTailRe.MatchString(code)

	if n := len(t.frames); n > 0 && !t.frames[n-1].entered {
		if strings.HasPrefix(trimmed, "{") {
			t.frames[n-1].entered = true
		} else {
			t.frames[n-1].body = true
		}
	}
	if header {
		t.frames = append(t.frames, loopFrame{level: t.braces})
		if inlineBody(trimmed) {
			state.Depth++
		}
	}

	opens := strings.Count(code, "{")
	t.braces += opens - strings.Count(code, "}")
	if t.braces < 0 {
		t.braces = 0
	}
	if header {
		top := &t.frames[len(t.frames)-1]
		switch {
		case opens > 0:
			top.entered = true
		case strings.HasSuffix(trimmed, ";"):
			// while (x) Step(); carries its body on the header line
			top.body = true
		}
	}

	t.settle(strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}"))
	return state
}

// settle pops loops whose body has ended. Closing a loop completes the
// statement of a brace-less parent loop, so the pop cascades.
func (t *Tracker) settle(endsStatement bool) {
	for len(t.frames) > 0 {
		top := t.frames[len(t.frames)-1]
		switch {
		case top.entered && t.braces <= top.level:
		case !top.entered && top.body && endsStatement:
		default:
			return
		}
		t.frames = t.frames[:len(t.frames)-1]
		endsStatement = true
	}
}

// inlineBody reports whether a loop header line holds a statement after its
// condition. code has literals and comments already stripped.
func inlineBody(code string) bool {
	rest := strings.TrimSpace(code[len(iterationRe.FindString(code)):])
	if strings.HasPrefix(rest, "(") {
		open := 0
		end := -1
		for i := 0; i < len(rest) && end < 0; i++ {
			switch rest[i] {
			case '(':
				open++
			case ')':
				open--
				if open == 0 {
					end = i
				}
			}
		}
		if end < 0 {
			return false
		}
		rest = rest[end+1:]
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "{"))
	rest = strings.TrimSpace(strings.TrimRight(rest, "} \t"))
	return rest != "" && rest != ";"
}

// strip blanks out comments and the contents of string and character
// literals so braces inside them are not counted.
func (t *Tracker) strip(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if t.inBlock {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				t.inBlock = false
				i++
			}
			continue
		}
		switch {
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return b.String()
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			t.inBlock = true
			i++
		case c == '"':
			verbatim := i > 0 && line[i-1] == '@' || i > 1 && line[i-1] == '$' && line[i-2] == '@'
			i = skipString(line, i+1, verbatim)
			b.WriteString(`""`)
		case c == '\'':
			i = skipChar(line, i+1)
			b.WriteString(`''`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// skipString returns the index of the closing quote of a string literal
// starting at i, or the last index of the line if it is unterminated.
func skipString(line string, i int, verbatim bool) int {
	for ; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if !verbatim {
				i++
			}
		case '"':
			if verbatim && i+1 < len(line) && line[i+1] == '"' {
				i++
				continue
			}
			return i
		}
	}
	return len(line) - 1
}

func skipChar(line string, i int) int {
	for ; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\'':
			return i
		}
	}
	return len(line) - 1
}
