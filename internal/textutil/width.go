// Package textutil measures and fits report text to a terminal width.
// Widths are counted per grapheme cluster, so combining marks, wide CJK
// characters and emoji sequences line up, and ANSI color sequences count
// as zero.
package textutil

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// StripANSI removes SGR and other CSI sequences.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, 0x1b) {
		return s
	}
	return ansiRe.ReplaceAllString(s, "")
}

// VisibleWidth returns the terminal display width of s.
func VisibleWidth(s string) int {
	g := uniseg.NewGraphemes(StripANSI(s))
	width := 0
	for g.Next() {
		width += runewidth.StringWidth(g.Str())
	}
	return width
}

// Truncate shortens plain text s to at most w columns, ending in Ellipsis
// when anything was cut. Graphemes are never split.
func Truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if VisibleWidth(s) <= w {
		return s
	}
	limit := w - runewidth.StringWidth(Ellipsis)
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(StripANSI(s))
	for g.Next() {
		sw := runewidth.StringWidth(g.Str())
		if used+sw > limit {
			break
		}
		b.WriteString(g.Str())
		used += sw
	}
	if limit < 0 {
		return ""
	}
	return b.String() + Ellipsis
}

// Wrap breaks plain text into lines of at most w columns at spaces. Words
// wider than w are truncated. A non-positive w returns s as one line.
func Wrap(s string, w int) []string {
	words := strings.Fields(s)
	if w <= 0 || VisibleWidth(s) <= w {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	var cur strings.Builder
	curW := 0
	for _, word := range words {
		ww := VisibleWidth(word)
		if ww > w {
			word = Truncate(word, w)
			ww = VisibleWidth(word)
		}
		switch {
		case curW == 0:
		case curW+1+ww <= w:
			cur.WriteByte(' ')
			curW++
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteString(word)
		curW += ww
	}
	if curW > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// PadRight pads s with spaces to a visible width of w.
func PadRight(s string, w int) string {
	if pad := w - VisibleWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
