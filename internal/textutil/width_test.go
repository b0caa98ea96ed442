package textutil

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func eastAsianNarrow(t *testing.T) {
	t.Helper()
	prev := runewidth.DefaultCondition.EastAsianWidth
	runewidth.DefaultCondition.EastAsianWidth = false
	t.Cleanup(func() { runewidth.DefaultCondition.EastAsianWidth = prev })
}

func TestVisibleWidth(t *testing.T) {
	eastAsianNarrow(t)
	cases := []struct {
		name string
		s    string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "Program.cs", 10},
		{"wide", "日本語", 6},
		{"combining", "é", 1},
		{"ansi", "\x1b[31m[HIGH]\x1b[0m", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VisibleWidth(tc.s); got != tc.want {
				t.Errorf("VisibleWidth(%q) = %d, want %d", tc.s, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	eastAsianNarrow(t)
	cases := []struct {
		s    string
		w    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"Services/OrderService.cs", 10, "Services/…"},
		{"日本語テキスト", 7, "日本語…"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		got := Truncate(tc.s, tc.w)
		if got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.s, tc.w, got, tc.want)
		}
		if VisibleWidth(got) > tc.w {
			t.Errorf("Truncate(%q, %d) width %d exceeds limit", tc.s, tc.w, VisibleWidth(got))
		}
	}
}

func TestWrap(t *testing.T) {
	eastAsianNarrow(t)
	msg := "Blocking on asynchronous work risks deadlocks and starves the thread pool"
	lines := Wrap(msg, 20)
	if len(lines) < 2 {
		t.Fatalf("expected several lines, got %q", lines)
	}
	for _, l := range lines {
		if VisibleWidth(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if got := strings.Join(lines, " "); got != msg {
		t.Errorf("rejoined = %q", got)
	}

	if got := Wrap("fits", 0); len(got) != 1 || got[0] != "fits" {
		t.Errorf("Wrap with no width = %q", got)
	}
	if got := Wrap("aVeryLongIdentifierName", 8); len(got) != 1 || VisibleWidth(got[0]) > 8 {
		t.Errorf("long word = %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("PadRight should not cut, got %q", got)
	}
}
