// Package termcolor decides whether report output is colored and applies
// SGR styles to severity labels.
package termcolor

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode is the user's color preference.
type Mode int

const (
	ModeAuto Mode = iota
	ModeAlways
	ModeNever
)

func (m Mode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseMode accepts auto, always or never. Empty means auto.
func ParseMode(v string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return ModeAuto, nil
	case "always":
		return ModeAlways, nil
	case "never":
		return ModeNever, nil
	default:
		return ModeAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", v)
	}
}

// Enabled resolves mode for output going to out. In auto mode the
// environment is consulted first (TERM=dumb, NO_COLOR and CLICOLOR=0
// disable; CLICOLOR_FORCE or FORCE_COLOR force), then whether out is a
// terminal.
func Enabled(mode Mode, out *os.File, getenv func(string) string) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if strings.EqualFold(strings.TrimSpace(getenv("TERM")), "dumb") {
		return false
	}
	if getenv("NO_COLOR") != "" || strings.TrimSpace(getenv("CLICOLOR")) == "0" {
		return false
	}
	for _, key := range []string{"CLICOLOR_FORCE", "FORCE_COLOR"} {
		if v := strings.TrimSpace(getenv(key)); v != "" && v != "0" {
			return true
		}
	}
	return out != nil && term.IsTerminal(int(out.Fd()))
}

// Width returns the column count of out when it is a terminal, or 0.
func Width(out *os.File) int {
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(out.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Style is a set of SGR attributes.
type Style struct {
	Bold bool
	Dim  bool
	// FG is a basic foreground color 0-7, or -1 for none.
	FG int
}

const (
	Red     = 1
	Yellow  = 3
	Blue    = 4
	Cyan    = 6
	noColor = -1
)

var (
	StyleHigh   = Style{Bold: true, FG: Red}
	StyleMedium = Style{FG: Yellow}
	StyleLow    = Style{FG: Cyan}
	StyleHeader = Style{Bold: true, FG: noColor}
	StyleDim    = Style{Dim: true, FG: noColor}
)

// Apply wraps text in the style's escape sequence when enabled.
func Apply(s Style, text string, enabled bool) string {
	if !enabled || text == "" {
		return text
	}
	var codes []string
	if s.Bold {
		codes = append(codes, "1")
	}
	if s.Dim {
		codes = append(codes, "2")
	}
	if s.FG >= 0 && s.FG <= 7 {
		codes = append(codes, fmt.Sprintf("3%d", s.FG))
	}
	if len(codes) == 0 {
		return text
	}
	return "\x1b[" + strings.Join(codes, ";") + "m" + text + "\x1b[0m"
}
