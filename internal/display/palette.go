// Package display renders resolved prayer days for a terminal.
//
// Styling uses raw ANSI escape codes and is switched off when the output is
// not a terminal or NO_COLOR is set (https://no-color.org/).
package display

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	fgGray = "\033[90m"
)

// Palette applies styles when enabled and passes text through otherwise.
type Palette struct {
	enabled bool
}

// NewPalette picks a palette for w. NO_COLOR wins over FORCE_COLOR, which
// wins over terminal detection.
func NewPalette(w io.Writer) Palette {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return Palette{}
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return Palette{enabled: true}
	}
	f, ok := w.(*os.File)
	if !ok {
		return Palette{}
	}
	return Palette{enabled: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

// Plain returns a palette that never styles.
func Plain() Palette { return Palette{} }

// Colored returns a palette that always styles.
func Colored() Palette { return Palette{enabled: true} }

// Enabled reports whether styles are applied.
func (p Palette) Enabled() bool { return p.enabled }

func (p Palette) wrap(code, text string) string {
	if !p.enabled {
		return text
	}
	return code + text + reset
}

// Bold renders text in bold.
func (p Palette) Bold(text string) string { return p.wrap(bold, text) }

// Dim renders text faint. Used for prayers that have passed.
func (p Palette) Dim(text string) string { return p.wrap(dim, text) }

// Muted renders text in gray.
func (p Palette) Muted(text string) string { return p.wrap(fgGray, text) }

// Accent highlights the next prayer and the current day.
func (p Palette) Accent(text string) string { return p.wrap(bold+cyan, text) }
