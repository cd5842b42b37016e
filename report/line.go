package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// ProgressLine renders status updates in place on a single terminal line.
//
// On a non-terminal writer intermediate updates are suppressed and the last
// status is printed once on Close.
type ProgressLine struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	last        string
	width       int
	closed      bool
}

// NewProgressLine creates a progress line on w.
func NewProgressLine(w io.Writer) *ProgressLine {
	return newProgressLine(w, IsTerminal(w))
}

func newProgressLine(w io.Writer, interactive bool) *ProgressLine {
	return &ProgressLine{
		w:           w,
		interactive: interactive,
	}
}

// IsTerminal checks if w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Update replaces current status.
func (p *ProgressLine) Update(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.last = status

	if !p.interactive {
		return
	}

	width := runewidth.StringWidth(StripANSI(status))
	pad := ""

	if p.width > width {
		pad = strings.Repeat(" ", p.width-width)
	}

	p.width = width

	_, _ = fmt.Fprint(p.w, "\r"+status+pad)
}

// Discard drops pending status of a failed run, a rendered line is only terminated.
// Subsequent updates and Close are ignored.
func (p *ProgressLine) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = ""
	p.finish()
}

// Close finalizes the line, subsequent updates are ignored.
func (p *ProgressLine) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finish()
}

func (p *ProgressLine) finish() {
	if p.closed {
		return
	}

	p.closed = true

	switch {
	case p.interactive && p.width > 0:
		_, _ = fmt.Fprintln(p.w)
	case !p.interactive && p.last != "":
		_, _ = fmt.Fprintln(p.w, p.last)
	}
}
