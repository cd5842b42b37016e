package report

import "io"

// NewInteractiveProgressLine creates a progress line that renders as on a terminal.
var NewInteractiveProgressLine = func(w io.Writer) *ProgressLine {
	return newProgressLine(w, true)
}
