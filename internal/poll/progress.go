package poll

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Tick describes one non-terminal iteration.
type Tick struct {
	Poll    int           // 1-based fetch count
	Status  string        // formatted snapshot
	Elapsed time.Duration // since the first fetch
	Since   time.Duration // since Status last changed
}

// Reporter receives progress ticks. Implementations must not block for long;
// the spinner calls Report synchronously between fetches.
type Reporter interface {
	Report(Tick)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Tick)

func (f ReporterFunc) Report(t Tick) { f(t) }

type discard struct{}

func (discard) Report(Tick) {}

var spinnerGlyphs = [...]string{"/", "-", "\\", "|"}

// LineReporter writes one line per tick:
//
//	/ Status: CREATE IN_PROGRESS [Since: 2m30s]
type LineReporter struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewLineReporter writes plain lines to w. A nil w discards output.
func NewLineReporter(w io.Writer) *LineReporter {
	if w == nil {
		w = io.Discard
	}
	return &LineReporter{w: w}
}

// WithColor enables colored glyphs and status text. fatih/color still
// honours NO_COLOR and non-terminal output.
func (r *LineReporter) WithColor(enabled bool) *LineReporter {
	r.color = enabled
	return r
}

func (r *LineReporter) Report(t Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()

	glyph := spinnerGlyphs[(t.Poll-1+len(spinnerGlyphs))%len(spinnerGlyphs)]
	status := t.Status
	if r.color {
		glyph = color.CyanString(glyph)
		status = color.YellowString(status)
	}
	fmt.Fprintf(r.w, "%s Status: %s [Since: %s]\n", glyph, status, t.Since.Truncate(time.Second))
}
