package cli

import (
	"fmt"
	"io"
	"time"
)

// Progress keeps a single status line up to date while a batch command works
// through a known number of items. A nil *Progress prints nothing.
type Progress struct {
	w     io.Writer
	unit  string
	total int64
	done  int64
	start time.Time
}

// NewProgress returns a Progress for total items of unit, or nil when
// enabled is false.
func NewProgress(w io.Writer, unit string, total int64, enabled bool) *Progress {
	if !enabled {
		return nil
	}
	p := &Progress{w: w, unit: unit, total: total, start: time.Now()}
	p.draw("")
	return p
}

// Set records that n items are finished. label names the latest one and may
// be empty.
func (p *Progress) Set(n int64, label string) {
	if p == nil {
		return
	}
	p.done = min(n, p.total)
	p.draw(label)
}

// Done completes the line.
func (p *Progress) Done() {
	if p == nil || p.total <= 0 {
		return
	}
	p.done = p.total
	p.draw("")
	fmt.Fprintln(p.w)
}

// Fail ends the line with err.
func (p *Progress) Fail(err error) {
	if p == nil {
		return
	}
	fmt.Fprintf(p.w, "\n✗ %v\n", err)
}

func (p *Progress) draw(label string) {
	if p.total <= 0 {
		return
	}
	var rate float64
	if s := time.Since(p.start).Seconds(); s > 0 {
		rate = float64(p.done) / s
	}
	fmt.Fprintf(p.w, "\r%d/%d %s (%d%%, %.1f/s)", p.done, p.total, p.unit, p.done*100/p.total, rate)
	if label != "" {
		fmt.Fprintf(p.w, " %s", label)
	}
	// Erase whatever a longer previous label left behind.
	fmt.Fprint(p.w, "\x1b[K")
}
