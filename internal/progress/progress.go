// Package progress reports terminal progress for one phase of a pyramid
// build: leaf rasterization, leaf background fill, or one level of
// bottom-up node synthesis (spec.md §5's three phases). Unlike a flat
// tile count, a phase here distinguishes nodes that were actually
// emitted (a tile written to disk) from nodes that were merely handled
// without producing one — a leaf with no points in its column, or a
// parent whose four children were all absent — since both advance the
// bar but only one leaves a file behind.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bar renders a refreshing terminal progress bar for one phase. Emit and
// Skip are both safe for concurrent use from multiple worker goroutines.
type Bar struct {
	total   int64
	emitted atomic.Int64
	skipped atomic.Int64
	label   string
	width   int
	start   time.Time
	done    chan struct{}
	mu      sync.Mutex
}

// New starts a bar titled label, tracking total nodes handled in this
// phase.
func New(label string, total int64) *Bar {
	b := &Bar{
		total: total,
		label: label,
		width: 30,
		start: time.Now(),
		done:  make(chan struct{}),
	}
	go b.loop()
	return b
}

// Emit records one node that produced a tile on disk.
func (b *Bar) Emit() { b.emitted.Add(1) }

// Skip records one node handled without producing a tile (no points in
// a leaf's column, or no present children for a parent).
func (b *Bar) Skip() { b.skipped.Add(1) }

// Increment records one handled node without distinguishing emitted from
// skipped, for phases where every node always produces output (leaf
// background fill rewrites every emitted leaf in place).
func (b *Bar) Increment() { b.emitted.Add(1) }

// Finish stops the refresh loop and prints the final bar state, with
// counts of how many nodes were emitted versus skipped.
func (b *Bar) Finish() {
	close(b.done)
	b.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (b *Bar) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.draw()
		}
	}
}

func (b *Bar) draw() {
	b.mu.Lock()
	defer b.mu.Unlock()

	emitted, skipped := b.emitted.Load(), b.skipped.Load()
	handled := emitted + skipped

	var frac float64
	if b.total > 0 {
		frac = float64(handled) / float64(b.total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(b.width) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.width-filled)
	elapsed := time.Since(b.start)

	fmt.Fprintf(os.Stderr, "\r%s [%s] %3.0f%%  %d emitted, %d skipped / %d  %s ETA %s\033[K",
		b.label, bar, frac*100, emitted, skipped, b.total, formatDuration(elapsed), eta(handled, b.total, elapsed))
}

// eta estimates remaining time from the rate observed so far, or "-" once
// the phase is effectively done or hasn't handled anything yet.
func eta(handled, total int64, elapsed time.Duration) string {
	if handled <= 0 || handled >= total {
		return "-"
	}
	perNode := elapsed / time.Duration(handled)
	remaining := perNode * time.Duration(total-handled)
	return formatDuration(remaining)
}

// formatDuration formats a duration concisely (e.g. "1m23s", "45s", "0s").
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
