package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// SimpleProgress draws a single updating progress line.
type SimpleProgress struct {
	mu      sync.Mutex
	label   string
	unit    string
	total   int64
	current int64
	failed  int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a progress reporter for asset loading that
// writes to w. If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w, label: "Loading", unit: "clips"}
}

func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.failed = 0
	p.started = time.Now()
	p.render()
}

func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(current, p.total)
	p.render()
}

// Finish draws the final state and ends the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Error prints err on its own line and counts it. The bar is redrawn on
// the next update.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	fmt.Fprintf(p.writer, "\n✗ %v\n", err)
}

// Failed returns the number of errors reported.
func (p *SimpleProgress) Failed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *SimpleProgress) render() {
	if p.total <= 0 {
		return
	}

	const barWidth = 30
	percent := float64(p.current) / float64(p.total) * 100
	filled := int(barWidth * p.current / p.total)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %5.1f%% %d/%d %s", p.label, bar, percent, p.current, p.total, p.unit)
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 && p.current > 0 {
		line += fmt.Sprintf(" (%.1f/s)", float64(p.current)/elapsed)
	}
	fmt.Fprint(p.writer, line)
}
