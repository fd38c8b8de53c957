package host

import (
	"fmt"
	"sync"
	"time"
)

// Diagnostics is the append-only record of frame-creation failures. It is
// purely observational: nothing consults it for control flow, and it never
// clears automatically.
type Diagnostics struct {
	mu      sync.Mutex
	entries []string
}

// NewDiagnostics creates an empty diagnostics log.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Append records one failure message with a timestamp prefix.
func (d *Diagnostics) Append(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.mu.Lock()
	d.entries = append(d.entries, fmt.Sprintf("%s %s", time.Now().Format(time.RFC3339), msg))
	d.mu.Unlock()
}

// Entries returns a copy of the recorded messages in append order.
func (d *Diagnostics) Entries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of recorded messages.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
