// Package clock provides Clock implementations.
package clock

import (
	"sync/atomic"
	"time"
)

// Real reads the system clock.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a controllable clock for tests. The zero value starts at the
// Unix epoch.
type Fake struct {
	nanos atomic.Int64
}

// NewFake creates a fake clock set to t.
func NewFake(t time.Time) *Fake {
	f := &Fake{}
	f.nanos.Store(t.UnixNano())
	return f
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	return time.Unix(0, f.nanos.Load())
}

// Set moves the fake clock to t.
func (f *Fake) Set(t time.Time) {
	f.nanos.Store(t.UnixNano())
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.nanos.Add(int64(d))
}
