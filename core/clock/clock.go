// Package clock provides the time source used for occupancy timestamps,
// observed call times and delay computation. Simulated operation runs on an
// accelerated clock.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current operational time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Accelerated maps wall time onto an operational timeline starting at Origin
// and running Factor times faster than real time.
type Accelerated struct {
	origin  time.Time
	started time.Time
	factor  float64
	wall    func() time.Time
}

// NewAccelerated starts an accelerated clock now. A factor <= 0 is treated as 1.
func NewAccelerated(origin time.Time, factor float64) *Accelerated {
	return newAccelerated(origin, factor, time.Now)
}

func newAccelerated(origin time.Time, factor float64, wall func() time.Time) *Accelerated {
	if factor <= 0 {
		factor = 1
	}
	return &Accelerated{origin: origin, started: wall(), factor: factor, wall: wall}
}

func (a *Accelerated) Now() time.Time {
	elapsed := a.wall().Sub(a.started)
	return a.origin.Add(time.Duration(float64(elapsed) * a.factor))
}

// Manual is a clock that only moves when told to. Used by tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual { return &Manual{now: t} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set jumps to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
