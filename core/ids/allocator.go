// Package ids issues unique entity identifiers.
package ids

import "sync/atomic"

// Allocator hands out monotonically increasing ids. It is safe for concurrent
// use. The zero value starts at 1.
type Allocator struct {
	last atomic.Int64
}

// NewAllocator returns an allocator whose first id is start+1.
func NewAllocator(start int64) *Allocator {
	a := &Allocator{}
	a.last.Store(start)
	return a
}

// Next returns a fresh id.
func (a *Allocator) Next() int64 { return a.last.Add(1) }

// Observe records an id issued elsewhere (for example restored from a
// snapshot) so that Next never returns it again.
func (a *Allocator) Observe(id int64) {
	for {
		cur := a.last.Load()
		if id <= cur || a.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

// Last returns the most recently issued or observed id.
func (a *Allocator) Last() int64 { return a.last.Load() }
