// Package counter provides the shared counter variants the experiment runs
// against: the deliberately racy one, and two corrected implementations.
//
// The counter is always passed explicitly to whoever mutates it — there is no
// package-level shared state, so the sharing relationship is visible at every
// call site.
package counter

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind selects a counter implementation.
type Kind string

const (
	KindRacy   Kind = "racy"
	KindAtomic Kind = "atomic"
	KindMutex  Kind = "mutex"
)

// Counter is a shared integer counter.
type Counter interface {
	Inc()
	Value() int64
}

// New returns a zeroed counter of the given kind.
func New(kind Kind) (Counter, error) {
	switch kind {
	case KindRacy:
		return &Racy{}, nil
	case KindAtomic:
		return &Atomic{}, nil
	case KindMutex:
		return &Mutex{}, nil
	default:
		return nil, fmt.Errorf("unknown counter kind %q (want racy, atomic, or mutex)", kind)
	}
}

// Racy is the subject under test: Inc is a plain read-increment-write with no
// synchronization. Two concurrent Incs can interleave so that one update is
// overwritten without effect (a lost update), so after N workers × K
// increments the value may be anything up to N×K.
//
// Value is only meaningful once all writers have been joined; until then any
// read races with the writers.
type Racy struct {
	n int64
}

func (c *Racy) Inc() {
	// Kept as an explicit read-modify-write: another Inc may land between
	// the read and the write, and this write then discards it.
	v := c.n
	c.n = v + 1
}

func (c *Racy) Value() int64 {
	return c.n
}

// Atomic is the corrected variant using a fetch-and-add. Every increment
// takes effect, so the final value is exactly N×K.
type Atomic struct {
	n atomic.Int64
}

func (c *Atomic) Inc() {
	c.n.Add(1)
}

func (c *Atomic) Value() int64 {
	return c.n.Load()
}

// Mutex is the corrected variant using a mutex-guarded critical section.
type Mutex struct {
	mu sync.Mutex
	n  int64
}

func (c *Mutex) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *Mutex) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
