// Package querystate tracks the transient loading and error state of a
// client operation.
//
// Every call begins a new generation with Begin and must settle its Ticket
// on every exit path, normally with a deferred Settle. A ticket from an
// older generation settles silently, so a slow superseded call cannot
// overwrite the state of a newer one.
package querystate

import (
	"sync"

	"github.com/jrsteele09/go-queue-client/internal/errors"
)

// Snapshot is a point in time view of a Tracker.
type Snapshot struct {
	Loading bool
	Err     *errors.Info
}

// Tracker holds the state of one operation.
type Tracker struct {
	mu      sync.Mutex
	gen     uint64
	loading bool
	err     *errors.Info
}

// Ticket identifies one Begin call.
type Ticket struct {
	tracker *Tracker
	gen     uint64
}

// Begin marks the operation loading and clears any previous error.
func (t *Tracker) Begin() Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.loading = true
	t.err = nil
	return Ticket{tracker: t, gen: t.gen}
}

// Settle records the outcome and clears loading. It reports false and
// changes nothing when a newer ticket has been issued.
func (tk Ticket) Settle(err error) bool {
	t := tk.tracker
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.gen != t.gen {
		return false
	}
	t.loading = false
	t.err = errors.InfoOf(err)
	return true
}

// Current reports whether this ticket belongs to the latest Begin.
func (tk Ticket) Current() bool {
	t := tk.tracker
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.gen == t.gen
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Loading: t.loading, Err: t.err}
}

// Set keeps one Tracker per named operation.
type Set struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewSet(ops ...string) *Set {
	s := &Set{trackers: make(map[string]*Tracker, len(ops))}
	for _, op := range ops {
		s.trackers[op] = &Tracker{}
	}
	return s
}

// Tracker returns the tracker for op, creating it on first use.
func (s *Set) Tracker(op string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[op]
	if !ok {
		t = &Tracker{}
		s.trackers[op] = t
	}
	return t
}

func (s *Set) Begin(op string) Ticket {
	return s.Tracker(op).Begin()
}

func (s *Set) Snapshot(op string) Snapshot {
	return s.Tracker(op).Snapshot()
}
