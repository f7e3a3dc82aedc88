// Package expiry owns the single timer that tears a session down when its
// access token expires.
package expiry

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Scheduler holds at most one armed timer. Arm always cancels the previous
// timer first. Each arm gets a generation number and a callback only runs
// while its generation is current, so a timer whose Stop lost the race
// with its own firing still never calls into a superseded session.
type Scheduler struct {
	mu        sync.Mutex
	gen       uint64
	timer     Timer
	deadline  time.Time
	nowFunc   func() time.Time
	afterFunc AfterFunc
}

type Option func(*Scheduler)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.nowFunc = now
	}
}

func WithAfterFunc(after AfterFunc) Option {
	return func(s *Scheduler) {
		s.afterFunc = after
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{}
	for _, opt := range opts {
		opt(s)
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	if s.afterFunc == nil {
		s.afterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}
	return s
}

// Arm cancels any armed timer and schedules fn at the given instant. An
// instant in the past fires as soon as possible.
func (s *Scheduler) Arm(at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen

	delay := at.Sub(s.nowFunc())
	if delay < 0 {
		delay = 0
	}
	s.deadline = at
	s.timer = s.afterFunc(delay, func() { s.fire(gen, fn) })
}

// Cancel disarms the scheduler. Safe to call when nothing is armed.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
}

// Armed reports whether a timer is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Deadline returns the instant the pending timer fires at.
func (s *Scheduler) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}, false
	}
	return s.deadline, true
}

func (s *Scheduler) fire(gen uint64, fn func()) {
	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.deadline = time.Time{}
	s.mu.Unlock()

	fn()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}
