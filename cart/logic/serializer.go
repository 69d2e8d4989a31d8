package logic

import (
	"context"
	"sync"
)

// MutationState is the busy state shared by every mutation on a cart page.
type MutationState int

const (
	Idle MutationState = iota
	Busy
)

func (s MutationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// TransitionFunc observes serializer state changes.
type TransitionFunc func(from, to MutationState)

// Serializer allows one cart mutation at a time across the whole page. It is
// a single lock for all items, not one lock per item.
type Serializer struct {
	mu        sync.Mutex
	state     MutationState
	observers []TransitionFunc
}

func NewSerializer() *Serializer {
	return &Serializer{}
}

// Observe registers fn to be called on every transition, outside the lock.
func (s *Serializer) Observe(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Serializer) State() MutationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Serializer) Busy() bool {
	return s.State() == Busy
}

// Run enters Busy, runs op and returns to Idle on every exit path, panics
// included. A Run issued while Busy is refused with ErrMutationInProgress and
// op is not called.
func (s *Serializer) Run(ctx context.Context, op func(context.Context) error) error {
	if !s.acquire() {
		return ErrMutationInProgress
	}
	defer s.release()
	return op(ctx)
}

func (s *Serializer) acquire() bool {
	s.mu.Lock()
	if s.state == Busy {
		s.mu.Unlock()
		return false
	}
	s.state = Busy
	observers := s.observers
	s.mu.Unlock()

	notify(observers, Idle, Busy)
	return true
}

func (s *Serializer) release() {
	s.mu.Lock()
	s.state = Idle
	observers := s.observers
	s.mu.Unlock()

	notify(observers, Busy, Idle)
}

func notify(observers []TransitionFunc, from, to MutationState) {
	for _, fn := range observers {
		fn(from, to)
	}
}
