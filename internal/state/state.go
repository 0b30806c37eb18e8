package state

import (
	"context"
	"errors"
	"sync"
)

// ErrUnchanged may be returned by an Update callback that made no change.
// Update then returns nil without scheduling persistence.
var ErrUnchanged = errors.New("state unchanged")

// State serialises access to the snapshot. Mutations run under one lock and
// schedule an asynchronous save when they succeed.
type State struct {
	mu       sync.RWMutex
	snap     *Snapshot
	onChange func()
}

// New wraps a snapshot. A nil snapshot starts from the first-boot defaults.
func New(snap *Snapshot) *State {
	if snap == nil {
		snap = NewSnapshot()
	}
	return &State{snap: snap}
}

// OnChange registers the hook invoked after every successful mutation.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Update runs fn with exclusive access. A non-nil error other than
// ErrUnchanged is returned as-is; fn must not leave partial changes behind
// when it fails.
func (s *State) Update(ctx context.Context, fn func(*Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	err := fn(s.snap)
	hook := s.onChange
	s.mu.Unlock()

	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return nil
}

// View runs fn with shared read access. fn must not retain or mutate the snapshot.
func (s *State) View(fn func(*Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.snap)
}

// Encode serialises the current snapshot.
func (s *State) Encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Encode(s.snap)
}
