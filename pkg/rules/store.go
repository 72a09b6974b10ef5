package rules

import (
	"fmt"

	"go.uber.org/atomic"
)

// Store owns the live rule snapshot. Reads are lock-free on an atomic
// pointer; Replace validates and swaps the whole snapshot so no reader ever
// observes a partially-updated generation.
type Store struct {
	snap atomic.Pointer[Snapshot]
}

// NewStore validates the initial snapshot and installs it.
func NewStore(initial *Snapshot) (*Store, error) {
	if err := Validate(initial); err != nil {
		return nil, fmt.Errorf("invalid rule snapshot: %w", err)
	}
	s := &Store{}
	s.snap.Store(initial)
	return s, nil
}

// Snapshot returns the current generation. The result is immutable.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Replace validates next and swaps it in atomically. On validation failure
// the current snapshot stays installed and the error names what was wrong.
func (s *Store) Replace(next *Snapshot) error {
	if err := Validate(next); err != nil {
		return err
	}
	s.snap.Store(next)
	return nil
}
