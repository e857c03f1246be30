// Package values holds the runtime values a resolution pass reads and
// writes: named scalars plus the raw indexed arrays (D, L, P, PL). The
// store is owned by the control flow that runs resolution passes; anything
// that only displays values works from an immutable Snapshot instead, so a
// pass can never tear a concurrent reader.
package values

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is the mutable value state. Names are case-folded on every access.
type Store struct {
	mu      sync.RWMutex
	scalars map[string]float64
	arrays  map[string][]float64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		scalars: make(map[string]float64),
		arrays:  make(map[string][]float64),
	}
}

func canon(name string) string {
	return strings.ToUpper(name)
}

// SetScalar stores a named scalar value.
func (s *Store) SetScalar(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scalars[canon(name)] = v
}

// Scalar returns a named scalar value. This is part of the evaluation
// value-lookup contract.
func (s *Store) Scalar(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scalars[canon(name)]
	return v, ok
}

// SetArray replaces a raw array wholesale. The slice is copied.
func (s *Store) SetArray(root string, vals []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]float64, len(vals))
	copy(cp, vals)
	s.arrays[canon(root)] = cp
}

// Array returns a copy of a raw array. Part of the evaluation value-lookup
// contract.
func (s *Store) Array(root string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.arrays[canon(root)]
	if !ok {
		return nil, false
	}
	cp := make([]float64, len(arr))
	copy(cp, arr)
	return cp, true
}

// SetSlot writes one slot of a raw array, growing the array with zeros if
// the index lies past its current end.
func (s *Store) SetSlot(root string, idx int, v float64) error {
	if idx < 0 {
		return fmt.Errorf("values: negative array index %d for %s", idx, canon(root))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := canon(root)
	arr := s.arrays[key]
	for len(arr) <= idx {
		arr = append(arr, 0)
	}
	arr[idx] = v
	s.arrays[key] = arr
	return nil
}

// Slot reads one slot of a raw array.
func (s *Store) Slot(root string, idx int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.arrays[canon(root)]
	if !ok || idx < 0 || idx >= len(arr) {
		return 0, false
	}
	return arr[idx], true
}

// Snapshot returns an immutable copy of the current state for display
// layers and other concurrent readers.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		scalars: make(map[string]float64, len(s.scalars)),
		arrays:  make(map[string][]float64, len(s.arrays)),
	}
	for k, v := range s.scalars {
		snap.scalars[k] = v
	}
	for k, arr := range s.arrays {
		cp := make([]float64, len(arr))
		copy(cp, arr)
		snap.arrays[k] = cp
	}
	return snap
}

// Snapshot is a point-in-time, read-only view of a Store.
type Snapshot struct {
	scalars map[string]float64
	arrays  map[string][]float64
}

// Scalar returns a named scalar value from the snapshot.
func (s *Snapshot) Scalar(name string) (float64, bool) {
	v, ok := s.scalars[canon(name)]
	return v, ok
}

// Array returns a copy of a raw array from the snapshot.
func (s *Snapshot) Array(root string) ([]float64, bool) {
	arr, ok := s.arrays[canon(root)]
	if !ok {
		return nil, false
	}
	cp := make([]float64, len(arr))
	copy(cp, arr)
	return cp, true
}

// ScalarNames returns the snapshot's scalar names, sorted.
func (s *Snapshot) ScalarNames() []string {
	out := make([]string, 0, len(s.scalars))
	for k := range s.scalars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
