// Package intern implements a hash set of shared, reference-counted values.
// Equal values resolve to one canonical Handle, so callers that would
// otherwise store many copies of identical data share a single allocation.
//
// Go's garbage collector exposes no live-holder count, so holders are
// tracked explicitly: the set owns one reference per stored handle, and
// every other holder pairs Retain with Release. Cleanup is eventual - a
// handle stays in the set until only the set holds it AND one of the
// remove methods observes that.
package intern

import "sync/atomic"

// Handle is a canonical shared instance of an interned value. The value
// must be treated as immutable: mutating it would desynchronize it from its
// position in the owning set.
type Handle[V any] struct {
	val  V
	refs atomic.Int64
}

func newHandle[V any](val V) *Handle[V] {
	h := &Handle[V]{val: val}
	h.refs.Store(1) // the owning set's reference
	return h
}

func (h *Handle[V]) Value() V { return h.val }

// Retain records an additional holder and returns h for chaining.
func (h *Handle[V]) Retain() *Handle[V] {
	h.refs.Add(1)
	return h
}

// Release drops one holder and returns the remaining count. A result of 1
// means the owning set is the sole holder left.
func (h *Handle[V]) Release() int64 { return h.refs.Add(-1) }

// Refs returns the current holder count, including the owning set.
func (h *Handle[V]) Refs() int64 { return h.refs.Load() }

// Set deduplicates values by content. Like the rest of the toolkit it
// follows single-owner mutation discipline: one writer at a time. Refcount
// checks in RemoveIfUnused and RemoveUnreferenced happen under the caller's
// exclusive access, so check-then-remove cannot race with another removal.
type Set[V any] struct {
	hasher  Hasher[V]
	buckets map[uint64][]*Handle[V]
	n       int
}

// New returns an empty Set. The hasher is required; a nil hasher is a
// programming error and panics.
func New[V any](hasher Hasher[V]) *Set[V] {
	return NewWithCapacity(hasher, 0)
}

// NewWithCapacity returns an empty Set sized for about capacity values.
func NewWithCapacity[V any](hasher Hasher[V], capacity int) *Set[V] {
	if hasher == nil {
		panic("intern: hasher is required")
	}
	return &Set[V]{
		hasher:  hasher,
		buckets: make(map[uint64][]*Handle[V], capacity),
	}
}

func (s *Set[V]) Len() int { return s.n }

// Get returns the canonical handle equal to v, if any.
func (s *Set[V]) Get(v V) (*Handle[V], bool) {
	for _, h := range s.buckets[s.hasher.Hash(v)] {
		if s.hasher.Equal(h.val, v) {
			return h, true
		}
	}
	return nil, false
}

// GetOrInit returns the canonical handle equal to v, storing v as a new
// handle when no equal value is interned yet. The returned handle is still
// owned by the set; callers that keep it past the next mutation of the set
// must Retain it.
func (s *Set[V]) GetOrInit(v V) *Handle[V] {
	key := s.hasher.Hash(v)
	for _, h := range s.buckets[key] {
		if s.hasher.Equal(h.val, v) {
			return h
		}
	}
	h := newHandle(v)
	s.buckets[key] = append(s.buckets[key], h)
	s.n++
	return h
}

// Remove unconditionally deletes the handle equal to v from the set.
// External holders keep the handle itself alive; it just stops being
// canonical.
func (s *Set[V]) Remove(v V) bool {
	key := s.hasher.Hash(v)
	for i, h := range s.buckets[key] {
		if s.hasher.Equal(h.val, v) {
			s.deleteAt(key, i)
			return true
		}
	}
	return false
}

// RemoveIfUnused deletes the handle equal to v only when the set is its sole
// remaining holder.
func (s *Set[V]) RemoveIfUnused(v V) bool {
	key := s.hasher.Hash(v)
	for i, h := range s.buckets[key] {
		if s.hasher.Equal(h.val, v) {
			if h.Refs() != 1 {
				return false
			}
			s.deleteAt(key, i)
			return true
		}
	}
	return false
}

// RemoveUnreferenced deletes every handle whose only holder is the set
// itself and returns how many were dropped.
func (s *Set[V]) RemoveUnreferenced() int {
	removed := 0
	for key, b := range s.buckets {
		kept := b[:0]
		for _, h := range b {
			if h.Refs() > 1 {
				kept = append(kept, h)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(s.buckets, key)
		} else {
			s.buckets[key] = kept
		}
	}
	s.n -= removed
	return removed
}

// ShrinkToFit reallocates the bucket map at its current size.
func (s *Set[V]) ShrinkToFit() {
	buckets := make(map[uint64][]*Handle[V], len(s.buckets))
	for key, b := range s.buckets {
		buckets[key] = b
	}
	s.buckets = buckets
}

func (s *Set[V]) deleteAt(key uint64, i int) {
	b := s.buckets[key]
	b[i] = b[len(b)-1]
	b = b[:len(b)-1]
	if len(b) == 0 {
		delete(s.buckets, key)
	} else {
		s.buckets[key] = b
	}
	s.n--
}
