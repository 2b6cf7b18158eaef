// Package island implements a lazily initialized, concurrency-safe
// single-value cache slot with single-flight asynchronous initialization
// and age-based idle-staleness tracking.
//
// Ages come from one process-wide monotonic counter shared by every Island.
// That makes batched idle sweeps cheap: snapshot Age once, do other work,
// then call ClearIfUntouchedSince(snapshot) on any number of independent
// cells without inspecting their internal state first.
package island

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// clock is the process-wide age tick. It only orders touches relative to
// externally recorded snapshots; it never resets.
var clock atomic.Uint64

// Age returns the current global age tick without advancing it. A touch
// performed after Age returns always records a strictly larger age.
func Age() uint64 { return clock.Load() }

func tick() uint64 { return clock.Add(1) }

// Island is a single optional slot: Empty, or Ready with a value and the age
// of its last touch. An initializer may be pending at any time; concurrent
// callers of GetOrInit share that one attempt. Safe for concurrent use.
type Island[T any] struct {
	mu    sync.Mutex
	val   T
	age   uint64
	ready bool

	sf singleflight.Group
}

// New returns an empty Island.
func New[T any]() *Island[T] { return &Island[T]{} }

// WithValue returns a ready Island holding val, freshly touched.
func WithValue[T any](val T) *Island[T] {
	return &Island[T]{val: val, age: tick(), ready: true}
}

// Get returns the value if the slot is ready, recording a fresh age.
func (c *Island[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		var zero T
		return zero, false
	}
	c.age = tick()
	return c.val, true
}

// Update runs f with exclusive access to the stored value if the slot is
// ready, recording a fresh age. Reports whether f ran.
func (c *Island[T]) Update(f func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return false
	}
	c.age = tick()
	f(&c.val)
	return true
}

// GetOrInit returns the value, running init to produce it when the slot is
// empty. Exactly one concurrent caller drives init; every caller that
// arrives before it completes receives the same outcome without running its
// own initializer. An init error is returned to those callers and never
// cached: the slot stays empty and the next call starts a fresh attempt.
//
// The initializer runs decoupled from any caller's context. A caller whose
// ctx is done stops waiting and gets ctx.Err(), but the attempt keeps
// running and installs its result for future callers.
func (c *Island[T]) GetOrInit(ctx context.Context, init func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(); ok {
		return v, nil
	}

	initCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan("init", func() (any, error) {
		// A Replace or a prior attempt may have filled the slot since the
		// miss above.
		if v, ok := c.Get(); ok {
			return v, nil
		}
		v, err := init(initCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.val = v
		c.age = tick()
		c.ready = true
		c.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Replace stores val unconditionally, returning the displaced value if the
// slot was ready.
func (c *Island[T]) Replace(val T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, had := c.val, c.ready
	c.val = val
	c.age = tick()
	c.ready = true
	if !had {
		var zero T
		return zero, false
	}
	return prev, true
}

// Take empties the slot, returning the displaced value if it was ready.
func (c *Island[T]) Take() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		var zero T
		return zero, false
	}
	prev := c.val
	var zero T
	c.val = zero
	c.ready = false
	return prev, true
}

// Clear empties the slot.
func (c *Island[T]) Clear() {
	_, _ = c.Take()
}

// ClearIfUntouchedSince empties the slot only if it is ready and was last
// touched at or before age. Reports whether it cleared. Use with a prior
// Age snapshot to sweep cells idle since the snapshot.
func (c *Island[T]) ClearIfUntouchedSince(age uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.age > age {
		return false
	}
	var zero T
	c.val = zero
	c.ready = false
	return true
}
