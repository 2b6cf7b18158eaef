package cachekit

import (
	"fmt"

	"github.com/cachekit-go/cachekit/intern"
)

// DedupOptions tune a DedupCache. Hasher is required; everything else is
// optional. Hooks fire after the cache has released its reference on the
// evicted handle.
type DedupOptions[K comparable, V any] struct {
	Capacity Capacity
	Hasher   intern.Hasher[V]
	Logger   Logger
	Hooks    Hooks[K, *intern.Handle[V]]
}

// DedupCache composes a bounded Cache with an intern.Set so that cache
// values equal in content share one allocation. Every handle stored in the
// cache carries one cache-owned reference; evictions release it, and
// mutating operations sweep handles that only the set still holds.
//
// Consistency for externally retained handles is eventual: a handle stays in
// the set until its last outside holder releases it and a later mutating
// call runs the sweep.
type DedupCache[K comparable, V any] struct {
	cache  *Cache[K, *intern.Handle[V]]
	groups *intern.Set[V]
	log    Logger
}

// NewDedup returns a DedupCache configured by opts.
func NewDedup[K comparable, V any](opts DedupOptions[K, V]) (*DedupCache[K, V], error) {
	if opts.Hasher == nil {
		return nil, fmt.Errorf("cachekit: hasher is required")
	}

	d := &DedupCache[K, V]{
		groups: intern.New(opts.Hasher),
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
	}
	next := coalesce[Hooks[K, *intern.Handle[V]]](opts.Hooks, NopHooks[K, *intern.Handle[V]]{})
	d.cache = New(Options[K, *intern.Handle[V]]{
		Capacity: opts.Capacity,
		Logger:   opts.Logger,
		Hooks:    releaseHook[K, V]{next: next},
	})
	return d, nil
}

// releaseHook drops the cache's reference on every handle the inner cache
// evicts, then forwards to the user's hooks. The orphaned handle stays in
// the interning set until the next sweep.
type releaseHook[K comparable, V any] struct {
	next Hooks[K, *intern.Handle[V]]
}

func (h releaseHook[K, V]) EntryEvicted(key K, handle *intern.Handle[V], reason EvictReason) {
	handle.Release()
	h.next.EntryEvicted(key, handle, reason)
}

func (d *DedupCache[K, V]) Len() int      { return d.cache.Len() }
func (d *DedupCache[K, V]) IsEmpty() bool { return d.cache.IsEmpty() }

// Get returns the handle for key, stamping its recency.
func (d *DedupCache[K, V]) Get(key K) (*intern.Handle[V], bool) {
	return d.cache.Get(key)
}

// GetOrInit returns the handle for key, interning val and inserting it on a
// miss. The returned handle is the canonical one for val's content whether
// or not this call inserted it.
func (d *DedupCache[K, V]) GetOrInit(key K, val V) *intern.Handle[V] {
	if h, ok := d.cache.Get(key); ok {
		return h
	}

	h := d.groups.GetOrInit(val).Retain() // cache's reference

	if prev, replaced := d.cache.Insert(key, h); replaced {
		// Single-owner discipline makes this unreachable after the miss
		// above, but keep the displaced handle's accounting correct.
		if prev.Release() == 1 {
			d.groups.Remove(prev.Value())
		}
	}
	return h
}

// Remove deletes key, releasing the cache's reference on its handle and
// dropping the handle from the set when nothing else holds it.
func (d *DedupCache[K, V]) Remove(key K) bool {
	h, ok := d.cache.Remove(key)
	if !ok {
		return false
	}
	if h.Release() == 1 {
		d.groups.Remove(h.Value())
	}
	return true
}

// RemoveLRU evicts the removeCount least recently used entries and sweeps
// orphaned handles.
func (d *DedupCache[K, V]) RemoveLRU(removeCount int) {
	d.cache.RemoveLRU(removeCount)
	d.sweep()
}

// RemoveUntouched removes all entries not accessed since the last untouched
// sweep and sweeps orphaned handles.
func (d *DedupCache[K, V]) RemoveUntouched() {
	d.cache.RemoveUntouched()
	d.sweep()
}

// RemoveUntouchedIf is RemoveUntouched restricted to entries matching cond.
func (d *DedupCache[K, V]) RemoveUntouchedIf(cond func(key K, handle *intern.Handle[V]) bool) {
	d.cache.RemoveUntouchedIf(func(k K, h **intern.Handle[V]) bool { return cond(k, *h) })
	d.sweep()
}

// Retain keeps only the entries for which f returns true.
func (d *DedupCache[K, V]) Retain(f func(key K, handle *intern.Handle[V]) bool) {
	d.cache.Retain(func(k K, h **intern.Handle[V]) bool { return f(k, *h) })
	d.sweep()
}

// SetCapacity changes the capacity band, evicting down to it if needed.
func (d *DedupCache[K, V]) SetCapacity(capacity Capacity) {
	d.cache.SetCapacity(capacity)
	d.sweep()
}

// ShrinkToFit reallocates both the cache map and the interning set.
func (d *DedupCache[K, V]) ShrinkToFit() {
	d.cache.ShrinkToFit()
	d.groups.ShrinkToFit()
}

func (d *DedupCache[K, V]) sweep() {
	if n := d.groups.RemoveUnreferenced(); n > 0 {
		d.log.Debug("removed unreferenced groups", Fields{"count": n, "groups": d.groups.Len()})
	}
}
