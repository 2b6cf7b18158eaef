package cachekit

import (
	"iter"
	"math"
	"sync/atomic"
)

// Unbounded disables a capacity limit.
const Unbounded = math.MaxInt

// Capacity is an eviction band. Eviction triggers when the cache reaches
// High entries and batches down toward Low in one pass. High == Unbounded
// means no limit. Low > High is accepted as-is: the progress clamp in the
// capacity check still guarantees at least one eviction per trigger, but the
// exact batch size is then the caller's problem.
type Capacity struct {
	Low, High int
}

// Bounded returns the band [low, high].
func Bounded(low, high int) Capacity { return Capacity{Low: low, High: high} }

// Unlimited returns a capacity with no limit.
func Unlimited() Capacity { return Capacity{Low: Unbounded, High: Unbounded} }

// Options tune a Cache. All fields are optional; the zero Capacity means
// unbounded.
type Options[K comparable, V any] struct {
	Capacity Capacity
	Logger   Logger      // if nil, NopLogger is used
	Hooks    Hooks[K, V] // if nil, NopHooks is used
}

type record[V any] struct {
	stamp atomic.Uint64
	val   V
}

// Cache is a key/value map where every record carries a recency stamp drawn
// from a per-cache monotonic clock. It is not safe for concurrent mutation;
// see Synced. Read paths (Get, Entry.Touch) only write the record's atomic
// stamp, so they work under a shared lock.
type Cache[K comparable, V any] struct {
	capacity Capacity
	clock    atomic.Uint64
	mark     uint64 // clock value at the last untouched sweep
	m        map[K]*record[V]
	log      Logger
	hooks    Hooks[K, V]
}

// New returns a Cache configured by opts.
func New[K comparable, V any](opts Options[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		capacity: coalesce(opts.Capacity, Unlimited()),
		m:        make(map[K]*record[V]),
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks[K, V]](opts.Hooks, NopHooks[K, V]{}),
	}
}

func (c *Cache[K, V]) Len() int      { return len(c.m) }
func (c *Cache[K, V]) IsEmpty() bool { return len(c.m) == 0 }

func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.m[key]
	return ok
}

// Get returns the value for key and stamps the record with a fresh recency
// value. The stamp write is atomic; shared access to the cache suffices.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	rec, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	rec.stamp.Store(c.clock.Add(1))
	return rec.val, true
}

// GetMut returns a pointer to the stored value for in-place mutation and
// stamps the record. The pointer is valid until the entry is removed.
func (c *Cache[K, V]) GetMut(key K) (*V, bool) {
	rec, ok := c.m[key]
	if !ok {
		return nil, false
	}
	rec.stamp.Store(c.clock.Add(1))
	return &rec.val, true
}

// Insert stores key -> val with a fresh stamp. When key is already present
// the value is replaced in place (no capacity check: replacement cannot grow
// the map) and the previous value is returned. Otherwise the capacity check
// runs first, so Len() <= Capacity.High holds whenever Insert returns.
func (c *Cache[K, V]) Insert(key K, val V) (V, bool) {
	stamp := c.clock.Add(1)

	if rec, ok := c.m[key]; ok {
		rec.stamp.Store(stamp)
		prev := rec.val
		rec.val = val
		return prev, true
	}

	c.optimizeCapacity()

	rec := &record[V]{val: val}
	rec.stamp.Store(stamp)
	c.m[key] = rec

	var zero V
	return zero, false
}

// optimizeCapacity batch-evicts toward Capacity.Low when the map has grown
// to High. The clamp to 1 guarantees progress even for a degenerate
// Low == High band.
func (c *Cache[K, V]) optimizeCapacity() {
	high := c.capacity.High
	if len(c.m) < high {
		return
	}
	n := max(len(c.m), high) - c.capacity.Low
	if n < 1 {
		n = 1
	}
	c.removeLRU(n)
}

// Remove deletes key and returns the removed value. No hooks fire: the
// value is handed back to the caller.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	rec, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.m, key)
	return rec.val, true
}

// RemoveLRU evicts the removeCount least recently used entries.
func (c *Cache[K, V]) RemoveLRU(removeCount int) {
	c.removeLRU(removeCount)
}

type agedKey[K comparable] struct {
	key   K
	stamp uint64
}

func (c *Cache[K, V]) removeLRU(removeCount int) {
	removeCount = min(len(c.m), removeCount)
	if removeCount == 0 {
		return
	}

	// Two-phase: snapshot (key, stamp) pairs for selection, then delete.
	// The map cannot be structurally mutated while it is iterated.
	var snapshot iter.Seq[agedKey[K]] = func(yield func(agedKey[K]) bool) {
		for k, rec := range c.m {
			if !yield(agedKey[K]{key: k, stamp: rec.stamp.Load()}) {
				return
			}
		}
	}

	page := SelectLRU(snapshot, removeCount, func(p agedKey[K]) uint64 { return p.stamp })
	for _, p := range page {
		rec := c.m[p.key]
		delete(c.m, p.key)
		c.hooks.EntryEvicted(p.key, rec.val, EvictCapacity)
	}
	c.log.Debug("evicted lru entries", Fields{"count": len(page), "len": len(c.m)})
}

// RemoveUntouched removes all entries that have not been accessed since the
// last call of this method.
func (c *Cache[K, V]) RemoveUntouched() {
	c.RemoveUntouchedIf(func(K, *V) bool { return true })
}

// RemoveUntouchedIf removes all entries that have not been accessed since
// the last untouched sweep and that match cond. The generation mark advances
// to the current clock value either way. Independent of capacity.
func (c *Cache[K, V]) RemoveUntouchedIf(cond func(key K, val *V) bool) {
	mark := c.mark
	removed := 0
	for k, rec := range c.m {
		if rec.stamp.Load() > mark || !cond(k, &rec.val) {
			continue
		}
		delete(c.m, k)
		c.hooks.EntryEvicted(k, rec.val, EvictIdle)
		removed++
	}
	c.mark = c.clock.Load()
	if removed > 0 {
		c.log.Debug("removed untouched entries", Fields{"count": removed, "len": len(c.m)})
	}
}

// Retain keeps only the entries for which f returns true. No recency
// involvement.
func (c *Cache[K, V]) Retain(f func(key K, val *V) bool) {
	for k, rec := range c.m {
		if f(k, &rec.val) {
			continue
		}
		delete(c.m, k)
		c.hooks.EntryEvicted(k, rec.val, EvictFiltered)
	}
}

// SetCapacity changes the capacity band and immediately evicts entries that
// do not conform to it. The zero Capacity means unbounded.
func (c *Cache[K, V]) SetCapacity(capacity Capacity) {
	c.capacity = coalesce(capacity, Unlimited())
	c.optimizeCapacity()
}

// ShrinkToFit reallocates the backing map at its current size. Go maps never
// release buckets on delete, so this is the only way to give memory back
// after a large shrink.
func (c *Cache[K, V]) ShrinkToFit() {
	m := make(map[K]*record[V], len(c.m))
	for k, rec := range c.m {
		m[k] = rec
	}
	c.m = m
}
