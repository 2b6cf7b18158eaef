package cachekit

import (
	"iter"
	"sync/atomic"
)

// Entry is one cache item yielded during iteration. Value peeks without
// recency side effects; Touch additionally stamps the record. Callers choose
// "peek" vs "use" explicitly. The returned pointer allows in-place mutation
// and stays valid until the entry is removed.
type Entry[K comparable, V any] struct {
	key   K
	rec   *record[V]
	clock *atomic.Uint64
}

func (e Entry[K, V]) Key() K { return e.key }

func (e Entry[K, V]) Value() *V { return &e.rec.val }

func (e Entry[K, V]) Touch() *V {
	e.rec.stamp.Store(e.clock.Add(1))
	return &e.rec.val
}

// Value is a cache value yielded by Values, with the same peek/touch split
// as Entry.
type Value[V any] struct {
	rec   *record[V]
	clock *atomic.Uint64
}

func (v Value[V]) Value() *V { return &v.rec.val }

func (v Value[V]) Touch() *V {
	v.rec.stamp.Store(v.clock.Add(1))
	return &v.rec.val
}

// All iterates over the cache's entries. The cache must not be structurally
// mutated during iteration; touching entries is fine.
func (c *Cache[K, V]) All() iter.Seq[Entry[K, V]] {
	return func(yield func(Entry[K, V]) bool) {
		for k, rec := range c.m {
			if !yield(Entry[K, V]{key: k, rec: rec, clock: &c.clock}) {
				return
			}
		}
	}
}

// Values iterates over the cache's values.
func (c *Cache[K, V]) Values() iter.Seq[Value[V]] {
	return func(yield func(Value[V]) bool) {
		for _, rec := range c.m {
			if !yield(Value[V]{rec: rec, clock: &c.clock}) {
				return
			}
		}
	}
}
