package cachekit

// EvictReason says why the cache dropped an entry on its own.
type EvictReason int

const (
	// EvictCapacity: the capacity band was exceeded, or RemoveLRU was called.
	EvictCapacity EvictReason = iota
	// EvictIdle: the entry was untouched since the previous generational sweep.
	EvictIdle
	// EvictFiltered: a Retain predicate rejected the entry.
	EvictFiltered
)

func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictIdle:
		return "idle"
	case EvictFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

// Hooks are lightweight callbacks for entries the cache removes itself.
// Implementations MUST be cheap and non-blocking; the cache calls them
// inline from every eviction path. Explicit Remove and insert-replacement
// do not fire hooks: the displaced value is handed back to the caller.
type Hooks[K comparable, V any] interface {
	EntryEvicted(key K, value V, reason EvictReason)
}

// NopHooks is the default no-op.
type NopHooks[K comparable, V any] struct{}

func (NopHooks[K, V]) EntryEvicted(K, V, EvictReason) {}
