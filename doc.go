// Package cachekit implements an in-process caching toolkit: a
// capacity-bounded recency cache with batched eviction, a content-addressed
// interning layer so that equal values share one allocation, and (in the
// island subpackage) a lazily initialized single-value cache slot with
// single-flight asynchronous initialization.
//
// Components:
//   - Cache: key/value map whose records carry recency stamps. Capacity is a
//     band [Low, High]: eviction triggers at High and batches down toward
//     Low in one pass instead of evicting exactly one entry per insert.
//     A generational sweep (RemoveUntouched) drops everything idle since the
//     previous sweep.
//   - DedupCache: Cache composed with an intern.Set; cache values equal in
//     content resolve to one shared intern.Handle, and orphaned handles are
//     swept after every mutating call.
//   - Synced: RWMutex wrapper around Cache. Reads take only the shared lock;
//     recency stamping goes through each record's atomic stamp, so
//     concurrent readers still refresh recency.
//
// Cache, DedupCache and intern.Set follow single-owner mutation discipline:
// one writer at a time, like a plain map. Wrap them in Synced (or your own
// lock) for concurrent use. island.Island is safe for concurrent use as is.
package cachekit
