package cachekit

import (
	"sync"
	"time"
)

// SyncedOptions tune a Synced cache. SweepEvery > 0 starts a background
// goroutine calling RemoveUntouched at that interval; stop it with Close.
type SyncedOptions[K comparable, V any] struct {
	Capacity   Capacity
	Logger     Logger
	Hooks      Hooks[K, V]
	SweepEvery time.Duration // 0 => no background untouched sweep
}

// Synced wraps a Cache for concurrent use. Structural mutation takes the
// write lock; reads take only the read lock, because recency stamping goes
// through each record's atomic stamp. Concurrent readers may race on who
// wins the latest stamp, which is acceptable: recency is an eviction
// heuristic, not a correctness-critical value.
type Synced[K comparable, V any] struct {
	mu    sync.RWMutex
	cache *Cache[K, V]

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSynced returns a Synced cache configured by opts.
func NewSynced[K comparable, V any](opts SyncedOptions[K, V]) *Synced[K, V] {
	s := &Synced[K, V]{
		cache: New(Options[K, V]{Capacity: opts.Capacity, Logger: opts.Logger, Hooks: opts.Hooks}),
	}
	if opts.SweepEvery > 0 {
		s.ticker = time.NewTicker(opts.SweepEvery)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.RemoveUntouched()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Synced[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Get(key)
}

func (s *Synced[K, V]) Contains(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Contains(key)
}

func (s *Synced[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Len()
}

func (s *Synced[K, V]) Insert(key K, val V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Insert(key, val)
}

func (s *Synced[K, V]) Remove(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(key)
}

func (s *Synced[K, V]) RemoveLRU(removeCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.RemoveLRU(removeCount)
}

func (s *Synced[K, V]) RemoveUntouched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.RemoveUntouched()
}

func (s *Synced[K, V]) Retain(f func(key K, val *V) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Retain(f)
}

func (s *Synced[K, V]) SetCapacity(capacity Capacity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.SetCapacity(capacity)
}

// Close stops the background sweep goroutine, if one was started.
func (s *Synced[K, V]) Close() {
	if s.stopCh != nil {
		close(s.stopCh)
		s.ticker.Stop() // stop ticker before waiting
		s.wg.Wait()
		s.stopCh = nil
	}
}
