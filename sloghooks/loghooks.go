// Package sloghooks adapts cachekit eviction hooks to slog, with optional
// sampling so that large batch evictions do not flood the log.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/cachekit-go/cachekit"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	EvictEvery uint64
}

type Hooks[K comparable, V any] struct {
	l    *slog.Logger
	opts Options

	evictCtr atomic.Uint64
}

var _ cachekit.Hooks[string, any] = (*Hooks[string, any])(nil)

func New[K comparable, V any](l *slog.Logger, opts Options) *Hooks[K, V] {
	return &Hooks[K, V]{l: l, opts: opts}
}

func (h *Hooks[K, V]) EntryEvicted(key K, _ V, reason cachekit.EvictReason) {
	if h.l == nil {
		return
	}
	if every := h.opts.EvictEvery; every > 1 && h.evictCtr.Add(1)%every != 0 {
		return
	}
	h.l.Debug("cachekit.entry_evicted",
		"key", key,
		"reason", reason.String())
}
