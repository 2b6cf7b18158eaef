package cachekit

import (
	"cmp"
	"iter"
	"slices"
	"sort"
)

type lruCandidate[T any, A cmp.Ordered] struct {
	item T
	age  A
}

// SelectLRU returns the removeCount items with the smallest age, in
// ascending-age order, visiting seq exactly once. If seq yields fewer than
// removeCount items, all of them are returned sorted. Order among items of
// equal age is unspecified.
//
// The buffer never grows past removeCount entries: O(n log k) time,
// O(k) extra space, no full sort of the input.
func SelectLRU[T any, A cmp.Ordered](seq iter.Seq[T], removeCount int, age func(T) A) []T {
	if removeCount == 0 {
		return nil
	}

	next, stop := iter.Pull(seq)
	defer stop()

	if removeCount == 1 {
		oldest, ok := next()
		if !ok {
			return nil
		}
		oldestAge := age(oldest)
		for {
			item, ok := next()
			if !ok {
				return []T{oldest}
			}
			if a := age(item); a < oldestAge {
				oldest, oldestAge = item, a
			}
		}
	}

	byAge := func(a, b lruCandidate[T, A]) int { return cmp.Compare(a.age, b.age) }

	collect := func(page []lruCandidate[T, A]) []T {
		out := make([]T, len(page))
		for i, p := range page {
			out[i] = p.item
		}
		return out
	}

	page := make([]lruCandidate[T, A], 0, removeCount)
	for len(page) < removeCount {
		item, ok := next()
		if !ok {
			// Not enough items: sort and return all of them.
			slices.SortFunc(page, byAge)
			return collect(page)
		}
		page = append(page, lruCandidate[T, A]{item: item, age: age(item)})
	}

	slices.SortFunc(page, byAge)

	for {
		item, ok := next()
		if !ok {
			break
		}
		a := age(item)
		if a >= page[len(page)-1].age {
			continue
		}
		idx := sort.Search(len(page), func(i int) bool { return page[i].age >= a })
		// Drop the current maximum (last) and insert at the sorted position.
		copy(page[idx+1:], page[idx:len(page)-1])
		page[idx] = lruCandidate[T, A]{item: item, age: a}
	}

	return collect(page)
}
