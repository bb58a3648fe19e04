package query

import (
	"context"
	"sync"
	"sync/atomic"
)

// PageFunc fetches the page identified by param.
type PageFunc[P any] func(ctx context.Context, param int) (P, error)

// NextParamFunc returns the param of the page after last, or false when the
// end has been reached. pages holds every page fetched so far, last included.
type NextParamFunc[P any] func(last P, pages []P) (int, bool)

// InfiniteQuery accumulates pages in fetch order. Only one next-page fetch
// runs at a time; overlapping calls return immediately.
type InfiniteQuery[P any] struct {
	fetch     PageFunc[P]
	nextParam NextParamFunc[P]
	initial   int

	mu       sync.RWMutex
	pages    []P
	done     bool
	err      error
	fetching atomic.Bool
}

// NewInfinite creates a query that starts at initial.
func NewInfinite[P any](initial int, fetch PageFunc[P], next NextParamFunc[P]) *InfiniteQuery[P] {
	return &InfiniteQuery[P]{
		fetch:     fetch,
		nextParam: next,
		initial:   initial,
	}
}

func (q *InfiniteQuery[P]) next() (int, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.pages) == 0 {
		return q.initial, true
	}
	if q.done {
		return 0, false
	}
	return q.nextParam(q.pages[len(q.pages)-1], q.pages)
}

// HasNextPage reports whether another page can be fetched.
func (q *InfiniteQuery[P]) HasNextPage() bool {
	_, ok := q.next()
	return ok
}

// IsFetchingNextPage reports whether a fetch is in flight.
func (q *InfiniteQuery[P]) IsFetchingNextPage() bool {
	return q.fetching.Load()
}

// FetchNextPage fetches and appends the next page. It returns false without
// error when a fetch is already in flight or there is no next page.
func (q *InfiniteQuery[P]) FetchNextPage(ctx context.Context) (bool, error) {
	if !q.fetching.CompareAndSwap(false, true) {
		return false, nil
	}
	defer q.fetching.Store(false)

	param, ok := q.next()
	if !ok {
		return false, nil
	}
	page, err := q.fetch(ctx, param)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.err = err
		return false, err
	}
	q.err = nil
	q.pages = append(q.pages, page)
	if _, more := q.nextParam(page, q.pages); !more {
		q.done = true
	}
	return true, nil
}

// Pages returns a copy of the fetched pages.
func (q *InfiniteQuery[P]) Pages() []P {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]P, len(q.pages))
	copy(out, q.pages)
	return out
}

// Err returns the error of the most recent fetch, if it failed.
func (q *InfiniteQuery[P]) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Reset discards all pages.
func (q *InfiniteQuery[P]) Reset() {
	q.mu.Lock()
	q.pages = nil
	q.done = false
	q.err = nil
	q.mu.Unlock()
}
