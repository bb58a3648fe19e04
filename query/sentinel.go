package query

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce coalesces sentinel reveals that arrive in quick succession.
const DefaultDebounce = 100 * time.Millisecond

// Debouncer runs only the last function handed to Trigger, once no further
// trigger has arrived for delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Sentinel drives an InfiniteQuery from visibility signals: each Reveal is
// debounced and, when it settles, fetches the next page unless one is already
// in flight or the feed is exhausted. Completed fetches are reported on
// Results.
type Sentinel[P any] struct {
	ctx      context.Context
	query    *InfiniteQuery[P]
	debounce *Debouncer
	results  chan error
}

// NewSentinel binds a sentinel to q. Fetches run with ctx.
func NewSentinel[P any](ctx context.Context, q *InfiniteQuery[P], delay time.Duration) *Sentinel[P] {
	return &Sentinel[P]{
		ctx:      ctx,
		query:    q,
		debounce: NewDebouncer(delay),
		results:  make(chan error, 1),
	}
}

// Reveal signals that the sentinel became visible.
func (s *Sentinel[P]) Reveal() {
	s.debounce.Trigger(func() {
		if !s.query.HasNextPage() || s.query.IsFetchingNextPage() {
			return
		}
		fetched, err := s.query.FetchNextPage(s.ctx)
		if !fetched && err == nil {
			return
		}
		select {
		case s.results <- err:
		case <-s.ctx.Done():
		}
	})
}

// Results delivers nil after each successful page fetch and the error after
// each failed one.
func (s *Sentinel[P]) Results() <-chan error {
	return s.results
}

// Close cancels any pending reveal.
func (s *Sentinel[P]) Close() {
	s.debounce.Stop()
}
