package diaryengine

import (
	"sync"
	"time"
)

// FailureTracker counts failed diary loads per key within a sliding window.
// Once a key reaches max failures the reader stops offering automatic
// retries and shows the terminal connection error instead.
type FailureTracker struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewFailureTracker creates a tracker that is exhausted after max failures
// per window. Call Stop to end the background cleanup.
func NewFailureTracker(max int, window time.Duration) *FailureTracker {
	t := &FailureTracker{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go t.cleanup()
	return t
}

func (t *FailureTracker) cleanup() {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			for key := range t.failures {
				t.prune(key)
			}
			t.mu.Unlock()
		}
	}
}

// prune drops expired failures for key. Callers hold t.mu.
func (t *FailureTracker) prune(key string) int {
	cutoff := t.now().Add(-t.window)
	hits := t.failures[key]
	kept := hits[:0]
	for _, at := range hits {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.failures, key)
		return 0
	}
	t.failures[key] = kept
	return len(kept)
}

// Exhausted reports whether key has reached the failure limit.
func (t *FailureTracker) Exhausted(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prune(key) >= t.max
}

// Record registers a failure for key and returns the failures now counted
// within the window.
func (t *FailureTracker) Record(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[key] = append(t.failures[key], t.now())
	return t.prune(key)
}

// Reset forgets every failure for key, e.g. after a successful load or an
// explicit retry by the reader.
func (t *FailureTracker) Reset(key string) {
	t.mu.Lock()
	delete(t.failures, key)
	t.mu.Unlock()
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (t *FailureTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
