package diaryengine

import (
	"testing"
	"time"
)

func TestFailureTrackerExhaustsAfterMax(t *testing.T) {
	tracker := NewFailureTracker(2, 200*time.Millisecond)
	defer tracker.Stop()
	key := "359007"

	if tracker.Exhausted(key) {
		t.Fatalf("expected fresh key not to be exhausted")
	}
	if n := tracker.Record(key); n != 1 {
		t.Fatalf("expected 1 failure, got %d", n)
	}
	if tracker.Exhausted(key) {
		t.Fatalf("expected key with one failure not to be exhausted")
	}
	tracker.Record(key)
	if !tracker.Exhausted(key) {
		t.Fatalf("expected key to be exhausted after max failures")
	}
}

func TestFailureTrackerForgetsAfterWindow(t *testing.T) {
	tracker := NewFailureTracker(1, 150*time.Millisecond)
	defer tracker.Stop()
	key := "42"

	tracker.Record(key)
	if !tracker.Exhausted(key) {
		t.Fatalf("expected key to be exhausted")
	}

	time.Sleep(200 * time.Millisecond)
	if tracker.Exhausted(key) {
		t.Fatalf("expected failures to expire after window")
	}
}

func TestFailureTrackerIsPerKey(t *testing.T) {
	tracker := NewFailureTracker(1, time.Second)
	defer tracker.Stop()

	tracker.Record("1")
	if !tracker.Exhausted("1") {
		t.Fatalf("expected first key to be exhausted")
	}
	if tracker.Exhausted("2") {
		t.Fatalf("expected second key to be tracked independently")
	}
}

func TestFailureTrackerReset(t *testing.T) {
	tracker := NewFailureTracker(1, time.Second)
	defer tracker.Stop()

	tracker.Record("7")
	tracker.Reset("7")
	if tracker.Exhausted("7") {
		t.Fatalf("expected reset key not to be exhausted")
	}
	tracker.Stop()
	tracker.Stop()
}
