package ratelimit

import (
	"sync"
	"time"
)

// WindowCounter is a per-key sliding window counter. Record marks one event,
// CountSince reports how many events happened at or after the given time.
// Entries older than the retention window are pruned on access.
type WindowCounter struct {
	mu        sync.Mutex
	retention time.Duration
	events    map[string][]time.Time
}

func NewWindowCounter(retention time.Duration) *WindowCounter {
	return &WindowCounter{
		retention: retention,
		events:    make(map[string][]time.Time),
	}
}

func (w *WindowCounter) Record(key string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events[key] = append(w.prune(key, at), at)
}

func (w *WindowCounter) CountSince(key string, since time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	for _, at := range w.events[key] {
		if !at.Before(since) {
			count++
		}
	}
	return count
}

// prune drops events that fell out of the retention window. Caller must hold the lock.
func (w *WindowCounter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-w.retention)
	kept := w.events[key][:0]
	for _, at := range w.events[key] {
		if !at.Before(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(w.events, key)
		return nil
	}
	w.events[key] = kept
	return kept
}
