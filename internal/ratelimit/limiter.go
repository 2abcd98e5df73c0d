// Package ratelimit spaces forwards to the same (source, destination)
// pair. The delay is a cooperative in-process suspension, not a
// distributed lock: it only serializes dispatches issued from this
// process, which is all the forwarder needs.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSpacing is the minimum gap between two dispatches to the same
// (source, destination) pair.
const DefaultSpacing = time.Second

type pairKey struct {
	source string
	dest   string
}

// Limiter tracks the last dispatch time per (source, destination) pair.
// One instance is shared by reference across every account's processing
// line and by batch replays, so live and replayed dispatches to the same
// pair are spaced against each other. Entries are never deleted; the map
// is bounded by the number of distinct pairs ever active.
type Limiter struct {
	spacing time.Duration
	now     func() time.Time

	mu   sync.Mutex
	last map[pairKey]time.Time
}

// NewLimiter creates a Limiter with the given minimum spacing.
// A non-positive spacing falls back to DefaultSpacing.
func NewLimiter(spacing time.Duration) *Limiter {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	return &Limiter{
		spacing: spacing,
		now:     time.Now,
		last:    make(map[pairKey]time.Time),
	}
}

// WaitBeforeNext returns how long the caller must suspend before the next
// dispatch to the pair is permitted. Zero means dispatch immediately.
func (l *Limiter) WaitBeforeNext(source, dest string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[pairKey{source, dest}]
	if !ok {
		return 0
	}
	wait := l.spacing - l.now().Sub(last)
	if wait < 0 {
		return 0
	}
	return wait
}

// RecordDispatch marks a dispatch to the pair as happening now. Callers
// record immediately before the dispatch call, not after, so back-to-back
// messages routed within the same event sequence cannot both observe a
// stale timestamp.
func (l *Limiter) RecordDispatch(source, dest string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[pairKey{source, dest}] = l.now()
}

// Acquire suspends until a dispatch to the pair is permitted, then records
// it. This is the one call sites use: wait, record, dispatch.
func (l *Limiter) Acquire(ctx context.Context, source, dest string) error {
	if wait := l.WaitBeforeNext(source, dest); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	l.RecordDispatch(source, dest)
	return nil
}
