// Package replay re-forwards a source's recorded history in bulk and
// computes the skip offsets that make a partially completed replay
// resumable. Both operations consume the same oldest-first history
// iterator and the same media predicate; that shared footing is what
// makes a resolved offset valid as a replay skip count.
package replay

import (
	"context"
	"log"
	"time"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/platform"
	"github.com/hkuds/relaybot/internal/ratelimit"
)

// DefaultPause is the courtesy delay after every successful replay
// dispatch. It exists to avoid platform throttling and is intentionally a
// separate constant from the rate-limiter spacing.
const DefaultPause = 2 * time.Second

// Progress reports what one Replay call accomplished. LastID is zero when
// nothing was forwarded. The caller holds it: passing skip+Forwarded as
// the next skip resumes where this run stopped.
type Progress struct {
	Forwarded int
	LastID    int64
}

// Replayer forwards historical messages from a source to a destination.
type Replayer struct {
	history    platform.History
	limiter    *ratelimit.Limiter
	dispatcher platform.Dispatcher
	pause      time.Duration

	// Notify, when set, is called after every successful forward with the
	// progress so far. The replay progress view feeds on it.
	Notify func(Progress)

	// sleep is replaced in tests to keep them fast.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReplayer creates a Replayer. A non-positive pause falls back to
// DefaultPause.
func NewReplayer(history platform.History, limiter *ratelimit.Limiter, dispatcher platform.Dispatcher, pause time.Duration) *Replayer {
	if pause <= 0 {
		pause = DefaultPause
	}
	return &Replayer{
		history:    history,
		limiter:    limiter,
		dispatcher: dispatcher,
		pause:      pause,
		sleep:      sleepCtx,
	}
}

// Replay iterates the source's history oldest to newest, skips the first
// `skip` messages matching cat, and forwards up to `limit` of the rest to
// dest. Non-matching messages consume neither skip nor limit. A dispatch
// failure is logged and iteration continues; a history failure aborts
// the whole replay and is returned alongside the progress so far.
func (r *Replayer) Replay(ctx context.Context, account, source, destination string, limit, skip int, cat media.Category) (Progress, error) {
	var progress Progress

	iter, err := r.history.Messages(ctx, account, source)
	if err != nil {
		return progress, err
	}
	defer iter.Close()

	dest := platform.ParseDestination(destination)
	for progress.Forwarded < limit && iter.Next(ctx) {
		msg := iter.Value()
		if !media.Matches(msg, cat) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}

		if err := r.limiter.Acquire(ctx, source, destination); err != nil {
			return progress, err
		}
		if err := r.dispatcher.Dispatch(ctx, msg, dest); err != nil {
			// One bad message must not abort the batch.
			log.Printf("replay %s -> %s: failed to forward message %d: %v", source, destination, msg.ID, err)
			continue
		}

		progress.Forwarded++
		progress.LastID = msg.ID
		log.Printf("replay %s -> %s: forwarded message %d (%d/%d)", source, destination, msg.ID, progress.Forwarded, limit)
		if r.Notify != nil {
			r.Notify(progress)
		}

		if err := r.sleep(ctx, r.pause); err != nil {
			return progress, err
		}
	}

	if err := iter.Err(); err != nil {
		return progress, err
	}
	return progress, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
