package replay

import (
	"context"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/platform"
)

// Resolver computes resume offsets over the same history sequence the
// Replayer consumes.
type Resolver struct {
	history platform.History
}

// NewResolver creates a Resolver over history.
func NewResolver(history platform.History) *Resolver {
	return &Resolver{history: history}
}

// Resolve returns the zero-based rank of the target message among the
// source's cat-matching messages, oldest first. The returned offset is
// exactly the skip value that makes a subsequent Replay with the same
// category forward the target message first. When the target is not found
// (or does not match cat), found is false and offset is the total number
// of matching messages seen.
func (r *Resolver) Resolve(ctx context.Context, account, source string, targetID int64, cat media.Category) (found bool, offset int, err error) {
	iter, err := r.history.Messages(ctx, account, source)
	if err != nil {
		return false, 0, err
	}
	defer iter.Close()

	for iter.Next(ctx) {
		msg := iter.Value()
		if !media.Matches(msg, cat) {
			continue
		}
		if msg.ID == targetID {
			return true, offset, nil
		}
		offset++
	}
	if err := iter.Err(); err != nil {
		return false, offset, err
	}
	return false, offset, nil
}
