package platform

import "context"

// Dispatcher performs the actual forward of a message to a destination.
// Implementations own retry and timeout policy; the core makes a single
// attempt per routing decision and treats any error as a logged failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message, dest Destination) error
}

// MessageIter is a lazy cursor over a source's message history. Callers
// drive it with Next and must check Err once Next returns false: a false
// Next with a non-nil Err means the iteration itself failed and the
// results so far are incomplete.
type MessageIter interface {
	// Next advances to the next message, returning false at the end of the
	// history or on error.
	Next(ctx context.Context) bool
	// Value returns the current message. Only valid after a true Next.
	Value() Message
	// Err returns the error that stopped iteration, if any.
	Err() error
	// Close releases the cursor's resources.
	Close() error
}

// History yields a source's recorded messages oldest to newest. Every call
// returns a fresh iterator starting from the beginning; batch replay and
// offset resolution both consume this same sequence, which is what makes a
// resolved offset valid as a replay skip count.
type History interface {
	Messages(ctx context.Context, account, source string) (MessageIter, error)
}

// AccountPolicy decides which messages an account processes at all, before
// any rule is consulted.
type AccountPolicy interface {
	// IsMonitored reports whether a message from this source/sender
	// combination should be routed.
	IsMonitored(msg Message) bool
	// IsAdmin reports whether the sender may issue operator commands.
	IsAdmin(senderID int64) bool
}

// Responder delivers operator command replies. Separate from Dispatcher:
// replies are plain texts to the commanding chat, not forwards.
type Responder interface {
	Respond(ctx context.Context, chatID int64, text string) error
}
