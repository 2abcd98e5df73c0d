package bus

import "github.com/hkuds/relaybot/internal/platform"

// Event is one observed message on an account's connection, as delivered
// by a transport adapter.
type Event struct {
	// Account is the monitored account that observed the message.
	Account string
	Message platform.Message
}

// Key returns a unique identifier for the message's processing line.
func (e *Event) Key() string {
	return e.Account + ":" + e.Message.Source
}
