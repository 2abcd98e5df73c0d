package platform

import "strconv"

// Destination is a normalized forward target. Purely numeric identifiers
// (optionally negative, as Telegram group/channel IDs are) resolve to a
// chat ID; anything else is treated as a platform username.
type Destination struct {
	ChatID   int64
	Username string
}

// ParseDestination normalizes a raw destination string. Normalization
// happens once, before any Dispatcher call, so transports never need to
// guess how to interpret the identifier.
func ParseDestination(raw string) Destination {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Destination{ChatID: id}
	}
	return Destination{Username: raw}
}

// String returns the canonical text form of the destination.
func (d Destination) String() string {
	if d.Username != "" {
		return d.Username
	}
	return strconv.FormatInt(d.ChatID, 10)
}
