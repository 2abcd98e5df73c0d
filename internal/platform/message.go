// Package platform defines the message model and the collaborator
// boundaries relaybot's core depends on: dispatching, history iteration
// and per-account monitoring policy. Concrete implementations live in the
// transport and storage packages.
package platform

import "time"

// ChatType identifies where a message was observed.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
	ChatChannel ChatType = "channel"
)

// Media describes a message attachment as far as classification needs it.
// Absent metadata is represented by zero values; classification treats
// unknowns as non-matches rather than errors.
type Media struct {
	// Photo is set when the platform delivered the attachment as a photo.
	Photo bool
	// Document is set for file-style attachments (anything with a
	// document payload, including video/audio files).
	Document bool
	// MIME is the attachment MIME type, empty when unknown.
	MIME string
	// FileName is the attached file name hint, empty when unknown.
	FileName string
	// Sticker is set when the platform tagged the attachment as a sticker,
	// independent of its MIME type.
	Sticker bool
	// Video is set when the platform tagged the attachment as a video,
	// independent of its MIME type.
	Video bool
	// WebPreview is set for link-preview-only attachments.
	WebPreview bool
}

// Message is a single observed chat message. Messages are created by the
// transport layer and never mutated by the core.
type Message struct {
	// ID increases monotonically per source but is not contiguous.
	ID     int64
	Source string
	Text   string
	// Media is nil for text-only messages.
	Media *Media

	ChatType       ChatType
	ChatTitle      string
	SenderID       int64
	SenderUsername string
	SenderBot      bool
	Forwarded      bool
	Timestamp      time.Time

	// Reply is the message this one replies to, when the platform
	// delivered it. Nil otherwise.
	Reply *Message
}

// ReplyTo returns the replied-to message, if any.
func (m *Message) ReplyTo() (Message, bool) {
	if m.Reply == nil {
		return Message{}, false
	}
	return *m.Reply, true
}

// HasMedia reports whether the message carries an attachment.
func (m *Message) HasMedia() bool {
	return m.Media != nil
}
