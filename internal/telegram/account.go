// Package telegram adapts the Telegram Bot API to relaybot's platform
// boundaries: it feeds the event bus from the live update stream and
// implements dispatching and command replies.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/platform"
)

// Account is one monitored Telegram connection. It publishes every
// observed message to the event bus and forwards messages on behalf of
// the router and replayer.
type Account struct {
	name  string
	token string
	bot   *tgbotapi.BotAPI
	bus   *bus.EventBus

	running bool
	mu      sync.RWMutex

	cancel context.CancelFunc
}

var (
	_ platform.Dispatcher = (*Account)(nil)
	_ platform.Responder  = (*Account)(nil)
)

// NewAccount creates a Telegram account adapter.
func NewAccount(name, token string, evtBus *bus.EventBus) *Account {
	return &Account{
		name:  name,
		token: token,
		bus:   evtBus,
	}
}

// Name returns the account name from configuration.
func (a *Account) Name() string {
	return a.name
}

// IsRunning reports whether the update loop is active.
func (a *Account) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

func (a *Account) setRunning(running bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = running
}

// Connect authorizes against the Bot API without starting the update
// loop. Used by the replay and offset commands, which dispatch but never
// consume live updates.
func (a *Account) Connect() error {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot for account %s: %w", a.name, err)
	}
	a.bot = bot
	log.Printf("account %s: authorized as @%s", a.name, bot.Self.UserName)
	return nil
}

// Start authorizes and begins publishing live updates to the event bus.
func (a *Account) Start(ctx context.Context) error {
	if a.IsRunning() {
		return fmt.Errorf("account %s is already running", a.name)
	}

	if a.bot == nil {
		if err := a.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60 // Long polling timeout

	updates := a.bot.GetUpdatesChan(u)
	a.setRunning(true)

	go a.processUpdates(ctx, updates)

	return nil
}

// Stop gracefully shuts down the update loop.
func (a *Account) Stop() error {
	if !a.IsRunning() {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}
	if a.bot != nil {
		a.bot.StopReceivingUpdates()
	}

	a.setRunning(false)
	log.Printf("account %s: stopped", a.name)
	return nil
}

// processUpdates converts incoming updates into bus events.
func (a *Account) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("account %s: update processing stopped", a.name)
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			var msg *tgbotapi.Message
			switch {
			case update.Message != nil:
				msg = update.Message
			case update.ChannelPost != nil:
				msg = update.ChannelPost
			default:
				continue
			}

			a.bus.Publish(bus.Event{
				Account: a.name,
				Message: convertMessage(msg),
			})
		}
	}
}

// Dispatch forwards a message to the destination, preserving the
// forwarded-from header. The source chat and message ID identify what to
// forward; the message must originate from a chat this account can read.
func (a *Account) Dispatch(ctx context.Context, msg platform.Message, dest platform.Destination) error {
	fromID, err := strconv.ParseInt(msg.Source, 10, 64)
	if err != nil {
		return fmt.Errorf("source %q is not a chat ID: %w", msg.Source, err)
	}

	fwd := tgbotapi.NewForward(dest.ChatID, fromID, int(msg.ID))
	if dest.Username != "" {
		fwd.ChatID = 0
		fwd.ChannelUsername = atUsername(dest.Username)
	}

	if _, err := a.bot.Send(fwd); err != nil {
		return fmt.Errorf("failed to forward message %d to %s: %w", msg.ID, dest, err)
	}
	return nil
}

// Respond sends a plain text reply to a chat, used for operator command
// feedback.
func (a *Account) Respond(ctx context.Context, chatID int64, text string) error {
	reply := tgbotapi.NewMessage(chatID, text)
	if _, err := a.bot.Send(reply); err != nil {
		return fmt.Errorf("failed to respond in chat %d: %w", chatID, err)
	}
	return nil
}

// convertMessage maps a Bot API message onto the platform model.
func convertMessage(msg *tgbotapi.Message) platform.Message {
	out := platform.Message{
		ID:        int64(msg.MessageID),
		Source:    strconv.FormatInt(msg.Chat.ID, 10),
		Text:      msg.Text,
		ChatType:  chatType(msg.Chat),
		ChatTitle: msg.Chat.Title,
		Forwarded: msg.ForwardDate != 0,
		Timestamp: msg.Time(),
	}
	if out.Text == "" {
		out.Text = msg.Caption
	}
	if msg.From != nil {
		out.SenderID = msg.From.ID
		out.SenderUsername = msg.From.UserName
		out.SenderBot = msg.From.IsBot
	}
	out.Media = convertMedia(msg)
	if msg.ReplyToMessage != nil {
		reply := convertMessage(msg.ReplyToMessage)
		out.Reply = &reply
	}
	return out
}

// convertMedia extracts the attachment metadata classification needs.
// Returns nil for text-only messages.
func convertMedia(msg *tgbotapi.Message) *platform.Media {
	switch {
	case len(msg.Photo) > 0:
		return &platform.Media{Photo: true}
	case msg.Sticker != nil:
		return &platform.Media{Sticker: true, MIME: "image/webp"}
	case msg.Animation != nil:
		return &platform.Media{MIME: animationMIME(msg.Animation), FileName: msg.Animation.FileName}
	case msg.Video != nil:
		return &platform.Media{Video: true, MIME: msg.Video.MimeType, FileName: msg.Video.FileName}
	case msg.VideoNote != nil:
		return &platform.Media{Video: true}
	case msg.Audio != nil:
		return &platform.Media{MIME: msg.Audio.MimeType, FileName: msg.Audio.FileName}
	case msg.Voice != nil:
		return &platform.Media{MIME: msg.Voice.MimeType}
	case msg.Document != nil:
		return &platform.Media{
			Document: true,
			MIME:     msg.Document.MimeType,
			FileName: msg.Document.FileName,
		}
	}
	return nil
}

// animationMIME normalizes GIF animations that Telegram re-encodes
// without a MIME type.
func animationMIME(anim *tgbotapi.Animation) string {
	if anim.MimeType != "" {
		return anim.MimeType
	}
	return "image/gif"
}

func chatType(chat *tgbotapi.Chat) platform.ChatType {
	switch {
	case chat.IsPrivate():
		return platform.ChatPrivate
	case chat.IsChannel():
		return platform.ChatChannel
	default:
		return platform.ChatGroup
	}
}

func atUsername(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}
