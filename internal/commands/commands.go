// Package commands implements the operator command surface: admin-only
// chat commands that mutate watch rules, trigger batch replays and
// resolve resume offsets.
package commands

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/platform"
	"github.com/hkuds/relaybot/internal/replay"
	"github.com/hkuds/relaybot/internal/rules"
)

const helpText = `Available commands:
/help - show this help
/watch_text <source> <target> <keyword> - forward matching text messages (* matches all)
/unwatch_text <source> <keyword> - remove a text rule
/watch_media <source> <target> [type] - forward matching media; type: all, all-txt, photo, image, video, audio, document, text (default: common media)
/unwatch_media <source> - remove a media rule
/batch_forward <source> <target> <limit> [skip] [type] - replay recorded history
/offset_for_id <source> <message_id> [type] - compute the skip offset for a message
/msginfo - reply to a message to see its identifiers`

// Handler parses and executes operator commands for one account. Every
// command is restricted to configured admins; rule commands additionally
// require a private chat, matching how the source account is driven.
type Handler struct {
	account   string
	rules     *rules.Store
	replayer  *replay.Replayer
	resolver  *replay.Resolver
	responder platform.Responder
	policy    platform.AccountPolicy
}

// NewHandler creates a command handler for an account.
func NewHandler(account string, store *rules.Store, replayer *replay.Replayer, resolver *replay.Resolver, responder platform.Responder, policy platform.AccountPolicy) *Handler {
	return &Handler{
		account:   account,
		rules:     store,
		replayer:  replayer,
		resolver:  resolver,
		responder: responder,
		policy:    policy,
	}
}

// Handle executes msg if it is an operator command, reporting whether it
// consumed the message. Non-commands and commands from non-admins are
// left alone (routing may still apply to them).
func (h *Handler) Handle(ctx context.Context, msg platform.Message) bool {
	if msg.ChatType != platform.ChatPrivate || !strings.HasPrefix(msg.Text, "/") {
		return false
	}
	if !h.policy.IsAdmin(msg.SenderID) {
		return false
	}

	args := strings.Fields(msg.Text)
	cmd := args[0]

	var reply string
	var err error
	switch cmd {
	case "/help":
		reply = helpText
	case "/watch_text":
		reply, err = h.watchText(args)
	case "/unwatch_text":
		reply, err = h.unwatchText(args)
	case "/watch_media":
		reply, err = h.watchMedia(args)
	case "/unwatch_media":
		reply, err = h.unwatchMedia(args)
	case "/batch_forward":
		reply, err = h.batchForward(ctx, args)
	case "/offset_for_id":
		reply, err = h.offsetForID(ctx, args)
	case "/msginfo":
		reply = h.msgInfo(msg)
	default:
		return false
	}

	if err != nil {
		log.Printf("account %s: command %s failed: %v", h.account, cmd, err)
		reply = fmt.Sprintf("Command failed: %v", err)
	}
	h.respond(ctx, msg, reply)
	return true
}

func (h *Handler) watchText(args []string) (string, error) {
	if len(args) != 4 {
		return "Usage: /watch_text <source> <target> <keyword>", nil
	}
	rule := rules.TextRule{Source: args[1], Destination: args[2], Keyword: args[3]}
	if err := h.rules.AddTextRule(h.account, rule); err != nil {
		// The rule is active in memory; only persistence failed.
		return "", fmt.Errorf("rule added but not persisted: %w", err)
	}
	return fmt.Sprintf("Watching text: %s -> %s, keyword %q", rule.Source, rule.Destination, rule.Keyword), nil
}

func (h *Handler) unwatchText(args []string) (string, error) {
	if len(args) != 3 {
		return "Usage: /unwatch_text <source> <keyword>", nil
	}
	removed, err := h.rules.RemoveTextRule(h.account, args[1], args[2])
	if err != nil {
		return "", fmt.Errorf("rule removed but not persisted: %w", err)
	}
	if !removed {
		return "No matching text rule found.", nil
	}
	return fmt.Sprintf("Stopped watching text: %s, keyword %q", args[1], args[2]), nil
}

func (h *Handler) watchMedia(args []string) (string, error) {
	if len(args) < 3 || len(args) > 4 {
		return "Usage: /watch_media <source> <target> [type]", nil
	}
	token := ""
	if len(args) == 4 {
		token = strings.ToLower(args[3])
	}
	cat, err := media.ParseCategory(token)
	if err != nil {
		return "", err
	}
	rule := rules.MediaRule{
		Source:      cleanChatID(args[1]),
		Destination: cleanChatID(args[2]),
		Category:    cat,
	}
	if err := h.rules.AddMediaRule(h.account, rule); err != nil {
		return "", fmt.Errorf("rule added but not persisted: %w", err)
	}
	return fmt.Sprintf("Watching media: %s -> %s, type %s", rule.Source, rule.Destination, cat), nil
}

func (h *Handler) unwatchMedia(args []string) (string, error) {
	if len(args) != 2 {
		return "Usage: /unwatch_media <source>", nil
	}
	removed, err := h.rules.RemoveMediaRule(h.account, args[1])
	if err != nil {
		return "", fmt.Errorf("rule removed but not persisted: %w", err)
	}
	if !removed {
		return "No matching media rule found.", nil
	}
	return fmt.Sprintf("Stopped watching media: %s", args[1]), nil
}

func (h *Handler) batchForward(ctx context.Context, args []string) (string, error) {
	if len(args) < 4 {
		return "Usage: /batch_forward <source> <target> <limit> [skip] [type]", nil
	}
	source := args[1]
	target := args[2]
	limit, err := strconv.Atoi(args[3])
	if err != nil {
		return "", fmt.Errorf("limit must be a number: %w", err)
	}
	skip := 0
	if len(args) > 4 {
		if skip, err = strconv.Atoi(args[4]); err != nil {
			return "", fmt.Errorf("skip must be a number: %w", err)
		}
	}
	token := ""
	if len(args) > 5 {
		token = strings.ToLower(args[5])
	}
	cat, err := media.ParseCategory(token)
	if err != nil {
		return "", err
	}

	progress, err := h.replayer.Replay(ctx, h.account, source, target, limit, skip, cat)
	if err != nil {
		return "", fmt.Errorf("replay aborted after %d forwards: %w", progress.Forwarded, err)
	}
	if progress.Forwarded == 0 {
		return "Batch forward finished: nothing to forward.", nil
	}
	return fmt.Sprintf("Batch forward finished: sent %d, last source message ID %d. Use skip=%d to resume.",
		progress.Forwarded, progress.LastID, skip+progress.Forwarded), nil
}

func (h *Handler) offsetForID(ctx context.Context, args []string) (string, error) {
	if len(args) < 3 {
		return "Usage: /offset_for_id <source> <message_id> [type]", nil
	}
	source := args[1]
	targetID, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("message_id must be a number: %w", err)
	}
	token := ""
	if len(args) > 3 {
		token = strings.ToLower(args[3])
	}
	cat, err := media.ParseCategory(token)
	if err != nil {
		return "", err
	}

	found, offset, err := h.resolver.Resolve(ctx, h.account, source, targetID, cat)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Message %d not found in %s, or it does not match type %s.", targetID, source, cat), nil
	}
	return fmt.Sprintf("Offset of message %d in %s is %d (type %s). Use /batch_forward %s <target> <limit> %d %s to resume there.",
		targetID, source, offset, cat, source, offset, cat), nil
}

func (h *Handler) msgInfo(msg platform.Message) string {
	if reply, ok := msg.ReplyTo(); ok {
		return fmt.Sprintf("chat_id: %s\nmessage_id: %d\nsender_id: %d\nsender_username: %s\ntext: %.100s",
			reply.Source, reply.ID, reply.SenderID, reply.SenderUsername, reply.Text)
	}
	return "Use /msginfo as a reply to a message."
}

func (h *Handler) respond(ctx context.Context, msg platform.Message, text string) {
	chatID, err := strconv.ParseInt(msg.Source, 10, 64)
	if err != nil {
		log.Printf("account %s: cannot reply to non-numeric chat %q", h.account, msg.Source)
		return
	}
	if err := h.responder.Respond(ctx, chatID, text); err != nil {
		log.Printf("account %s: failed to send command reply: %v", h.account, err)
	}
}

// cleanChatID strips everything except digits and a leading minus so
// pasted chat IDs with stray formatting still work.
func cleanChatID(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' || (r == '-' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
