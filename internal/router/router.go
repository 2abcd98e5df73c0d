// Package router makes the per-message forwarding decision for live
// traffic: consult the watch rules, classify, space, dispatch.
package router

import (
	"context"
	"log"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/platform"
	"github.com/hkuds/relaybot/internal/ratelimit"
	"github.com/hkuds/relaybot/internal/rules"
)

// Router routes one account's incoming messages. The rule store and
// limiter are shared across accounts; the router itself holds no mutable
// state and processes one message at a time per account line.
type Router struct {
	account    string
	rules      *rules.Store
	limiter    *ratelimit.Limiter
	dispatcher platform.Dispatcher
	policy     platform.AccountPolicy
}

// New creates a Router for an account.
func New(account string, store *rules.Store, limiter *ratelimit.Limiter, dispatcher platform.Dispatcher, policy platform.AccountPolicy) *Router {
	return &Router{
		account:    account,
		rules:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		policy:     policy,
	}
}

// Route processes a single message. The media and text branches are
// independent: a message can trigger at most one media forward and at
// most one text forward, never two within the same branch. Dispatch
// errors are logged and swallowed — routing is a background process and
// must always complete.
func (r *Router) Route(ctx context.Context, msg platform.Message) {
	if !r.policy.IsMonitored(msg) {
		return
	}

	if msg.HasMedia() {
		if rule, ok := r.rules.MediaRuleFor(r.account, msg.Source); ok {
			if media.Matches(msg, rule.Category) {
				log.Printf("account %s: media rule %s -> %s (type %s) hit message %d",
					r.account, msg.Source, rule.Destination, rule.Category, msg.ID)
				r.forward(ctx, msg, rule.Destination)
			}
		}
	}

	if msg.Text != "" {
		if rule, ok := r.rules.MatchText(r.account, msg.Source, msg.Text); ok {
			log.Printf("account %s: text rule (%s, %q) -> %s hit message %d",
				r.account, rule.Source, rule.Keyword, rule.Destination, msg.ID)
			r.forward(ctx, msg, rule.Destination)
		}
	}
}

// forward waits out the rate limit, records the dispatch and makes a
// single attempt. Failures are logged, never retried here.
func (r *Router) forward(ctx context.Context, msg platform.Message, destination string) {
	if err := r.limiter.Acquire(ctx, msg.Source, destination); err != nil {
		log.Printf("account %s: forward of message %d cancelled: %v", r.account, msg.ID, err)
		return
	}

	dest := platform.ParseDestination(destination)
	if err := r.dispatcher.Dispatch(ctx, msg, dest); err != nil {
		log.Printf("account %s: failed to forward message %d to %s: %v", r.account, msg.ID, dest, err)
	}
}
