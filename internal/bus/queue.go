// Package bus moves message events from transport adapters to the
// per-account processing lines over buffered channels.
package bus

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when an event receive operation times out.
var ErrTimeout = errors.New("timeout waiting for event")

// EventBus is a channel-based pipeline for account message events.
// Transports publish; each account's processing line subscribes under its
// account name. Accounts are independent concurrent lines: every account
// gets its own worker goroutine, so a suspension inside one account's
// handler (a rate-limit delay, a dispatch call) never stalls another
// account. Within one account, events are handled strictly one at a time
// in arrival order.
type EventBus struct {
	events chan Event

	mu          sync.RWMutex
	subscribers map[string]*subscriber

	closed    chan struct{}
	closeOnce sync.Once
}

type subscriber struct {
	queue     chan Event
	callbacks []func(Event)
}

// NewEventBus creates an EventBus with the specified channel buffer size.
func NewEventBus(bufferSize int) *EventBus {
	return &EventBus{
		events:      make(chan Event, bufferSize),
		subscribers: make(map[string]*subscriber),
		closed:      make(chan struct{}),
	}
}

// Publish sends an event into the pipeline. It is a no-op after Close.
func (b *EventBus) Publish(evt Event) {
	select {
	case <-b.closed:
		return
	case b.events <- evt:
	}
}

// Consume blocks until an event is available. Used by tests and by
// consumers that bypass Dispatch.
func (b *EventBus) Consume() Event {
	return <-b.events
}

// ConsumeWithTimeout waits for an event with a timeout. Returns ErrTimeout
// if no event arrives within the specified duration.
func (b *EventBus) ConsumeWithTimeout(ctx context.Context, timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case evt := <-b.events:
		return evt, nil
	case <-timer.C:
		return Event{}, ErrTimeout
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Subscribe registers a callback for events observed by an account.
// All Subscribe calls must happen before Dispatch starts.
func (b *EventBus) Subscribe(account string, callback func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[account]
	if !ok {
		sub = &subscriber{queue: make(chan Event, cap(b.events))}
		b.subscribers[account] = sub
	}
	sub.callbacks = append(sub.callbacks, callback)
}

// Dispatch delivers published events to each account's worker. It should
// be called once, on its own goroutine, and runs until the context is
// cancelled or the bus is closed. Events for accounts with no subscriber
// are dropped.
func (b *EventBus) Dispatch(ctx context.Context) {
	b.mu.RLock()
	for _, sub := range b.subscribers {
		go sub.run(ctx, b.closed)
	}
	b.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.closed:
			return
		case evt := <-b.events:
			b.mu.RLock()
			sub := b.subscribers[evt.Account]
			b.mu.RUnlock()
			if sub == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-b.closed:
				return
			case sub.queue <- evt:
			}
		}
	}
}

// run drains one account's queue, handling one event at a time.
func (s *subscriber) run(ctx context.Context, closed <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case evt := <-s.queue:
			for _, cb := range s.callbacks {
				cb(evt)
			}
		}
	}
}

// Size returns the current number of buffered events.
func (b *EventBus) Size() int {
	return len(b.events)
}

// Close closes the bus, stopping publish and dispatch operations.
func (b *EventBus) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}
