package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hkuds/relaybot/internal/platform"
)

func TestEventKey(t *testing.T) {
	evt := Event{Account: "main", Message: platform.Message{Source: "-100123"}}
	if got := evt.Key(); got != "main:-100123" {
		t.Errorf("Key() = %q, want %q", got, "main:-100123")
	}
}

func TestNewEventBus(t *testing.T) {
	b := NewEventBus(10)
	if b == nil {
		t.Fatal("NewEventBus returned nil")
	}
	if b.Size() != 0 {
		t.Errorf("Size() = %d, want 0", b.Size())
	}
}

func TestPublishConsume(t *testing.T) {
	b := NewEventBus(10)
	evt := Event{Account: "main", Message: platform.Message{ID: 7, Text: "hello"}}

	b.Publish(evt)

	if b.Size() != 1 {
		t.Errorf("Size() = %d, want 1", b.Size())
	}

	got := b.Consume()
	if got.Message.Text != "hello" {
		t.Errorf("Consume().Message.Text = %q, want %q", got.Message.Text, "hello")
	}
}

func TestConsumeWithTimeout(t *testing.T) {
	b := NewEventBus(10)

	// Timeout case
	ctx := context.Background()
	_, err := b.ConsumeWithTimeout(ctx, 10*time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got %v", err)
	}

	// Success case
	b.Publish(Event{Message: platform.Message{Text: "hi"}})
	evt, err := b.ConsumeWithTimeout(ctx, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Message.Text != "hi" {
		t.Errorf("Message.Text = %q, want %q", evt.Message.Text, "hi")
	}

	// Context cancelled case
	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.ConsumeWithTimeout(cancelCtx, time.Second)
	if err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestSubscribeAndDispatch(t *testing.T) {
	b := NewEventBus(10)

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	b.Subscribe("main", func(evt Event) {
		received = evt
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go b.Dispatch(ctx)

	b.Publish(Event{Account: "main", Message: platform.Message{Text: "dispatched"}})

	wg.Wait()
	cancel()

	if received.Message.Text != "dispatched" {
		t.Errorf("received.Message.Text = %q, want %q", received.Message.Text, "dispatched")
	}
}

func TestAccountsDoNotBlockEachOther(t *testing.T) {
	b := NewEventBus(10)

	blocked := make(chan struct{})
	release := make(chan struct{})
	b.Subscribe("slow", func(Event) {
		close(blocked)
		<-release
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var fast Event
	b.Subscribe("fast", func(evt Event) {
		fast = evt
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Dispatch(ctx)

	b.Publish(Event{Account: "slow"})
	<-blocked

	// The slow account's handler is stuck; the fast one must still run.
	b.Publish(Event{Account: "fast", Message: platform.Message{Text: "through"}})
	wg.Wait()
	close(release)

	if fast.Message.Text != "through" {
		t.Errorf("fast.Message.Text = %q, want %q", fast.Message.Text, "through")
	}
}

func TestCloseStopsPublish(t *testing.T) {
	// Fill the buffer so next publish would block
	b := NewEventBus(1)
	b.Publish(Event{Account: "fill"})
	b.Close()

	// Should not block after close even when buffer is full
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Account: "after close"})
		close(done)
	}()

	select {
	case <-done:
		// success - Publish returned without blocking
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
}
