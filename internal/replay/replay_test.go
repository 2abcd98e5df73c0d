package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/platform"
	"github.com/hkuds/relaybot/internal/ratelimit"
)

// sliceIter iterates a fixed slice and can fail partway through.
type sliceIter struct {
	msgs    []platform.Message
	pos     int
	failAt  int // fail before yielding this index; -1 disables
	err     error
	current platform.Message
}

func (it *sliceIter) Next(ctx context.Context) bool {
	if it.failAt >= 0 && it.pos == it.failAt {
		it.err = errors.New("history read failed")
		return false
	}
	if it.pos >= len(it.msgs) {
		return false
	}
	it.current = it.msgs[it.pos]
	it.pos++
	return true
}

func (it *sliceIter) Value() platform.Message { return it.current }
func (it *sliceIter) Err() error              { return it.err }
func (it *sliceIter) Close() error            { return nil }

// fakeHistory serves the same slice for every Messages call, the way the
// real message log serves a fresh cursor per query.
type fakeHistory struct {
	msgs   []platform.Message
	failAt int
}

func (h *fakeHistory) Messages(ctx context.Context, account, source string) (platform.MessageIter, error) {
	failAt := h.failAt
	if failAt == 0 {
		failAt = -1
	}
	return &sliceIter{msgs: h.msgs, failAt: failAt}, nil
}

type fakeDispatcher struct {
	ids     []int64
	dests   []platform.Destination
	failIDs map[int64]bool
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, msg platform.Message, dest platform.Destination) error {
	if d.failIDs[msg.ID] {
		return errors.New("dispatch failed")
	}
	d.ids = append(d.ids, msg.ID)
	d.dests = append(d.dests, dest)
	return nil
}

func photoMsg(id int64) platform.Message {
	return platform.Message{ID: id, Source: "-100123", Media: &platform.Media{Photo: true}}
}

func textMsg(id int64, text string) platform.Message {
	return platform.Message{ID: id, Source: "-100123", Text: text}
}

func newTestReplayer(h platform.History, d platform.Dispatcher) *Replayer {
	r := NewReplayer(h, ratelimit.NewLimiter(time.Millisecond), d, time.Millisecond)
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func TestReplayForwardsOldestFirst(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{
		photoMsg(1), textMsg(2, "chatter"), photoMsg(3), photoMsg(4),
	}}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 0, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	wantIDs := []int64{1, 3, 4}
	if len(d.ids) != len(wantIDs) {
		t.Fatalf("forwarded %v, want %v", d.ids, wantIDs)
	}
	for i, id := range wantIDs {
		if d.ids[i] != id {
			t.Errorf("forwarded[%d] = %d, want %d", i, d.ids[i], id)
		}
	}
	if got.Forwarded != 3 || got.LastID != 4 {
		t.Errorf("Progress = %+v, want {Forwarded:3 LastID:4}", got)
	}
}

func TestReplayLimit(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{
		photoMsg(1), photoMsg(2), photoMsg(3), photoMsg(4), photoMsg(5),
	}}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 2, 0, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}
	if got.Forwarded != 2 {
		t.Errorf("Forwarded = %d, want 2", got.Forwarded)
	}
	if got.LastID != 2 {
		t.Errorf("LastID = %d, want 2", got.LastID)
	}
}

func TestReplaySkipCountsOnlyMatches(t *testing.T) {
	// Non-matching messages must consume neither skip nor limit.
	h := &fakeHistory{msgs: []platform.Message{
		textMsg(1, "a"), photoMsg(2), textMsg(3, "b"), photoMsg(4), photoMsg(5),
	}}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 1, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	wantIDs := []int64{4, 5}
	if len(d.ids) != 2 || d.ids[0] != 4 || d.ids[1] != 5 {
		t.Errorf("forwarded %v, want %v", d.ids, wantIDs)
	}
	if got.Forwarded != 2 {
		t.Errorf("Forwarded = %d, want 2", got.Forwarded)
	}
}

func TestReplaySkipExceedsMatches(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{photoMsg(1), photoMsg(2)}}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 5, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}
	if got.Forwarded != 0 || got.LastID != 0 {
		t.Errorf("Progress = %+v, want zero progress", got)
	}
	if len(d.ids) != 0 {
		t.Errorf("forwarded %v, want none", d.ids)
	}
}

func TestReplayDispatchFailureContinues(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{photoMsg(1), photoMsg(2), photoMsg(3)}}
	d := &fakeDispatcher{failIDs: map[int64]bool{2: true}}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 0, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	// Message 2 failed; it counts toward neither progress nor limit.
	if len(d.ids) != 2 || d.ids[0] != 1 || d.ids[1] != 3 {
		t.Errorf("forwarded %v, want [1 3]", d.ids)
	}
	if got.Forwarded != 2 || got.LastID != 3 {
		t.Errorf("Progress = %+v, want {Forwarded:2 LastID:3}", got)
	}
}

func TestReplayHistoryFailurePropagates(t *testing.T) {
	h := &fakeHistory{
		msgs:   []platform.Message{photoMsg(1), photoMsg(2), photoMsg(3)},
		failAt: 2,
	}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	got, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 0, media.CategoryDefault)
	if err == nil {
		t.Fatal("Replay() = nil error, want history failure")
	}
	// Progress before the failure is still reported for resumption.
	if got.Forwarded != 2 {
		t.Errorf("Forwarded = %d, want 2", got.Forwarded)
	}
}

func TestReplayNotify(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{photoMsg(1), photoMsg(2)}}
	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)

	var seen []Progress
	r.Notify = func(p Progress) { seen = append(seen, p) }

	if _, err := r.Replay(context.Background(), "main", "-100123", "@dest", 10, 0, media.CategoryDefault); err != nil {
		t.Fatalf("Replay() error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("Notify called %d times, want 2", len(seen))
	}
	if seen[0].Forwarded != 1 || seen[1].Forwarded != 2 {
		t.Errorf("Notify progress = %+v", seen)
	}
}

func TestResolveOffset(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{
		photoMsg(10), textMsg(11, "x"), photoMsg(12), photoMsg(13),
	}}
	r := NewResolver(h)

	found, offset, err := r.Resolve(context.Background(), "main", "-100123", 13, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	// Message 13 is the third matching message, so two precede it.
	if offset != 2 {
		t.Errorf("offset = %d, want 2", offset)
	}
}

func TestResolveNotFound(t *testing.T) {
	h := &fakeHistory{msgs: []platform.Message{photoMsg(10), photoMsg(12)}}
	r := NewResolver(h)

	found, offset, err := r.Resolve(context.Background(), "main", "-100123", 99, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if found {
		t.Error("found = true for absent message, want false")
	}
	if offset != 2 {
		t.Errorf("offset = %d, want total match count 2", offset)
	}
}

func TestResolveTargetWrongCategory(t *testing.T) {
	// The target exists but does not match the category, so it is not
	// found and does not count.
	h := &fakeHistory{msgs: []platform.Message{photoMsg(10), textMsg(11, "x")}}
	r := NewResolver(h)

	found, offset, err := r.Resolve(context.Background(), "main", "-100123", 11, media.CategoryDefault)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if found {
		t.Error("found = true for non-matching target, want false")
	}
	if offset != 1 {
		t.Errorf("offset = %d, want 1", offset)
	}
}

func TestResolveThenReplayRoundTrip(t *testing.T) {
	msgs := []platform.Message{
		photoMsg(10), photoMsg(11), textMsg(12, "x"), photoMsg(13), photoMsg(14),
	}
	h := &fakeHistory{msgs: msgs}

	found, offset, err := NewResolver(h).Resolve(context.Background(), "main", "-100123", 13, media.CategoryDefault)
	if err != nil || !found {
		t.Fatalf("Resolve() = %v, %v, want found", found, err)
	}

	d := &fakeDispatcher{}
	r := newTestReplayer(h, d)
	if _, err := r.Replay(context.Background(), "main", "-100123", "@dest", 1, offset, media.CategoryDefault); err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	// The resolved offset makes the target the first forwarded message.
	if len(d.ids) != 1 || d.ids[0] != 13 {
		t.Errorf("forwarded %v, want [13]", d.ids)
	}
}
