package rules

import (
	"errors"
	"testing"

	"github.com/hkuds/relaybot/internal/media"
)

// recordingPersister captures SaveRules calls and can be made to fail.
type recordingPersister struct {
	saves int
	text  []TextRule
	media []MediaRule
	err   error
}

func (p *recordingPersister) SaveRules(account string, text []TextRule, mediaRules []MediaRule) error {
	p.saves++
	p.text = text
	p.media = mediaRules
	return p.err
}

func TestAddTextRuleAppendsInOrder(t *testing.T) {
	s := NewStore(nil)

	rules := []TextRule{
		{Source: "-100123", Keyword: "sale", Destination: "@deals"},
		{Source: "-100123", Keyword: "*", Destination: "@everything"},
		{Source: "-100123", Keyword: "urgent", Destination: "@alerts"},
	}
	for _, r := range rules {
		if err := s.AddTextRule("main", r); err != nil {
			t.Fatalf("AddTextRule() error: %v", err)
		}
	}

	got := s.TextRules("main")
	if len(got) != 3 {
		t.Fatalf("len(TextRules()) = %d, want 3", len(got))
	}
	for i, r := range rules {
		if got[i] != r {
			t.Errorf("TextRules()[%d] = %+v, want %+v", i, got[i], r)
		}
	}
}

func TestAddTextRuleReplacesSameSourceKeyword(t *testing.T) {
	s := NewStore(nil)
	s.Load("main", []TextRule{
		{Source: "-100123", Keyword: "sale", Destination: "@old"},
		{Source: "-100123", Keyword: "urgent", Destination: "@alerts"},
	}, nil)

	if err := s.AddTextRule("main", TextRule{Source: "-100123", Keyword: "sale", Destination: "@new"}); err != nil {
		t.Fatalf("AddTextRule() error: %v", err)
	}

	got := s.TextRules("main")
	if len(got) != 2 {
		t.Fatalf("len(TextRules()) = %d, want 2", len(got))
	}
	// The replaced rule keeps its position.
	if got[0].Destination != "@new" {
		t.Errorf("TextRules()[0].Destination = %q, want %q", got[0].Destination, "@new")
	}
}

func TestMatchTextFirstRuleWins(t *testing.T) {
	s := NewStore(nil)
	s.Load("main", []TextRule{
		{Source: "-100123", Keyword: "sale", Destination: "@deals"},
		{Source: "-100123", Keyword: "*", Destination: "@everything"},
	}, nil)

	r, ok := s.MatchText("main", "-100123", "big sale today")
	if !ok {
		t.Fatal("MatchText() = false, want match")
	}
	if r.Destination != "@deals" {
		t.Errorf("Destination = %q, want %q", r.Destination, "@deals")
	}

	// A non-matching keyword falls through to the wildcard.
	r, ok = s.MatchText("main", "-100123", "nothing special")
	if !ok {
		t.Fatal("MatchText() = false, want wildcard match")
	}
	if r.Destination != "@everything" {
		t.Errorf("Destination = %q, want %q", r.Destination, "@everything")
	}
}

func TestMatchTextSourceScoped(t *testing.T) {
	s := NewStore(nil)
	s.Load("main", []TextRule{
		{Source: "-100123", Keyword: "sale", Destination: "@deals"},
	}, nil)

	if _, ok := s.MatchText("main", "-100999", "big sale today"); ok {
		t.Error("MatchText() matched a rule from another source")
	}
	if _, ok := s.MatchText("other", "-100123", "big sale today"); ok {
		t.Error("MatchText() matched a rule from another account")
	}
}

func TestRemoveTextRule(t *testing.T) {
	s := NewStore(nil)
	s.Load("main", []TextRule{
		{Source: "-100123", Keyword: "sale", Destination: "@deals"},
	}, nil)

	removed, err := s.RemoveTextRule("main", "-100123", "sale")
	if err != nil {
		t.Fatalf("RemoveTextRule() error: %v", err)
	}
	if !removed {
		t.Error("RemoveTextRule() = false, want true")
	}
	if got := s.TextRules("main"); len(got) != 0 {
		t.Errorf("len(TextRules()) = %d, want 0", len(got))
	}

	removed, err = s.RemoveTextRule("main", "-100123", "sale")
	if err != nil {
		t.Fatalf("RemoveTextRule() error: %v", err)
	}
	if removed {
		t.Error("RemoveTextRule() = true for absent rule, want false")
	}
}

func TestAddMediaRuleReplaces(t *testing.T) {
	s := NewStore(nil)

	if err := s.AddMediaRule("main", MediaRule{Source: "-100123", Destination: "@a", Category: media.CategoryPhoto}); err != nil {
		t.Fatalf("AddMediaRule() error: %v", err)
	}
	if err := s.AddMediaRule("main", MediaRule{Source: "-100123", Destination: "@b", Category: media.CategoryVideo}); err != nil {
		t.Fatalf("AddMediaRule() error: %v", err)
	}

	r, ok := s.MediaRuleFor("main", "-100123")
	if !ok {
		t.Fatal("MediaRuleFor() = false, want rule")
	}
	if r.Destination != "@b" || r.Category != media.CategoryVideo {
		t.Errorf("MediaRuleFor() = %+v, want @b/video", r)
	}
	if got := s.MediaRules("main"); len(got) != 1 {
		t.Errorf("len(MediaRules()) = %d, want 1", len(got))
	}
}

func TestRemoveMediaRule(t *testing.T) {
	s := NewStore(nil)
	s.Load("main", nil, []MediaRule{{Source: "-100123", Destination: "@a"}})

	removed, err := s.RemoveMediaRule("main", "-100123")
	if err != nil {
		t.Fatalf("RemoveMediaRule() error: %v", err)
	}
	if !removed {
		t.Error("RemoveMediaRule() = false, want true")
	}

	removed, _ = s.RemoveMediaRule("main", "-100123")
	if removed {
		t.Error("RemoveMediaRule() = true for absent rule, want false")
	}
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	s := NewStore(p)

	err := s.AddTextRule("main", TextRule{Source: "-100123", Keyword: "sale", Destination: "@deals"})
	if err == nil {
		t.Fatal("AddTextRule() = nil, want persist error")
	}

	// The rule stays active in memory despite the failed save.
	if _, ok := s.MatchText("main", "-100123", "sale now"); !ok {
		t.Error("MatchText() = false after failed persist, want match")
	}
}

func TestMutationsPersist(t *testing.T) {
	p := &recordingPersister{}
	s := NewStore(p)

	if err := s.AddTextRule("main", TextRule{Source: "-100123", Keyword: "sale", Destination: "@deals"}); err != nil {
		t.Fatalf("AddTextRule() error: %v", err)
	}
	if err := s.AddMediaRule("main", MediaRule{Source: "-100123", Destination: "@pics"}); err != nil {
		t.Fatalf("AddMediaRule() error: %v", err)
	}

	if p.saves != 2 {
		t.Errorf("persister saves = %d, want 2", p.saves)
	}
	if len(p.text) != 1 || len(p.media) != 1 {
		t.Errorf("persisted %d text, %d media rules, want 1 and 1", len(p.text), len(p.media))
	}

	// Load seeds without persisting.
	s.Load("other", []TextRule{{Source: "-1", Keyword: "*", Destination: "@x"}}, nil)
	if p.saves != 2 {
		t.Errorf("Load triggered a persist, saves = %d", p.saves)
	}
}
