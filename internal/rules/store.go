// Package rules holds the active watch rules for every account and keeps
// them in sync with the configuration file through an injected persister.
package rules

import (
	"sort"
	"strings"
	"sync"

	"github.com/hkuds/relaybot/internal/media"
)

// TextRule forwards messages whose text contains Keyword from Source to
// Destination. The keyword "*" matches every text message.
type TextRule struct {
	Source      string
	Keyword     string
	Destination string
}

// MatchAll is the keyword that matches any message text.
const MatchAll = "*"

// MediaRule forwards Source's attachments matching Category to Destination.
// At most one media rule exists per source; adding another replaces it.
type MediaRule struct {
	Source      string
	Destination string
	Category    media.Category
}

// Persister saves an account's rules to durable configuration. The config
// package implements this against the YAML config file.
type Persister interface {
	SaveRules(account string, text []TextRule, mediaRules []MediaRule) error
}

type accountRules struct {
	// text preserves insertion order: live routing scans it front to back
	// and the first matching rule wins.
	text  []TextRule
	media map[string]MediaRule
}

// Store is the process-wide rule registry, shared by reference across all
// account processing lines and safe for concurrent use.
type Store struct {
	persister Persister

	mu       sync.RWMutex
	accounts map[string]*accountRules
}

// NewStore creates an empty Store that persists through p. A nil persister
// keeps rules in memory only.
func NewStore(p Persister) *Store {
	return &Store{
		persister: p,
		accounts:  make(map[string]*accountRules),
	}
}

// Load replaces an account's rules wholesale, without persisting. Used at
// startup to seed the store from configuration.
func (s *Store) Load(account string, text []TextRule, mediaRules []MediaRule) {
	acc := &accountRules{
		text:  append([]TextRule(nil), text...),
		media: make(map[string]MediaRule, len(mediaRules)),
	}
	for _, r := range mediaRules {
		acc.media[r.Source] = r
	}
	s.mu.Lock()
	s.accounts[account] = acc
	s.mu.Unlock()
}

func (s *Store) account(name string) *accountRules {
	acc, ok := s.accounts[name]
	if !ok {
		acc = &accountRules{media: make(map[string]MediaRule)}
		s.accounts[name] = acc
	}
	return acc
}

// AddTextRule adds or updates a text rule. The mutation always applies in
// memory; a persist failure is returned so the operator layer can report
// it, but it is not rolled back (memory and disk may diverge until the
// next successful save).
func (s *Store) AddTextRule(account string, r TextRule) error {
	s.mu.Lock()
	acc := s.account(account)
	replaced := false
	for i, existing := range acc.text {
		if existing.Source == r.Source && existing.Keyword == r.Keyword {
			acc.text[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		acc.text = append(acc.text, r)
	}
	s.mu.Unlock()

	return s.persist(account)
}

// RemoveTextRule removes the rule keyed by (source, keyword). It reports
// whether a rule was removed; persistence is attempted only when one was.
func (s *Store) RemoveTextRule(account, source, keyword string) (bool, error) {
	s.mu.Lock()
	acc := s.account(account)
	removed := false
	for i, existing := range acc.text {
		if existing.Source == source && existing.Keyword == keyword {
			acc.text = append(acc.text[:i], acc.text[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if !removed {
		return false, nil
	}
	return true, s.persist(account)
}

// AddMediaRule adds or replaces the media rule for the rule's source.
func (s *Store) AddMediaRule(account string, r MediaRule) error {
	s.mu.Lock()
	s.account(account).media[r.Source] = r
	s.mu.Unlock()

	return s.persist(account)
}

// RemoveMediaRule removes the media rule for a source, reporting whether
// one existed.
func (s *Store) RemoveMediaRule(account, source string) (bool, error) {
	s.mu.Lock()
	acc := s.account(account)
	_, existed := acc.media[source]
	delete(acc.media, source)
	s.mu.Unlock()

	if !existed {
		return false, nil
	}
	return true, s.persist(account)
}

// TextRules returns a copy of the account's text rules in insertion order.
func (s *Store) TextRules(account string) []TextRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[account]
	if !ok {
		return nil
	}
	return append([]TextRule(nil), acc.text...)
}

// MediaRules returns a copy of the account's media rules.
func (s *Store) MediaRules(account string) []MediaRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[account]
	if !ok {
		return nil
	}
	out := make([]MediaRule, 0, len(acc.media))
	for _, r := range acc.media {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// MediaRuleFor returns the media rule for a source, if any. Lookup is
// direct: at most one media rule exists per source.
func (s *Store) MediaRuleFor(account, source string) (MediaRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[account]
	if !ok {
		return MediaRule{}, false
	}
	r, ok := acc.media[source]
	return r, ok
}

// MatchText returns the first text rule for the source whose keyword is
// "*" or a substring of text. Scanning order is insertion order; when two
// keywords for the same source both match, the earlier-inserted rule wins.
func (s *Store) MatchText(account, source, text string) (TextRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[account]
	if !ok {
		return TextRule{}, false
	}
	for _, r := range acc.text {
		if r.Source != source {
			continue
		}
		if r.Keyword == MatchAll || strings.Contains(text, r.Keyword) {
			return r, true
		}
	}
	return TextRule{}, false
}

func (s *Store) persist(account string) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.SaveRules(account, s.TextRules(account), s.MediaRules(account))
}
