package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/rules"
)

// RulePersister saves rule mutations back into the config file. It
// re-reads the file on every save so other sections edited by hand are
// not clobbered, mirroring how the rest of the config round-trips.
type RulePersister struct {
	path string
	mu   sync.Mutex
}

// NewRulePersister creates a persister writing to the config file at
// path. An empty path means the default config path.
func NewRulePersister(path string) *RulePersister {
	return &RulePersister{path: path}
}

// SaveRules implements rules.Persister. The named account must already
// exist in the config file.
func (p *RulePersister) SaveRules(account string, text []rules.TextRule, mediaRules []rules.MediaRule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := LoadConfig(p.path)
	if err != nil {
		return fmt.Errorf("failed to reload config for rule persistence: %w", err)
	}

	acc := cfg.Account(account)
	if acc == nil {
		return fmt.Errorf("account %q not found in config", account)
	}

	acc.TextWatchRules = make([]TextWatchRule, 0, len(text))
	for _, r := range text {
		acc.TextWatchRules = append(acc.TextWatchRules, TextWatchRule{
			SourceID: r.Source,
			Keyword:  r.Keyword,
			TargetID: r.Destination,
		})
	}

	acc.MediaWatchRules = make([]MediaWatchRule, 0, len(mediaRules))
	for _, r := range mediaRules {
		token := ""
		if r.Category != media.CategoryDefault {
			token = r.Category.String()
		}
		acc.MediaWatchRules = append(acc.MediaWatchRules, MediaWatchRule{
			SourceID: r.Source,
			TargetID: r.Destination,
			Type:     token,
		})
	}

	return SaveConfig(cfg, p.path)
}

// RuleSet converts the account's persisted rules into store form.
// A rule with an unparseable category token falls back to the default
// category and is logged rather than dropped.
func (a *AccountConfig) RuleSet() ([]rules.TextRule, []rules.MediaRule) {
	text := make([]rules.TextRule, 0, len(a.TextWatchRules))
	for _, r := range a.TextWatchRules {
		text = append(text, rules.TextRule{
			Source:      r.SourceID,
			Keyword:     r.Keyword,
			Destination: r.TargetID,
		})
	}

	mediaRules := make([]rules.MediaRule, 0, len(a.MediaWatchRules))
	for _, r := range a.MediaWatchRules {
		cat, err := media.ParseCategory(r.Type)
		if err != nil {
			log.Printf("account %s: media rule for %s has unknown type %q, using default", a.Name, r.SourceID, r.Type)
		}
		mediaRules = append(mediaRules, rules.MediaRule{
			Source:      r.SourceID,
			Destination: r.TargetID,
			Category:    cat,
		})
	}

	return text, mediaRules
}
