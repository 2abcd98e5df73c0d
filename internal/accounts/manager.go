// Package accounts builds and runs one processing line per monitored
// account. The rule store and rate limiter are constructed once and
// shared by reference across every line; each line otherwise owns its
// state.
package accounts

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/commands"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/platform"
	"github.com/hkuds/relaybot/internal/ratelimit"
	"github.com/hkuds/relaybot/internal/replay"
	"github.com/hkuds/relaybot/internal/router"
	"github.com/hkuds/relaybot/internal/rules"
	"github.com/hkuds/relaybot/internal/store"
	"github.com/hkuds/relaybot/internal/telegram"
)

// line is one account's processing pipeline.
type line struct {
	account  *telegram.Account
	policy   *Policy
	router   *router.Router
	commands *commands.Handler
}

// Manager owns the per-account processing lines and their shared
// collaborators.
type Manager struct {
	cfg     *config.Config
	bus     *bus.EventBus
	rules   *rules.Store
	limiter *ratelimit.Limiter
	log     *store.MessageLog

	mu    sync.RWMutex
	lines map[string]*line
}

// NewManager creates a manager over shared state. The rule store must
// already be seeded with each account's persisted rules.
func NewManager(cfg *config.Config, evtBus *bus.EventBus, ruleStore *rules.Store, limiter *ratelimit.Limiter, msgLog *store.MessageLog) *Manager {
	return &Manager{
		cfg:     cfg,
		bus:     evtBus,
		rules:   ruleStore,
		limiter: limiter,
		log:     msgLog,
		lines:   make(map[string]*line),
	}
}

// Initialize builds a processing line for every enabled account and
// subscribes it to the event bus. Must be called before StartAll.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, accCfg := range m.cfg.EnabledAccounts() {
		if accCfg.Token == "" {
			return fmt.Errorf("account %s enabled but token not configured", accCfg.Name)
		}
		if _, exists := m.lines[accCfg.Name]; exists {
			return fmt.Errorf("duplicate account name %s", accCfg.Name)
		}

		account := telegram.NewAccount(accCfg.Name, accCfg.Token, m.bus)
		policy := NewPolicy(accCfg)

		replayer := replay.NewReplayer(m.log, m.limiter, account,
			time.Duration(m.cfg.Forward.ReplayPauseSeconds)*time.Second)
		resolver := replay.NewResolver(m.log)

		l := &line{
			account:  account,
			policy:   policy,
			router:   router.New(accCfg.Name, m.rules, m.limiter, account, policy),
			commands: commands.NewHandler(accCfg.Name, m.rules, replayer, resolver, account, policy),
		}
		m.lines[accCfg.Name] = l
		log.Printf("account %s initialized", accCfg.Name)
	}

	if len(m.lines) == 0 {
		log.Println("Warning: no accounts are enabled")
	}
	return nil
}

// StartAll subscribes every line, starts the bus dispatcher and begins
// each account's update loop. It returns after startup; processing
// continues until ctx is cancelled or StopAll is called.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, l := range m.lines {
		l := l
		m.bus.Subscribe(name, func(evt bus.Event) {
			m.handle(ctx, l, evt)
		})
	}

	go m.bus.Dispatch(ctx)

	var errs []error
	for name, l := range m.lines {
		if err := l.account.Start(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to start account %s: %w", name, err))
			continue
		}
		log.Printf("account %s started", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors starting accounts: %v", errs)
	}
	return nil
}

// handle is one account's event path: operator commands first, then the
// monitoring gate, the archive write, and the routing decision.
func (m *Manager) handle(ctx context.Context, l *line, evt bus.Event) {
	if l.commands.Handle(ctx, evt.Message) {
		return
	}
	if !l.policy.IsMonitored(evt.Message) {
		return
	}

	if err := m.log.Record(ctx, l.account.Name(), evt.Message); err != nil {
		// The archive is best-effort for live routing; the forward still
		// proceeds.
		log.Printf("account %s: failed to record message %d: %v", l.account.Name(), evt.Message.ID, err)
	}

	l.router.Route(ctx, evt.Message)
}

// StopAll gracefully stops every running account.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for name, l := range m.lines {
		if !l.account.IsRunning() {
			continue
		}
		if err := l.account.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop account %s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping accounts: %v", errs)
	}
	return nil
}

// RunningAccounts returns the names of currently running accounts.
func (m *Manager) RunningAccounts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var running []string
	for name, l := range m.lines {
		if l.account.IsRunning() {
			running = append(running, name)
		}
	}
	sort.Strings(running)
	return running
}

// AccountCount returns the number of initialized processing lines.
func (m *Manager) AccountCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lines)
}

var _ platform.AccountPolicy = (*Policy)(nil)
