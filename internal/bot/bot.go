// Package bot implements the Secret Santa command surface: group boards,
// private deep-link joins, the draw itself and the periodic session cleanup.
package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"santabot/internal/config"
	"santabot/internal/draft"
	"santabot/internal/logging"
	"santabot/internal/mwt"
	"santabot/internal/storage"
	kit "santabot/internal/transport"
)

const adminCacheTTL = time.Hour

// Rules is the reloadable part of the bot configuration. A snapshot is
// swapped in atomically on config reload so in-flight handlers keep a
// consistent view.
type Rules struct {
	MinParticipants   int
	SessionLifetime   time.Duration // 0 disables expiry
	Admins            []int64
	LogChat           int64
	ExitUnknownGroups bool
}

func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		MinParticipants:   cfg.Santa.MinParticipants,
		SessionLifetime:   time.Duration(cfg.Santa.TimeoutHours) * time.Hour,
		Admins:            cfg.Telegram.Admins,
		LogChat:           cfg.Telegram.LogChat,
		ExitUnknownGroups: cfg.Telegram.ExitUnknownGroups,
	}
}

type Service struct {
	log      logging.Logger
	schedLog logging.Logger

	adapter kit.Adapter
	store   storage.Store
	engine  *draft.Engine

	rules atomic.Pointer[Rules]

	// admins caches chat administrator IDs per group.
	admins *mwt.Cache[int64, []int64]

	cron *cron.Cron

	wg sync.WaitGroup
}

func New(adapter kit.Adapter, store storage.Store, rules Rules, logs *logging.Service) *Service {
	s := &Service{
		log:      logs.Channel("bot"),
		schedLog: logs.Channel("scheduler"),
		adapter:  adapter,
		store:    store,
		engine:   draft.New(logs.Channel("draft")),
		admins:   mwt.New[int64, []int64](adminCacheTTL, logs.Channel("mwt")),
	}
	s.rules.Store(&rules)
	return s
}

// ApplyRules installs a new rules snapshot (config hot reload).
func (s *Service) ApplyRules(r Rules) {
	s.rules.Store(&r)
	s.log.Info("rules updated",
		logging.Int("min_participants", r.MinParticipants),
		logging.Duration("session_lifetime", r.SessionLifetime))
}

func (s *Service) currentRules() Rules { return *s.rules.Load() }

// Start registers the command menu, launches the update loop and the
// cleanup schedule. The updates channel is owned by the transport adapter.
func (s *Service) Start(ctx context.Context, updates <-chan kit.Update) error {
	if err := s.setCommands(ctx); err != nil {
		// Menu registration is cosmetic; the bot works without it.
		s.log.Warn("command menu registration failed", logging.Err(err))
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 30m", func() { s.cleanupExpired(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.schedLog.Info("cleanup schedule started", logging.String("every", "30m"))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, updates)
	}()
	return nil
}

// Stop halts the cleanup schedule and waits for the update loop to drain.
func (s *Service) Stop(ctx context.Context) error {
	if s.cron != nil {
		stopped := s.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) loop(ctx context.Context, updates <-chan kit.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			s.dispatch(ctx, u)
		}
	}
}

func (s *Service) setCommands(ctx context.Context) error {
	if err := s.adapter.SetCommands(ctx, kit.ScopeDefault, []kit.BotCommand{
		{Command: "newsanta", Description: "open a Secret Santa board in this group"},
		{Command: "cancel", Description: "cancel the current Secret Santa"},
		{Command: "help", Description: "how this bot works"},
	}); err != nil {
		return err
	}
	return s.adapter.SetCommands(ctx, kit.ScopeAllPrivateChats, []kit.BotCommand{
		{Command: "help", Description: "how this bot works"},
	})
}
