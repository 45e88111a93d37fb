// Package app wires the bot together: config, logging, storage, the
// Telegram adapter and the bot service, with ordered startup and shutdown.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"santabot/internal/bot"
	"santabot/internal/config"
	"santabot/internal/logging"
	"santabot/internal/storage"
	kit "santabot/internal/transport"
	"santabot/internal/transport/telegram"
)

type App struct {
	cfgm *config.Manager

	log   logging.Logger
	logs  *logging.Service
	store storage.Store

	adapter kit.Adapter
	bot     *bot.Service

	updates chan kit.Update
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, root, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := root.With(logging.String("comp", "app"))
	cfgm.SetLogger(logs.Channel("config"))

	sc, err := cfg.StorageConfig()
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	store, err := storage.Open(sc, logs.Channel("storage"))
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	pollTimeout, err := config.ParseDurationOrDefault(
		"telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
		RatePerSec:  cfg.Telegram.RatePerSec,
	}, logs.Channel("telegram"))
	if err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		store:   store,
		adapter: adapter,
		bot:     bot.New(adapter, store, bot.RulesFromConfig(cfg), logs),
		updates: make(chan kit.Update, 256),
		done:    make(chan struct{}),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if err := a.adapter.Start(ctx, a.updates); err != nil {
		return fmt.Errorf("adapter start: %w", err)
	}
	if err := a.bot.Start(ctx, a.updates); err != nil {
		return fmt.Errorf("bot start: %w", err)
	}

	go a.reloadLoop(ctx)
	go func() {
		defer close(a.done)
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watch stopped", logging.Err(err))
		}
	}()

	a.log.Info("started", logging.String("bot", a.adapter.BotUsername()))
	return nil
}

// reloadLoop applies validated config updates. Only the santa/telegram
// rules are live; storage and logging changes need a restart.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)

	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeChange(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			fields := append([]logging.Field{
				logging.String("changed", strings.Join(sections, ",")),
			}, attrs...)
			a.log.Info("config reloaded", fields...)
			lastApplied = newCfg

			for _, s := range sections {
				switch s {
				case "storage":
					a.log.Warn("storage config changed; restart required for changes to take effect")
				case "logging":
					a.log.Warn("logging config changed; restart required for changes to take effect")
				}
			}

			a.bot.ApplyRules(bot.RulesFromConfig(newCfg))
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.bot.Stop(ctx); err != nil {
		a.log.Warn("bot stop", logging.Err(err))
	}
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("adapter stop", logging.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close", logging.Err(err))
	}
	select {
	case <-a.done:
	case <-ctx.Done():
	}
	a.log.Info("stopped")
	return a.logs.Close()
}
