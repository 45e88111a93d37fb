// Package telegram implements the transport.Adapter over the Telegram
// Bot API using long polling.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"santabot/internal/logging"
	kit "santabot/internal/transport"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	// RatePerSec caps outbound API calls bot-wide. Telegram starts
	// throttling around 30 messages per second.
	RatePerSec int
}

type Adapter struct {
	cfg Config
	log logging.Logger

	bot     *tele.Bot
	limiter *rate.Limiter

	runMu     sync.Mutex
	running   bool
	runCancel context.CancelFunc
	runWG     sync.WaitGroup

	// droppedUpdates counts updates dropped because the consumer was
	// slower than the poll loop; logged periodically, not per update.
	droppedUpdates uint64
}

func New(cfg Config, log logging.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 25
	}
	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
		Poller: &tele.LongPoller{
			Timeout:        timeout,
			AllowedUpdates: []string{"message", "callback_query"},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (a *Adapter) BotUsername() string { return a.bot.Me.Username }

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	rctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel
	a.runWG.Add(2)
	a.runMu.Unlock()

	// Periodic summary for dropped updates.
	go func() {
		defer a.runWG.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-rctx.Done():
				if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
					a.log.Warn("incoming updates dropped (channel full)", logging.Int64("count", int64(n)))
				}
				return
			case <-ticker.C:
				if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
					a.log.Warn("incoming updates dropped (channel full)", logging.Int64("count", int64(n)))
				}
			}
		}
	}()

	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		a.deliver(out, kit.Update{
			Kind: kit.UpdateMessage,
			Message: &kit.Message{
				ID:            m.ID,
				ChatID:        m.Chat.ID,
				ChatTitle:     m.Chat.Title,
				ChatType:      chatType(m.Chat),
				FromID:        m.Sender.ID,
				FromFirstName: m.Sender.FirstName,
				FromUsername:  m.Sender.Username,
				Text:          m.Text,
			},
		})
		return nil
	})

	a.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		m := c.Message()
		if cb == nil || m == nil || cb.Sender == nil {
			return nil
		}
		a.deliver(out, kit.Update{
			Kind: kit.UpdateCallback,
			Callback: &kit.Callback{
				ID:            cb.ID,
				FromID:        cb.Sender.ID,
				FromFirstName: cb.Sender.FirstName,
				ChatID:        m.Chat.ID,
				ChatType:      chatType(m.Chat),
				MessageID:     m.ID,
				// telebot prefixes callback data with "\f<unique>|"; raw
				// buttons built via tgui carry plain data.
				Data: strings.TrimPrefix(cb.Data, "\f"),
			},
		})
		return nil
	})

	a.bot.Handle(tele.OnAddedToGroup, func(c tele.Context) error {
		m := c.Message()
		if m == nil {
			return nil
		}
		var addedBy int64
		if m.Sender != nil {
			addedBy = m.Sender.ID
		}
		a.deliver(out, kit.Update{
			Kind: kit.UpdateBotJoinedChat,
			Joined: &kit.BotJoinedChat{
				ChatID:    m.Chat.ID,
				ChatTitle: m.Chat.Title,
				AddedBy:   addedBy,
			},
		})
		return nil
	})

	go func() {
		defer a.runWG.Done()
		go func() {
			<-rctx.Done()
			a.bot.Stop()
		}()
		a.log.Info("polling started", logging.String("username", a.bot.Me.Username))
		a.bot.Start() // blocks until Stop()
	}()

	return nil
}

func (a *Adapter) deliver(out chan<- kit.Update, up kit.Update) {
	select {
	case out <- up:
	default:
		atomic.AddUint64(&a.droppedUpdates, 1)
	}
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	cancel := a.runCancel
	a.runCancel = nil
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()

	// Grace window: never let a pending long-poll hold up shutdown.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
		a.log.Info("polling stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		a.log.Warn("stop grace elapsed; continuing shutdown")
		return nil
	}
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return kit.MessageRef{}, err
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	sendOpt := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
	}
	if opt.ReplyToMessageID != 0 {
		sendOpt.ReplyTo = &tele.Message{ID: opt.ReplyToMessageID, Chat: &tele.Chat{ID: to.ChatID}}
	}
	if rm, ok := opt.ReplyMarkupAdapter.(*tele.ReplyMarkup); ok {
		sendOpt.ReplyMarkup = rm
	}

	m, err := a.bot.Send(&tele.Chat{ID: to.ChatID}, text, sendOpt)
	if err != nil {
		return kit.MessageRef{}, mapErr(err)
	}
	return kit.MessageRef{ChatID: m.Chat.ID, MessageID: m.ID}, nil
}

func (a *Adapter) EditText(ctx context.Context, ref kit.MessageRef, text string, opt *kit.SendOptions) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	sendOpt := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
	}
	if rm, ok := opt.ReplyMarkupAdapter.(*tele.ReplyMarkup); ok {
		sendOpt.ReplyMarkup = rm
	}
	_, err := a.bot.Edit(editable(ref), text, sendOpt)
	return mapErr(err)
}

func (a *Adapter) EditReplyMarkup(ctx context.Context, ref kit.MessageRef, markup any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	rm, _ := markup.(*tele.ReplyMarkup)
	_, err := a.bot.EditReplyMarkup(editable(ref), rm)
	return mapErr(err)
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string, opt *kit.AnswerOptions) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if opt == nil {
		opt = &kit.AnswerOptions{}
	}
	return mapErr(a.bot.Respond(
		&tele.Callback{ID: callbackID},
		&tele.CallbackResponse{Text: text, ShowAlert: opt.Alert},
	))
}

func (a *Adapter) SendTyping(ctx context.Context, to kit.ChatTarget) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return mapErr(a.bot.Notify(&tele.Chat{ID: to.ChatID}, tele.Typing))
}

func (a *Adapter) LeaveChat(ctx context.Context, chatID int64) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return mapErr(a.bot.Leave(&tele.Chat{ID: chatID}))
}

func (a *Adapter) ChatAdministrators(ctx context.Context, chatID int64) ([]kit.ChatMember, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	admins, err := a.bot.AdminsOf(&tele.Chat{ID: chatID})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]kit.ChatMember, 0, len(admins))
	for _, m := range admins {
		if m.User != nil {
			out = append(out, kit.ChatMember{UserID: m.User.ID})
		}
	}
	return out, nil
}

func (a *Adapter) SetCommands(ctx context.Context, scope kit.CommandScope, cmds []kit.BotCommand) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	tc := make([]tele.Command, len(cmds))
	for i, c := range cmds {
		tc[i] = tele.Command{Text: c.Command, Description: c.Description}
	}
	return mapErr(a.bot.SetCommands(tc, commandScope(scope)))
}

func commandScope(scope kit.CommandScope) tele.CommandScope {
	switch scope {
	case kit.ScopeAllPrivateChats:
		return tele.CommandScope{Type: tele.CommandScopeAllPrivateChats}
	case kit.ScopeAllChatAdmins:
		return tele.CommandScope{Type: tele.CommandScopeAllChatAdmin}
	default:
		return tele.CommandScope{Type: tele.CommandScopeDefault}
	}
}

func chatType(c *tele.Chat) kit.ChatType {
	if c.Type == tele.ChatPrivate {
		return kit.ChatPrivate
	}
	return kit.ChatGroup
}

func editable(ref kit.MessageRef) *tele.Message {
	return &tele.Message{ID: ref.MessageID, Chat: &tele.Chat{ID: ref.ChatID}}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tele.ErrBlockedByUser) ||
		strings.Contains(strings.ToLower(err.Error()), "bot was blocked by the user") {
		return kit.ErrBlockedByUser
	}
	return err
}
