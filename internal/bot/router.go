package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"santabot/internal/logging"
	kit "santabot/internal/transport"
	"santabot/pkg/tgui"
)

const handlerTimeout = 30 * time.Second

// dispatch routes one update. Handler panics are contained here so a bad
// update can never take down the loop.
func (s *Service) dispatch(ctx context.Context, u kit.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())))
		}
	}()

	var err error
	switch u.Kind {
	case kit.UpdateMessage:
		if u.Message != nil {
			err = s.handleMessage(ctx, u.Message)
			if err != nil {
				s.reportError(ctx, u.Message.ChatID, err)
			}
		}
	case kit.UpdateCallback:
		if u.Callback != nil {
			err = s.handleCallback(ctx, u.Callback)
			if err != nil {
				// The user already got a callback answer where possible;
				// mirror the failure to the operator chat only.
				s.reportError(ctx, 0, err)
			}
		}
	case kit.UpdateBotJoinedChat:
		if u.Joined != nil {
			s.handleJoined(ctx, u.Joined)
		}
	}
}

// reportError replies in the originating chat (when known) and mirrors the
// failure to the configured operator log chat.
func (s *Service) reportError(ctx context.Context, chatID int64, err error) {
	s.log.Error("handler failed", logging.Int64("chat_id", chatID), logging.Err(err))
	if chatID != 0 {
		_, _ = s.adapter.SendText(ctx, kit.ChatTarget{ChatID: chatID},
			"Something went wrong: "+err.Error(), nil)
	}
	if logChat := s.currentRules().LogChat; logChat != 0 && logChat != chatID {
		text := tgui.JoinH(" ", tgui.B("handler error:"), tgui.Code(err.Error())).String()
		_, _ = s.adapter.SendText(ctx, kit.ChatTarget{ChatID: logChat}, text, htmlOpts(nil))
	}
}

func (s *Service) handleMessage(ctx context.Context, m *kit.Message) error {
	cmd, args := parseCommand(m.Text, s.adapter.BotUsername())
	if cmd == "" {
		return nil
	}
	s.log.Debug("command",
		logging.String("cmd", cmd),
		logging.Int64("chat_id", m.ChatID),
		logging.Int64("from_id", m.FromID))

	switch m.ChatType {
	case kit.ChatGroup:
		switch cmd {
		case "newsanta", "new", "santa":
			return s.handleNewSanta(ctx, m)
		case "cancel":
			return s.handleCancelCommand(ctx, m)
		}
	case kit.ChatPrivate:
		switch cmd {
		case "start":
			return s.handleStart(ctx, m, args)
		case "help":
			return s.handleHelp(ctx, m)
		}
	}
	return nil
}

func (s *Service) handleCallback(ctx context.Context, cb *kit.Callback) error {
	action, args := tgui.SplitData(cb.Data)
	s.log.Debug("callback",
		logging.String("action", action),
		logging.Int64("chat_id", cb.ChatID),
		logging.Int64("from_id", cb.FromID))

	switch action {
	case "match":
		return s.cbMatch(ctx, cb)
	case "leave":
		return s.cbLeave(ctx, cb)
	case "cancel":
		return s.cbCancel(ctx, cb)
	case "revoke":
		return s.cbRevoke(ctx, cb)
	case "private":
		return s.cbPrivate(ctx, cb, args)
	}
	return s.answer(ctx, cb, "This button is no longer active.", false)
}

func (s *Service) handleJoined(ctx context.Context, j *kit.BotJoinedChat) {
	rules := s.currentRules()
	if !rules.ExitUnknownGroups || isListed(rules.Admins, j.AddedBy) {
		s.log.Info("added to group",
			logging.Int64("chat_id", j.ChatID), logging.String("title", j.ChatTitle))
		return
	}
	s.log.Warn("leaving unknown group",
		logging.Int64("chat_id", j.ChatID),
		logging.String("title", j.ChatTitle),
		logging.Int64("added_by", j.AddedBy))
	if err := s.adapter.LeaveChat(ctx, j.ChatID); err != nil {
		s.log.Error("leave chat failed", logging.Int64("chat_id", j.ChatID), logging.Err(err))
	}
}

// parseCommand extracts a bot command from message text. Returns "" when
// the text is not a command. "/cmd@OtherBot" addressed to another bot is
// ignored.
func parseCommand(text, botUsername string) (cmd string, args []string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil
	}
	fields := strings.Fields(text)
	head := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		target := head[at+1:]
		head = head[:at]
		if botUsername != "" && !strings.EqualFold(target, botUsername) {
			return "", nil
		}
	}
	if head == "" {
		return "", nil
	}
	return strings.ToLower(head), fields[1:]
}

func isListed(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func htmlOpts(markup any) *kit.SendOptions {
	return &kit.SendOptions{
		ParseMode:          "HTML",
		DisablePreview:     true,
		ReplyMarkupAdapter: markup,
	}
}

func (s *Service) answer(ctx context.Context, cb *kit.Callback, text string, alert bool) error {
	err := s.adapter.AnswerCallback(ctx, cb.ID, text, &kit.AnswerOptions{Alert: alert})
	if err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}
