package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"santabot/internal/logging"
	"santabot/internal/santa"
	"santabot/internal/storage"
	kit "santabot/internal/transport"
	"santabot/pkg/tgui"
)

// handleNewSanta opens a session in a group and posts the board.
func (s *Service) handleNewSanta(ctx context.Context, m *kit.Message) error {
	if existing, err := s.store.GetSession(ctx, m.ChatID); err == nil {
		text := tgui.JoinH(" ",
			tgui.Esc("There is already a Secret Santa running here:"),
			tgui.Link("the board", existing.Link()),
		).String()
		_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID}, text, htmlOpts(nil))
		return err
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load session: %w", err)
	}

	sess := santa.New(m.ChatID, m.ChatTitle, m.FromID, displayName(m), m.ID)
	rules := s.currentRules()

	ref, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID},
		boardText(sess, rules.MinParticipants),
		htmlOpts(boardMarkup(sess, s.adapter.BotUsername())))
	if err != nil {
		return fmt.Errorf("post board: %w", err)
	}
	sess.BoardMessageID = ref.MessageID

	if err := s.store.PutSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Info("session opened",
		logging.Int64("chat_id", m.ChatID), logging.Int64("creator", m.FromID))
	return nil
}

// handleCancelCommand is /cancel in a group: creator, chat admin or
// configured admin may close the board.
func (s *Service) handleCancelCommand(ctx context.Context, m *kit.Message) error {
	sess, err := s.store.GetSession(ctx, m.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.IsCreator(m.FromID) && !s.canModerate(ctx, m.ChatID, m.FromID) {
		_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID},
			"Only the organizer or a chat admin can cancel this Secret Santa.", nil)
		return err
	}
	return s.closeSession(ctx, sess, "This Secret Santa was cancelled.")
}

// handleStart is /start in a private chat. With a chat-id argument it is a
// deep-link join coming from a board's Join button.
func (s *Service) handleStart(ctx context.Context, m *kit.Message, args []string) error {
	if len(args) == 0 {
		return s.handleHelp(ctx, m)
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return s.handleHelp(ctx, m)
	}

	sess, err := s.store.GetSession(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID},
			"That Secret Santa is no longer running.", nil)
		return err
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Started {
		_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID},
			"The matches are already drawn; this Secret Santa is closed to new participants.", nil)
		return err
	}

	name := displayName(m)
	already := sess.Join(m.FromID, name)

	ref, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.FromID},
		privateJoinedText(sess, name), htmlOpts(privateJoinedMarkup(chatID)))
	if err != nil {
		return fmt.Errorf("join confirmation: %w", err)
	}
	sess.SetJoinMessageID(m.FromID, ref.MessageID)

	if err := s.store.PutSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !already {
		s.log.Info("participant joined",
			logging.Int64("chat_id", chatID), logging.Int64("user_id", m.FromID))
	}
	return s.refreshBoard(ctx, sess)
}

func (s *Service) handleHelp(ctx context.Context, m *kit.Message) error {
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID}, helpText(), htmlOpts(nil))
	return err
}

// refreshBoard re-renders the group board message in place.
func (s *Service) refreshBoard(ctx context.Context, sess *santa.Session) error {
	if sess.BoardMessageID == 0 {
		return nil
	}
	ref := kit.MessageRef{ChatID: sess.ChatID, MessageID: sess.BoardMessageID}
	err := s.adapter.EditText(ctx, ref,
		boardText(sess, s.currentRules().MinParticipants),
		htmlOpts(boardMarkup(sess, s.adapter.BotUsername())))
	if err != nil {
		return fmt.Errorf("refresh board: %w", err)
	}
	return nil
}

// closeSession edits the board to a terminal state and deletes the session.
func (s *Service) closeSession(ctx context.Context, sess *santa.Session, reason string) error {
	if sess.BoardMessageID != 0 {
		ref := kit.MessageRef{ChatID: sess.ChatID, MessageID: sess.BoardMessageID}
		if err := s.adapter.EditText(ctx, ref, closedBoardText(reason), htmlOpts(nil)); err != nil {
			s.log.Warn("board close edit failed",
				logging.Int64("chat_id", sess.ChatID), logging.Err(err))
		}
	}
	if err := s.store.DeleteSession(ctx, sess.ChatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.Info("session closed",
		logging.Int64("chat_id", sess.ChatID), logging.String("reason", reason))
	return nil
}

// canModerate reports whether a user is a configured admin or an
// administrator of the group. Admin lists are cached.
func (s *Service) canModerate(ctx context.Context, chatID, userID int64) bool {
	rules := s.currentRules()
	if isListed(rules.Admins, userID) {
		return true
	}
	ids, err := s.admins.Get(chatID, func() ([]int64, error) {
		members, err := s.adapter.ChatAdministrators(ctx, chatID)
		if err != nil {
			return nil, err
		}
		out := make([]int64, 0, len(members))
		for _, m := range members {
			out = append(out, m.UserID)
		}
		return out, nil
	})
	if err != nil {
		s.log.Warn("admin lookup failed", logging.Int64("chat_id", chatID), logging.Err(err))
		return false
	}
	return isListed(ids, userID)
}

func displayName(m *kit.Message) string {
	if m.FromFirstName != "" {
		return m.FromFirstName
	}
	if m.FromUsername != "" {
		return "@" + m.FromUsername
	}
	return strconv.FormatInt(m.FromID, 10)
}
