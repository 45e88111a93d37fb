package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"santabot/internal/logging"
	"santabot/internal/storage"
	kit "santabot/internal/transport"
)

// cbMatch runs the draw: organizer only, enough participants, even count,
// every participant reachable in private.
func (s *Service) cbMatch(ctx context.Context, cb *kit.Callback) error {
	sess, err := s.store.GetSession(ctx, cb.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.answer(ctx, cb, "This Secret Santa is no longer running.", false)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Started {
		return s.answer(ctx, cb, "The matches are already out.", false)
	}
	if !sess.IsCreator(cb.FromID) && !s.canModerate(ctx, cb.ChatID, cb.FromID) {
		return s.answer(ctx, cb, "Only the organizer can start the draw.", false)
	}

	rules := s.currentRules()
	if missing := sess.MissingCount(rules.MinParticipants); missing > 0 {
		return s.answer(ctx, cb,
			fmt.Sprintf("Not enough participants yet: %d more needed.", missing), true)
	}
	if sess.Count()%2 != 0 {
		return s.answer(ctx, cb, "An even number of participants is needed.", true)
	}

	// Chat actions fail for anyone who blocked the bot; catching that now
	// avoids a draw where some matches can never be delivered.
	var blocked []string
	for _, p := range sess.Ordered() {
		if err := s.adapter.SendTyping(ctx, kit.ChatTarget{ChatID: p.ID}); err != nil {
			if !errors.Is(err, kit.ErrBlockedByUser) {
				return fmt.Errorf("probe participant %d: %w", p.ID, err)
			}
			blocked = append(blocked, p.Name)
		}
	}
	if len(blocked) > 0 {
		return s.answer(ctx, cb,
			"I can't message: "+strings.Join(blocked, ", ")+". They need to unblock me first.", true)
	}

	matches, err := s.engine.Assign(sess.IDs())
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	for giver, receiver := range matches {
		ref, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: giver},
			matchText(sess, receiver), htmlOpts(nil))
		if err != nil {
			return fmt.Errorf("deliver match to %d: %w", giver, err)
		}
		sess.SetMatchMessageID(giver, ref.MessageID)
	}

	sess.Started = true
	if err := s.store.PutSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Info("draw delivered",
		logging.Int64("chat_id", sess.ChatID), logging.Int("participants", sess.Count()))

	if err := s.refreshBoard(ctx, sess); err != nil {
		return err
	}
	return s.answer(ctx, cb, "Matches sent!", false)
}

// cbLeave removes the presser from the board.
func (s *Service) cbLeave(ctx context.Context, cb *kit.Callback) error {
	sess, err := s.store.GetSession(ctx, cb.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.answer(ctx, cb, "This Secret Santa is no longer running.", false)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess.Started {
		return s.answer(ctx, cb, "The matches are already out; you can't leave now.", true)
	}
	if !sess.Leave(cb.FromID) {
		return s.answer(ctx, cb, "You are not on this board.", false)
	}
	if err := s.store.PutSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.refreshBoard(ctx, sess); err != nil {
		return err
	}
	return s.answer(ctx, cb, "You left the Secret Santa.", false)
}

// cbCancel closes the session from the board button.
func (s *Service) cbCancel(ctx context.Context, cb *kit.Callback) error {
	sess, err := s.store.GetSession(ctx, cb.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.answer(ctx, cb, "This Secret Santa is no longer running.", false)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.IsCreator(cb.FromID) && !s.canModerate(ctx, cb.ChatID, cb.FromID) {
		return s.answer(ctx, cb, "Only the organizer can cancel.", false)
	}
	if err := s.closeSession(ctx, sess, "This Secret Santa was cancelled."); err != nil {
		return err
	}
	return s.answer(ctx, cb, "Cancelled.", false)
}

// cbRevoke voids a delivered draw: every participant is told their match
// no longer counts and the board reopens.
func (s *Service) cbRevoke(ctx context.Context, cb *kit.Callback) error {
	sess, err := s.store.GetSession(ctx, cb.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.answer(ctx, cb, "This Secret Santa is no longer running.", false)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.Started {
		return s.answer(ctx, cb, "There is nothing to revoke.", false)
	}
	if !sess.IsCreator(cb.FromID) && !s.canModerate(ctx, cb.ChatID, cb.FromID) {
		return s.answer(ctx, cb, "Only the organizer can revoke the draw.", false)
	}

	for _, p := range sess.Ordered() {
		_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: p.ID},
			"The Secret Santa draw in "+sess.ChatTitle+" was revoked. Your match no longer counts.", nil)
		if err != nil {
			// Keep notifying the rest; a single blocked user must not wedge
			// the revoke.
			s.log.Warn("revoke notice failed",
				logging.Int64("user_id", p.ID), logging.Err(err))
		}
		sess.SetMatchMessageID(p.ID, 0)
	}

	sess.Started = false
	if err := s.store.PutSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Info("draw revoked", logging.Int64("chat_id", sess.ChatID))

	if err := s.refreshBoard(ctx, sess); err != nil {
		return err
	}
	return s.answer(ctx, cb, "The draw was revoked.", false)
}

// cbPrivate handles buttons under the private join confirmation:
// "private:leave:<chat>" and "private:updatename:<chat>".
func (s *Service) cbPrivate(ctx context.Context, cb *kit.Callback, args []string) error {
	if len(args) != 2 {
		return s.answer(ctx, cb, "This button is no longer active.", false)
	}
	chatID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return s.answer(ctx, cb, "This button is no longer active.", false)
	}

	sess, err := s.store.GetSession(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.answer(ctx, cb, "This Secret Santa is no longer running.", false)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.IsParticipant(cb.FromID) {
		return s.answer(ctx, cb, "You are not on this board.", false)
	}

	switch args[0] {
	case "leave":
		if sess.Started {
			return s.answer(ctx, cb, "The matches are already out; you can't leave now.", true)
		}
		sess.Leave(cb.FromID)
		if err := s.store.PutSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
		if err := s.adapter.EditText(ctx, ref,
			"You left the Secret Santa in "+sess.ChatTitle+".", nil); err != nil {
			s.log.Warn("join message edit failed", logging.Err(err))
		}
		if err := s.refreshBoard(ctx, sess); err != nil {
			return err
		}
		return s.answer(ctx, cb, "You left the Secret Santa.", false)

	case "updatename":
		name := cb.FromFirstName
		if name == "" {
			name = strconv.FormatInt(cb.FromID, 10)
		}
		sess.SetName(cb.FromID, name)
		if err := s.store.PutSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
		if err := s.adapter.EditText(ctx, ref,
			privateJoinedText(sess, name), htmlOpts(privateJoinedMarkup(chatID))); err != nil {
			s.log.Warn("join message edit failed", logging.Err(err))
		}
		if err := s.refreshBoard(ctx, sess); err != nil {
			return err
		}
		return s.answer(ctx, cb, "Your name was updated.", false)
	}
	return s.answer(ctx, cb, "This button is no longer active.", false)
}
