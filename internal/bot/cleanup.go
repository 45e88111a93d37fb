package bot

import (
	"context"
	"time"

	"santabot/internal/logging"
)

// cleanupExpired closes boards nobody touched within the configured
// session lifetime. Runs on the cron schedule.
func (s *Service) cleanupExpired(ctx context.Context) {
	lifetime := s.currentRules().SessionLifetime
	if lifetime <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		s.schedLog.Error("cleanup list failed", logging.Err(err))
		return
	}

	now := time.Now().UTC()
	closed := 0
	for _, sess := range sessions {
		if !sess.ExpiredAfter(lifetime, now) {
			continue
		}
		reason := "This Secret Santa expired without a draw."
		if sess.Started {
			reason = "This Secret Santa has wrapped up. Happy gifting!"
		}
		if err := s.closeSession(ctx, sess, reason); err != nil {
			s.schedLog.Error("cleanup close failed",
				logging.Int64("chat_id", sess.ChatID), logging.Err(err))
			continue
		}
		closed++
	}
	if closed > 0 {
		s.schedLog.Info("expired sessions closed",
			logging.Int("count", closed), logging.Int("scanned", len(sessions)))
	} else {
		s.schedLog.Debug("cleanup pass", logging.Int("scanned", len(sessions)))
	}
}
