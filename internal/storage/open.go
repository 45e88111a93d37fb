package storage

import (
	"context"
	"errors"
	"strings"

	"santabot/internal/logging"
	"santabot/internal/santa"
)

// Store is the persistence API used by the bot layer.
// Sessions are keyed by group chat ID; one session per chat.
type Store interface {
	PutSession(ctx context.Context, s *santa.Session) error
	GetSession(ctx context.Context, chatID int64) (*santa.Session, error)
	DeleteSession(ctx context.Context, chatID int64) error
	ListSessions(ctx context.Context) ([]*santa.Session, error)
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logging.Logger) (Store, error) {
	if log.IsZero() {
		log = logging.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "file":
		return openFile(cfg, log)
	case "none":
		log.Warn("persistence disabled; sessions will not survive restarts")
		return openMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
