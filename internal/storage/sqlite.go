package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"santabot/internal/logging"
	"santabot/internal/santa"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Sessions are stored as one JSON document per chat. The document schema is
// owned by internal/santa; storage only needs the chat_id key.
type sqliteStore struct {
	db  *sql.DB
	log logging.Logger
}

func openSQLite(cfg Config, log logging.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite store ready", logging.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) PutSession(ctx context.Context, sess *santa.Session) error {
	if sess == nil {
		return errors.New("nil session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions(chat_id, data, updated_at) VALUES(?,?,?)
		 ON CONFLICT(chat_id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		sess.ChatID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) GetSession(ctx context.Context, chatID int64) (*santa.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE chat_id = ?`, chatID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession([]byte(data))
}

func (s *sqliteStore) DeleteSession(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = ?`, chatID)
	return err
}

func (s *sqliteStore) ListSessions(ctx context.Context) ([]*santa.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM sessions ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*santa.Session
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		sess, err := decodeSession([]byte(data))
		if err != nil {
			// A corrupt row should not take down every other session.
			s.log.Warn("skipping undecodable session row", logging.Err(err))
			continue
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func decodeSession(data []byte) (*santa.Session, error) {
	var sess santa.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
