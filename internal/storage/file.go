package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"santabot/internal/logging"
	"santabot/internal/santa"
)

// fileStore is a dependency-free persistence backend.
//
// All sessions live in one JSON document; every mutation rewrites it through
// a temp file + rename so a crash never leaves a half-written snapshot.
// Session counts are tiny (one per group chat), so this stays cheap.
type fileStore struct {
	log  logging.Logger
	path string

	mu       sync.Mutex
	sessions map[int64]*santa.Session
}

func openFile(cfg Config, log logging.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{log: log, path: path, sessions: map[int64]*santa.Session{}}
	if err := st.load(); err != nil {
		return nil, err
	}
	log.Debug("file store ready",
		logging.String("path", path), logging.Int("sessions", len(st.sessions)))
	return st, nil
}

func (s *fileStore) load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var list []*santa.Session
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	for _, sess := range list {
		if sess != nil {
			s.sessions[sess.ChatID] = sess
		}
	}
	return nil
}

func (s *fileStore) flushLocked() error {
	list := make([]*santa.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ChatID < list[j].ChatID })

	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) PutSession(ctx context.Context, sess *santa.Session) error {
	_ = ctx
	if sess == nil {
		return errors.New("nil session")
	}
	stored, err := cloneSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[stored.ChatID] = stored
	return s.flushLocked()
}

func (s *fileStore) GetSession(ctx context.Context, chatID int64) (*santa.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess)
}

func (s *fileStore) DeleteSession(ctx context.Context, chatID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[chatID]; !ok {
		return nil
	}
	delete(s.sessions, chatID)
	return s.flushLocked()
}

func (s *fileStore) ListSessions(ctx context.Context) ([]*santa.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*santa.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp, err := cloneSession(sess)
		if err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ChatID < list[j].ChatID })
	return list, nil
}
