package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"santabot/internal/santa"
)

// memStore keeps sessions for the lifetime of the process only.
// Used when persistence is disabled (driver "none").
type memStore struct {
	mu       sync.Mutex
	sessions map[int64]*santa.Session
}

func openMemory() Store {
	return &memStore{sessions: map[int64]*santa.Session{}}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) PutSession(ctx context.Context, sess *santa.Session) error {
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
	return nil
}

func (s *memStore) GetSession(ctx context.Context, chatID int64) (*santa.Session, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess)
}

func (s *memStore) DeleteSession(ctx context.Context, chatID int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

func (s *memStore) ListSessions(ctx context.Context) ([]*santa.Session, error) {
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
