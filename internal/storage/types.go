package storage

import (
	"encoding/json"
	"errors"
	"time"

	"santabot/internal/santa"
)

// ErrNotFound is returned when no session exists for a chat.
var ErrNotFound = errors.New("session not found")

// cloneSession deep-copies a session through its JSON form. The in-memory
// drivers hand out clones so bot handlers and the cleanup job never share a
// mutable object; the sqlite driver gets the same isolation for free by
// decoding each row.
func cloneSession(sess *santa.Session) (*santa.Session, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	out := &santa.Session{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default when empty)
//   - "file": dependency-free JSON snapshot file
//   - "none": in-memory only, nothing survives a restart
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
