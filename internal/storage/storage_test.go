package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"santabot/internal/logging"
	"santabot/internal/santa"
)

func testSession(chatID int64) *santa.Session {
	s := santa.New(chatID, "Test Chat", 1001, "alice", 55)
	// The creator joins through the same deep link as everyone else.
	s.Join(1001, "alice")
	s.Join(2002, "bob")
	s.Join(3003, "carol")
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	drivers := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{"sqlite", func(t *testing.T) Config {
			return Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "santa.db")}
		}},
		{"file", func(t *testing.T) Config {
			return Config{Driver: "file", Path: filepath.Join(t.TempDir(), "santa.json")}
		}},
	}

	for _, d := range drivers {
		d := d
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st, err := Open(d.cfg(t), logging.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			if _, err := st.GetSession(ctx, 42); !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetSession on empty store: err=%v, want ErrNotFound", err)
			}

			sess := testSession(-100200)
			if err := st.PutSession(ctx, sess); err != nil {
				t.Fatalf("PutSession: %v", err)
			}

			got, err := st.GetSession(ctx, -100200)
			if err != nil {
				t.Fatalf("GetSession: %v", err)
			}
			if got.ChatID != sess.ChatID || got.CreatorID != sess.CreatorID {
				t.Fatalf("got session %+v, want chat=%d creator=%d", got, sess.ChatID, sess.CreatorID)
			}
			if got.Count() != 3 {
				t.Fatalf("Count = %d, want 3", got.Count())
			}
			p, ok := got.Participants[2002]
			if !ok || p.Name != "bob" {
				t.Fatalf("participant 2002 = %+v, want name bob", p)
			}

			// Overwrite keeps one row per chat.
			sess.Started = true
			if err := st.PutSession(ctx, sess); err != nil {
				t.Fatalf("PutSession update: %v", err)
			}
			got, err = st.GetSession(ctx, -100200)
			if err != nil {
				t.Fatalf("GetSession after update: %v", err)
			}
			if !got.Started {
				t.Fatal("update lost Started flag")
			}

			if err := st.PutSession(ctx, testSession(-100300)); err != nil {
				t.Fatalf("PutSession second chat: %v", err)
			}
			list, err := st.ListSessions(ctx)
			if err != nil {
				t.Fatalf("ListSessions: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("ListSessions = %d sessions, want 2", len(list))
			}
			if list[0].ChatID != -100300 || list[1].ChatID != -100200 {
				t.Fatalf("ListSessions order = %d,%d, want -100300,-100200",
					list[0].ChatID, list[1].ChatID)
			}

			if err := st.DeleteSession(ctx, -100200); err != nil {
				t.Fatalf("DeleteSession: %v", err)
			}
			if _, err := st.GetSession(ctx, -100200); !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetSession after delete: err=%v, want ErrNotFound", err)
			}
			// Deleting a missing session is not an error.
			if err := st.DeleteSession(ctx, -100200); err != nil {
				t.Fatalf("DeleteSession twice: %v", err)
			}
		})
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"sqlite", "file"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			cfg := Config{Driver: driver, Path: filepath.Join(t.TempDir(), "santa.db")}

			st, err := Open(cfg, logging.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			sess := testSession(-500)
			sess.CreatedAt = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
			if err := st.PutSession(ctx, sess); err != nil {
				t.Fatalf("PutSession: %v", err)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			st, err = Open(cfg, logging.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer st.Close()
			got, err := st.GetSession(ctx, -500)
			if err != nil {
				t.Fatalf("GetSession after reopen: %v", err)
			}
			if !got.CreatedAt.Equal(sess.CreatedAt) {
				t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, sess.CreatedAt)
			}
		})
	}
}

func TestStoreReturnsIsolatedCopies(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"none", "file"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "santa.json")}, logging.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			sess := testSession(-700)
			if err := st.PutSession(ctx, sess); err != nil {
				t.Fatalf("PutSession: %v", err)
			}

			// Mutating the caller's object must not leak into the store.
			sess.Started = true
			got, err := st.GetSession(ctx, -700)
			if err != nil {
				t.Fatalf("GetSession: %v", err)
			}
			if got.Started {
				t.Fatal("store shares state with the caller's session")
			}

			// Nor must mutating a fetched copy affect later readers.
			got.Join(9009, "mallory")
			again, err := st.GetSession(ctx, -700)
			if err != nil {
				t.Fatalf("GetSession again: %v", err)
			}
			if again.IsParticipant(9009) {
				t.Fatal("fetched session shares state with the store")
			}
		})
	}
}

// Mirrors the two production call paths: a handler mutates a fetched session
// and writes it back while the cleanup job lists and inspects sessions.
// Run with -race.
func TestStoreConcurrentReadWrite(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"none", "file"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "santa.json")}, logging.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()
			if err := st.PutSession(ctx, testSession(-800)); err != nil {
				t.Fatalf("PutSession: %v", err)
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 50; i++ {
					sess, err := st.GetSession(ctx, -800)
					if err != nil {
						t.Errorf("GetSession: %v", err)
						return
					}
					sess.Started = !sess.Started
					if err := st.PutSession(ctx, sess); err != nil {
						t.Errorf("PutSession: %v", err)
						return
					}
				}
			}()
			for i := 0; i < 50; i++ {
				list, err := st.ListSessions(ctx)
				if err != nil {
					t.Fatalf("ListSessions: %v", err)
				}
				for _, sess := range list {
					_ = sess.Started
					_ = sess.ExpiredAfter(time.Hour, time.Now())
				}
			}
			<-done
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logging.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
