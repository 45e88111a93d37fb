package santa

import (
	"testing"
	"time"
)

func TestJoinLeave(t *testing.T) {
	t.Parallel()
	s := New(-1001234, "chat", 1, "alice", 10)

	if already := s.Join(2, "bob"); already {
		t.Fatal("first join reported as re-join")
	}
	if already := s.Join(2, "bobby"); !already {
		t.Fatal("re-join not reported")
	}
	if got := s.Name(2); got != "bobby" {
		t.Fatalf("re-join must refresh name, got %q", got)
	}
	if !s.IsParticipant(2) || s.IsParticipant(3) {
		t.Fatal("participant membership wrong")
	}
	if !s.Leave(2) || s.Leave(2) {
		t.Fatal("leave must report prior membership")
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d, want 0", s.Count())
	}
}

func TestMissingCount(t *testing.T) {
	t.Parallel()
	s := New(-1, "chat", 1, "alice", 10)
	s.Join(1, "alice")
	s.Join(2, "bob")
	if got := s.MissingCount(4); got != 2 {
		t.Fatalf("MissingCount = %d, want 2", got)
	}
	s.Join(3, "carol")
	s.Join(4, "dave")
	s.Join(5, "erin")
	if got := s.MissingCount(4); got != 0 {
		t.Fatalf("MissingCount = %d, want 0 once minimum met", got)
	}
}

func TestOrderedKeepsJoinOrder(t *testing.T) {
	t.Parallel()
	s := New(-1, "chat", 1, "alice", 10)
	s.Join(3, "carol")
	s.Participants[3].JoinedAt = time.Unix(30, 0)
	s.Join(1, "alice")
	s.Participants[1].JoinedAt = time.Unix(10, 0)
	s.Join(2, "bob")
	s.Participants[2].JoinedAt = time.Unix(20, 0)

	ids := s.IDs()
	want := []int64{1, 2, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
	}
}

func TestExpiredAfter(t *testing.T) {
	t.Parallel()
	s := New(-1, "chat", 1, "alice", 10)
	now := s.CreatedAt.Add(25 * time.Hour)
	if !s.ExpiredAfter(24*time.Hour, now) {
		t.Fatal("session older than lifetime must be expired")
	}
	if s.ExpiredAfter(48*time.Hour, now) {
		t.Fatal("session within lifetime must not be expired")
	}
}

func TestLink(t *testing.T) {
	t.Parallel()
	s := New(-1001234567890, "chat", 1, "alice", 10)
	s.BoardMessageID = 42
	if got, want := s.Link(), "https://t.me/c/1234567890/42"; got != want {
		t.Fatalf("Link = %q, want %q", got, want)
	}
}
