package mwt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"santabot/internal/logging"
)

func TestGetMemoizes(t *testing.T) {
	t.Parallel()
	c := New[int64, string](time.Hour, logging.Nop())

	calls := 0
	fetch := func() (string, error) { calls++; return "admins", nil }

	for i := 0; i < 3; i++ {
		v, err := c.Get(42, fetch)
		if err != nil || v != "admins" {
			t.Fatalf("Get: %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
}

func TestGetExpires(t *testing.T) {
	t.Parallel()
	c := New[string, int](time.Minute, logging.Nop())
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	calls := 0
	fetch := func() (int, error) { calls++; return calls, nil }

	if v, _ := c.Get("k", fetch); v != 1 {
		t.Fatalf("v = %d, want 1", v)
	}
	clock = clock.Add(2 * time.Minute)
	if v, _ := c.Get("k", fetch); v != 2 {
		t.Fatalf("v = %d after expiry, want 2", v)
	}
}

func TestFetchErrorNotCached(t *testing.T) {
	t.Parallel()
	c := New[string, int](time.Hour, logging.Nop())

	boom := errors.New("boom")
	if _, err := c.Get("k", func() (int, error) { return 0, boom }); err != boom {
		t.Fatalf("err = %v, want boom", err)
	}
	v, err := c.Get("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("recovery fetch: %d, %v", v, err)
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()
	c := New[string, int](time.Minute, logging.Nop())
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	_, _ = c.Get("a", func() (int, error) { return 1, nil })
	clock = clock.Add(30 * time.Second)
	_, _ = c.Get("b", func() (int, error) { return 2, nil })
	clock = clock.Add(45 * time.Second)

	c.Collect()
	if c.Len() != 1 {
		t.Fatalf("Len = %d after collect, want 1", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New[int, int](time.Hour, logging.Nop())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := i % 5
				v, err := c.Get(key, func() (int, error) { return key * 10, nil })
				if err != nil || v != key*10 {
					t.Errorf("Get(%d) = %d, %v", key, v, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}
