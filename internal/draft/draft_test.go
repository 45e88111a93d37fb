package draft

import (
	"testing"

	"santabot/internal/logging"
)

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func TestAssignInvariants(t *testing.T) {
	t.Parallel()
	e := New(logging.Nop())

	for _, n := range []int{2, 3, 4, 6, 10, 101} {
		for trial := 0; trial < 50; trial++ {
			m, err := e.Assign(ids(n))
			if err != nil {
				t.Fatalf("n=%d: %v", n, err)
			}
			if len(m) != n {
				t.Fatalf("n=%d: %d givers, want %d", n, len(m), n)
			}

			received := map[int64]int{}
			for giver, match := range m {
				if giver == match {
					t.Fatalf("n=%d: self match for %d", n, giver)
				}
				received[match]++
			}
			for id, c := range received {
				if c != 1 {
					t.Fatalf("n=%d: %d receives %d times", n, id, c)
				}
			}
			if len(received) != n {
				t.Fatalf("n=%d: %d receivers, want %d", n, len(received), n)
			}

			if n >= 3 {
				for giver, match := range m {
					if m[match] == giver {
						t.Fatalf("n=%d: reciprocal pair %d<->%d", n, giver, match)
					}
				}
			}
		}
	}
}

func TestAssignTooFew(t *testing.T) {
	t.Parallel()
	e := New(logging.Nop())
	if _, err := e.Assign(nil); err != ErrTooFew {
		t.Fatalf("err = %v, want ErrTooFew", err)
	}
	if _, err := e.Assign(ids(1)); err != ErrTooFew {
		t.Fatalf("err = %v, want ErrTooFew", err)
	}
}

func TestAssignDeterministicWithFixedShuffle(t *testing.T) {
	t.Parallel()
	e := New(logging.Nop())
	e.shuffle = func(n int, swap func(i, j int)) {} // identity order

	m, err := e.Assign([]int64{10, 20, 30})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	want := map[int64]int64{10: 20, 20: 30, 30: 10}
	for g, r := range want {
		if m[g] != r {
			t.Fatalf("m[%d] = %d, want %d", g, m[g], r)
		}
	}
}
