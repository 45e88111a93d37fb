// Package draft is the pairing engine: it assigns every participant the
// person they must gift.
//
// The assignment is a uniformly random single cycle over the participant
// set. A single cycle guarantees two things the gifting rules need:
// nobody draws themselves, and for three or more participants no two
// people draw each other.
package draft

import (
	"errors"
	"math/rand/v2"

	"santabot/internal/logging"
)

var ErrTooFew = errors.New("at least two participants are required")

// Engine draws matches. The zero value works; the logger defaults to a
// no-op.
type Engine struct {
	log logging.Logger

	// shuffle is swappable for deterministic tests.
	shuffle func(n int, swap func(i, j int))
}

func New(log logging.Logger) *Engine {
	return &Engine{log: log, shuffle: rand.Shuffle}
}

// Assign returns the receiver -> match mapping. Every participant gives
// and receives exactly once.
func (e *Engine) Assign(ids []int64) (map[int64]int64, error) {
	if len(ids) < 2 {
		return nil, ErrTooFew
	}

	order := make([]int64, len(ids))
	copy(order, ids)
	sh := e.shuffle
	if sh == nil {
		sh = rand.Shuffle
	}
	sh(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	// Walk the shuffled ring: everyone gifts the next person.
	matches := make(map[int64]int64, len(order))
	for i, giver := range order {
		matches[giver] = order[(i+1)%len(order)]
	}

	if !e.log.IsZero() {
		e.log.Info("draw complete", logging.Int("participants", len(ids)))
	}
	return matches, nil
}
