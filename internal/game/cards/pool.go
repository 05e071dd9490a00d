package cards

import (
	"math/rand"

	"github.com/google/uuid"
)

const (
	// DecksInPool is the number of standard 52-card decks that make up the pool.
	DecksInPool = 2
	// PoolSize is the total number of cards in a game.
	PoolSize = DecksInPool * 52
)

func newID() string {
	return uuid.NewString()
}

// NewPool builds the full 104-card pool in a fixed order. Identities are drawn
// from rng so a seeded game produces the same card IDs every time.
func NewPool(rng *rand.Rand) []Card {
	pool := make([]Card, 0, PoolSize)
	next := func() string {
		if rng == nil {
			return newID()
		}
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return newID()
		}
		return id.String()
	}

	for d := 0; d < DecksInPool; d++ {
		for _, suit := range Suits {
			for rank := 2; rank <= 10; rank++ {
				pool = append(pool, Card{ID: next(), Suit: suit, Rank: rank})
			}
			pool = append(pool, Card{ID: next(), Suit: suit, Rank: 10, Ace: true})
			for _, face := range FaceRanks {
				pool = append(pool, Card{ID: next(), Suit: suit, FaceRank: face})
			}
		}
	}
	return pool
}

// Shuffle permutes cards in place.
func Shuffle(rng *rand.Rand, cards []Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Partition splits cards into face cards and number cards, preserving order.
func Partition(cards []Card) (faces, numbers []Card) {
	for _, c := range cards {
		if c.IsFace() {
			faces = append(faces, c)
		} else {
			numbers = append(numbers, c)
		}
	}
	return faces, numbers
}
