// Package random seeds the deterministic shuffles used by games.
//
// A game is created from one int64 seed. Every shuffle after that draws from
// a generator derived from the seed and a shuffle counter, so any snapshot
// can continue with exactly the same randomness as the live game.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed returns a non-zero seed read from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	for {
		if _, err := crand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("read random seed: %w", err)
		}
		if seed := int64(binary.LittleEndian.Uint64(b[:])); seed != 0 {
			return seed, nil
		}
	}
}

// Stream returns the generator for the n-th draw sequence of a seed.
func Stream(seed int64, n int) *rand.Rand {
	// splitmix64 finaliser keeps neighbouring counters far apart.
	z := uint64(seed) + uint64(n+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return rand.New(rand.NewSource(int64(z)))
}
