package allocation

import (
	"encoding/binary"
	"math/rand"

	"github.com/zeebo/xxh3"
)

// Random is the source of every random choice the allocator makes.
// *rand.Rand satisfies it.
type Random interface {
	// Intn returns a value in [0, n). n is always positive.
	Intn(n int) int
	// Shuffle permutes n elements using swap.
	Shuffle(n int, swap func(i, j int))
}

// NewSeededRandom returns a deterministic generator for seed.
func NewSeededRandom(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible draws, not security
}

// TeamSeed derives the seed of one team from the run seed, so that a team's
// draws do not depend on which worker handles it or in which order.
func TeamSeed(runSeed int64, team int) int64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(int64(team)))
	return int64(xxh3.HashSeed(b[:], uint64(runSeed)))
}

// NewTeamRandom returns the generator of one team for a run seed.
func NewTeamRandom(runSeed int64, team int) *rand.Rand {
	return NewSeededRandom(TeamSeed(runSeed, team))
}
