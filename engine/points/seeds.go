package points

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
)

var (
	// ErrNoSeeds is returned when a seed set is empty.
	ErrNoSeeds = errors.New("no seeds")

	// ErrDegenerateSeed is returned for seeds that are non-finite, sit on the origin fixed
	// point, or duplicate another seed.
	ErrDegenerateSeed = errors.New("degenerate seed")
)

// SeedKind selects a seed generator.
type SeedKind string

const (
	// SeedKindLine places points along +X at a fixed spacing.
	SeedKindLine SeedKind = "line"

	// SeedKindCube scatters points uniformly in an axis-aligned cube around the origin.
	SeedKindCube SeedKind = "cube"
)

// Line returns n seeds on the X axis at x = spacing·(i+1), y = z = 0.
// Starting at one spacing keeps the first seed off the origin fixed point.
//
// Parameters:
//   - n: the number of seeds
//   - spacing: the distance between consecutive seeds
//
// Returns:
//   - []common.Vec3: the seeds
func Line(n int, spacing float32) []common.Vec3 {
	seeds := make([]common.Vec3, n)
	for i := range seeds {
		seeds[i] = common.Vec3{spacing * float32(i+1), 0, 0}
	}
	return seeds
}

// Cube returns n seeds drawn uniformly from [-halfExtent, halfExtent]³ with a deterministic PCG stream.
//
// Parameters:
//   - n: the number of seeds
//   - halfExtent: half the cube's edge length
//   - seed: the random stream seed
//
// Returns:
//   - []common.Vec3: the seeds
func Cube(n int, halfExtent float32, seed uint64) []common.Vec3 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seeds := make([]common.Vec3, n)
	for i := range seeds {
		for c := range 3 {
			seeds[i][c] = (rng.Float32()*2 - 1) * halfExtent
		}
	}
	return seeds
}

// Explicit returns a copy of caller-provided seed positions.
func Explicit(positions []common.Vec3) []common.Vec3 {
	seeds := make([]common.Vec3, len(positions))
	copy(seeds, positions)
	return seeds
}

// Generate dispatches to the generator for kind.
//
// Parameters:
//   - kind: the generator to use
//   - n: the number of seeds
//   - spacing: the line spacing (SeedKindLine)
//   - halfExtent: the cube half extent (SeedKindCube)
//   - seed: the random stream seed (SeedKindCube)
//
// Returns:
//   - []common.Vec3: the seeds
//   - error: an error if kind is unknown
func Generate(kind SeedKind, n int, spacing, halfExtent float32, seed uint64) ([]common.Vec3, error) {
	switch kind {
	case SeedKindLine:
		return Line(n, spacing), nil
	case SeedKindCube:
		return Cube(n, halfExtent, seed), nil
	default:
		return nil, fmt.Errorf("unknown seed kind %q", kind)
	}
}

// ValidateSeeds rejects seed sets that cannot produce a useful ensemble: an empty set,
// any non-finite component, any seed exactly at the origin (a fixed point of the system),
// or duplicate seeds (they would stay coincident forever).
//
// Parameters:
//   - seeds: the seeds to validate
//
// Returns:
//   - error: nil, or an error wrapping ErrNoSeeds or ErrDegenerateSeed
func ValidateSeeds(seeds []common.Vec3) error {
	if len(seeds) == 0 {
		return ErrNoSeeds
	}
	seen := make(map[common.Vec3]int, len(seeds))
	for i, s := range seeds {
		if !common.IsFinite3(s) {
			return fmt.Errorf("%w: seed %d is not finite: %v", ErrDegenerateSeed, i, s)
		}
		if s == (common.Vec3{}) {
			return fmt.Errorf("%w: seed %d is the origin", ErrDegenerateSeed, i)
		}
		if j, ok := seen[s]; ok {
			return fmt.Errorf("%w: seed %d duplicates seed %d", ErrDegenerateSeed, i, j)
		}
		seen[s] = i
	}
	return nil
}
