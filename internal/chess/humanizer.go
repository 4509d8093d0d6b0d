package chess

import (
	"errors"
	"math"
	"math/rand"

	"github.com/park285/cheese-chess/internal/engine"
)

type Candidate struct {
	Move   engine.Move
	EvalCP int
}

// SubstituteRandom rolls the preset's random-move rate and, on a hit,
// returns a uniformly chosen legal move.
func SubstituteRandom(p DifficultyPreset, legal []engine.Move, r *rand.Rand) (engine.Move, bool) {
	if p.RandomMoveRate <= 0 || len(legal) == 0 || r == nil {
		return engine.Move{}, false
	}
	if r.Float64() >= p.RandomMoveRate {
		return engine.Move{}, false
	}
	return legal[r.Intn(len(legal))], true
}

// SelectCandidate applies evaluation noise and picks the best candidate.
// Candidates must be in search order; ties are resolved by the preset.
func SelectCandidate(p DifficultyPreset, candidates []Candidate, r *rand.Rand) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errors.New("no candidates to choose from")
	}
	if err := ValidatePreset(p); err != nil {
		return Candidate{}, err
	}

	noisy := make([]int, len(candidates))
	best := math.MinInt
	for i, c := range candidates {
		score := c.EvalCP
		if p.EvalNoise > 0 && r != nil {
			offset := r.Intn(2*p.EvalNoise+1) - p.EvalNoise
			score = saturatingAdd(score, offset)
		}
		noisy[i] = score
		if score > best {
			best = score
		}
	}

	tied := make([]int, 0, 4)
	for i, score := range noisy {
		if score == best {
			tied = append(tied, i)
		}
	}
	index := tied[0]
	if p.TieBreak == TieBreakRandom && len(tied) > 1 && r != nil {
		index = tied[r.Intn(len(tied))]
	}
	return candidates[index], nil
}

func saturatingAdd(a, b int) int {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt {
		return math.MaxInt
	}
	if sum < math.MinInt {
		return math.MinInt
	}
	return int(sum)
}
