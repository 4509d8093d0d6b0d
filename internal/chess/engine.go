package chess

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/park285/cheese-chess/internal/engine"
)

// Engine picks computer moves for a difficulty preset. It is the only
// source of randomness in move choice and is safe for concurrent use.
type Engine struct {
	randMu sync.Mutex
	rand   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededEngine returns an engine whose choices are reproducible.
func NewSeededEngine(seed int64) *Engine {
	return &Engine{rand: rand.New(rand.NewSource(seed))}
}

type Choice struct {
	Move        engine.Move
	Score       int
	Preset      DifficultyPreset
	Depth       int
	Nodes       uint64
	Duration    time.Duration
	Substituted bool
}

// ChooseMove searches b with the preset's limits and applies its
// randomisation. It returns engine.ErrNoLegalMoves when the side to move
// has no moves.
func (e *Engine) ChooseMove(ctx context.Context, b engine.Board, p DifficultyPreset) (Choice, error) {
	start := time.Now()
	opts, err := BuildSearchOptions(p)
	if err != nil {
		return Choice{}, err
	}

	legal := engine.LegalMoves(b)
	if len(legal) == 0 {
		return Choice{}, engine.ErrNoLegalMoves
	}

	randSrc := e.random()
	if mv, ok := SubstituteRandom(p, legal, randSrc); ok {
		return Choice{
			Move:        mv,
			Preset:      p,
			Duration:    time.Since(start),
			Substituted: true,
		}, nil
	}

	searchCtx, cancel := WithMoveTime(ctx, p)
	defer cancel()
	res, err := engine.Search(searchCtx, b, opts)
	if err != nil {
		return Choice{}, fmt.Errorf("search: %w", err)
	}

	candidates := candidatesFromResult(res)
	chosen, err := SelectCandidate(p, candidates, randSrc)
	if err != nil {
		return Choice{}, err
	}

	return Choice{
		Move:     chosen.Move,
		Score:    chosen.EvalCP,
		Preset:   p,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		Duration: time.Since(start),
	}, nil
}

// PickMove resolves the difficulty name and returns only the chosen move.
func (e *Engine) PickMove(ctx context.Context, b engine.Board, difficulty string) (engine.Move, error) {
	p, err := GetPreset(difficulty)
	if err != nil {
		return engine.Move{}, err
	}
	c, err := e.ChooseMove(ctx, b, p)
	if err != nil {
		return engine.Move{}, err
	}
	return c.Move, nil
}

// candidatesFromResult uses every scored root move when available, else
// only the moves tied for best.
func candidatesFromResult(res engine.Result) []Candidate {
	if len(res.Scores) > 0 {
		out := make([]Candidate, len(res.Scores))
		for i, sm := range res.Scores {
			out[i] = Candidate{Move: sm.Move, EvalCP: sm.Score}
		}
		return out
	}
	out := make([]Candidate, len(res.Ties))
	for i, mv := range res.Ties {
		out[i] = Candidate{Move: mv, EvalCP: res.Score}
	}
	return out
}

func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}
