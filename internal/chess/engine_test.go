package chess

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/park285/cheese-chess/internal/engine"
)

func mustBoard(t *testing.T, fen string) engine.Board {
	t.Helper()
	b, err := engine.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

func TestSelectCandidateTieBreak(t *testing.T) {
	moves := engine.LegalMoves(engine.NewBoard())
	cands := []Candidate{
		{Move: moves[0], EvalCP: 10},
		{Move: moves[1], EvalCP: 30},
		{Move: moves[2], EvalCP: 30},
		{Move: moves[3], EvalCP: 30},
	}
	first := DifficultyPreset{Depth: 1, TieBreak: TieBreakFirst}
	for i := 0; i < 10; i++ {
		got, err := SelectCandidate(first, cands, rand.New(rand.NewSource(int64(i))))
		if err != nil {
			t.Fatalf("SelectCandidate: %v", err)
		}
		if got.Move != moves[1] {
			t.Fatalf("first tie-break chose %s, want %s", got.Move, moves[1])
		}
	}

	random := DifficultyPreset{Depth: 1, TieBreak: TieBreakRandom}
	seen := map[engine.Move]bool{}
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		got, err := SelectCandidate(random, cands, r)
		if err != nil {
			t.Fatalf("SelectCandidate: %v", err)
		}
		if got.EvalCP != 30 {
			t.Fatalf("random tie-break left the best score: %+v", got)
		}
		seen[got.Move] = true
	}
	if len(seen) != 3 {
		t.Fatalf("random tie-break visited %d of 3 tied moves", len(seen))
	}

	if _, err := SelectCandidate(first, nil, r); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestSelectCandidateNoiseStaysInBand(t *testing.T) {
	moves := engine.LegalMoves(engine.NewBoard())
	cands := []Candidate{
		{Move: moves[0], EvalCP: 0},
		{Move: moves[1], EvalCP: 500},
	}
	p := DifficultyPreset{Depth: 1, EvalNoise: 40, TieBreak: TieBreakFirst}
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		got, err := SelectCandidate(p, cands, r)
		if err != nil {
			t.Fatalf("SelectCandidate: %v", err)
		}
		// noise of 40cp can never overturn a 500cp gap
		if got.Move != moves[1] {
			t.Fatalf("noise flipped a 500cp decision")
		}
	}
}

func TestSubstituteRandom(t *testing.T) {
	legal := engine.LegalMoves(engine.NewBoard())
	r := rand.New(rand.NewSource(1))
	always := DifficultyPreset{Depth: 1, RandomMoveRate: 1, TieBreak: TieBreakFirst}
	never := DifficultyPreset{Depth: 1, RandomMoveRate: 0, TieBreak: TieBreakFirst}
	for i := 0; i < 20; i++ {
		if _, ok := SubstituteRandom(always, legal, r); !ok {
			t.Fatalf("rate 1 must always substitute")
		}
		if _, ok := SubstituteRandom(never, legal, r); ok {
			t.Fatalf("rate 0 must never substitute")
		}
	}
}

func TestChooseMoveHardIsDeterministic(t *testing.T) {
	hard, err := GetPreset(DifficultyHard)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	hard.Depth = 3
	b := mustBoard(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	a, err := NewSeededEngine(1).ChooseMove(context.Background(), b, hard)
	if err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	c, err := NewSeededEngine(99).ChooseMove(context.Background(), b, hard)
	if err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	if a.Move != c.Move || a.Score != c.Score {
		t.Fatalf("hard preset varied with seed: %s(%d) vs %s(%d)", a.Move, a.Score, c.Move, c.Score)
	}
	if a.Substituted || a.Depth != 3 || a.Nodes == 0 {
		t.Fatalf("unexpected choice metadata: %+v", a)
	}
}

func TestChooseMoveSeedReproducible(t *testing.T) {
	easy, err := GetPreset(DifficultyEasy)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	b := engine.NewBoard()
	play := func() []engine.Move {
		e := NewEngine()
		e.SetRandomSeed(77)
		var out []engine.Move
		for i := 0; i < 5; i++ {
			c, err := e.ChooseMove(context.Background(), b, easy)
			if err != nil {
				t.Fatalf("ChooseMove: %v", err)
			}
			if _, ok := engine.IsLegal(b, c.Move); !ok {
				t.Fatalf("easy chose illegal move %s", c.Move)
			}
			out = append(out, c.Move)
		}
		return out
	}
	x, y := play(), play()
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("seeded engines diverged at %d: %s vs %s", i, x[i], y[i])
		}
	}
}

func TestChooseMoveNoLegalMoves(t *testing.T) {
	b := mustBoard(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	medium, _ := GetPreset(DifficultyMedium)
	if _, err := NewSeededEngine(1).ChooseMove(context.Background(), b, medium); !errors.Is(err, engine.ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves, got %v", err)
	}
}

// With randomness disabled, the hard preset's move is never rated worse than
// the easy preset's move by a hard-depth search.
func TestDifficultyMonotonicity(t *testing.T) {
	easy, _ := GetPreset(DifficultyEasy)
	easy.RandomMoveRate = 0
	easy.EvalNoise = 0
	easy.TieBreak = TieBreakFirst
	easy.Depth = 1
	hard, _ := GetPreset(DifficultyHard)
	hard.Depth = 3

	positions := []string{
		// the d5 pawn is poisoned: cxd5 wins the queen
		"4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
	}
	e := NewSeededEngine(5)
	for _, fen := range positions {
		b := mustBoard(t, fen)
		ec, err := e.ChooseMove(context.Background(), b, easy)
		if err != nil {
			t.Fatalf("easy ChooseMove: %v", err)
		}
		hc, err := e.ChooseMove(context.Background(), b, hard)
		if err != nil {
			t.Fatalf("hard ChooseMove: %v", err)
		}
		ref, err := engine.Search(context.Background(), b, engine.Options{Depth: hard.Depth, ScoreAll: true})
		if err != nil {
			t.Fatalf("reference search: %v", err)
		}
		scoreOf := func(m engine.Move) int {
			for _, sm := range ref.Scores {
				if sm.Move == m {
					return sm.Score
				}
			}
			t.Fatalf("move %s missing from reference scores", m)
			return 0
		}
		if scoreOf(hc.Move) < scoreOf(ec.Move) {
			t.Fatalf("%s: hard %s (%d) rated below easy %s (%d)", fen, hc.Move, scoreOf(hc.Move), ec.Move, scoreOf(ec.Move))
		}
	}

	poisoned := mustBoard(t, positions[0])
	hc, err := e.ChooseMove(context.Background(), poisoned, hard)
	if err != nil {
		t.Fatalf("hard ChooseMove: %v", err)
	}
	if hc.Move.String() == "d1d5" {
		t.Fatalf("hard preset took the poisoned pawn")
	}
}
