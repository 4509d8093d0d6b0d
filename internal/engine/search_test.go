package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluateMirrorSymmetry(t *testing.T) {
	for _, fen := range []string{
		StartFEN,
		kiwipeteFEN,
		position3FEN,
		position4FEN,
		position5FEN,
		"4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 2",
		"8/8/8/4k3/8/8/8/2B1KB2 b - - 12 40",
	} {
		b := mustFEN(t, fen)
		if got, want := Evaluate(b.Mirror()), -Evaluate(b); got != want {
			t.Fatalf("Evaluate(mirror(%s)) = %d, want %d", fen, got, want)
		}
		if Evaluate(b) != Evaluate(b) {
			t.Fatalf("Evaluate(%s) not deterministic", fen)
		}
	}
}

func TestEvaluateStartIsMobilityOnly(t *testing.T) {
	// material, tables, centre and shelter cancel; only the mover's 20 moves remain
	if got := Evaluate(NewBoard()); got != 20*mobilityWeight {
		t.Fatalf("Evaluate(start) = %d, want %d", got, 20*mobilityWeight)
	}
}

func TestEvaluateMaterialDominates(t *testing.T) {
	up := mustFEN(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	if Evaluate(up) < 800 {
		t.Fatalf("queen up scored only %d", Evaluate(up))
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	b := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	res, err := Search(context.Background(), b, Options{Depth: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Move.String() != "a1a8" {
		t.Fatalf("best move = %s, want a1a8", res.Move)
	}
	if res.Score != MateScore+2 {
		t.Fatalf("score = %d, want %d", res.Score, MateScore+2)
	}
	if mv, ok := BestMove(b, 1, 0); !ok || mv.String() != "a1a8" {
		t.Fatalf("BestMove depth 1 = %s %v", mv, ok)
	}
}

func TestSearchPrefersShorterMate(t *testing.T) {
	// Qb8 mates at once; slower mates exist as well
	b := mustFEN(t, "7k/8/6K1/8/8/8/8/1Q6 w - - 0 1")
	res, err := Search(context.Background(), b, Options{Depth: 4})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	nb := b.Apply(res.Move)
	if BoardStatus(nb) != Checkmate {
		t.Fatalf("chosen %s does not mate immediately", res.Move)
	}
}

func TestSearchWinsHangingQueen(t *testing.T) {
	b := mustFEN(t, "4k3/8/8/3q4/8/8/8/3QK3 w - - 0 1")
	mv, ok := BestMove(b, 2, 0)
	if !ok || mv.String() != "d1d5" {
		t.Fatalf("BestMove = %s %v, want d1d5", mv, ok)
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	b := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if _, err := Search(context.Background(), b, Options{Depth: 2}); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves, got %v", err)
	}
	if _, ok := BestMove(b, 2, 0); ok {
		t.Fatalf("BestMove on stalemate must report no move")
	}
}

func TestSearchCancelledStillCompletesDepthOne(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Search(ctx, NewBoard(), Options{Depth: 6})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Depth != 1 {
		t.Fatalf("completed depth = %d, want 1", res.Depth)
	}
	if _, ok := IsLegal(NewBoard(), res.Move); !ok {
		t.Fatalf("returned illegal move %s", res.Move)
	}
}

func TestSearchTiesMatchFullWindow(t *testing.T) {
	for _, fen := range []string{StartFEN, position3FEN, "4k3/8/8/8/8/8/8/R3K2R w KQ - 0 1"} {
		b := mustFEN(t, fen)
		fast, err := Search(context.Background(), b, Options{Depth: 2})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		full, err := Search(context.Background(), b, Options{Depth: 2, ScoreAll: true})
		if err != nil {
			t.Fatalf("Search ScoreAll: %v", err)
		}
		if fast.Score != full.Score {
			t.Fatalf("%s: score %d vs full-window %d", fen, fast.Score, full.Score)
		}
		if diff := cmp.Diff(full.Ties, fast.Ties); diff != "" {
			t.Fatalf("%s: ties differ (-full +fast):\n%s", fen, diff)
		}
		if len(full.Scores) != len(LegalMoves(b)) {
			t.Fatalf("%s: scored %d moves, want %d", fen, len(full.Scores), len(LegalMoves(b)))
		}
		for _, sm := range full.Scores {
			if sm.Score > full.Score {
				t.Fatalf("%s: move %s scored %d above best %d", fen, sm.Move, sm.Score, full.Score)
			}
		}
	}
}

func TestSearchSeededTieBreakIsReproducible(t *testing.T) {
	b := NewBoard()
	pick := func(seed int64) Move {
		res, err := Search(context.Background(), b, Options{Depth: 1, Rand: rand.New(rand.NewSource(seed))})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		found := false
		for _, m := range res.Ties {
			if m == res.Move {
				found = true
			}
		}
		if !found {
			t.Fatalf("chosen move %s not among ties %v", res.Move, res.Ties)
		}
		return res.Move
	}
	if pick(42) != pick(42) {
		t.Fatalf("same seed produced different moves")
	}
}
