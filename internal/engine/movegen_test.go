package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	position3FEN = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	position4FEN = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	position5FEN = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
)

func mustFEN(t *testing.T, fen string) Board {
	t.Helper()
	b, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

func playCoords(t *testing.T, b Board, moves ...string) Board {
	t.Helper()
	for _, text := range moves {
		m, err := ParseMove(b, text)
		if err != nil {
			t.Fatalf("ParseMove(%s) on %s: %v", text, b.FEN(), err)
		}
		b = b.Apply(m)
	}
	return b
}

func TestPerft(t *testing.T) {
	cases := []struct {
		name  string
		fen   string
		nodes []uint64
	}{
		{"start", StartFEN, []uint64{20, 400, 8902}},
		{"kiwipete", kiwipeteFEN, []uint64{48, 2039}},
		{"position3", position3FEN, []uint64{14, 191, 2812}},
		{"position4", position4FEN, []uint64{6, 264}},
		{"position5", position5FEN, []uint64{44, 1486}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := mustFEN(t, tc.fen)
			for i, want := range tc.nodes {
				if got := Perft(b, i+1); got != want {
					t.Fatalf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
		})
	}
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		b := NewBoard()
		for ply := 0; ply < 80; ply++ {
			moves := LegalMoves(b)
			if len(moves) == 0 {
				break
			}
			us := b.Turn()
			for _, m := range moves {
				nb := b.Apply(m)
				if nb.IsSquareAttacked(nb.KingSquare(us), us.Other()) {
					t.Fatalf("move %s on %s leaves own king attacked", m, b.FEN())
				}
				if got, ok := IsLegal(b, Move{From: m.From, To: m.To, Promotion: m.Promotion}); !ok || got != m {
					t.Fatalf("IsLegal(%s) = %v, %v", m, got, ok)
				}
			}
			b = b.Apply(moves[r.Intn(len(moves))])
			if err := b.Validate(); err != nil {
				t.Fatalf("reached invalid board %s: %v", b.FEN(), err)
			}
		}
	}
}

func TestPromotionOrder(t *testing.T) {
	b := mustFEN(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	var got []string
	for _, m := range LegalMovesFrom(b, NewSquare(0, 6)) {
		got = append(got, m.String())
	}
	want := []string{"a7a8q", "a7a8r", "a7a8b", "a7a8n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("promotion moves mismatch (-want +got):\n%s", diff)
	}
}

func TestCastlingBlockedByAttack(t *testing.T) {
	// black rook on f8 covers f1, so white may only castle queenside
	b := mustFEN(t, "4kr2/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	var castles []string
	for _, m := range LegalMoves(b) {
		if m.IsCastle() {
			castles = append(castles, m.String())
		}
	}
	if diff := cmp.Diff([]string{"e1c1"}, castles); diff != "" {
		t.Fatalf("castling moves mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMove(t *testing.T) {
	b := NewBoard()
	if _, err := ParseMove(b, "e2e5"); !errors.Is(err, ErrInvalidNotation) {
		t.Fatalf("expected ErrInvalidNotation for illegal move, got %v", err)
	}
	if _, err := ParseMove(b, "zz"); !errors.Is(err, ErrInvalidNotation) {
		t.Fatalf("expected ErrInvalidNotation for garbage, got %v", err)
	}
	m, err := ParseMove(b, "E2E4")
	if err != nil {
		t.Fatalf("ParseMove upper-case: %v", err)
	}
	if m.Flags&FlagDoublePush == 0 {
		t.Fatalf("expected double push flag on %s", m)
	}
	promo := mustFEN(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	if m, err := ParseMove(promo, "a7a8N"); err != nil || m.Promotion != Knight {
		t.Fatalf("ParseMove promotion: %v %v", m, err)
	}
	if _, err := ParseMove(promo, "a7a8"); err == nil {
		t.Fatalf("promotion without piece must be rejected")
	}
}

func TestStatusDetection(t *testing.T) {
	foolsMate := playCoords(t, NewBoard(), "f2f3", "e7e5", "g2g4", "d8h4")
	cases := []struct {
		name  string
		board Board
		want  Status
	}{
		{"start", NewBoard(), Ongoing},
		{"fools mate", foolsMate, Checkmate},
		{"back rank", mustFEN(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1"), Checkmate},
		{"stalemate", mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"), Stalemate},
		{"bare kings", mustFEN(t, "8/8/8/4k3/8/8/8/4K3 w - - 0 1"), InsufficientMaterial},
		{"fifty move", mustFEN(t, "8/8/8/4k3/8/8/4P3/4K3 w - - 100 80"), FiftyMove},
	}
	for _, tc := range cases {
		if got := BoardStatus(tc.board); got != tc.want {
			t.Fatalf("%s: status = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestInsufficientMaterial(t *testing.T) {
	cases := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/2B1K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/1N2K3 w - - 0 1", true},
		{"8/8/7b/4k3/8/8/8/2B1K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/2B1KB2 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/1NB1K3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/R3K3 w - - 0 1", false},
	}
	for _, tc := range cases {
		if got := IsInsufficientMaterial(mustFEN(t, tc.fen)); got != tc.want {
			t.Fatalf("IsInsufficientMaterial(%s) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}
