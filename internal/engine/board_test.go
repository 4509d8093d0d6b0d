package engine

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range []string{
		StartFEN,
		kiwipeteFEN,
		position3FEN,
		position5FEN,
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2",
	} {
		b := mustFEN(t, fen)
		if got := b.FEN(); got != fen {
			t.Fatalf("FEN round trip: got %q want %q", got, fen)
		}
	}
}

func TestParseFENRejects(t *testing.T) {
	cases := map[string]string{
		"five fields":        "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0",
		"seven ranks":        "rnbqkbnr/pppppppp/8/8/8/8/RNBQKBNR w KQkq - 0 1",
		"bad letter":         "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBXKBNR w KQkq - 0 1",
		"long rank":          "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"two white kings":    "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBKKBNR w KQkq - 0 1",
		"no black king":      "rnbqqbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1",
		"bad side":           "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"bad castling":       "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KX - 0 1",
		"bad ep square":      "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e9 0 1",
		"ep on wrong rank":   "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1",
		"bad clock":          "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1",
		"zero fullmove":      "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0",
		"opponent in check":  "4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
		"pawn on first rank": "4k3/8/8/8/8/8/8/P3K3 w - - 0 1",
		"ep without pawn":    "4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1",
		"ep target occupied": "4k3/8/4n3/3Pp3/8/8/8/4K3 w - e6 0 2",
		"ep origin occupied": "4k3/4p3/8/3Pp3/8/8/8/4K3 w - e6 0 2",
		"ep own pawn beyond": "4k3/8/8/8/3pp3/8/8/4K3 b - e3 0 1",
	}
	for name, fen := range cases {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Fatalf("%s: expected ErrInvalidFEN, got %v", name, err)
		}
	}
}

func TestParseFENAcceptsEnPassantAfterDoublePush(t *testing.T) {
	for _, fen := range []string{
		"4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 2",
		"4k3/8/8/8/3pP3/8/8/4K3 b - e3 0 1",
	} {
		b := mustFEN(t, fen)
		var ep []Move
		for _, m := range LegalMoves(b) {
			if m.IsEnPassant() {
				ep = append(ep, m)
			}
		}
		if len(ep) != 1 || ep[0].To != b.EnPassant() {
			t.Fatalf("%s: en-passant captures = %v", fen, ep)
		}
	}
}

func TestParseFENDropsImpossibleCastling(t *testing.T) {
	b := mustFEN(t, "4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	if b.Castling() != WhiteKingside {
		t.Fatalf("castling = %s, want K", b.Castling())
	}
}

func TestApplyInfersSpecialMoves(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	nb := b.Apply(Move{From: E1, To: G1})
	if nb.Piece(NewSquare(5, 0)) != MakePiece(White, Rook) || nb.Piece(H1) != NoPiece {
		t.Fatalf("rook did not hop on unflagged castle:\n%s", nb)
	}
	if nb.Castling() != BlackKingside|BlackQueenside {
		t.Fatalf("castling after O-O = %s, want kq", nb.Castling())
	}
	if nb.KingSquare(White) != G1 {
		t.Fatalf("king square = %s, want g1", nb.KingSquare(White))
	}

	ep := mustFEN(t, "4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 2")
	after := ep.Apply(Move{From: NewSquare(3, 4), To: NewSquare(4, 5)})
	if after.Piece(NewSquare(4, 4)) != NoPiece {
		t.Fatalf("en passant victim still on board:\n%s", after)
	}
	if after.HalfmoveClock() != 0 {
		t.Fatalf("half-move clock after capture = %d", after.HalfmoveClock())
	}
}

func TestApplyCountersAndRookCapture(t *testing.T) {
	b := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 3 10")
	nb := b.Apply(Move{From: A1, To: A8, Flags: FlagCapture})
	if nb.Castling() != WhiteKingside|BlackKingside {
		t.Fatalf("castling after Rxa8 = %s, want Kk", nb.Castling())
	}
	if nb.FullmoveNumber() != 10 || nb.Turn() != Black {
		t.Fatalf("after white move: fullmove=%d turn=%s", nb.FullmoveNumber(), nb.Turn())
	}
	nb = nb.Apply(Move{From: E8, To: NewSquare(4, 6)})
	if nb.FullmoveNumber() != 11 || nb.HalfmoveClock() != 1 {
		t.Fatalf("after black move: fullmove=%d halfmove=%d", nb.FullmoveNumber(), nb.HalfmoveClock())
	}
	if b.Piece(A8) != MakePiece(Black, Rook) {
		t.Fatalf("Apply mutated its receiver")
	}
}

func TestKeyIgnoresUncapturableEnPassant(t *testing.T) {
	b := playCoords(t, NewBoard(), "e2e4")
	if b.EnPassant() != NewSquare(4, 2) {
		t.Fatalf("ep target = %s, want e3", b.EnPassant())
	}
	if b.Key().EP != NoSquare {
		t.Fatalf("uncapturable ep square leaked into key")
	}

	c := mustFEN(t, "4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 2")
	if c.Key().EP != NewSquare(4, 5) {
		t.Fatalf("capturable ep square missing from key")
	}
}
