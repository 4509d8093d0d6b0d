package savecodec

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
)

func newSession(t *testing.T, fen, difficulty string, ai engine.Color, moves ...string) *game.Session {
	t.Helper()
	var start *engine.Board
	if fen != "" {
		b, err := engine.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		start = &b
	}
	s, err := game.NewSession(start, difficulty, ai)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for _, mv := range moves {
		if err := s.SubmitMoveText(mv); err != nil {
			t.Fatalf("SubmitMoveText(%s): %v", mv, err)
		}
	}
	return s
}

func assertSameSession(t *testing.T, want, got *game.Session) {
	t.Helper()
	if got.Board() != want.Board() {
		t.Fatalf("board mismatch:\n%s\nvs\n%s", got.Board(), want.Board())
	}
	if diff := cmp.Diff(want.Moves(), got.Moves()); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if got.Outcome() != want.Outcome() {
		t.Fatalf("outcome mismatch: %s vs %s", got.Outcome(), want.Outcome())
	}
	if got.Difficulty() != want.Difficulty() || got.AIColor() != want.AIColor() {
		t.Fatalf("metadata mismatch: %s/%s vs %s/%s", got.Difficulty(), got.AIColor(), want.Difficulty(), want.AIColor())
	}
	if got.StartBoard() != want.StartBoard() {
		t.Fatalf("start board mismatch")
	}
}

func TestEncodeLayout(t *testing.T) {
	s := newSession(t, "", "hard", engine.White, "e2e4", "e7e5", "g1f3")
	want := strings.Join([]string{
		`[Format "cheese-save/1"]`,
		`[Difficulty "hard"]`,
		`[AIColor "white"]`,
		`[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"]`,
		`[Position "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"]`,
		``,
		`e2e4 e7e5 g1f3`,
		``,
	}, "\n")
	if diff := cmp.Diff(want, Encode(s)); diff != "" {
		t.Fatalf("encoded text mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	checkmated := newSession(t, "", "medium", engine.Black, "f2f3", "e7e5", "g2g4", "d8h4")
	resigned := newSession(t, "", "easy", engine.White, "d2d4", "d7d5")
	if err := resigned.Resign(engine.Black); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	repeated := newSession(t, "", "hard", engine.Black,
		"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8")
	promo := newSession(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1", "medium", engine.Black, "a7a8n")

	sessions := map[string]*game.Session{
		"fresh":      newSession(t, "", "medium", engine.Black),
		"checkmate":  checkmated,
		"resigned":   resigned,
		"threefold":  repeated,
		"promotion":  promo,
		"castle+ep":  newSession(t, "", "hard", engine.Black, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6", "a6a5", "g1f3", "a5a4", "f1e2", "a4a3", "e1g1"),
		"custom FEN": newSession(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 5 30", "easy", engine.White, "e8c8"),
	}

	r := rand.New(rand.NewSource(9))
	randomGame := newSession(t, "", "medium", engine.Black)
	for i := 0; i < 60 && !randomGame.Outcome().Ended(); i++ {
		legal := randomGame.LegalMoves()
		if err := randomGame.SubmitMove(legal[r.Intn(len(legal))]); err != nil {
			t.Fatalf("SubmitMove: %v", err)
		}
	}
	sessions["random"] = randomGame

	for name, s := range sessions {
		text := Encode(s)
		got, err := Decode(text)
		if err != nil {
			t.Fatalf("%s: Decode: %v\n%s", name, err, text)
		}
		assertSameSession(t, s, got)
		if again := Encode(got); again != text {
			t.Fatalf("%s: re-encoding changed the text:\n%s\nvs\n%s", name, again, text)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	const start = `[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"]`
	header := "[Format \"cheese-save/1\"]\n[Difficulty \"medium\"]\n[AIColor \"black\"]\n"
	cases := map[string]string{
		"missing format":     "[Difficulty \"medium\"]\n" + start + "\n",
		"wrong format":       "[Format \"other/2\"]\n[Difficulty \"medium\"]\n" + start + "\n",
		"missing start":      header,
		"unknown tag":        header + start + "\n[Clock \"5\"]\n",
		"duplicate tag":      header + start + "\n[Difficulty \"hard\"]\n",
		"unquoted tag":       header + "[Start rnbqkbnr]\n",
		"unclosed tag":       header + start[:len(start)-1] + "\n",
		"five fen fields":    header + `[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0"]` + "\n",
		"bad piece letter":   header + `[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1"]` + "\n",
		"bad square":         header + `[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq j9 0 1"]` + "\n",
		"two black kings":    header + `[Start "rnbkkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1"]` + "\n",
		"phantom en passant": header + `[Start "4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1"]` + "\n\nd5e6\n",
		"unknown difficulty": "[Format \"cheese-save/1\"]\n[Difficulty \"insane\"]\n" + start + "\n",
		"bad colour":         "[Format \"cheese-save/1\"]\n[Difficulty \"medium\"]\n[AIColor \"green\"]\n" + start + "\n",
		"illegal move":       header + start + "\n\ne2e4 e7e5 e4e5\n",
		"garbage move":       header + start + "\n\ne2e4 hello\n",
		"position mismatch":  header + start + "\n" + `[Position "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"]` + "\n\ne2e4\n",
		"move after mate":    header + start + "\n\nf2f3 e7e5 g2g4 d8h4 a2a3\n",
		"tag after moves":    header + "\ne2e4\n" + start + "\n",
		"resign after mate":  header + start + "\n[Resigned \"white\"]\n\nf2f3 e7e5 g2g4 d8h4\n",
	}
	for name, text := range cases {
		s, err := Decode(text)
		if err == nil {
			t.Fatalf("%s: expected error, got session", name)
		}
		if s != nil {
			t.Fatalf("%s: partial session returned", name)
		}
		if !errors.Is(err, game.ErrMalformedSave) {
			t.Fatalf("%s: error %v does not match ErrMalformedSave", name, err)
		}
		var se *SaveError
		if !errors.As(err, &se) {
			t.Fatalf("%s: error is not a *SaveError: %T", name, err)
		}
	}
}

func TestDecodeErrorCarriesCause(t *testing.T) {
	text := "[Format \"cheese-save/1\"]\n[Difficulty \"medium\"]\n" +
		`[Start "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"]` + "\n\ne2e4 e7e5\ne4e5\n"
	_, err := Decode(text)
	var se *SaveError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SaveError, got %v", err)
	}
	if se.Ply != 3 || se.Line != 6 || se.Token != "e4e5" {
		t.Fatalf("error location = ply %d line %d token %q", se.Ply, se.Line, se.Token)
	}
	if !errors.Is(err, game.ErrIllegalMove) {
		t.Fatalf("cause should match ErrIllegalMove: %v", err)
	}

	_, err = Decode("[Format \"cheese-save/1\"]\n[Difficulty \"medium\"]\n" +
		`[Start "8/8/8/8/8/8/8/8 w - - 0 1"]` + "\n")
	if !errors.Is(err, engine.ErrInvalidFEN) {
		t.Fatalf("cause should match ErrInvalidFEN: %v", err)
	}
}
