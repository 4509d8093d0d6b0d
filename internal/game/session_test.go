package game

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/engine"
)

type fixedPicker struct {
	move  engine.Move
	err   error
	calls int
}

func (p *fixedPicker) PickMove(_ context.Context, b engine.Board, _ string) (engine.Move, error) {
	p.calls++
	if p.err != nil {
		return engine.Move{}, p.err
	}
	if p.move == (engine.Move{}) {
		return engine.LegalMoves(b)[0], nil
	}
	return p.move, nil
}

func newSession(t *testing.T, fen string, ai engine.Color) *Session {
	t.Helper()
	var start *engine.Board
	if fen != "" {
		b, err := engine.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		start = &b
	}
	s, err := NewSession(start, chess.DifficultyMedium, ai)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func play(t *testing.T, s *Session, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if err := s.SubmitMoveText(mv); err != nil {
			t.Fatalf("SubmitMoveText(%s): %v", mv, err)
		}
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s, err := NewSession(nil, "Beginner", engine.Black)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Difficulty() != chess.DifficultyEasy {
		t.Fatalf("difficulty = %q, want easy", s.Difficulty())
	}
	if s.Board() != engine.NewBoard() || s.Ply() != 0 || s.Outcome().Ended() {
		t.Fatalf("unexpected fresh session state")
	}
	if s.IsAITurn() {
		t.Fatalf("computer plays black, white moves first")
	}
	if _, err := NewSession(nil, "godlike", engine.Black); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestFoolsMate(t *testing.T) {
	s := newSession(t, "", engine.Black)
	play(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	o := s.Outcome()
	if o.Kind != CheckmateBlackWins || o.Result() != "0-1" || o.Method() != "checkmate" {
		t.Fatalf("outcome = %+v (%s)", o, o)
	}
	if len(s.LegalMoves()) != 0 || len(engine.LegalMoves(s.Board())) != 0 {
		t.Fatalf("mated side must have no legal moves")
	}
	if err := s.SubmitMoveText("a2a3"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("move after mate: expected ErrInvalidState, got %v", err)
	}
	if err := s.Undo(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undo after mate: expected ErrInvalidState, got %v", err)
	}
	if err := s.Resign(engine.White); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resign after mate: expected ErrInvalidState, got %v", err)
	}
}

func TestStalemateOutcome(t *testing.T) {
	s := newSession(t, "7k/4Q3/6K1/8/8/8/8/8 w - - 0 1", engine.Black)
	play(t, s, "e7f7")
	if s.Outcome().Kind != StalemateDraw || s.Outcome().Result() != "1/2-1/2" {
		t.Fatalf("outcome = %s", s.Outcome())
	}
	if s.Board().InCheck() {
		t.Fatalf("stalemated side must not be in check")
	}
}

func TestIllegalMoveLeavesStateUntouched(t *testing.T) {
	s := newSession(t, "", engine.Black)
	play(t, s, "e2e4")
	before := s.Board()
	for _, mv := range []string{"e4e6", "e7e4", "xx", "e2e4", "e7e8q"} {
		if err := s.SubmitMoveText(mv); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("SubmitMoveText(%s): expected ErrIllegalMove, got %v", mv, err)
		}
	}
	if s.Board() != before || s.Ply() != 1 {
		t.Fatalf("illegal moves mutated the session")
	}
}

func TestUndoIsIdempotentWithReplay(t *testing.T) {
	s := newSession(t, "", engine.Black)
	play(t, s, "e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4")
	prior := s.Board()
	priorBoards := s.Boards()
	last := s.Moves()[s.Ply()-1]

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if s.Ply() != 5 {
		t.Fatalf("ply after undo = %d", s.Ply())
	}
	if err := s.SubmitMove(last); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if s.Board() != prior {
		t.Fatalf("board after undo+replay differs:\n%s\nvs\n%s", s.Board(), prior)
	}
	if diff := cmp.Diff(priorBoards, s.Boards(), cmp.AllowUnexported(engine.Board{})); diff != "" {
		t.Fatalf("history differs (-want +got):\n%s", diff)
	}

	fresh := newSession(t, "", engine.Black)
	if err := fresh.Undo(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undo on empty history: expected ErrInvalidState, got %v", err)
	}
}

func TestUndoToTurn(t *testing.T) {
	s := newSession(t, "", engine.Black)
	if err := s.UndoToTurn(engine.White); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undo at the start: expected ErrInvalidState, got %v", err)
	}
	play(t, s, "e2e4", "e7e5", "g1f3")
	afterE5 := s.Boards()[2]

	// g1f3 alone goes back; White is to move after e5.
	if err := s.UndoToTurn(engine.White); err != nil {
		t.Fatalf("UndoToTurn: %v", err)
	}
	if s.Ply() != 2 || s.Board() != afterE5 {
		t.Fatalf("expected the position after e5, ply=%d\n%s", s.Ply(), s.Board())
	}
	if err := s.UndoToTurn(engine.White); err != nil {
		t.Fatalf("UndoToTurn: %v", err)
	}
	if s.Ply() != 0 || s.Board() != engine.NewBoard() {
		t.Fatalf("expected the start position, ply=%d", s.Ply())
	}
	if err := s.UndoToTurn(engine.Black); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("no black position to return to: expected ErrInvalidState, got %v", err)
	}

	mated := newSession(t, "", engine.Black)
	play(t, mated, "f2f3", "e7e5", "g2g4", "d8h4")
	if err := mated.UndoToTurn(engine.White); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("undo after mate: expected ErrInvalidState, got %v", err)
	}
	if mated.Ply() != 4 {
		t.Fatalf("failed undo changed the game, ply=%d", mated.Ply())
	}
}

func TestThreefoldRepetition(t *testing.T) {
	s := newSession(t, "", engine.Black)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	play(t, s, shuffle...)
	if s.Outcome().Ended() {
		t.Fatalf("second occurrence must not end the game")
	}
	play(t, s, shuffle...)
	if s.Outcome().Kind != ThreefoldRepetitionDraw {
		t.Fatalf("outcome = %s, want threefold", s.Outcome())
	}
}

func TestFiftyMoveRule(t *testing.T) {
	s := newSession(t, "4k3/8/8/8/8/8/4P3/R3K3 w - - 98 60", engine.Black)
	play(t, s, "a1a2")
	if s.Outcome().Ended() {
		t.Fatalf("clock 99 must not end the game")
	}
	play(t, s, "e8d8")
	if s.Outcome().Kind != FiftyMoveDraw {
		t.Fatalf("outcome = %s, want fifty-move draw", s.Outcome())
	}
}

func TestInsufficientMaterialAfterCapture(t *testing.T) {
	s := newSession(t, "8/8/8/4k3/8/8/3r4/4K1N1 w - - 0 1", engine.Black)
	play(t, s, "e1d2")
	if s.Outcome().Kind != InsufficientMaterialDraw {
		t.Fatalf("outcome = %s, want insufficient material", s.Outcome())
	}
	if !s.Outcome().IsDraw() {
		t.Fatalf("insufficient material must be a draw")
	}
}

func TestTerminalStartPositionEndsImmediately(t *testing.T) {
	s := newSession(t, "8/8/8/4k3/8/8/8/4K3 w - - 0 1", engine.Black)
	if s.Outcome().Kind != InsufficientMaterialDraw {
		t.Fatalf("outcome = %s", s.Outcome())
	}
}

func TestRequestAIMove(t *testing.T) {
	s := newSession(t, "", engine.White)
	if !s.IsAITurn() {
		t.Fatalf("computer plays white and must move first")
	}
	picker := &fixedPicker{}
	mv, err := s.RequestAIMove(context.Background(), picker)
	if err != nil {
		t.Fatalf("RequestAIMove: %v", err)
	}
	if s.Ply() != 1 || s.Moves()[0] != mv {
		t.Fatalf("ai move not recorded")
	}
	if _, err := s.RequestAIMove(context.Background(), picker); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("ai move on human turn: expected ErrInvalidState, got %v", err)
	}

	bad := &fixedPicker{move: engine.Move{From: engine.A1, To: engine.A8}}
	play(t, s, "e7e5")
	if _, err := s.RequestAIMove(context.Background(), bad); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("illegal picker move: expected ErrIllegalMove, got %v", err)
	}
	if s.Ply() != 2 {
		t.Fatalf("failed ai move changed history")
	}
}

func TestRequestAIMoveOnEndedGame(t *testing.T) {
	s := newSession(t, "", engine.Black)
	if err := s.Resign(engine.White); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if w, ok := s.Outcome().Winner(); !ok || w != engine.Black {
		t.Fatalf("winner after white resigns = %v %v", w, ok)
	}
	picker := &fixedPicker{}
	_, err := s.RequestAIMove(context.Background(), picker)
	if !errors.Is(err, ErrNoLegalMove) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrNoLegalMove and ErrInvalidState, got %v", err)
	}
	if picker.calls != 0 {
		t.Fatalf("picker consulted for an ended game")
	}
}

func TestRequestAIMoveWithEngine(t *testing.T) {
	s := newSession(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", engine.White)
	e := chess.NewSeededEngine(1)
	if _, err := s.RequestAIMove(context.Background(), e); err != nil {
		t.Fatalf("RequestAIMove: %v", err)
	}
	if s.Outcome().Kind != CheckmateWhiteWins {
		t.Fatalf("medium engine missed mate in one: %s after %v", s.Outcome(), s.Moves())
	}
}
