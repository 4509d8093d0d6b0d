package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/engine"
)

// MovePicker chooses the computer's move for a difficulty.
type MovePicker interface {
	PickMove(ctx context.Context, b engine.Board, difficulty string) (engine.Move, error)
}

// Session is one game against the computer. It keeps a board snapshot per
// ply, so undo is exact. A Session must not be mutated concurrently.
type Session struct {
	boards     []engine.Board
	moves      []engine.Move
	outcome    Outcome
	difficulty string
	aiColor    engine.Color
}

// NewSession starts a game from start, or from the standard position when
// start is nil. A start position that is already decided ends the session
// immediately.
func NewSession(start *engine.Board, difficulty string, aiColor engine.Color) (*Session, error) {
	name, err := chess.ParseDifficulty(difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	if aiColor != engine.White && aiColor != engine.Black {
		return nil, fmt.Errorf("%w: bad ai colour %d", ErrInvalidState, aiColor)
	}
	b := engine.NewBoard()
	if start != nil {
		if err := start.Validate(); err != nil {
			return nil, err
		}
		b = *start
	}
	s := &Session{
		boards:     []engine.Board{b},
		difficulty: name,
		aiColor:    aiColor,
	}
	s.outcome = outcomeFor(s.boards)
	return s, nil
}

func (s *Session) Board() engine.Board      { return s.boards[len(s.boards)-1] }
func (s *Session) StartBoard() engine.Board { return s.boards[0] }
func (s *Session) Outcome() Outcome         { return s.outcome }
func (s *Session) Difficulty() string       { return s.difficulty }
func (s *Session) AIColor() engine.Color    { return s.aiColor }
func (s *Session) HumanColor() engine.Color { return s.aiColor.Other() }
func (s *Session) Ply() int                 { return len(s.moves) }

// Moves returns a copy of the applied moves.
func (s *Session) Moves() []engine.Move {
	return append([]engine.Move(nil), s.moves...)
}

// Boards returns a copy of every snapshot, start position first.
func (s *Session) Boards() []engine.Board {
	return append([]engine.Board(nil), s.boards...)
}

// IsAITurn reports whether the game is running and the computer is to move.
func (s *Session) IsAITurn() bool {
	return !s.outcome.Ended() && s.Board().Turn() == s.aiColor
}

// LegalMoves is empty once the game has ended.
func (s *Session) LegalMoves() []engine.Move {
	if s.outcome.Ended() {
		return nil
	}
	return engine.LegalMoves(s.Board())
}

func (s *Session) LegalMovesFrom(sq engine.Square) []engine.Move {
	if s.outcome.Ended() {
		return nil
	}
	return engine.LegalMovesFrom(s.Board(), sq)
}

// SubmitMove applies m for whichever side is to move.
func (s *Session) SubmitMove(m engine.Move) error {
	if s.outcome.Ended() {
		return fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.outcome)
	}
	legal, ok := engine.IsLegal(s.Board(), m)
	if !ok {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	s.apply(legal)
	return nil
}

// SubmitMoveText parses coordinate notation such as "e2e4" or "e7e8q".
func (s *Session) SubmitMoveText(text string) error {
	if s.outcome.Ended() {
		return fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.outcome)
	}
	m, err := engine.ParseCoordinate(text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	return s.SubmitMove(m)
}

// RequestAIMove asks picker for the computer's move and plays it.
func (s *Session) RequestAIMove(ctx context.Context, picker MovePicker) (engine.Move, error) {
	if s.outcome.Ended() {
		return engine.Move{}, fmt.Errorf("%w: %w: game already ended (%s)", ErrNoLegalMove, ErrInvalidState, s.outcome)
	}
	if s.Board().Turn() != s.aiColor {
		return engine.Move{}, fmt.Errorf("%w: it is not the computer's turn", ErrInvalidState)
	}
	if picker == nil {
		return engine.Move{}, fmt.Errorf("%w: no move picker", ErrInvalidState)
	}
	m, err := picker.PickMove(ctx, s.Board(), s.difficulty)
	if err != nil {
		if errors.Is(err, engine.ErrNoLegalMoves) {
			return engine.Move{}, fmt.Errorf("%w: %w", ErrNoLegalMove, err)
		}
		return engine.Move{}, fmt.Errorf("pick move: %w", err)
	}
	legal, ok := engine.IsLegal(s.Board(), m)
	if !ok {
		return engine.Move{}, fmt.Errorf("%w: picker returned %s", ErrIllegalMove, m)
	}
	s.apply(legal)
	return legal, nil
}

// Resign ends the game with color as the loser.
func (s *Session) Resign(color engine.Color) error {
	if s.outcome.Ended() {
		return fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.outcome)
	}
	if color != engine.White && color != engine.Black {
		return fmt.Errorf("%w: bad colour %d", ErrInvalidState, color)
	}
	s.outcome = Outcome{Kind: Resigned, Resigner: color}
	return nil
}

// Undo takes back the last ply.
func (s *Session) Undo() error {
	if s.outcome.Ended() {
		return fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.outcome)
	}
	if len(s.moves) == 0 {
		return fmt.Errorf("%w: nothing to undo", ErrInvalidState)
	}
	s.moves = s.moves[:len(s.moves)-1]
	s.boards = s.boards[:len(s.boards)-1]
	s.outcome = outcomeFor(s.boards)
	return nil
}

// UndoToTurn takes back moves until the latest earlier position with color to
// move, usually the player's move and the computer's reply together. It fails
// without changing anything when no such position exists.
func (s *Session) UndoToTurn(color engine.Color) error {
	if s.outcome.Ended() {
		return fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.outcome)
	}
	for ply := len(s.moves) - 1; ply >= 0; ply-- {
		if s.boards[ply].Turn() != color {
			continue
		}
		s.moves = s.moves[:ply]
		s.boards = s.boards[:ply+1]
		s.outcome = outcomeFor(s.boards)
		return nil
	}
	return fmt.Errorf("%w: no earlier position with %s to move", ErrInvalidState, color)
}

// Clone returns an independent copy.
func (s *Session) Clone() *Session {
	dup := *s
	dup.boards = s.Boards()
	dup.moves = s.Moves()
	return &dup
}

func (s *Session) apply(m engine.Move) {
	s.boards = append(s.boards, s.Board().Apply(m))
	s.moves = append(s.moves, m)
	s.outcome = outcomeFor(s.boards)
}
