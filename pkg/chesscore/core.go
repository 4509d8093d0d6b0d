// Package chesscore is the entry point for front ends: start, load and save
// games, play human and computer moves, and query legal moves.
package chesscore

import (
	"context"
	"fmt"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/savecodec"
)

type (
	Session = game.Session
	Outcome = game.Outcome
	Move    = engine.Move
	Square  = engine.Square
)

var (
	ErrIllegalMove   = game.ErrIllegalMove
	ErrMalformedSave = game.ErrMalformedSave
	ErrNoLegalMove   = game.ErrNoLegalMove
	ErrInvalidState  = game.ErrInvalidState
)

// Core bundles the move picker. Sessions are owned by the caller; one Core
// may serve any number of them.
type Core struct {
	picker  game.MovePicker
	aiColor engine.Color
}

type Option func(*Core)

// WithSeed makes computer moves reproducible.
func WithSeed(seed int64) Option {
	return func(c *Core) { c.picker = chess.NewSeededEngine(seed) }
}

// WithPicker replaces the built-in engine.
func WithPicker(p game.MovePicker) Option {
	return func(c *Core) { c.picker = p }
}

// WithAIColor sets the colour the computer plays in new games; Black by
// default.
func WithAIColor(color engine.Color) Option {
	return func(c *Core) { c.aiColor = color }
}

func New(opts ...Option) *Core {
	c := &Core{picker: chess.NewEngine(), aiColor: engine.Black}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Core) NewGame(difficulty string) (*Session, error) {
	return game.NewSession(nil, difficulty, c.aiColor)
}

func (c *Core) LoadGame(text string) (*Session, error) {
	return savecodec.Decode(text)
}

func (c *Core) SaveGame(s *Session) string {
	return savecodec.Encode(s)
}

// HumanMove plays moveText for the human side. It fails without touching s
// when the move is illegal or it is the computer's turn.
func (c *Core) HumanMove(s *Session, moveText string) (*Session, error) {
	if s.Outcome().Ended() {
		return s, fmt.Errorf("%w: game already ended (%s)", ErrInvalidState, s.Outcome())
	}
	if s.IsAITurn() {
		return s, fmt.Errorf("%w: waiting for the computer to move", ErrInvalidState)
	}
	if err := s.SubmitMoveText(moveText); err != nil {
		return s, err
	}
	return s, nil
}

// AIMove plays the computer's move. Calling it on a finished game yields an
// error matching both ErrNoLegalMove and ErrInvalidState.
func (c *Core) AIMove(ctx context.Context, s *Session) (*Session, error) {
	if _, err := s.RequestAIMove(ctx, c.picker); err != nil {
		return s, err
	}
	return s, nil
}

// LegalMovesFor lists the legal moves from square, e.g. "e2".
func (c *Core) LegalMovesFor(s *Session, square string) ([]Move, error) {
	sq, err := engine.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	return s.LegalMovesFrom(sq), nil
}

func (c *Core) Outcome(s *Session) Outcome {
	return s.Outcome()
}
