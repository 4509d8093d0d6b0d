package game

import "errors"

var (
	// ErrIllegalMove: the submitted move is not in the legal set.
	ErrIllegalMove = errors.New("illegal move")
	// ErrMalformedSave: a save text failed structural or replay checks.
	ErrMalformedSave = errors.New("malformed save")
	// ErrNoLegalMove: a computer move was requested with no move to play.
	ErrNoLegalMove = errors.New("no legal move")
	// ErrInvalidState: the operation is not allowed in the current state.
	ErrInvalidState = errors.New("invalid game state")

	ErrUnknownDifficulty = errors.New("unknown difficulty")
)
