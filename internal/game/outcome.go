package game

import (
	"fmt"

	"github.com/park285/cheese-chess/internal/engine"
)

type OutcomeKind uint8

const (
	InProgress OutcomeKind = iota
	CheckmateWhiteWins
	CheckmateBlackWins
	StalemateDraw
	FiftyMoveDraw
	InsufficientMaterialDraw
	ThreefoldRepetitionDraw
	Resigned
)

var outcomeKindNames = [...]string{
	InProgress:               "in_progress",
	CheckmateWhiteWins:       "checkmate_white_wins",
	CheckmateBlackWins:       "checkmate_black_wins",
	StalemateDraw:            "stalemate",
	FiftyMoveDraw:            "fifty_move",
	InsufficientMaterialDraw: "insufficient_material",
	ThreefoldRepetitionDraw:  "threefold_repetition",
	Resigned:                 "resigned",
}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeKindNames) {
		return outcomeKindNames[k]
	}
	return fmt.Sprintf("outcome(%d)", uint8(k))
}

// Outcome is the game result. Resigner is only meaningful when Kind is
// Resigned.
type Outcome struct {
	Kind     OutcomeKind
	Resigner engine.Color
}

func (o Outcome) Ended() bool { return o.Kind != InProgress }

func (o Outcome) IsDraw() bool {
	switch o.Kind {
	case StalemateDraw, FiftyMoveDraw, InsufficientMaterialDraw, ThreefoldRepetitionDraw:
		return true
	}
	return false
}

// Winner reports the winning side, if the game has one.
func (o Outcome) Winner() (engine.Color, bool) {
	switch o.Kind {
	case CheckmateWhiteWins:
		return engine.White, true
	case CheckmateBlackWins:
		return engine.Black, true
	case Resigned:
		return o.Resigner.Other(), true
	}
	return engine.White, false
}

// Result is the PGN result token.
func (o Outcome) Result() string {
	if w, ok := o.Winner(); ok {
		if w == engine.White {
			return "1-0"
		}
		return "0-1"
	}
	if o.IsDraw() {
		return "1/2-1/2"
	}
	return "*"
}

// Method names how the game ended, empty while in progress.
func (o Outcome) Method() string {
	switch o.Kind {
	case InProgress:
		return ""
	case CheckmateWhiteWins, CheckmateBlackWins:
		return "checkmate"
	case Resigned:
		return "resignation"
	}
	return o.Kind.String()
}

func (o Outcome) String() string {
	switch o.Kind {
	case InProgress:
		return "in progress"
	case CheckmateWhiteWins:
		return "white wins by checkmate"
	case CheckmateBlackWins:
		return "black wins by checkmate"
	case Resigned:
		return fmt.Sprintf("%s resigned, %s wins", o.Resigner, o.Resigner.Other())
	case StalemateDraw:
		return "draw by stalemate"
	case FiftyMoveDraw:
		return "draw by fifty-move rule"
	case InsufficientMaterialDraw:
		return "draw by insufficient material"
	case ThreefoldRepetitionDraw:
		return "draw by threefold repetition"
	}
	return o.Kind.String()
}

// outcomeFor evaluates the latest board against the full history.
func outcomeFor(history []engine.Board) Outcome {
	cur := history[len(history)-1]
	switch engine.BoardStatus(cur) {
	case engine.Checkmate:
		if cur.Turn() == engine.White {
			return Outcome{Kind: CheckmateBlackWins}
		}
		return Outcome{Kind: CheckmateWhiteWins}
	case engine.Stalemate:
		return Outcome{Kind: StalemateDraw}
	case engine.InsufficientMaterial:
		return Outcome{Kind: InsufficientMaterialDraw}
	case engine.FiftyMove:
		return Outcome{Kind: FiftyMoveDraw}
	}

	key := cur.Key()
	seen := 0
	for _, b := range history {
		if b.Key() == key {
			seen++
		}
	}
	if seen >= 3 {
		return Outcome{Kind: ThreefoldRepetitionDraw}
	}
	return Outcome{Kind: InProgress}
}
