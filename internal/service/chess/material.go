package chess

import (
	"github.com/park285/cheese-chess/internal/engine"
	"github.com/park285/cheese-chess/internal/game"
)

var pieceValues = [...]int{
	engine.Pawn:   1,
	engine.Knight: 3,
	engine.Bishop: 3,
	engine.Rook:   5,
	engine.Queen:  9,
	engine.King:   0,
}

type MaterialScore struct {
	White int
	Black int
}

func (m MaterialScore) Diff() int {
	return m.White - m.Black
}

// CapturedPieces lists, per colour, the enemy pieces that colour has taken,
// in capture order.
type CapturedPieces struct {
	White []engine.PieceType
	Black []engine.PieceType
}

func (c CapturedPieces) IsEmpty() bool {
	return len(c.White) == 0 && len(c.Black) == 0
}

// Recent returns the last limit captures by color, newest first.
func (c CapturedPieces) Recent(color engine.Color, limit int) []engine.PieceType {
	order := c.White
	if color == engine.Black {
		order = c.Black
	}
	if limit <= 0 || len(order) == 0 {
		return nil
	}
	start := max(len(order)-limit, 0)
	subset := order[start:]
	out := make([]engine.PieceType, len(subset))
	for i := range subset {
		out[i] = subset[len(subset)-1-i]
	}
	return out
}

func boardMaterial(b engine.Board) MaterialScore {
	var score MaterialScore
	for sq := engine.Square(0); sq < 64; sq++ {
		p := b.Piece(sq)
		if p.IsEmpty() {
			continue
		}
		if p.Color() == engine.White {
			score.White += pieceValues[p.Type()]
		} else {
			score.Black += pieceValues[p.Type()]
		}
	}
	return score
}

func computeMaterial(sess *game.Session) (MaterialScore, CapturedPieces) {
	var captured CapturedPieces
	boards := sess.Boards()
	for i, m := range sess.Moves() {
		if !m.IsCapture() {
			continue
		}
		before := boards[i]
		target := m.To
		if m.IsEnPassant() {
			target = engine.NewSquare(m.To.File(), m.From.Rank())
		}
		victim := before.Piece(target)
		if victim.IsEmpty() {
			continue
		}
		if before.Turn() == engine.White {
			captured.White = append(captured.White, victim.Type())
		} else {
			captured.Black = append(captured.Black, victim.Type())
		}
	}
	return boardMaterial(sess.Board()), captured
}
