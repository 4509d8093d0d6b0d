package engine

import (
	"fmt"
	"strings"
)

// Board is a complete position. It is a value: copying it is a snapshot and
// Apply never mutates the receiver.
type Board struct {
	squares  [64]Piece
	turn     Color
	castling CastlingRights
	epSquare Square
	halfmove int
	fullmove int
	kings    [2]Square
}

// PositionKey identifies a position for repetition counting.
type PositionKey struct {
	Squares  [64]Piece
	Turn     Color
	Castling CastlingRights
	EP       Square
}

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NewBoard returns the standard starting position.
func NewBoard() Board {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Board) Piece(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b.squares[sq]
}

func (b Board) Turn() Color               { return b.turn }
func (b Board) Castling() CastlingRights  { return b.castling }
func (b Board) EnPassant() Square         { return b.epSquare }
func (b Board) HalfmoveClock() int        { return b.halfmove }
func (b Board) FullmoveNumber() int       { return b.fullmove }
func (b Board) KingSquare(c Color) Square { return b.kings[c] }

// castleMask lists the rights lost when a piece leaves or lands on a square.
var castleMask [64]CastlingRights

func init() {
	castleMask[A1] = WhiteQueenside
	castleMask[H1] = WhiteKingside
	castleMask[E1] = WhiteKingside | WhiteQueenside
	castleMask[A8] = BlackQueenside
	castleMask[H8] = BlackKingside
	castleMask[E8] = BlackKingside | BlackQueenside
}

// Apply plays m and returns the resulting board. m is expected to be legal
// for b; castling and en passant are recognised even when Flags are unset.
func (b Board) Apply(m Move) Board {
	nb := b
	p := nb.squares[m.From]
	if p == NoPiece {
		return nb
	}
	us := p.Color()
	captured := nb.squares[m.To]
	pawn := p.Type() == Pawn

	enPassant := m.Flags&FlagEnPassant != 0 ||
		(pawn && m.To == b.epSquare && m.From.File() != m.To.File() && captured == NoPiece)
	castle := m.Flags&FlagCastle != 0 ||
		(p.Type() == King && absInt(m.To.File()-m.From.File()) == 2)

	nb.squares[m.From] = NoPiece
	if enPassant {
		victim := NewSquare(m.To.File(), m.From.Rank())
		captured = nb.squares[victim]
		nb.squares[victim] = NoPiece
	}
	placed := p
	if pawn && m.Promotion != NoPieceType {
		placed = MakePiece(us, m.Promotion)
	}
	nb.squares[m.To] = placed

	if castle {
		rank := m.From.Rank()
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.To.File() < m.From.File() {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		nb.squares[rookTo] = nb.squares[rookFrom]
		nb.squares[rookFrom] = NoPiece
	}
	if p.Type() == King {
		nb.kings[us] = m.To
	}
	nb.castling &^= castleMask[m.From] | castleMask[m.To]

	nb.epSquare = NoSquare
	if pawn && absInt(m.To.Rank()-m.From.Rank()) == 2 {
		nb.epSquare = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}
	if pawn || captured != NoPiece {
		nb.halfmove = 0
	} else {
		nb.halfmove++
	}
	if us == Black {
		nb.fullmove++
	}
	nb.turn = us.Other()
	return nb
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
func (b Board) IsSquareAttacked(sq Square, by Color) bool {
	if !sq.Valid() {
		return false
	}
	// a pawn of `by` attacks sq from one rank behind it
	pawnRank := sq.Rank() - 1
	if by == Black {
		pawnRank = sq.Rank() + 1
	}
	pawn := MakePiece(by, Pawn)
	for _, df := range [2]int{-1, 1} {
		if from := NewSquare(sq.File()+df, pawnRank); from != NoSquare && b.squares[from] == pawn {
			return true
		}
	}
	knight := MakePiece(by, Knight)
	for _, from := range knightTargets[sq] {
		if b.squares[from] == knight {
			return true
		}
	}
	king := MakePiece(by, King)
	for _, from := range kingTargets[sq] {
		if b.squares[from] == king {
			return true
		}
	}
	queen := MakePiece(by, Queen)
	for dir := 0; dir < 8; dir++ {
		slider := MakePiece(by, Rook)
		if dir >= 4 {
			slider = MakePiece(by, Bishop)
		}
		for _, from := range rays[sq][dir] {
			p := b.squares[from]
			if p == NoPiece {
				continue
			}
			if p == slider || p == queen {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the side to move is in check.
func (b Board) InCheck() bool {
	return b.IsSquareAttacked(b.kings[b.turn], b.turn.Other())
}

// Key returns the repetition identity of the position. The en-passant square
// only counts when a pawn of the side to move could capture onto it.
func (b Board) Key() PositionKey {
	k := PositionKey{Squares: b.squares, Turn: b.turn, Castling: b.castling, EP: NoSquare}
	if b.epSquare != NoSquare && b.epCapturePossible() {
		k.EP = b.epSquare
	}
	return k
}

func (b Board) epCapturePossible() bool {
	rank := b.epSquare.Rank() - 1
	if b.turn == Black {
		rank = b.epSquare.Rank() + 1
	}
	pawn := MakePiece(b.turn, Pawn)
	for _, df := range [2]int{-1, 1} {
		if from := NewSquare(b.epSquare.File()+df, rank); from != NoSquare && b.squares[from] == pawn {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants every reachable position holds.
func (b Board) Validate() error {
	var kings [2]int
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		if p == NoPiece {
			continue
		}
		if p.Type() == NoPieceType || p.Type() > King || p.Color() > Black {
			return fmt.Errorf("%w: corrupt piece on %s", ErrInvalidFEN, sq)
		}
		if p.Type() == King {
			kings[p.Color()]++
		}
		if p.Type() == Pawn && (sq.Rank() == 0 || sq.Rank() == 7) {
			return fmt.Errorf("%w: pawn on back rank %s", ErrInvalidFEN, sq)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: need exactly one king per side, got white=%d black=%d",
			ErrInvalidFEN, kings[White], kings[Black])
	}
	if b.epSquare != NoSquare {
		want := 5
		if b.turn == Black {
			want = 2
		}
		if b.epSquare.Rank() != want {
			return fmt.Errorf("%w: en-passant square %s impossible for %s to move", ErrInvalidFEN, b.epSquare, b.turn)
		}
		// The pawn that just double-pushed sits beyond the target and
		// both squares it crossed are empty.
		pushed, origin := b.epSquare-8, b.epSquare+8
		if b.turn == Black {
			pushed, origin = b.epSquare+8, b.epSquare-8
		}
		if b.squares[b.epSquare] != NoPiece || b.squares[origin] != NoPiece ||
			b.squares[pushed] != MakePiece(b.turn.Other(), Pawn) {
			return fmt.Errorf("%w: no double-pushed pawn behind en-passant square %s", ErrInvalidFEN, b.epSquare)
		}
	}
	if b.halfmove < 0 || b.fullmove < 1 {
		return fmt.Errorf("%w: bad move counters %d/%d", ErrInvalidFEN, b.halfmove, b.fullmove)
	}
	if b.IsSquareAttacked(b.kings[b.turn.Other()], b.turn) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}
	return nil
}

// Mirror flips the board vertically and swaps the colours of every piece.
func (b Board) Mirror() Board {
	var nb Board
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		if p != NoPiece {
			p = MakePiece(p.Color().Other(), p.Type())
		}
		nb.squares[sq.Mirror()] = p
	}
	nb.turn = b.turn.Other()
	nb.castling = b.castling.mirror()
	nb.epSquare = NoSquare
	if b.epSquare != NoSquare {
		nb.epSquare = b.epSquare.Mirror()
	}
	nb.halfmove = b.halfmove
	nb.fullmove = b.fullmove
	nb.kings[White] = b.kings[Black].Mirror()
	nb.kings[Black] = b.kings[White].Mirror()
	return nb
}

// String draws the board from White's side, rank 8 first.
func (b Board) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			sb.WriteByte(b.squares[NewSquare(file, rank)].Char())
			if file < 7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
