package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFEN      = errors.New("invalid FEN")
	ErrInvalidSquare   = errors.New("invalid square")
	ErrInvalidNotation = errors.New("invalid move notation")
	ErrNoLegalMoves    = errors.New("no legal moves")
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"black" and the one-letter forms.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is the colorless kind of a piece.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Piece packs a color and a type; the zero value is an empty square.
type Piece uint8

const NoPiece Piece = 0

func MakePiece(c Color, t PieceType) Piece { return Piece(uint8(c)<<3 | uint8(t)) }

func (p Piece) Type() PieceType { return PieceType(p & 7) }
func (p Piece) Color() Color    { return Color(p >> 3) }
func (p Piece) IsEmpty() bool   { return p == NoPiece }

const pieceLetters = " pnbrqk"

// Char returns the FEN letter, uppercase for White.
func (p Piece) Char() byte {
	if p == NoPiece {
		return '.'
	}
	ch := pieceLetters[p.Type()]
	if p.Color() == White {
		ch -= 'a' - 'A'
	}
	return ch
}

func (p Piece) String() string { return string(p.Char()) }

// PieceFromChar parses a FEN piece letter.
func PieceFromChar(ch byte) (Piece, bool) {
	color := Black
	if ch >= 'A' && ch <= 'Z' {
		color = White
		ch += 'a' - 'A'
	}
	idx := strings.IndexByte(pieceLetters, ch)
	if idx <= 0 {
		return NoPiece, false
	}
	return MakePiece(color, PieceType(idx)), true
}

// Square indexes the board from a1 (0) to h8 (63).
type Square int8

const NoSquare Square = -1

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)

const (
	A8 Square = iota + 56
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func (s Square) File() int   { return int(s) & 7 }
func (s Square) Rank() int   { return int(s) >> 3 }
func (s Square) Valid() bool { return s >= 0 && s < 64 }

// Mirror flips the square vertically (a1 <-> a8).
func (s Square) Mirror() Square { return s ^ 56 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses an algebraic square name such as "e4".
func ParseSquare(name string) (Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, name)
	}
	return NewSquare(int(name[0]-'a'), int(name[1]-'1')), nil
}

// CastlingRights is a bitmask of the four castling permissions.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (c CastlingRights) String() string {
	if c == NoCastling {
		return "-"
	}
	var b strings.Builder
	if c&WhiteKingside != 0 {
		b.WriteByte('K')
	}
	if c&WhiteQueenside != 0 {
		b.WriteByte('Q')
	}
	if c&BlackKingside != 0 {
		b.WriteByte('k')
	}
	if c&BlackQueenside != 0 {
		b.WriteByte('q')
	}
	return b.String()
}

// mirror swaps the white and black permissions.
func (c CastlingRights) mirror() CastlingRights {
	return (c&(WhiteKingside|WhiteQueenside))<<2 | (c&(BlackKingside|BlackQueenside))>>2
}

// MoveFlag marks special moves.
type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagDoublePush
	FlagEnPassant
	FlagCastle
)

// Move is only meaningful relative to the board it was generated from.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Flags     MoveFlag
}

func (m Move) IsCapture() bool   { return m.Flags&FlagCapture != 0 }
func (m Move) IsPromotion() bool { return m.Promotion != NoPieceType }
func (m Move) IsCastle() bool    { return m.Flags&FlagCastle != 0 }
func (m Move) IsEnPassant() bool { return m.Flags&FlagEnPassant != 0 }

// SameAs compares origin, destination and promotion, ignoring flags.
func (m Move) SameAs(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// String renders coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if !m.From.Valid() || !m.To.Valid() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += string(pieceLetters[m.Promotion])
	}
	return s
}

// ParseCoordinate parses coordinate notation without checking legality.
func ParseCoordinate(text string) (Move, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 4 && len(text) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	from, err := ParseSquare(text[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	m := Move{From: from, To: to}
	if len(text) == 5 {
		switch text[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return Move{}, fmt.Errorf("%w: bad promotion in %q", ErrInvalidNotation, text)
		}
	}
	return m, nil
}
