package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFEN parses all six FEN fields and validates the result. Castling
// rights whose king or rook has left its home square are dropped.
func ParseFEN(fen string) (Board, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return Board{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	var b Board
	b.kings = [2]Square{NoSquare, NoSquare}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			p, ok := PieceFromChar(ch)
			if !ok {
				return Board{}, fmt.Errorf("%w: bad piece letter %q", ErrInvalidFEN, ch)
			}
			if file > 7 {
				return Board{}, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
			}
			sq := NewSquare(file, rank)
			b.squares[sq] = p
			if p.Type() == King {
				b.kings[p.Color()] = sq
			}
			file++
		}
		if file != 8 {
			return Board{}, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, rank+1, file)
		}
	}

	switch fields[1] {
	case "w":
		b.turn = White
	case "b":
		b.turn = Black
	default:
		return Board{}, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			var r CastlingRights
			switch fields[2][i] {
			case 'K':
				r = WhiteKingside
			case 'Q':
				r = WhiteQueenside
			case 'k':
				r = BlackKingside
			case 'q':
				r = BlackQueenside
			default:
				return Board{}, fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, fields[2])
			}
			if b.castling&r != 0 {
				return Board{}, fmt.Errorf("%w: repeated castling right in %q", ErrInvalidFEN, fields[2])
			}
			b.castling |= r
		}
	}
	b.castling = sanitizeCastling(b.squares, b.castling)

	b.epSquare = NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Board{}, fmt.Errorf("%w: bad en-passant square %q", ErrInvalidFEN, fields[3])
		}
		b.epSquare = sq
	}

	half, err := strconv.Atoi(fields[4])
	if err != nil {
		return Board{}, fmt.Errorf("%w: bad half-move clock %q", ErrInvalidFEN, fields[4])
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil {
		return Board{}, fmt.Errorf("%w: bad full-move number %q", ErrInvalidFEN, fields[5])
	}
	b.halfmove, b.fullmove = half, full

	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

func sanitizeCastling(sq [64]Piece, rights CastlingRights) CastlingRights {
	wk, bk := MakePiece(White, King), MakePiece(Black, King)
	wr, br := MakePiece(White, Rook), MakePiece(Black, Rook)
	if sq[E1] != wk || sq[H1] != wr {
		rights &^= WhiteKingside
	}
	if sq[E1] != wk || sq[A1] != wr {
		rights &^= WhiteQueenside
	}
	if sq[E8] != bk || sq[H8] != br {
		rights &^= BlackKingside
	}
	if sq[E8] != bk || sq[A8] != br {
		rights &^= BlackQueenside
	}
	return rights
}

// FEN renders the board in Forsyth-Edwards Notation.
func (b Board) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[NewSquare(file, rank)]
			if p == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if b.turn == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), side, b.castling, b.epSquare, b.halfmove, b.fullmove)
}
