package engine

import "fmt"

var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

// LegalMoves returns every legal move for the side to move. The order is
// deterministic: origin squares a1 to h8, then a fixed pattern per piece.
func LegalMoves(b Board) []Move {
	pseudo := pseudoLegalMoves(b, make([]Move, 0, 48))
	legal := pseudo[:0]
	us := b.turn
	for _, m := range pseudo {
		nb := b.Apply(m)
		if !nb.IsSquareAttacked(nb.kings[us], us.Other()) {
			legal = append(legal, m)
		}
	}
	return legal
}

// LegalMovesFrom returns the legal moves whose origin is sq.
func LegalMovesFrom(b Board, sq Square) []Move {
	var out []Move
	for _, m := range LegalMoves(b) {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}

// IsLegal matches m against the legal moves by origin, destination and
// promotion and returns the fully flagged move on success.
func IsLegal(b Board, m Move) (Move, bool) {
	if !m.From.Valid() || !m.To.Valid() {
		return Move{}, false
	}
	p := b.squares[m.From]
	if p == NoPiece || p.Color() != b.turn {
		return Move{}, false
	}
	for _, lm := range LegalMovesFrom(b, m.From) {
		if lm.SameAs(m) {
			return lm, true
		}
	}
	return Move{}, false
}

// InCheck reports whether the side to move in b is in check.
func InCheck(b Board) bool { return b.InCheck() }

// ParseMove reads coordinate notation and resolves it to a legal move.
func ParseMove(b Board, text string) (Move, error) {
	m, err := ParseCoordinate(text)
	if err != nil {
		return Move{}, err
	}
	lm, ok := IsLegal(b, m)
	if !ok {
		return Move{}, fmt.Errorf("%w: %s is not legal here", ErrInvalidNotation, m)
	}
	return lm, nil
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(b Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := LegalMoves(b)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		nodes += Perft(b.Apply(m), depth-1)
	}
	return nodes
}

func pseudoLegalMoves(b Board, out []Move) []Move {
	us := b.turn
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		if p == NoPiece || p.Color() != us {
			continue
		}
		switch p.Type() {
		case Pawn:
			out = pawnMoves(b, sq, out)
		case Knight:
			out = stepMoves(b, sq, knightTargets[sq], out)
		case Bishop:
			out = slideMoves(b, sq, 4, 8, out)
		case Rook:
			out = slideMoves(b, sq, 0, 4, out)
		case Queen:
			out = slideMoves(b, sq, 0, 8, out)
		case King:
			out = stepMoves(b, sq, kingTargets[sq], out)
			out = castleMoves(b, sq, out)
		}
	}
	return out
}

func pawnMoves(b Board, from Square, out []Move) []Move {
	us := b.turn
	dir, startRank, lastRank := 1, 1, 7
	if us == Black {
		dir, startRank, lastRank = -1, 6, 0
	}
	f, r := from.File(), from.Rank()

	addPawn := func(to Square, flags MoveFlag) {
		if to.Rank() == lastRank {
			for _, pt := range promotionOrder {
				out = append(out, Move{From: from, To: to, Promotion: pt, Flags: flags})
			}
			return
		}
		out = append(out, Move{From: from, To: to, Flags: flags})
	}

	if one := NewSquare(f, r+dir); one != NoSquare && b.squares[one] == NoPiece {
		addPawn(one, 0)
		if r == startRank {
			if two := NewSquare(f, r+2*dir); b.squares[two] == NoPiece {
				out = append(out, Move{From: from, To: two, Flags: FlagDoublePush})
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		to := NewSquare(f+df, r+dir)
		if to == NoSquare {
			continue
		}
		target := b.squares[to]
		switch {
		case target != NoPiece && target.Color() != us:
			addPawn(to, FlagCapture)
		case target == NoPiece && to == b.epSquare:
			out = append(out, Move{From: from, To: to, Flags: FlagCapture | FlagEnPassant})
		}
	}
	return out
}

func stepMoves(b Board, from Square, targets []Square, out []Move) []Move {
	us := b.turn
	for _, to := range targets {
		target := b.squares[to]
		switch {
		case target == NoPiece:
			out = append(out, Move{From: from, To: to})
		case target.Color() != us:
			out = append(out, Move{From: from, To: to, Flags: FlagCapture})
		}
	}
	return out
}

func slideMoves(b Board, from Square, firstDir, lastDir int, out []Move) []Move {
	us := b.turn
	for dir := firstDir; dir < lastDir; dir++ {
		for _, to := range rays[from][dir] {
			target := b.squares[to]
			if target == NoPiece {
				out = append(out, Move{From: from, To: to})
				continue
			}
			if target.Color() != us {
				out = append(out, Move{From: from, To: to, Flags: FlagCapture})
			}
			break
		}
	}
	return out
}

func castleMoves(b Board, from Square, out []Move) []Move {
	us, them := b.turn, b.turn.Other()
	kingside, queenside, home := WhiteKingside, WhiteQueenside, E1
	if us == Black {
		kingside, queenside, home = BlackKingside, BlackQueenside, E8
	}
	if from != home || b.castling&(kingside|queenside) == 0 {
		return out
	}
	if b.IsSquareAttacked(home, them) {
		return out
	}
	rook := MakePiece(us, Rook)
	if b.castling&kingside != 0 &&
		b.squares[home+3] == rook &&
		b.squares[home+1] == NoPiece && b.squares[home+2] == NoPiece &&
		!b.IsSquareAttacked(home+1, them) && !b.IsSquareAttacked(home+2, them) {
		out = append(out, Move{From: home, To: home + 2, Flags: FlagCastle})
	}
	if b.castling&queenside != 0 &&
		b.squares[home-4] == rook &&
		b.squares[home-1] == NoPiece && b.squares[home-2] == NoPiece && b.squares[home-3] == NoPiece &&
		!b.IsSquareAttacked(home-1, them) && !b.IsSquareAttacked(home-2, them) {
		out = append(out, Move{From: home, To: home - 2, Flags: FlagCastle})
	}
	return out
}
