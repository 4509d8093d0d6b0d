package engine

// Material values in centipawns, indexed by PieceType.
var pieceValue = [7]int{0, 100, 300, 300, 500, 900, 0}

const (
	mobilityWeight = 5
	shelterWeight  = 10
	centreBonus    = 10
)

// Piece-square tables are written from White's side with rank 8 on the
// first row, so a white piece on sq reads index (7-rank)*8+file.
var pawnTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 5, 5, 5, 5, -10,
	-10, 0, 5, 0, 0, 5, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenTable = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMiddleTable = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndTable = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

func tableIndex(sq Square, c Color) int {
	if c == White {
		return (7-sq.Rank())*8 + sq.File()
	}
	return sq.Rank()*8 + sq.File()
}

func isCentre(sq Square) bool {
	f, r := sq.File(), sq.Rank()
	return (f == 3 || f == 4) && (r == 3 || r == 4)
}

// Evaluate scores b in centipawns from White's point of view.
func Evaluate(b Board) int {
	return evaluate(b, len(LegalMoves(b)))
}

// evaluate takes the legal-move count so search can reuse the list it
// already generated.
func evaluate(b Board, mobility int) int {
	endgame := isEndgame(b)
	score := 0
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		if p == NoPiece {
			continue
		}
		v := pieceValue[p.Type()] + squareValue(p, sq, endgame)
		if isCentre(sq) {
			v += centreBonus
		}
		if p.Color() == White {
			score += v
		} else {
			score -= v
		}
	}

	m := mobility * mobilityWeight
	if b.turn == Black {
		m = -m
	}
	score += m

	score += shelterWeight * (kingShelter(b, White) - kingShelter(b, Black))
	return score
}

func squareValue(p Piece, sq Square, endgame bool) int {
	idx := tableIndex(sq, p.Color())
	switch p.Type() {
	case Pawn:
		return pawnTable[idx]
	case Knight:
		return knightTable[idx]
	case Bishop:
		return bishopTable[idx]
	case Rook:
		return rookTable[idx]
	case Queen:
		return queenTable[idx]
	case King:
		if endgame {
			return kingEndTable[idx]
		}
		return kingMiddleTable[idx]
	}
	return 0
}

// isEndgame: no queens at all, or both sides below 13 points of non-pawn
// material.
func isEndgame(b Board) bool {
	var queens int
	var material [2]int
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		switch p.Type() {
		case Knight, Bishop:
			material[p.Color()] += 3
		case Rook:
			material[p.Color()] += 5
		case Queen:
			material[p.Color()] += 9
			queens++
		}
	}
	return queens == 0 || (material[White] < 13 && material[Black] < 13)
}

func kingShelter(b Board, c Color) int {
	n := 0
	for _, sq := range kingTargets[b.kings[c]] {
		if p := b.squares[sq]; p != NoPiece && p.Color() == c {
			n++
		}
	}
	return n
}
