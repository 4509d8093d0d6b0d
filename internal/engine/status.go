package engine

// Status is the board-local termination state. Threefold repetition needs
// the game history and is decided by the caller.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	InsufficientMaterial
	FiftyMove
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient_material"
	case FiftyMove:
		return "fifty_move"
	default:
		return "ongoing"
	}
}

// FiftyMoveLimit is the half-move clock value at which the game is drawn.
const FiftyMoveLimit = 100

// BoardStatus checks mate and stalemate first, then the material and
// fifty-move draws.
func BoardStatus(b Board) Status {
	if len(LegalMoves(b)) == 0 {
		if b.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	return drawStatus(b)
}

func drawStatus(b Board) Status {
	if IsInsufficientMaterial(b) {
		return InsufficientMaterial
	}
	if b.halfmove >= FiftyMoveLimit {
		return FiftyMove
	}
	return Ongoing
}

// IsInsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or only bishops all on one square colour.
func IsInsufficientMaterial(b Board) bool {
	var minors, knights, bishops int
	bishopColours := [2]bool{}
	for sq := Square(0); sq < 64; sq++ {
		p := b.squares[sq]
		switch p.Type() {
		case NoPieceType, King:
		case Knight:
			knights++
			minors++
		case Bishop:
			bishops++
			minors++
			bishopColours[(sq.File()+sq.Rank())&1] = true
		default:
			return false
		}
	}
	if minors <= 1 {
		return true
	}
	return knights == 0 && bishops > 0 && !(bishopColours[0] && bishopColours[1])
}
