package engine

import (
	"context"
	"math/rand"
	"slices"
)

// MateScore is the base score of a mated position; the remaining depth is
// added so that shorter mates score higher for the winner.
const MateScore = 100000

const infinity = 1 << 30

// Options controls a single Search call.
type Options struct {
	// Depth in plies; values below 1 are treated as 1.
	Depth int
	// Rand picks among moves tying for the best score. Nil means the first
	// tied move in search order.
	Rand *rand.Rand
	// ScoreAll searches every root move with a full window so each score in
	// Result.Scores is exact.
	ScoreAll bool
}

type ScoredMove struct {
	Move  Move
	Score int
}

// Result of the deepest fully completed iteration.
type Result struct {
	Move   Move
	Score  int
	Depth  int
	Nodes  uint64
	Ties   []Move
	Scores []ScoredMove
}

type searcher struct {
	ctx      context.Context
	nodes    uint64
	canAbort bool
	aborted  bool
}

// Search runs iterative deepening negamax with alpha-beta pruning from the
// perspective of the side to move. Depth 1 always completes; deeper
// iterations stop when ctx is done and the last completed one is returned.
func Search(ctx context.Context, b Board, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	moves := LegalMoves(b)
	if len(moves) == 0 {
		return Result{}, ErrNoLegalMoves
	}
	orderMoves(b, moves)

	depth := opts.Depth
	if depth < 1 {
		depth = 1
	}

	s := &searcher{ctx: ctx}
	var res Result
	for d := 1; d <= depth; d++ {
		s.canAbort = d > 1
		if s.canAbort && ctx.Err() != nil {
			break
		}
		iter, ok := s.root(b, moves, d, opts.ScoreAll)
		if !ok {
			break
		}
		res = iter
	}
	res.Nodes = s.nodes

	res.Move = res.Ties[0]
	if opts.Rand != nil && len(res.Ties) > 1 {
		res.Move = res.Ties[opts.Rand.Intn(len(res.Ties))]
	}
	return res, nil
}

// BestMove searches to a fixed depth. A zero seed breaks ties by taking the
// first move in search order.
func BestMove(b Board, depth int, seed int64) (Move, bool) {
	opts := Options{Depth: depth}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	res, err := Search(context.Background(), b, opts)
	if err != nil {
		return Move{}, false
	}
	return res.Move, true
}

func (s *searcher) root(b Board, moves []Move, depth int, scoreAll bool) (Result, bool) {
	best := -infinity
	ties := make([]Move, 0, 4)
	var scores []ScoredMove
	if scoreAll {
		scores = make([]ScoredMove, 0, len(moves))
	}
	for _, m := range moves {
		// alpha sits one below the best so equal scores come back exact
		alpha := -infinity
		if !scoreAll && best > -infinity {
			alpha = best - 1
		}
		score := -s.negamax(b.Apply(m), depth-1, -infinity, -alpha)
		if s.aborted {
			return Result{}, false
		}
		if scoreAll {
			scores = append(scores, ScoredMove{Move: m, Score: score})
		}
		switch {
		case score > best:
			best = score
			ties = append(ties[:0], m)
		case score == best:
			ties = append(ties, m)
		}
	}
	return Result{Score: best, Depth: depth, Ties: ties, Scores: scores}, true
}

func (s *searcher) negamax(b Board, depth, alpha, beta int) int {
	s.nodes++
	if s.canAbort && s.nodes&1023 == 0 && s.ctx.Err() != nil {
		s.aborted = true
	}
	if s.aborted {
		return 0
	}

	moves := LegalMoves(b)
	if len(moves) == 0 {
		if b.InCheck() {
			return -(MateScore + depth)
		}
		return 0
	}
	if drawStatus(b) != Ongoing {
		return 0
	}
	if depth <= 0 {
		score := evaluate(b, len(moves))
		if b.turn == Black {
			score = -score
		}
		return score
	}

	orderMoves(b, moves)
	best := -infinity
	for _, m := range moves {
		score := -s.negamax(b.Apply(m), depth-1, -beta, -alpha)
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// orderMoves puts promotions first, then captures by MVV-LVA. The sort is
// stable so quiet moves keep generation order.
func orderMoves(b Board, moves []Move) {
	slices.SortStableFunc(moves, func(x, y Move) int {
		return moveKey(b, y) - moveKey(b, x)
	})
}

func moveKey(b Board, m Move) int {
	key := 0
	if m.Promotion != NoPieceType {
		key += 10000 + pieceValue[m.Promotion]
	}
	if m.Flags&FlagCapture != 0 {
		victim := pieceValue[Pawn]
		if m.Flags&FlagEnPassant == 0 {
			victim = pieceValue[b.squares[m.To].Type()]
		}
		attacker := pieceValue[b.squares[m.From].Type()]
		if b.squares[m.From].Type() == King {
			attacker = 1000
		}
		key += 1000 + 10*victim - attacker
	}
	return key
}
