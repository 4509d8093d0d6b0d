package engine

import (
	"math/rand"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

// TestMoveGenerationAgainstReference plays random games and checks every
// position against an independent move generator.
func TestMoveGenerationAgainstReference(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	notation := nchess.UCINotation{}
	for game := 0; game < 12; game++ {
		b := NewBoard()
		ref := nchess.NewGame()
		for ply := 0; ply < 120; ply++ {
			refPlacement := strings.Fields(ref.FEN())[0]
			ourPlacement := strings.Fields(b.FEN())[0]
			if refPlacement != ourPlacement {
				t.Fatalf("game %d ply %d: placement %s, reference %s", game, ply, ourPlacement, refPlacement)
			}
			// the reference ends games on its own draw rules
			if ref.Outcome() != nchess.NoOutcome {
				break
			}
			ours := LegalMoves(b)
			theirs := ref.ValidMoves()
			if len(ours) != len(theirs) {
				t.Fatalf("game %d ply %d %s: %d legal moves, reference has %d", game, ply, b.FEN(), len(ours), len(theirs))
			}
			if len(ours) == 0 {
				break
			}

			m := ours[r.Intn(len(ours))]
			mv, err := notation.Decode(ref.Position(), m.String())
			if err != nil {
				t.Fatalf("reference rejected %s at %s: %v", m, b.FEN(), err)
			}
			if err := ref.Move(mv, nil); err != nil {
				t.Fatalf("reference refused %s at %s: %v", m, b.FEN(), err)
			}
			b = b.Apply(m)
		}
	}
}
