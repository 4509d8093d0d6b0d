package engine

// Ray directions: the first four are orthogonal, the last four diagonal.
var directions = [8][2]int{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

var (
	knightTargets [64][]Square
	kingTargets   [64][]Square
	rays          [64][8][]Square
)

func init() {
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	for sq := Square(0); sq < 64; sq++ {
		f, r := sq.File(), sq.Rank()
		for _, st := range knightSteps {
			if to := NewSquare(f+st[0], r+st[1]); to != NoSquare {
				knightTargets[sq] = append(knightTargets[sq], to)
			}
		}
		for _, d := range directions {
			if to := NewSquare(f+d[0], r+d[1]); to != NoSquare {
				kingTargets[sq] = append(kingTargets[sq], to)
			}
		}
		for i, d := range directions {
			for step := 1; ; step++ {
				to := NewSquare(f+d[0]*step, r+d[1]*step)
				if to == NoSquare {
					break
				}
				rays[sq][i] = append(rays[sq][i], to)
			}
		}
	}
}
