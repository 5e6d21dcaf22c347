// Package maze validates user-drawn paths over numeric grids whose edges
// carry arithmetic operators.
package maze

// Edge operator glyphs, matching the generator payload.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "×"
	OpDiv = "÷"
)

// Cell is a maze grid coordinate, row first.
type Cell struct {
	Row int
	Col int
}

// Grid is one number-maze puzzle. Cells holds the values; H[r][c] is the
// operator on the edge between (r,c) and (r,c+1); V[r][c] between (r,c)
// and (r+1,c).
type Grid struct {
	Size     int
	Cells    [][]int
	H        [][]string
	V        [][]string
	Start    Cell
	MaxSteps int
	Target   int
}

// ClampPath clamps every coordinate into the n by n grid.
func ClampPath(path []Cell, n int) []Cell {
	out := make([]Cell, len(path))
	for i, p := range path {
		out[i] = Cell{Row: clamp(p.Row, 0, n-1), Col: clamp(p.Col, 0, n-1)}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EvaluatePath walks the user path (excluding the start cell, which is
// implicit) and reports whether the accumulated value hits the target.
//
// The path is clamped into bounds and truncated to MaxSteps moves before
// evaluation. The accumulator starts at the start cell's value; each move
// applies the traversed edge's operator to (accumulator, next cell value).
// Division requires a non-zero divisor that divides the accumulator
// evenly; any violation, or a non-adjacent move, rejects the whole path.
// All valid operations stay integral, so the final check is exact
// integer equality.
func (g *Grid) EvaluatePath(path []Cell) bool {
	if g.Size <= 0 || len(g.Cells) < g.Size {
		return false
	}
	full := ClampPath(append([]Cell{g.Start}, path...), g.Size)
	if len(full) > g.MaxSteps+1 {
		full = full[:g.MaxSteps+1]
	}

	val := g.Cells[full[0].Row][full[0].Col]
	for i := 1; i < len(full); i++ {
		prev, cur := full[i-1], full[i]
		op, ok := g.edgeOp(prev, cur)
		if !ok {
			return false
		}
		b := g.Cells[cur.Row][cur.Col]
		switch op {
		case OpAdd:
			val += b
		case OpSub:
			val -= b
		case OpMul:
			val *= b
		case OpDiv:
			if b == 0 || val%b != 0 {
				return false
			}
			val /= b
		default:
			return false
		}
	}
	return val == g.Target
}

// edgeOp returns the operator on the edge between two adjacent cells.
// ok is false when the cells are not a unit step apart or the edge grids
// do not cover the move.
func (g *Grid) edgeOp(a, b Cell) (string, bool) {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	switch {
	case dr == 0 && (dc == 1 || dc == -1):
		c := minInt(a.Col, b.Col)
		if a.Row >= len(g.H) || c >= len(g.H[a.Row]) {
			return "", false
		}
		return g.H[a.Row][c], true
	case dc == 0 && (dr == 1 || dr == -1):
		r := minInt(a.Row, b.Row)
		if r >= len(g.V) || a.Col >= len(g.V[r]) {
			return "", false
		}
		return g.V[r][a.Col], true
	}
	return "", false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
