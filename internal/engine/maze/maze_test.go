package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testGrid() *Grid {
	// 3x3 values with operator edges:
	//   2 + 3 × 4
	//   ÷       -
	//   8 - 1 + 5
	//   ×       ÷
	//   6 + 7 - 2
	return &Grid{
		Size: 3,
		Cells: [][]int{
			{2, 3, 4},
			{8, 1, 5},
			{6, 7, 2},
		},
		H: [][]string{
			{"+", "×"},
			{"-", "+"},
			{"+", "-"},
		},
		V: [][]string{
			{"÷", "-", "-"},
			{"×", "+", "÷"},
		},
		Start:    Cell{0, 0},
		MaxSteps: 4,
		Target:   20,
	}
}

func TestEvaluatePath(t *testing.T) {
	t.Run("reaches target", func(t *testing.T) {
		// (0,0)->(0,1)->(0,2): 2+3=5, 5*4=20
		g := testGrid()
		g.MaxSteps = 2
		assert.True(t, g.EvaluatePath([]Cell{{0, 1}, {0, 2}}))
	})

	t.Run("wrong final value", func(t *testing.T) {
		g := testGrid()
		g.Target = 99
		assert.False(t, g.EvaluatePath([]Cell{{0, 1}, {0, 2}}))
	})
}

func TestEvaluatePathDivision(t *testing.T) {
	t.Run("exact division succeeds", func(t *testing.T) {
		g := testGrid()
		g.Cells[0][0] = 16
		// (0,0)->(1,0): edge ÷, 16/8 = 2
		g.MaxSteps = 1
		g.Target = 2
		assert.True(t, g.EvaluatePath([]Cell{{1, 0}}))
	})

	t.Run("non-integral division rejects", func(t *testing.T) {
		g := testGrid()
		// (0,0)->(1,0): edge ÷, 2/8 is not integral
		g.Target = 0
		assert.False(t, g.EvaluatePath([]Cell{{1, 0}}))
	})

	t.Run("division by zero rejects the path", func(t *testing.T) {
		g := testGrid()
		g.Cells[1][0] = 0
		assert.False(t, g.EvaluatePath([]Cell{{1, 0}}), "divisor is zero")
	})

	t.Run("rejection is terminal even if later ops would recover", func(t *testing.T) {
		g := testGrid()
		g.Cells[1][0] = 3 // 2/3 not integral
		// continue to cells that would otherwise land on target
		g.Target = 2
		assert.False(t, g.EvaluatePath([]Cell{{1, 0}, {0, 0}}))
	})
}

func TestEvaluatePathBounds(t *testing.T) {
	t.Run("path truncated to max steps", func(t *testing.T) {
		g := testGrid()
		g.MaxSteps = 2
		g.Target = 20 // 2+3=5, 5*4=20; the extra move is ignored
		assert.True(t, g.EvaluatePath([]Cell{{0, 1}, {0, 2}, {1, 2}}))
	})

	t.Run("coordinates clamped into grid", func(t *testing.T) {
		g := testGrid()
		g.MaxSteps = 1
		g.Target = 5
		// (0,9) clamps to (0,2); not adjacent to start -> rejected
		assert.False(t, g.EvaluatePath([]Cell{{0, 9}}))
	})

	t.Run("non-adjacent move rejected", func(t *testing.T) {
		g := testGrid()
		assert.False(t, g.EvaluatePath([]Cell{{2, 2}}))
		assert.False(t, g.EvaluatePath([]Cell{{1, 1}}), "diagonal move")
	})

	t.Run("empty path scores start value", func(t *testing.T) {
		g := testGrid()
		g.Target = 2
		assert.True(t, g.EvaluatePath(nil))
	})
}

func TestEvaluatePathBackAndForth(t *testing.T) {
	// Revisiting a cell is allowed; each traversal applies the edge again.
	g := testGrid()
	g.MaxSteps = 4
	// 2+3=5, back: 5+2=7, again: 7+3=10, 10*4=40
	g.Target = 40
	assert.True(t, g.EvaluatePath([]Cell{{0, 1}, {0, 0}, {0, 1}, {0, 2}}))
}
