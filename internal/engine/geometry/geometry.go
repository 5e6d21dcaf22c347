// Package geometry implements the grid math behind the spatial
// challenges: rotations, reflections, route walking and the pixel-center
// mapping shared with the rendered map SVGs.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Grid metrics shared by the renderer and the extraction helpers. The
// generated option SVGs are laid out with the same values, so pixel
// centers computed here line up with centers scraped from option markup.
const (
	Pad  = 6
	Cell = 56
)

// CenterTolerance is the per-axis pixel slack when matching centers.
const CenterTolerance = 2.0

// Point is a grid coordinate, row first. It marshals as a two-element
// [row, col] array to match the generator wire format.
type Point struct {
	Row int
	Col int
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var arr [2]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("grid point: %w", err)
	}
	p.Row, p.Col = arr[0], arr[1]
	return nil
}

// Center is a pixel-space landmark or marker center.
type Center struct {
	X float64
	Y float64
}

// Round rounds to one decimal place, matching the precision used when
// centers are written into and scraped out of SVG markup.
func Round(n float64) float64 {
	return math.Round(n*10) / 10
}

// Rotate90 rotates a point a quarter turn clockwise on an n by n grid.
func Rotate90(p Point, n int) Point {
	return Point{Row: p.Col, Col: n - 1 - p.Row}
}

// RotateGridPoints rotates every point by deg degrees clockwise on an
// n by n grid. Only quarter turns are meaningful; deg is truncated to
// whole quarter turns and anything past a full revolution wraps.
func RotateGridPoints(pts []Point, n, deg int) []Point {
	times := (deg / 90) % 4
	out := make([]Point, len(pts))
	for i, p := range pts {
		cur := p
		for t := 0; t < times; t++ {
			cur = Rotate90(cur, n)
		}
		out[i] = cur
	}
	return out
}

// Axis is a reflection axis along a grid row or column.
type Axis struct {
	Type string `json:"type"` // "vertical" or "horizontal"
	X    int    `json:"x,omitempty"`
	Y    int    `json:"y,omitempty"`
}

// Reflect mirrors a point across the axis. A vertical axis at column x
// maps (r, c) to (r, 2x-c); anything else is treated as a horizontal
// axis at row y mapping (r, c) to (2y-r, c).
func Reflect(p Point, ax Axis) Point {
	if ax.Type == "vertical" {
		return Point{Row: p.Row, Col: ax.X - (p.Col - ax.X)}
	}
	return Point{Row: ax.Y - (p.Row - ax.Y), Col: p.Col}
}

// RouteStep is one navigation instruction: a compass direction and a
// number of unit moves.
type RouteStep struct {
	Dir   string
	Count int
}

func (s RouteStep) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{s.Dir, s.Count})
}

func (s *RouteStep) UnmarshalJSON(data []byte) error {
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("route step: %w", err)
	}
	if err := json.Unmarshal(arr[0], &s.Dir); err != nil {
		return fmt.Errorf("route step dir: %w", err)
	}
	var n float64
	if err := json.Unmarshal(arr[1], &n); err != nil {
		return fmt.Errorf("route step count: %w", err)
	}
	s.Count = int(n)
	return nil
}

var compass = map[string]Point{
	"N": {Row: -1, Col: 0},
	"S": {Row: 1, Col: 0},
	"E": {Row: 0, Col: 1},
	"W": {Row: 0, Col: -1},
}

// WalkRoute applies the steps from start, clamping each unit move to the
// n by n grid so walking into a wall wastes the move instead of leaving
// the board. Steps with an unknown direction are skipped.
func WalkRoute(start Point, steps []RouteStep, n int) Point {
	cur := start
	for _, st := range steps {
		d, ok := compass[st.Dir]
		if !ok {
			continue
		}
		for i := 0; i < st.Count; i++ {
			cur.Row = clamp(cur.Row+d.Row, 0, n-1)
			cur.Col = clamp(cur.Col+d.Col, 0, n-1)
		}
	}
	return cur
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

// GridToPixelCenters maps grid points to their rendered cell centers.
func GridToPixelCenters(pts []Point) []Center {
	out := make([]Center, len(pts))
	for i, p := range pts {
		out[i] = Center{
			X: Round(float64(Pad + p.Col*Cell + Cell/2)),
			Y: Round(float64(Pad + p.Row*Cell + Cell/2)),
		}
	}
	return out
}

// SameCenters reports whether the two center sets match pairwise within
// CenterTolerance on each axis, ignoring order. Each candidate center is
// consumed by at most one match.
func SameCenters(got, want []Center) bool {
	if len(got) != len(want) {
		return false
	}
	used := make([]bool, len(want))
	for _, g := range got {
		matched := false
		for i, w := range want {
			if used[i] {
				continue
			}
			if math.Abs(g.X-w.X) <= CenterTolerance && math.Abs(g.Y-w.Y) <= CenterTolerance {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
