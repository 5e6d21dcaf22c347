package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotate90(t *testing.T) {
	assert.Equal(t, Point{Row: 0, Col: 3}, Rotate90(Point{Row: 0, Col: 0}, 4))
	assert.Equal(t, Point{Row: 2, Col: 2}, Rotate90(Point{Row: 1, Col: 2}, 4))
}

func TestRotateGridPointsFullTurn(t *testing.T) {
	pts := []Point{{0, 0}, {1, 2}, {3, 3}}

	assert.Equal(t, pts, RotateGridPoints(pts, 4, 360), "full turn is identity")
	assert.Equal(t, pts, RotateGridPoints(pts, 4, 0))
	assert.Equal(t, RotateGridPoints(pts, 4, 90), RotateGridPoints(pts, 4, 450))
}

func TestRotateGridPointsTruncatesPartialTurns(t *testing.T) {
	pts := []Point{{1, 2}}
	assert.Equal(t, RotateGridPoints(pts, 5, 90), RotateGridPoints(pts, 5, 170))
}

func TestReflect(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		ax   Axis
		want Point
	}{
		{"vertical axis", Point{2, 1}, Axis{Type: "vertical", X: 2}, Point{2, 3}},
		{"vertical on axis", Point{2, 2}, Axis{Type: "vertical", X: 2}, Point{2, 2}},
		{"horizontal axis", Point{0, 4}, Axis{Type: "horizontal", Y: 2}, Point{4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reflect(tt.p, tt.ax)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.p, Reflect(got, tt.ax), "reflection is an involution")
		})
	}
}

func TestWalkRoute(t *testing.T) {
	start := Point{Row: 2, Col: 2}

	got := WalkRoute(start, []RouteStep{{Dir: "N", Count: 1}, {Dir: "E", Count: 2}}, 5)
	assert.Equal(t, Point{Row: 1, Col: 4}, got)

	t.Run("clamps at walls per unit move", func(t *testing.T) {
		got := WalkRoute(Point{Row: 0, Col: 0}, []RouteStep{{Dir: "N", Count: 3}, {Dir: "E", Count: 1}}, 5)
		assert.Equal(t, Point{Row: 0, Col: 1}, got)
	})

	t.Run("skips unknown directions", func(t *testing.T) {
		got := WalkRoute(start, []RouteStep{{Dir: "X", Count: 9}, {Dir: "S", Count: 1}}, 5)
		assert.Equal(t, Point{Row: 3, Col: 2}, got)
	})
}

func TestSameCenters(t *testing.T) {
	a := []Center{{X: 34, Y: 34}, {X: 90, Y: 146}}

	assert.True(t, SameCenters(a, []Center{{X: 90, Y: 146}, {X: 34, Y: 34}}), "order independent")
	assert.True(t, SameCenters(a, []Center{{X: 35.9, Y: 33}, {X: 91, Y: 147.5}}), "within tolerance")
	assert.False(t, SameCenters(a, []Center{{X: 34, Y: 34}, {X: 90, Y: 149}}), "past tolerance")
	assert.False(t, SameCenters(a, a[:1]), "length mismatch")

	t.Run("duplicate centers are not double counted", func(t *testing.T) {
		got := []Center{{X: 34, Y: 34}, {X: 34, Y: 34}}
		want := []Center{{X: 34, Y: 34}, {X: 90, Y: 90}}
		assert.False(t, SameCenters(got, want))
	})
}

func TestMarkerCellRoundTrip(t *testing.T) {
	grid := 5
	for _, cell := range []Point{{0, 0}, {2, 3}, {4, 4}} {
		svg := BuildMapSVG(grid, BaseMap{}, MapOptions{Marker: &cell})
		got, ok := MarkerCellFromSVG(svg, grid)
		require.True(t, ok, "marker should be extractable for %v", cell)
		assert.Equal(t, cell, got)
	}
}

func TestMarkerCellFromSVGMissingOrOutOfBounds(t *testing.T) {
	_, ok := MarkerCellFromSVG(BuildMapSVG(5, BaseMap{}, MapOptions{}), 5)
	assert.False(t, ok, "no marker drawn")

	marker := Point{Row: 4, Col: 4}
	svg := BuildMapSVG(5, BaseMap{}, MapOptions{Marker: &marker})
	_, ok = MarkerCellFromSVG(svg, 3)
	assert.False(t, ok, "marker outside the declared grid")
}

func TestMarkerCellFromSVGAttributeOrder(t *testing.T) {
	svg := `<svg><circle fill="#ef4444" cx="146" cy="34" r="8" /></svg>`
	got, ok := MarkerCellFromSVG(svg, 5)
	require.True(t, ok)
	assert.Equal(t, Point{Row: 0, Col: 2}, got)
}

func TestLandmarkCentersRoundTrip(t *testing.T) {
	base := BaseMap{Landmarks: []Landmark{
		{Name: "Pasar", Icon: "square", Pos: Point{0, 1}},
		{Name: "Taman", Icon: "circle", Pos: Point{2, 2}},
		{Name: "Menara", Icon: "triangle", Pos: Point{3, 0}},
	}}
	svg := BuildMapSVG(4, base, MapOptions{})

	got := LandmarkCentersFromSVG(svg)
	require.Len(t, got, 3)

	pts := make([]Point, len(base.Landmarks))
	for i, lm := range base.Landmarks {
		pts[i] = lm.Pos
	}
	want := GridToPixelCenters(pts)
	assert.True(t, SameCenters(got, want))
}

func TestRotatedLandmarksMatchRenderedOption(t *testing.T) {
	grid := 4
	base := []Point{{0, 0}, {1, 2}, {3, 1}}
	rotated := RotateGridPoints(base, grid, 90)

	lms := make([]Landmark, len(rotated))
	for i, p := range rotated {
		lms[i] = Landmark{Name: "L", Icon: "square", Pos: p}
	}
	optionSVG := BuildMapSVG(grid, BaseMap{Landmarks: lms}, MapOptions{})

	want := GridToPixelCenters(rotated)
	got := LandmarkCentersFromSVG(optionSVG)
	assert.True(t, SameCenters(got, want))
}

func TestGridToPixelCenters(t *testing.T) {
	got := GridToPixelCenters([]Point{{0, 0}, {1, 2}})
	assert.Equal(t, []Center{{X: 34, Y: 34}, {X: 146, Y: 90}}, got)
}
