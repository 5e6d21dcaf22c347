package geometry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Landmark is a named map feature drawn at a grid cell.
type Landmark struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"` // "square", "circle" or "triangle"
	Pos  Point  `json:"pos"`
}

// BaseMap is the memorize-phase map payload: roads as cell-to-cell
// segments, a river polyline and the landmark set.
type BaseMap struct {
	Roads     [][2]Point `json:"roads,omitempty"`
	River     []Point    `json:"river,omitempty"`
	Landmarks []Landmark `json:"landmarks,omitempty"`
	North     string     `json:"north,omitempty"`
}

// MapOptions are per-rendering extras: a red position marker and a green
// reflection axis.
type MapOptions struct {
	Marker *Point
	Axis   *Axis
}

const (
	markerFill   = "#ef4444"
	landmarkFill = "#eab308"
)

// BuildMapSVG renders a base map to SVG markup. The layout constants
// match the extraction helpers below, so a rendered map round-trips
// through MarkerCellFromSVG and LandmarkCentersFromSVG.
func BuildMapSVG(grid int, base BaseMap, opts MapOptions) string {
	size := Cell * grid
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, size, size, size, size)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#0B1020" rx="12" ry="12" />`, size, size)

	for i := 0; i <= grid; i++ {
		v := Pad + i*Cell
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#1f2937" stroke-width="1" />`, Pad, v, size-Pad, v)
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#1f2937" stroke-width="1" />`, v, Pad, v, size-Pad)
	}

	for _, seg := range base.Roads {
		x1, y1 := cellCenter(seg[0])
		x2, y2 := cellCenter(seg[1])
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#64748b" stroke-width="6" />`, x1, y1, x2, y2)
	}

	if len(base.River) >= 2 {
		pts := make([]string, len(base.River))
		for i, p := range base.River {
			x, y := cellCenter(p)
			pts[i] = strconv.Itoa(x) + "," + strconv.Itoa(y)
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="#38bdf8" stroke-width="6" opacity="0.9" />`, strings.Join(pts, " "))
	}

	if ax := opts.Axis; ax != nil {
		if ax.Type == "vertical" {
			x := Pad + ax.X*Cell + Cell/2
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#22c55e" stroke-width="2" />`, x, Pad, x, size-Pad)
		} else {
			y := Pad + ax.Y*Cell + Cell/2
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#22c55e" stroke-width="2" />`, Pad, y, size-Pad, y)
		}
	}

	for _, lm := range base.Landmarks {
		cx, cy := cellCenter(lm.Pos)
		switch lm.Icon {
		case "circle":
			fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="12" fill="%s" />`, cx, cy, landmarkFill)
		case "triangle":
			fmt.Fprintf(&b, `<polygon points="%d,%d %d,%d %d,%d" fill="%s" />`, cx, cy-14, cx-12, cy+10, cx+12, cy+10, landmarkFill)
		default:
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="24" height="24" rx="4" ry="4" fill="%s" />`, cx-12, cy-12, landmarkFill)
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="#cbd5e1" font-size="12" text-anchor="middle">%s</text>`, cx, cy+28, lm.Name)
	}

	if m := opts.Marker; m != nil {
		x, y := cellCenter(*m)
		fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="8" fill="%s" />`, x, y, markerFill)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func cellCenter(p Point) (int, int) {
	return Pad + p.Col*Cell + Cell/2, Pad + p.Row*Cell + Cell/2
}

var (
	circleTagRe  = regexp.MustCompile(`<circle[^>]*>`)
	rectTagRe    = regexp.MustCompile(`<rect[^>]*>`)
	polygonTagRe = regexp.MustCompile(`<polygon[^>]*>`)
	attrRes      = map[string]*regexp.Regexp{
		"cx":     regexp.MustCompile(`cx="([\d.]+)"`),
		"cy":     regexp.MustCompile(`cy="([\d.]+)"`),
		"r":      regexp.MustCompile(`r="([\d.]+)"`),
		"x":      regexp.MustCompile(`\bx="([\d.]+)"`),
		"y":      regexp.MustCompile(`\by="([\d.]+)"`),
		"width":  regexp.MustCompile(`width="([\d.]+)"`),
		"height": regexp.MustCompile(`height="([\d.]+)"`),
		"points": regexp.MustCompile(`points="([^"]+)"`),
	}
)

func attr(tag, name string) (string, bool) {
	m := attrRes[name].FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func attrFloat(tag, name string) (float64, bool) {
	s, ok := attr(tag, name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MarkerCellFromSVG scrapes the red marker circle out of an option's SVG
// markup and maps its center back to a grid cell. Attribute order inside
// the tag does not matter. Returns false when no marker is present or
// the derived cell falls outside the grid.
func MarkerCellFromSVG(svg string, grid int) (Point, bool) {
	for _, tag := range circleTagRe.FindAllString(svg, -1) {
		if !strings.Contains(tag, `fill="`+markerFill+`"`) {
			continue
		}
		cx, okX := attrFloat(tag, "cx")
		cy, okY := attrFloat(tag, "cy")
		if !okX || !okY {
			continue
		}
		p := Point{
			Row: int(math.Round((cy - Pad - Cell/2) / Cell)),
			Col: int(math.Round((cx - Pad - Cell/2) / Cell)),
		}
		if p.Row < 0 || p.Col < 0 || p.Row >= grid || p.Col >= grid {
			return Point{}, false
		}
		return p, true
	}
	return Point{}, false
}

// LandmarkCentersFromSVG scrapes landmark shapes (24x24 squares, r=12
// circles and triangle polygons, all in the landmark fill) out of SVG
// markup and returns their centers rounded to one decimal.
func LandmarkCentersFromSVG(svg string) []Center {
	var out []Center

	for _, tag := range rectTagRe.FindAllString(svg, -1) {
		if !strings.Contains(tag, `fill="`+landmarkFill+`"`) {
			continue
		}
		if w, _ := attr(tag, "width"); w != "24" {
			continue
		}
		if h, _ := attr(tag, "height"); h != "24" {
			continue
		}
		x, okX := attrFloat(tag, "x")
		y, okY := attrFloat(tag, "y")
		if okX && okY {
			out = append(out, Center{X: Round(x + 12), Y: Round(y + 12)})
		}
	}

	for _, tag := range circleTagRe.FindAllString(svg, -1) {
		if !strings.Contains(tag, `fill="`+landmarkFill+`"`) {
			continue
		}
		if r, _ := attr(tag, "r"); r != "12" {
			continue
		}
		cx, okX := attrFloat(tag, "cx")
		cy, okY := attrFloat(tag, "cy")
		if okX && okY {
			out = append(out, Center{X: Round(cx), Y: Round(cy)})
		}
	}

	for _, tag := range polygonTagRe.FindAllString(svg, -1) {
		if !strings.Contains(tag, `fill="`+landmarkFill+`"`) {
			continue
		}
		pts, ok := attr(tag, "points")
		if !ok {
			continue
		}
		var sumX, sumY float64
		n := 0
		for _, pair := range strings.Fields(pts) {
			xy := strings.SplitN(pair, ",", 2)
			if len(xy) != 2 {
				continue
			}
			x, errX := strconv.ParseFloat(xy[0], 64)
			y, errY := strconv.ParseFloat(xy[1], 64)
			if errX != nil || errY != nil {
				continue
			}
			sumX += x
			sumY += y
			n++
		}
		if n > 0 {
			out = append(out, Center{X: Round(sumX / float64(n)), Y: Round(sumY / float64(n))})
		}
	}

	return out
}
