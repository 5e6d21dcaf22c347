package challenge

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/matea/trainer/internal/engine/expr"
	"github.com/matea/trainer/internal/engine/geometry"
	"github.com/matea/trainer/internal/engine/maze"
)

// Answer is a user submission. Exactly the fields relevant to the item's
// variant are read; the rest are ignored. An empty answer is simply
// incorrect, never an error.
type Answer struct {
	OptionID  string            `json:"optionId,omitempty"`  // spatial multiple choice
	Selected  string            `json:"selected,omitempty"`  // scene_recall candidate text
	Mapping   map[string]string `json:"mapping,omitempty"`   // lexicon_match term -> definition
	SeqInputs []int             `json:"seqInputs,omitempty"` // sequence_missing, in mask order
	Tokens    []expr.Token      `json:"tokens,omitempty"`    // target_24 builder tokens
	Digits    []string          `json:"digits,omitempty"`    // equation_fill, in blank order
	Value     *float64          `json:"value,omitempty"`     // free numeric variants
	Path      []geometry.Point  `json:"path,omitempty"`      // number_maze moves after the start cell
}

const (
	targetEpsilon   = 1e-6
	equationEpsilon = 1e-9
)

// Check scores an answer against an item. It is a total function: any
// malformed payload, unknown variant or engine failure resolves to false.
func Check(item Item, ans Answer) bool {
	switch item.Variant {
	case VariantLexiconMatch:
		return checkLexicon(item, ans)
	case VariantSequenceMissing:
		return checkSequence(item, ans)
	case VariantSceneRecall:
		return checkScene(item, ans)
	case VariantRouteNav, VariantMirrorReflect, VariantMapRotate:
		correct, ok := CorrectOption(item)
		return ok && ans.OptionID != "" && ans.OptionID == correct
	case VariantTarget24:
		return checkTarget24(item, ans)
	case VariantNumberMaze:
		return checkMaze(item, ans)
	case VariantEquationFill:
		return checkEquation(item, ans)
	case VariantFunctionMachine:
		return checkFunctionMachine(item, ans)
	case VariantModularArith:
		return checkModular(item, ans)
	case VariantBaseConvert:
		return checkBaseConvert(item, ans)
	case VariantProbRatio:
		return checkProbRatio(item, ans)
	}
	return false
}

func checkLexicon(item Item, ans Answer) bool {
	var r lexiconRender
	if !decodeRender(item, &r) || len(r.Pairs) == 0 {
		return false
	}
	for _, p := range r.Pairs {
		if ans.Mapping[p.Term] != p.Definition {
			return false
		}
	}
	return true
}

func checkSequence(item Item, ans Answer) bool {
	var r sequenceRender
	if !decodeRender(item, &r) || len(r.MaskIndices) == 0 {
		return false
	}
	for j, m := range r.MaskIndices {
		if m < 0 || m >= len(r.Sequence) || j >= len(ans.SeqInputs) {
			return false
		}
		if ans.SeqInputs[j] != r.Sequence[m] {
			return false
		}
	}
	return true
}

func checkScene(item Item, ans Answer) bool {
	var r sceneRender
	if !decodeRender(item, &r) || r.Change == nil {
		return false
	}
	var expect string
	switch r.Change.Type {
	case "removed":
		expect = r.Change.TargetID
	case "moved":
		if r.Change.To == nil {
			return false
		}
		expect = r.Change.TargetID + "@" + strconv.Itoa(r.Change.To.Row) + "-" + strconv.Itoa(r.Change.To.Col)
	default:
		return false
	}
	return ans.Selected != "" && ans.Selected == expect
}

// CorrectOption computes which multiple-choice option matches the ground
// truth transform of a spatial item, independent of option order. ok is
// false for non-spatial items and when no option matches.
func CorrectOption(item Item) (string, bool) {
	var r spatialRender
	if !decodeRender(item, &r) {
		return "", false
	}

	switch item.Variant {
	case VariantRouteNav:
		grid := gridOr(r.Grid, 5)
		start := landmarkPos(r.Base, r.Action.From)
		final := geometry.WalkRoute(start, r.Action.Steps, grid)
		return optionWithMarker(item, grid, final)

	case VariantMirrorReflect:
		if r.Action.Axis == nil {
			return "", false
		}
		grid := gridOr(r.Grid, 5)
		target := reflectTarget(r.Base)
		reflected := geometry.Reflect(target, *r.Action.Axis)
		return optionWithMarker(item, grid, reflected)

	case VariantMapRotate:
		grid := gridOr(r.Grid, 4)
		deg := r.Action.Deg
		if deg == 0 {
			deg = 90
		}
		pts := make([]geometry.Point, len(r.Base.Landmarks))
		for i, lm := range r.Base.Landmarks {
			pts[i] = lm.Pos
		}
		want := geometry.GridToPixelCenters(geometry.RotateGridPoints(pts, grid, deg))
		for _, o := range item.SpatialOptions() {
			got := geometry.LandmarkCentersFromSVG(o.Render.SVG)
			if geometry.SameCenters(got, want) {
				return o.OptionID, true
			}
		}
	}
	return "", false
}

func gridOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// landmarkPos finds the named landmark's cell, defaulting to the origin.
func landmarkPos(base geometry.BaseMap, name string) geometry.Point {
	for _, lm := range base.Landmarks {
		if lm.Name == name {
			return lm.Pos
		}
	}
	return geometry.Point{}
}

// reflectTarget picks the landmark being mirrored: the one named "Pasar"
// when present, else the first.
func reflectTarget(base geometry.BaseMap) geometry.Point {
	for _, lm := range base.Landmarks {
		if lm.Name == "Pasar" {
			return lm.Pos
		}
	}
	if len(base.Landmarks) > 0 {
		return base.Landmarks[0].Pos
	}
	return geometry.Point{}
}

func optionWithMarker(item Item, grid int, want geometry.Point) (string, bool) {
	for _, o := range item.SpatialOptions() {
		cell, ok := geometry.MarkerCellFromSVG(o.Render.SVG, grid)
		if ok && cell == want {
			return o.OptionID, true
		}
	}
	return "", false
}

func checkTarget24(item Item, ans Answer) bool {
	var r target24Render
	decodeRender(item, &r)
	nums := r.Numbers
	if len(nums) == 0 {
		nums = decodeMetadata(item).Numbers
	}
	target := 24.0
	if r.Target != nil {
		target = *r.Target
	}

	if len(ans.Tokens) == 0 {
		return false
	}
	open := 0
	for _, t := range ans.Tokens {
		if t.Kind == expr.KindParen {
			if t.Value == "(" {
				open++
			} else {
				open--
			}
		}
	}
	last := ans.Tokens[len(ans.Tokens)-1]
	endsWell := last.Kind == expr.KindNumber || (last.Kind == expr.KindParen && last.Value == ")")
	if open != 0 || !endsWell {
		return false
	}

	composed := expr.Compose(ans.Tokens)
	v, err := expr.Eval(composed)
	if err != nil {
		return false
	}
	return math.Abs(v-target) < targetEpsilon && expr.UsesExactly(composed, nums)
}

func checkMaze(item Item, ans Answer) bool {
	var r mazeRender
	if !decodeRender(item, &r) || len(r.Cells) == 0 {
		return false
	}
	g := &maze.Grid{
		Size:     gridOr(r.Grid, 3),
		Cells:    r.Cells,
		H:        r.Edges.H,
		V:        r.Edges.V,
		Start:    maze.Cell{Row: r.Start.Row, Col: r.Start.Col},
		MaxSteps: r.MaxSteps,
		Target:   r.Target,
	}
	if g.MaxSteps == 0 {
		g.MaxSteps = 4
	}
	path := make([]maze.Cell, len(ans.Path))
	for i, p := range ans.Path {
		path[i] = maze.Cell{Row: p.Row, Col: p.Col}
	}
	return g.EvaluatePath(path)
}

func checkEquation(item Item, ans Answer) bool {
	var r equationRender
	if !decodeRender(item, &r) {
		return false
	}
	blanks := r.Blanks
	if blanks == 0 {
		blanks = 2
	}
	idx := 0
	fill := func(s string) string {
		var b strings.Builder
		for _, ch := range s {
			if ch == '□' {
				if idx < len(ans.Digits) {
					b.WriteString(ans.Digits[idx])
				}
				idx++
				continue
			}
			b.WriteRune(ch)
		}
		return b.String()
	}
	left := fill(r.ExpressionLeft)
	right := fill(r.ExpressionRight)
	if idx != blanks {
		return false
	}
	lv, errL := expr.Eval(left)
	rv, errR := expr.Eval(right)
	if errL != nil || errR != nil {
		return false
	}
	return math.Abs(lv-rv) < equationEpsilon
}

var queryArgRe = regexp.MustCompile(`\(([-\d.]+)\)`)

func checkFunctionMachine(item Item, ans Answer) bool {
	if ans.Value == nil {
		return false
	}
	var r functionRender
	if !decodeRender(item, &r) {
		return false
	}
	m := queryArgRe.FindStringSubmatch(r.Query)
	if m == nil {
		return false
	}
	x, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return false
	}
	gx, err := expr.EvalFunc(r.Functions.G, x)
	if err != nil {
		return false
	}
	fgx, err := expr.EvalFunc(r.Functions.F, gx)
	if err != nil {
		return false
	}
	return math.Abs(*ans.Value-fgx) < equationEpsilon
}

var modularPromptRe = regexp.MustCompile(`(\d+)\s*×\s*(\d+)\s*\+\s*(\d+)`)

func checkModular(item Item, ans Answer) bool {
	if ans.Value == nil {
		return false
	}
	md := decodeMetadata(item)
	if md.Mod == nil || *md.Mod == 0 {
		return false
	}
	m := modularPromptRe.FindStringSubmatch(item.Prompt)
	if m == nil {
		return false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])
	return *ans.Value == float64((a*b+c)%*md.Mod)
}

var binaryPromptRe = regexp.MustCompile(`(?i)Ubah\s+([01]+)₂`)

func checkBaseConvert(item Item, ans Answer) bool {
	if ans.Value == nil {
		return false
	}
	m := binaryPromptRe.FindStringSubmatch(item.Prompt)
	if m == nil {
		return false
	}
	v, err := strconv.ParseInt(m[1], 2, 64)
	if err != nil {
		return false
	}
	return *ans.Value == float64(v)
}

func checkProbRatio(item Item, ans Answer) bool {
	if ans.Value == nil {
		return false
	}
	md := decodeMetadata(item)
	if md.Fraction == nil || md.Fraction[1] == 0 {
		return false
	}
	return math.Abs(*ans.Value-md.Fraction[0]/md.Fraction[1]) < targetEpsilon
}
