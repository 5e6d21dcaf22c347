// Package challenge defines the generated challenge document format and
// the answer checking for every item variant.
package challenge

import (
	"encoding/json"
	"time"

	"github.com/matea/trainer/internal/engine/geometry"
	"github.com/matea/trainer/internal/models"
)

// Item variants, grouped by challenge track.
const (
	// memory
	VariantLexiconMatch    = "lexicon_match"
	VariantSequenceMissing = "sequence_missing"
	VariantSceneRecall     = "scene_recall"
	// spatial
	VariantRouteNav      = "route_nav"
	VariantMirrorReflect = "mirror_reflect"
	VariantMapRotate     = "map_rotate"
	// numerical
	VariantTarget24        = "target_24"
	VariantNumberMaze      = "number_maze"
	VariantEquationFill    = "equation_fill"
	VariantFunctionMachine = "function_machine"
	VariantModularArith    = "modular_arith"
	VariantBaseConvert     = "base_convert"
	VariantProbRatio       = "prob_ratio"
)

// Doc is one generated challenge run of ItemCount items.
type Doc struct {
	ChallengeID string             `json:"challengeId"`
	Type        models.ChallengeID `json:"type"`
	Difficulty  string             `json:"difficulty,omitempty"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Items       []Item             `json:"items"`
	Scoring     json.RawMessage    `json:"scoring,omitempty"`
}

// Item is one puzzle. Render and Metadata are variant-specific and kept
// raw until a checker needs them; items are read-only once generated.
type Item struct {
	ItemID     string          `json:"itemId"`
	Variant    string          `json:"variant"`
	Prompt     string          `json:"prompt"`
	Render     json.RawMessage `json:"render,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"` // []Option for spatial, []string for scene_recall
	AnswerSpec json.RawMessage `json:"answerSpec,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	AnswerHash string          `json:"answerHash,omitempty"`
}

// Option is one spatial multiple-choice rendering.
type Option struct {
	OptionID string       `json:"optionId"`
	Render   OptionRender `json:"render"`
}

type OptionRender struct {
	Kind string `json:"kind,omitempty"`
	SVG  string `json:"svg,omitempty"`
}

// Pair is one term/definition entry of a lexicon item.
type Pair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type lexiconRender struct {
	Pairs       []Pair   `json:"pairs"`
	Distractors []string `json:"distractors,omitempty"`
}

type sequenceRender struct {
	Sequence    []int `json:"sequence"`
	MaskIndices []int `json:"maskIndices"`
}

// SceneChange describes what happened between the two scene phases.
type SceneChange struct {
	Type     string          `json:"type"` // "removed" or "moved"
	TargetID string          `json:"targetId"`
	To       *geometry.Point `json:"to,omitempty"`
}

type sceneRender struct {
	Change *SceneChange `json:"change"`
}

type spatialRender struct {
	Grid   int              `json:"grid,omitempty"`
	Base   geometry.BaseMap `json:"base"`
	Action spatialAction    `json:"action"`
}

type spatialAction struct {
	From  string               `json:"from,omitempty"`
	Steps []geometry.RouteStep `json:"steps,omitempty"`
	Axis  *geometry.Axis       `json:"axis,omitempty"`
	Deg   int                  `json:"deg,omitempty"`
}

type target24Render struct {
	Numbers []int    `json:"numbers,omitempty"`
	Target  *float64 `json:"target,omitempty"`
	Slots   int      `json:"slots,omitempty"`
}

type mazeRender struct {
	Grid     int            `json:"grid,omitempty"`
	Cells    [][]int        `json:"cells"`
	Edges    mazeEdges      `json:"edges"`
	Start    geometry.Point `json:"start"`
	MaxSteps int            `json:"maxSteps,omitempty"`
	Target   int            `json:"target"`
}

type mazeEdges struct {
	H [][]string `json:"h"`
	V [][]string `json:"v"`
}

type equationRender struct {
	ExpressionLeft  string `json:"expressionLeft"`
	ExpressionRight string `json:"expressionRight"`
	Blanks          int    `json:"blanks,omitempty"`
}

type functionRender struct {
	Functions struct {
		F string `json:"f"`
		G string `json:"g"`
	} `json:"functions"`
	Query string `json:"query"`
}

type itemMetadata struct {
	Numbers  []int       `json:"numbers,omitempty"`
	Mod      *int        `json:"mod,omitempty"`
	Fraction *[2]float64 `json:"fraction,omitempty"`
}

func decodeRender(item Item, dst interface{}) bool {
	if len(item.Render) == 0 {
		return false
	}
	return json.Unmarshal(item.Render, dst) == nil
}

func decodeMetadata(item Item) itemMetadata {
	var md itemMetadata
	if len(item.Metadata) > 0 {
		_ = json.Unmarshal(item.Metadata, &md)
	}
	return md
}

// SpatialOptions decodes the multiple-choice option list of a spatial item.
func (i Item) SpatialOptions() []Option {
	var opts []Option
	if len(i.Options) > 0 {
		_ = json.Unmarshal(i.Options, &opts)
	}
	return opts
}

// TextOptions decodes the candidate strings of a scene_recall item.
func (i Item) TextOptions() []string {
	var opts []string
	if len(i.Options) > 0 {
		_ = json.Unmarshal(i.Options, &opts)
	}
	return opts
}
