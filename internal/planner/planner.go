// Package planner turns a validated conversion request into an ordered,
// immutable plan of external-program stages.
package planner

import (
	"github.com/geomantic/tilepress/internal/config"
	"github.com/geomantic/tilepress/internal/naming"
	"github.com/geomantic/tilepress/internal/pathcheck"
)

// StageKind identifies what a stage does, in chain order.
type StageKind int

const (
	StageReproject StageKind = iota // optional: CRS override present
	StageExtract                    // optional: bbox, where, or columns present
	StageConvert                    // always: GeoParquet to GeoJSONSeq
	StageTile                       // always: GeoJSONSeq to PMTiles
)

func (k StageKind) String() string {
	switch k {
	case StageReproject:
		return "reproject"
	case StageExtract:
		return "extract"
	case StageConvert:
		return "convert"
	case StageTile:
		return "tile"
	default:
		return "unknown"
	}
}

// External programs per stage kind.
const (
	ProgramGpio       = "gpio"
	ProgramTippecanoe = "tippecanoe"
)

// Request is the immutable value a plan is built from: validated paths plus
// the full recognized option set. Construct it with NewRequest only.
type Request struct {
	Input  pathcheck.Validated
	Output pathcheck.Validated

	MinZoom     int
	MaxZoom     int
	Layer       string
	BBox        string
	Where       string
	Columns     string
	Precision   int
	SrcCRS      string
	Attribution string
	Profile     string
	Verbose     bool
}

// NewRequest validates the paths in cfg and builds a Request. The output
// path is derived from the input stem when not supplied; the layer name
// defaults to the sanitized input stem. cfg.Validate must have succeeded
// before this is called.
func NewRequest(cfg *config.Config) (*Request, error) {
	input, err := pathcheck.Validate(cfg.InputPath, pathcheck.RoleInput)
	if err != nil {
		return nil, err
	}

	outputRaw := cfg.OutputPath
	if outputRaw == "" {
		outputRaw, err = naming.DeriveOutput(input.String())
		if err != nil {
			return nil, err
		}
	}
	output, err := pathcheck.Validate(outputRaw, pathcheck.RoleOutput)
	if err != nil {
		return nil, err
	}

	layer := cfg.Layer
	if layer == "" {
		layer = naming.LayerName(input.String())
	}

	return &Request{
		Input:       input,
		Output:      output,
		MinZoom:     cfg.MinZoom,
		MaxZoom:     cfg.MaxZoom,
		Layer:       layer,
		BBox:        cfg.BBox,
		Where:       cfg.Where,
		Columns:     cfg.Columns,
		Precision:   cfg.Precision,
		SrcCRS:      cfg.SrcCRS,
		Attribution: cfg.Attribution,
		Profile:     cfg.Profile,
		Verbose:     cfg.Verbose,
	}, nil
}

// NeedsFilter reports whether any row/column filtering option is present.
func (r *Request) NeedsFilter() bool {
	return r.BBox != "" || r.Where != "" || r.Columns != ""
}

// StageSpec describes one stage of the chain. The chain is strictly linear:
// the first stage reads the input file (or remote URI), every later stage
// reads its predecessor's stdout, and only the last stage writes the
// output file.
type StageSpec struct {
	Kind         StageKind
	Program      string
	ReadsInput   bool // reads the input path instead of stdin
	WritesOutput bool // writes the output archive
}

// Plan is the ordered stage sequence for one invocation, 2 to 4 elements.
// Immutable once built; consumed exactly once by the executor.
type Plan struct {
	Stages []StageSpec
}

// Len returns the number of stages.
func (p *Plan) Len() int { return len(p.Stages) }

// Kinds returns the stage kinds in order, for logging and tests.
func (p *Plan) Kinds() []StageKind {
	kinds := make([]StageKind, len(p.Stages))
	for i, s := range p.Stages {
		kinds[i] = s.Kind
	}
	return kinds
}

// Build selects the stages for a request. Decision rules in order:
// reprojection iff a source CRS override is present; extraction iff any
// filter option is present; conversion always; tile-building always.
// With no optional stages the plan is exactly {convert, tile} and the
// conversion stage reads the input directly.
func Build(req *Request) *Plan {
	var stages []StageSpec

	if req.SrcCRS != "" {
		stages = append(stages, StageSpec{Kind: StageReproject, Program: ProgramGpio})
	}
	if req.NeedsFilter() {
		stages = append(stages, StageSpec{Kind: StageExtract, Program: ProgramGpio})
	}
	stages = append(stages, StageSpec{Kind: StageConvert, Program: ProgramGpio})
	stages = append(stages, StageSpec{Kind: StageTile, Program: ProgramTippecanoe})

	stages[0].ReadsInput = true
	stages[len(stages)-1].WritesOutput = true
	return &Plan{Stages: stages}
}
