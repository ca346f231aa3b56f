package pipeline

import (
	"fmt"
	"strconv"

	"github.com/geomantic/tilepress/internal/config"
	"github.com/geomantic/tilepress/internal/faults"
	"github.com/geomantic/tilepress/internal/planner"
)

// stdinMarker tells gpio to read GeoParquet from standard input instead of
// a path. Every stage after the first reads its predecessor's stdout.
const stdinMarker = "-"

// Production-quality tile defaults. Fixed constants; overridden only by the
// explicit options in the request, never per-input.
const (
	defaultSimplification   = 10
	defaultProgressInterval = 10
)

// Stage is one executable unit of the chain: a discrete argument vector
// (Args[0] is the program name) plus extra environment entries. Argument
// vectors are never joined into a shell string anywhere in this package.
type Stage struct {
	Program string
	Args    []string
	Env     []string // appended to the parent environment
}

// BuildStages turns a plan into executable stages.
func BuildStages(plan *planner.Plan, req *planner.Request) ([]Stage, error) {
	stages := make([]Stage, 0, plan.Len())
	for _, spec := range plan.Stages {
		args, err := BuildArgs(spec, req)
		if err != nil {
			return nil, err
		}
		stages = append(stages, Stage{
			Program: spec.Program,
			Args:    args,
			Env:     stageEnv(spec, req),
		})
	}
	return stages, nil
}

// BuildArgs constructs the argument vector for one stage. Tile-only options
// (layer, precision, attribution, zoom bounds) never leak into earlier
// stages' vectors.
func BuildArgs(spec planner.StageSpec, req *planner.Request) ([]string, error) {
	src := stdinMarker
	if spec.ReadsInput {
		src = req.Input.String()
	}

	switch spec.Kind {
	case planner.StageReproject:
		return []string{
			planner.ProgramGpio, "reproject", src,
			"--src-crs", req.SrcCRS,
			"--dst-crs", "EPSG:4326",
			"-o", stdinMarker,
		}, nil

	case planner.StageExtract:
		args := []string{planner.ProgramGpio, "extract", src}
		if req.BBox != "" {
			// The bbox literal is passed through byte-for-byte.
			args = append(args, "--bbox", req.BBox)
		}
		if req.Where != "" {
			args = append(args, "--where", req.Where)
		}
		if req.Columns != "" {
			args = append(args, "--columns", req.Columns)
		}
		return append(args, "-o", stdinMarker), nil

	case planner.StageConvert:
		return []string{
			planner.ProgramGpio, "geojson", src,
			"-o", stdinMarker,
		}, nil

	case planner.StageTile:
		return buildTileArgs(req)

	default:
		return nil, fmt.Errorf("unknown stage kind %d", spec.Kind)
	}
}

// buildTileArgs constructs the tippecanoe invocation. --force makes reruns
// overwrite the archive instead of failing.
func buildTileArgs(req *planner.Request) ([]string, error) {
	// Guarded again here even though config validation catches it first:
	// a request constructed without ParseFlags must not reach the executor
	// with inverted bounds.
	if req.MinZoom != config.ZoomUnset && req.MaxZoom != config.ZoomUnset && req.MinZoom > req.MaxZoom {
		return nil, &faults.ConflictError{
			OptionA: "min-zoom",
			OptionB: "max-zoom",
			Reason:  fmt.Sprintf("%d > %d", req.MinZoom, req.MaxZoom),
		}
	}

	args := []string{
		planner.ProgramTippecanoe,
		"-o", req.Output.String(),
		"--force",
		"-l", req.Layer,
		"--drop-densest-as-needed",
		"--simplification=" + strconv.Itoa(defaultSimplification),
		"--progress-interval=" + strconv.Itoa(defaultProgressInterval),
	}

	// Zoom policy: an absent max bound is left to tippecanoe's guessing
	// (-zg); an absent min bound is left to the tool default. Bounds are
	// never invented here.
	if req.MinZoom != config.ZoomUnset {
		args = append(args, "-Z", strconv.Itoa(req.MinZoom))
	}
	if req.MaxZoom != config.ZoomUnset {
		args = append(args, "-z", strconv.Itoa(req.MaxZoom))
	} else {
		args = append(args, "-zg")
	}

	if req.Precision != config.ZoomUnset {
		args = append(args, "--full-detail="+strconv.Itoa(req.Precision))
	}
	if req.Attribution != "" {
		args = append(args, "--attribution="+req.Attribution)
	}
	return args, nil
}

// stageEnv returns extra environment entries for a stage. The credential
// profile matters only to the stage that opens the (possibly remote) input.
func stageEnv(spec planner.StageSpec, req *planner.Request) []string {
	if spec.ReadsInput && req.Profile != "" {
		return []string{"AWS_PROFILE=" + req.Profile}
	}
	return nil
}
