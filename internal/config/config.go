// Package config holds the closed record of every recognized option:
// defaults, CLI flag parsing, and pre-spawn validation. Unrecognized flags
// are rejected by the parser rather than silently ignored.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geomantic/tilepress/internal/faults"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// ZoomUnset marks an integer option the user did not supply. Unset zoom
// bounds are left to the tile builder's auto-detection, never defaulted.
const ZoomUnset = -1

// Zoom and precision bounds accepted by the tile builder.
const (
	MaxZoomLevel = 24
	MaxPrecision = 15
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Paths (set from positional args). OutputPath may be empty, in which
	// case it is derived from the input stem.
	InputPath  string
	OutputPath string

	// Tiling options.
	MinZoom     int    // Default: ZoomUnset (tool auto-detection).
	MaxZoom     int    // Default: ZoomUnset (tool auto-detection).
	Layer       string // Default: derived from the input stem.
	Precision   int    // Default: ZoomUnset (tool default detail).
	Attribution string

	// Filtering options (any of these selects the extract stage).
	BBox    string // "minx,miny,maxx,maxy"
	Where   string // row filter expression, passed through verbatim
	Columns string // comma-separated include list

	// Reprojection.
	SrcCRS string // CRS identifier override; selects the reproject stage.

	// Remote storage.
	Profile string // credential profile exported to the reading stage

	// Behavior flags.
	DryRun bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		MinZoom:   ZoomUnset,
		MaxZoom:   ZoomUnset,
		Precision: ZoomUnset,
		ColorMode: ColorAuto,
	}
}

// Validate performs all pre-spawn option validation. Failures are typed
// (*faults.OptionError, *faults.ConflictError) and are raised before any
// process is spawned.
func (c *Config) Validate() error {
	if err := validateZoom("min-zoom", c.MinZoom); err != nil {
		return err
	}
	if err := validateZoom("max-zoom", c.MaxZoom); err != nil {
		return err
	}
	if c.MinZoom != ZoomUnset && c.MaxZoom != ZoomUnset && c.MinZoom > c.MaxZoom {
		return &faults.ConflictError{
			OptionA: "min-zoom",
			OptionB: "max-zoom",
			Reason:  fmt.Sprintf("%d > %d", c.MinZoom, c.MaxZoom),
		}
	}

	if c.Precision != ZoomUnset && (c.Precision < 0 || c.Precision > MaxPrecision) {
		return &faults.OptionError{
			Option: "precision",
			Value:  strconv.Itoa(c.Precision),
			Reason: fmt.Sprintf("must be between 0 and %d", MaxPrecision),
		}
	}

	if c.BBox != "" {
		if err := validateBBox(c.BBox); err != nil {
			return err
		}
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputPath == "" {
		return &faults.OptionError{
			Option: "input",
			Value:  "",
			Reason: "an input file or URI is required",
		}
	}
	return nil
}

func validateZoom(option string, z int) error {
	if z == ZoomUnset {
		return nil
	}
	if z < 0 || z > MaxZoomLevel {
		return &faults.OptionError{
			Option: option,
			Value:  strconv.Itoa(z),
			Reason: fmt.Sprintf("zoom levels run from 0 to %d", MaxZoomLevel),
		}
	}
	return nil
}

// validateBBox checks the "minx,miny,maxx,maxy" form without altering the
// string: the literal is passed byte-for-byte to the extract stage.
func validateBBox(raw string) error {
	bad := func(reason string) error {
		return &faults.OptionError{Option: "bbox", Value: raw, Reason: reason}
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return bad("expected four comma-separated numbers: minx,miny,maxx,maxy")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bad(fmt.Sprintf("%q is not a number", p))
		}
		vals[i] = v
	}
	minx, miny, maxx, maxy := vals[0], vals[1], vals[2], vals[3]
	if minx < -180 || maxx > 180 {
		return bad("longitudes must be within [-180, 180]")
	}
	if miny < -90 || maxy > 90 {
		return bad("latitudes must be within [-90, 90]")
	}
	if minx >= maxx {
		return bad("minx must be less than maxx")
	}
	if miny >= maxy {
		return bad("miny must be less than maxy")
	}
	return nil
}
