// Package faults defines the typed error taxonomy for the conversion
// pipeline. Every fault carries a remediation hint so the CLI can tell the
// user what to do next instead of dumping a raw exit code.
//
// Faults are constructed at the boundary where the failure is detected:
// pathcheck raises PathError, config raises OptionError/ConflictError, the
// resolver raises ToolError, and the executor raises StageError. Callers
// match them with errors.As.
package faults

import "fmt"

// Fault is the common surface of all typed pipeline errors.
type Fault interface {
	error
	Hint() string
}

// PathError reports an input or output path that failed validation.
// Rule names the specific check that rejected the path.
type PathError struct {
	Path   string
	Rule   string
	Remedy string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Rule)
}

// Hint returns the remediation guidance for the violated rule.
func (e *PathError) Hint() string { return e.Remedy }

// OptionError reports a single option whose value is malformed or out of
// range. Raised before any process is spawned.
type OptionError struct {
	Option string // flag name without leading dashes
	Value  string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid value %q for --%s: %s", e.Value, e.Option, e.Reason)
}

func (e *OptionError) Hint() string {
	return fmt.Sprintf("run with --help to see the accepted range for --%s", e.Option)
}

// ConflictError reports two options that are individually valid but
// mutually exclusive or contradictory as given.
type ConflictError struct {
	OptionA string
	OptionB string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("--%s conflicts with --%s: %s", e.OptionA, e.OptionB, e.Reason)
}

func (e *ConflictError) Hint() string {
	return fmt.Sprintf("adjust --%s or --%s so the pair is consistent, or drop one of them", e.OptionA, e.OptionB)
}

// installHints maps external programs to install guidance. Programs not
// listed fall back to a generic PATH hint.
var installHints = map[string]string{
	"gpio":       "install the GeoParquet toolbelt: pip install geoparquet-io",
	"tippecanoe": "install tippecanoe 2.17 or newer: brew install tippecanoe, or build from https://github.com/felt/tippecanoe",
}

// ToolError reports an external program that could not be resolved on PATH.
// Raised before any stage is spawned.
type ToolError struct {
	Program string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("required tool %q not found on PATH", e.Program)
}

func (e *ToolError) Hint() string {
	if h, ok := installHints[e.Program]; ok {
		return h
	}
	return fmt.Sprintf("install %s and make sure it is on PATH", e.Program)
}

// StageError reports a pipeline stage that reached a failed terminal state.
// Stderr holds the stage's captured diagnostic tail verbatim.
type StageError struct {
	Index    int    // zero-based position in the plan
	Program  string
	ExitCode int    // -1 when the stage was killed by a signal
	Signaled bool
	Stderr   string
}

func (e *StageError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("stage %d (%s) was terminated by a signal", e.Index+1, e.Program)
	}
	return fmt.Sprintf("stage %d (%s) exited with code %d", e.Index+1, e.Program, e.ExitCode)
}

func (e *StageError) Hint() string {
	return "re-run with --verbose to stream every stage's diagnostics live"
}
