// Package check provides external-tool resolution (fail-fast PATH lookup
// with a per-invocation cache) and the interactive --check diagnostics.
package check

import (
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/geomantic/tilepress/internal/faults"
)

// Programs the pipeline invokes.
const (
	ProgramGpio       = "gpio"
	ProgramTippecanoe = "tippecanoe"
)

// Tippecanoe grew native PMTiles output in 2.17; older versions only write
// mbtiles and the final stage would fail with a confusing error.
const minTippecanoeMinor = 17

// Resolver caches PATH lookups for external programs. The cache is
// read-only after first use for a given program; Reset gives explicit
// invalidation. Safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	paths map[string]string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{paths: make(map[string]string)}
}

// Resolve returns the absolute path of program, caching the lookup.
// Failure is a *faults.ToolError with install guidance.
func (r *Resolver) Resolve(program string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.paths[program]; ok {
		return p, nil
	}
	p, err := exec.LookPath(program)
	if err != nil {
		return "", &faults.ToolError{Program: program}
	}
	r.paths[program] = p
	return p, nil
}

// ResolveAll resolves every program, failing on the first one missing.
// Called before any stage is spawned.
func (r *Resolver) ResolveAll(programs ...string) error {
	for _, p := range programs {
		if _, err := r.Resolve(p); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops all cached lookups.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = make(map[string]string)
}

// Logger is the minimal logging interface needed by RunCheck. Defined here
// (rather than importing the logging package) so that check remains
// dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the interactive --check flow: locates gpio and tippecanoe
// and prints their versions. Returns false when a required tool is missing.
func RunCheck(log Logger) bool {
	log.Info("=== Tool Check ===")

	ok := checkTool(log, ProgramGpio, "--version")
	if checkTool(log, ProgramTippecanoe, "-v") {
		warnOldTippecanoe(log)
	} else {
		ok = false
	}
	return ok
}

// checkTool verifies program is on PATH and logs its version line.
func checkTool(log Logger, program, versionFlag string) bool {
	path, err := exec.LookPath(program)
	if err != nil {
		te := &faults.ToolError{Program: program}
		log.Error("%s not found (%s)", program, te.Hint())
		return false
	}
	if v := versionLine(program, versionFlag); v != "" {
		log.Success("%s: %s (%s)", program, v, path)
	} else {
		log.Warn("%s found at %s but version query failed", program, path)
	}
	return true
}

// versionLine returns the first line a tool prints for its version flag.
// Some tools (tippecanoe among them) print the version on stderr.
func versionLine(program, versionFlag string) string {
	out, err := exec.Command(program, versionFlag).CombinedOutput()
	if err != nil && len(out) == 0 {
		return ""
	}
	line := strings.TrimSpace(string(out))
	if i := strings.Index(line, "\n"); i > 0 {
		line = line[:i]
	}
	return line
}

// warnOldTippecanoe parses the tippecanoe version and warns when it predates
// native PMTiles output.
func warnOldTippecanoe(log Logger) {
	major, minor, ok := parseTippecanoeVersion(versionLine(ProgramTippecanoe, "-v"))
	if !ok {
		return
	}
	if major < 2 || (major == 2 && minor < minTippecanoeMinor) {
		log.Warn("tippecanoe %d.%d predates native PMTiles output; upgrade to 2.%d or newer",
			major, minor, minTippecanoeMinor)
	}
}

// parseTippecanoeVersion extracts major.minor from output like
// "tippecanoe v2.17.0" or "v2.9.1".
func parseTippecanoeVersion(line string) (major, minor int, ok bool) {
	i := strings.IndexAny(line, "0123456789")
	if i < 0 {
		return 0, 0, false
	}
	parts := strings.Split(line[i:], ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}
