// Command tilepress is the CLI entrypoint for the GeoParquet to PMTiles
// converter.
//
// It parses flags, validates configuration, and either runs tool
// diagnostics (--check) or the streaming conversion pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/geomantic/tilepress/internal/check"
	"github.com/geomantic/tilepress/internal/config"
	"github.com/geomantic/tilepress/internal/display"
	"github.com/geomantic/tilepress/internal/faults"
	"github.com/geomantic/tilepress/internal/logging"
	"github.com/geomantic/tilepress/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" these retain their defaults.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "tilepress: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tilepress: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner()
	log.Info("=== tilepress v%s (%s) ===", version, commit)

	if cfg.CheckOnly {
		if !check.RunCheck(log) {
			return 1
		}
		return 0
	}

	// All option validation happens before anything spawns.
	if err := cfg.Validate(); err != nil {
		reportError(log, err)
		return 1
	}

	// Phase 3: Signal handling. SIGINT/SIGTERM cancel the context so the
	// executor can tear the stage chain down without leaving a partial
	// archive behind.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping the pipeline…")
		cancel()
	}()

	// Phase 4: Run the conversion.
	if err := pipeline.Run(ctx, &cfg, log); err != nil {
		reportError(log, err)
		return 1
	}
	return 0
}

// reportError renders a failure with its remediation hint. Stage failures
// additionally replay the captured diagnostic tail.
func reportError(log *logging.Logger, err error) {
	log.Error("%v", err)

	var se *faults.StageError
	if errors.As(err, &se) && se.Stderr != "" {
		for _, line := range strings.Split(strings.TrimRight(se.Stderr, "\n"), "\n") {
			log.Error("  %s: %s", se.Program, line)
		}
	}

	var f faults.Fault
	if errors.As(err, &f) {
		if hint := f.Hint(); hint != "" {
			log.Info("hint: %s", hint)
		}
	}
}
