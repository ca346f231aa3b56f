package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/geomantic/tilepress/internal/check"
	"github.com/geomantic/tilepress/internal/config"
	"github.com/geomantic/tilepress/internal/display"
	"github.com/geomantic/tilepress/internal/logging"
	"github.com/geomantic/tilepress/internal/planner"
)

// Run is the top-level conversion entry point: validate, plan, build,
// execute, report. Everything it creates is scoped to this one call; only
// the resolver's PATH cache could be shared, and it is read-only.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	req, err := planner.NewRequest(cfg)
	if err != nil {
		return err
	}

	plan := planner.Build(req)
	stages, err := BuildStages(plan, req)
	if err != nil {
		return err
	}

	log.Info("In:  %s", req.Input)
	log.Info("Out: %s", req.Output)
	log.Info("Plan: %d stages (%s)", plan.Len(), kindList(plan))

	for i, s := range stages {
		log.Debug(cfg.Verbose, "stage %d argv: %q", i+1, s.Args)
	}

	if cfg.DryRun {
		log.Warn("DRY RUN — nothing will be spawned")
		for i, s := range stages {
			log.Info("  [%d] %s", i+1, strings.Join(quoteArgs(s.Args), " "))
		}
		return nil
	}

	exe := NewExecutor(check.NewResolver(), cfg.Verbose)
	res, err := exe.Run(ctx, stages, req.Output.String())
	if err != nil {
		if res != nil {
			log.Debug(cfg.Verbose, "run %s failed after %s, exit codes %v",
				res.RunID, display.FormatDuration(res.Duration), res.ExitCodes())
		}
		return err
	}

	var size int64
	if fi, statErr := os.Stat(req.Output.String()); statErr == nil {
		size = fi.Size()
	}
	log.Success("Wrote %s (%s) in %s", req.Output, display.FormatBytes(size),
		display.FormatDuration(res.Duration))
	log.Debug(cfg.Verbose, "run %s exit codes %v", res.RunID, res.ExitCodes())
	return nil
}

func kindList(plan *planner.Plan) string {
	names := make([]string, plan.Len())
	for i, k := range plan.Kinds() {
		names[i] = k.String()
	}
	return strings.Join(names, " | ")
}

// quoteArgs renders an argv for display only. Arguments with spaces are
// single-quoted so the printed line is copy-pasteable; execution never
// goes through a shell.
func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			out[i] = "'" + a + "'"
		} else {
			out[i] = a
		}
	}
	return out
}
