package pipeline

import (
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/geomantic/tilepress/internal/check"
	"github.com/geomantic/tilepress/internal/faults"
)

const (
	// defaultGrace is how long a stage gets between SIGTERM and SIGKILL
	// during teardown.
	defaultGrace = 2 * time.Second

	// stderrTailLimit bounds the captured diagnostic tail per stage.
	stderrTailLimit = 8 << 10
)

// tailBuffer keeps the last limit bytes written to it. Stage stderr can be
// arbitrarily large (tippecanoe progress lines), so only the tail survives
// into the StageResult.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }

// Executor spawns a stage chain, couples the stages with kernel pipes, and
// supervises them to completion. One Executor serves one invocation.
type Executor struct {
	resolver *check.Resolver
	verbose  bool
	grace    time.Duration

	// start is a test seam: tests replace it to spy on process creation.
	start func(*exec.Cmd) error
}

// NewExecutor returns an Executor using resolver for PATH lookups. In
// verbose mode stage stderr is teed to the orchestrator's stderr live.
func NewExecutor(resolver *check.Resolver, verbose bool) *Executor {
	return &Executor{resolver: resolver, verbose: verbose, grace: defaultGrace}
}

// Run executes the chain. It fails fast with *faults.ToolError before
// spawning anything if any stage's program is missing from PATH. On any
// stage failure the remaining stages are terminated, the partial output
// file is removed, and the error is a *faults.StageError naming the
// culprit stage.
func (e *Executor) Run(ctx context.Context, stages []Stage, outputPath string) (*Result, error) {
	if len(stages) == 0 {
		return nil, errors.New("empty plan")
	}

	// Resolve every program up front: zero side effects on failure.
	progs := make([]string, len(stages))
	for i, s := range stages {
		progs[i] = s.Program
	}
	if err := e.resolver.ResolveAll(progs...); err != nil {
		return nil, err
	}
	paths := make([]string, len(stages))
	for i, s := range stages {
		paths[i], _ = e.resolver.Resolve(s.Program) // cache hit after ResolveAll
	}

	res := &Result{
		RunID:  uuid.NewString(),
		Stages: make([]StageResult, len(stages)),
	}
	for i, s := range stages {
		res.Stages[i] = StageResult{Index: i, Program: s.Program, Args: s.Args, State: StagePending}
	}

	started := time.Now()
	err := e.runChain(ctx, stages, paths, res)
	res.Duration = time.Since(started)

	if err != nil {
		// A partially written archive must never look like a result.
		removePartial(outputPath)
		return res, err
	}
	res.Success = true
	return res, nil
}

// runChain spawns all stages together, wires the pipes, and waits for the
// chain under an errgroup. The first failure cancels the group context,
// which SIGTERMs the surviving stages and escalates to SIGKILL after the
// grace period.
func (e *Executor) runChain(ctx context.Context, stages []Stage, paths []string, res *Result) error {
	g, gctx := errgroup.WithContext(ctx)

	cmds := make([]*exec.Cmd, len(stages))
	tails := make([]*tailBuffer, len(stages))
	for i, s := range stages {
		cmd := exec.CommandContext(gctx, paths[i], s.Args[1:]...)
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		cmd.WaitDelay = e.grace
		if len(s.Env) > 0 {
			cmd.Env = append(os.Environ(), s.Env...)
		}

		tails[i] = &tailBuffer{limit: stderrTailLimit}
		if e.verbose {
			cmd.Stderr = io.MultiWriter(tails[i], os.Stderr)
		} else {
			cmd.Stderr = tails[i]
		}
		cmds[i] = cmd
	}

	// Couple stage n's stdout to stage n+1's stdin with a kernel pipe. The
	// bounded pipe buffer is what provides back-pressure: a slow consumer
	// throttles its producer without any buffering in this process.
	var parentFDs []*os.File
	closeParentFDs := func() {
		for _, f := range parentFDs {
			f.Close()
		}
	}
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeParentFDs()
			return errors.Wrap(err, "create pipe")
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		parentFDs = append(parentFDs, r, w)
	}

	for i := range cmds {
		if err := e.startCmd(cmds[i]); err != nil {
			for j := 0; j < i; j++ {
				_ = cmds[j].Process.Kill()
				_ = cmds[j].Wait()
			}
			closeParentFDs()
			return errors.Wrapf(err, "spawn stage %d (%s)", i+1, stages[i].Program)
		}
		res.Stages[i].State = StageSpawned
	}
	// The children now hold the pipe ends; drop our copies so EOF
	// propagates down the chain.
	closeParentFDs()

	for i := range cmds {
		i := i
		g.Go(func() error {
			sr := &res.Stages[i]
			sr.State = StageRunning
			waitErr := cmds[i].Wait()
			sr.Stderr = tails[i].String()
			if waitErr == nil {
				sr.State = StageSucceeded
				return nil
			}
			sr.State = StageFailed
			sr.ExitCode = -1
			if ps := cmds[i].ProcessState; ps != nil {
				sr.ExitCode = ps.ExitCode()
			}
			sr.Signaled = sr.ExitCode == -1
			return errors.Wrapf(waitErr, "stage %d (%s)", i+1, stages[i].Program)
		})
	}

	if err := g.Wait(); err != nil {
		if c := res.culprit(); c != nil {
			return &faults.StageError{
				Index:    c.Index,
				Program:  c.Program,
				ExitCode: c.ExitCode,
				Signaled: c.Signaled,
				Stderr:   c.Stderr,
			}
		}
		return err
	}
	return nil
}

func (e *Executor) startCmd(cmd *exec.Cmd) error {
	if e.start != nil {
		return e.start(cmd)
	}
	return cmd.Start()
}

// removePartial deletes a possibly half-written output file. Missing files
// are fine; the run may have failed before the tile stage opened it.
func removePartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
