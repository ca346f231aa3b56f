package pipeline

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomantic/tilepress/internal/check"
	"github.com/geomantic/tilepress/internal/faults"
)

func echoStage(text string) Stage {
	return Stage{Program: "echo", Args: []string{"echo", text}}
}

func catStage(args ...string) Stage {
	return Stage{Program: "cat", Args: append([]string{"cat"}, args...)}
}

func teeStage(path string) Stage {
	return Stage{Program: "tee", Args: []string{"tee", path}}
}

func TestExecutor_SuccessChain(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	e := NewExecutor(check.NewResolver(), false)

	res, err := e.Run(context.Background(), []Stage{
		echoStage("hello tiles"),
		catStage(),
		teeStage(out),
	}, out)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []int{0, 0, 0}, res.ExitCodes())
	for _, s := range res.Stages {
		assert.Equal(t, StageSucceeded, s.State)
	}

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello tiles\n", string(b), "data must stream through the full chain")
}

func TestExecutor_IntermediateFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	// Pre-existing output simulates an earlier successful run being
	// overwritten; a failed rerun must not leave it behind.
	require.NoError(t, os.WriteFile(out, []byte("stale archive"), 0o644))

	e := NewExecutor(check.NewResolver(), false)
	res, err := e.Run(context.Background(), []Stage{
		echoStage("data"),
		catStage(filepath.Join(dir, "no-such-file")),
		teeStage(out),
	}, out)

	var se *faults.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Index, "the failing cat stage is second in the chain")
	assert.NotZero(t, se.ExitCode)
	assert.False(t, se.Signaled)
	assert.Contains(t, se.Stderr, "no-such-file", "stderr must be captured verbatim")

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, StageFailed, res.Stages[1].State)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial output must be removed on failure")
}

func TestExecutor_ToolNotFound(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")

	spawned := 0
	e := NewExecutor(check.NewResolver(), false)
	e.start = func(cmd *exec.Cmd) error {
		spawned++
		return cmd.Start()
	}

	_, err := e.Run(context.Background(), []Stage{
		echoStage("data"),
		{Program: "definitely-not-a-real-tool-zzz", Args: []string{"definitely-not-a-real-tool-zzz"}},
	}, out)

	var te *faults.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "definitely-not-a-real-tool-zzz", te.Program)
	assert.Zero(t, spawned, "resolution failure must precede any spawn")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file may be created")
}

func TestExecutor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	e := NewExecutor(check.NewResolver(), false)
	started := time.Now()
	_, err := e.Run(ctx, []Stage{
		{Program: "sleep", Args: []string{"sleep", "30"}},
	}, "")

	require.Error(t, err)
	assert.Less(t, time.Since(started), 10*time.Second,
		"teardown must finish within the grace period, not wait for the stage")
}

func TestExecutor_EmptyPlan(t *testing.T) {
	e := NewExecutor(check.NewResolver(), false)
	_, err := e.Run(context.Background(), nil, "")
	require.Error(t, err)
}

func TestResult_CulpritPrefersGenuineExit(t *testing.T) {
	res := &Result{Stages: []StageResult{
		{Index: 0, Program: "gpio", State: StageFailed, ExitCode: -1, Signaled: true},
		{Index: 1, Program: "gpio", State: StageFailed, ExitCode: 3},
		{Index: 2, Program: "tippecanoe", State: StageSucceeded},
	}}
	c := res.culprit()
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Index, "signal deaths are collateral when a genuine exit exists")
}

func TestResult_CulpritFallsBackToSignaled(t *testing.T) {
	res := &Result{Stages: []StageResult{
		{Index: 0, State: StageSucceeded},
		{Index: 1, State: StageFailed, ExitCode: -1, Signaled: true},
	}}
	c := res.culprit()
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Index)
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{limit: 8}
	_, _ = tb.Write([]byte("0123456789abcdef"))
	assert.Equal(t, "89abcdef", tb.String())

	tb2 := &tailBuffer{limit: 64}
	_, _ = tb2.Write([]byte("short"))
	assert.Equal(t, "short", tb2.String())
}
