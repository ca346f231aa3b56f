package pipeline

import "time"

// StageState is the lifecycle state of one stage.
type StageState int

const (
	StagePending StageState = iota
	StageSpawned
	StageRunning
	StageSucceeded
	StageFailed
)

func (s StageState) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageSpawned:
		return "spawned"
	case StageRunning:
		return "running"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageResult records one stage's terminal outcome.
type StageResult struct {
	Index    int
	Program  string
	Args     []string
	State    StageState
	ExitCode int    // -1 when killed by a signal
	Signaled bool
	Stderr   string // captured diagnostic tail, verbatim
}

// Result is the outcome of one pipeline run. Produced by the Executor,
// owned by the caller, used only for reporting; it is never fed back into
// the pipeline.
type Result struct {
	RunID    string
	Success  bool
	Stages   []StageResult
	Duration time.Duration
}

// ExitCodes returns the per-stage exit codes in chain order.
func (r *Result) ExitCodes() []int {
	codes := make([]int, len(r.Stages))
	for i, s := range r.Stages {
		codes[i] = s.ExitCode
	}
	return codes
}

// culprit picks the stage to blame for a failed run: the lowest-index stage
// that exited non-zero on its own. Stages killed by a signal (collateral
// SIGPIPE or the teardown SIGTERM) are blamed only when no genuine non-zero
// exit exists. Returns nil when no stage failed.
func (r *Result) culprit() *StageResult {
	for i := range r.Stages {
		s := &r.Stages[i]
		if s.State == StageFailed && !s.Signaled {
			return s
		}
	}
	for i := range r.Stages {
		if r.Stages[i].State == StageFailed {
			return &r.Stages[i]
		}
	}
	return nil
}
