package domain

import "time"

// RunStatus represents the execution state of an evaluation run
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// EvalRun represents a single invocation of the external evaluator.
// Records are constructed once and read-only thereafter.
type EvalRun struct {
	ID         string
	ExpName    string
	RunIndex   int
	Dataset    string
	Split      string
	Agent      string
	EvalNote   string
	Status     RunStatus
	StartedAt  *time.Time
	FinishedAt *time.Time
	ExitCode   int
	LogPath    string
}

// Duration returns how long the run took, or how long it has been running
func (r *EvalRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(*r.StartedAt)
	}
	return time.Since(*r.StartedAt)
}
