package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openbench/swe-eval-orchestrator/internal/config"
	"github.com/openbench/swe-eval-orchestrator/internal/domain"
	"github.com/openbench/swe-eval-orchestrator/internal/notify"
)

// RunStore defines the interface for persisting evaluation runs
type RunStore interface {
	SaveRun(run *domain.EvalRun) error
	UpdateRunStatus(id string, status domain.RunStatus, exitCode int) error
}

// Orchestrator drives repeated invocations of the external evaluator.
// Repetitions execute sequentially; each one blocks until the evaluator
// process exits.
type Orchestrator struct {
	cfg      *config.Config
	store    RunStore
	notifier notify.Notifier
	logDir   string

	// replaced in tests to avoid spawning the real evaluator
	execRun func(ctx context.Context, runIndex int, logPath string) (int, error)
}

// New creates an Orchestrator for the given configuration
func New(cfg *config.Config) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		notifier: notify.NoopNotifier{},
		logDir:   cfg.General.OutputDir,
	}
	o.execRun = o.execEvaluator
	return o
}

// SetStore sets the persistence store for run records
func (o *Orchestrator) SetStore(store RunStore) {
	o.store = store
}

// SetNotifier sets the notifier for run completion and failure
func (o *Orchestrator) SetNotifier(n notify.Notifier) {
	if n != nil {
		o.notifier = n
	}
}

// Run executes the evaluator once per non-skipped repetition, in index
// order. The evaluation environment is acquired up front and restored
// unconditionally when Run returns. The first evaluator failure aborts the
// remaining repetitions and becomes Run's error.
func (o *Orchestrator) Run(ctx context.Context) error {
	skips, err := domain.ParseSkipSet(o.cfg.Eval.SkipRuns)
	if err != nil {
		return err
	}

	restore := acquireEnv(evalEnv(o.cfg))
	defer restore()

	for i := 1; i <= o.cfg.Eval.NRuns; i++ {
		if skips.Contains(i) {
			fmt.Printf("Skipping run %d (in skip set)\n", i)
			continue
		}
		if err := o.runOnce(ctx, i); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
	}
	return nil
}

func (o *Orchestrator) runOnce(ctx context.Context, runIndex int) error {
	eval := o.cfg.Eval

	run := &domain.EvalRun{
		ID:       uuid.NewString(),
		ExpName:  eval.ExpName,
		RunIndex: runIndex,
		Dataset:  eval.Dataset,
		Split:    eval.Split,
		Agent:    eval.Agent,
		EvalNote: NoteForRun(eval.EvalNote, runIndex),
		Status:   domain.RunRunning,
		LogPath:  filepath.Join(o.logDir, fmt.Sprintf("%s-run_%d.log", eval.ExpName, runIndex)),
	}
	now := time.Now()
	run.StartedAt = &now

	if o.store != nil {
		if err := o.store.SaveRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to persist run %s: %v\n", run.ID, err)
		}
	}

	fmt.Printf("Starting evaluation run %d/%d (%s)\n", runIndex, eval.NRuns, run.EvalNote)

	exitCode, err := o.execRun(ctx, runIndex, run.LogPath)
	if err != nil {
		o.finishRun(run, domain.RunFailed, exitCode)
		o.notifier.Send(notify.Notification{
			Title:   "Evaluation run failed",
			Message: fmt.Sprintf("%s run %d exited with code %d", eval.ExpName, runIndex, exitCode),
			Type:    notify.NotifyError,
			RunRef:  run.EvalNote,
		})
		return err
	}

	o.finishRun(run, domain.RunCompleted, exitCode)
	o.notifier.Send(notify.Notification{
		Title:   "Evaluation run completed",
		Message: fmt.Sprintf("%s run %d/%d finished in %s", eval.ExpName, runIndex, eval.NRuns, run.Duration().Round(time.Second)),
		Type:    notify.NotifySuccess,
		RunRef:  run.EvalNote,
	})
	return nil
}

func (o *Orchestrator) finishRun(run *domain.EvalRun, status domain.RunStatus, exitCode int) {
	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = status
	run.ExitCode = exitCode

	if o.store != nil {
		if err := o.store.UpdateRunStatus(run.ID, status, exitCode); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to update run %s: %v\n", run.ID, err)
		}
	}
}

// execEvaluator spawns the external evaluator and streams its output to the
// run log file. It returns the process exit code alongside any error.
func (o *Orchestrator) execEvaluator(ctx context.Context, runIndex int, logPath string) (int, error) {
	args := BuildArgs(o.cfg, runIndex)

	cmd := exec.CommandContext(ctx, o.cfg.General.Evaluator, args...)
	cmd.Env = os.Environ()

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return -1, fmt.Errorf("creating log dir: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return -1, fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("starting %s: %w", o.cfg.General.Evaluator, err)
	}

	var mu sync.Mutex
	var g errgroup.Group
	stream := func(r io.Reader) func() error {
		return func() error {
			scanner := bufio.NewScanner(r)
			// Large buffer for long evaluator log lines
			buf := make([]byte, 0, 64*1024)
			scanner.Buffer(buf, 1024*1024)
			for scanner.Scan() {
				line := scanner.Text()
				mu.Lock()
				fmt.Fprintln(logFile, line)
				fmt.Println(line)
				mu.Unlock()
			}
			return scanner.Err()
		}
	}
	g.Go(stream(stdout))
	g.Go(stream(stderr))

	streamErr := g.Wait()
	waitErr := cmd.Wait()

	exitCode := 0
	if waitErr != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return exitCode, waitErr
	}
	if streamErr != nil {
		return 0, streamErr
	}
	return 0, nil
}

// ExitCode extracts the evaluator's exit status from an Orchestrator error,
// so main can propagate it as the process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
