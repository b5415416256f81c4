package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/openbench/swe-eval-orchestrator/internal/config"
	"github.com/openbench/swe-eval-orchestrator/internal/domain"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Eval.ModelConfig = "llm.eval"
	cfg.Eval.ExpName = "exp"
	cfg.General.OutputDir = ""
	return cfg
}

func TestOrchestrator_SkipSet(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.NRuns = 3
	cfg.Eval.SkipRuns = "2"

	var executed []int
	o := New(cfg)
	o.execRun = func(ctx context.Context, runIndex int, logPath string) (int, error) {
		executed = append(executed, runIndex)
		return 0, nil
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(executed) != 2 || executed[0] != 1 || executed[1] != 3 {
		t.Errorf("executed = %v, want [1 3]", executed)
	}
}

func TestOrchestrator_AbortsOnFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.NRuns = 3

	failure := errors.New("evaluator crashed")
	var executed []int
	o := New(cfg)
	o.execRun = func(ctx context.Context, runIndex int, logPath string) (int, error) {
		executed = append(executed, runIndex)
		if runIndex == 2 {
			return 1, failure
		}
		return 0, nil
	}

	err := o.Run(context.Background())
	if err == nil {
		t.Fatal("failure should propagate")
	}
	if !errors.Is(err, failure) {
		t.Errorf("error should wrap the evaluator failure, got %v", err)
	}
	if len(executed) != 2 {
		t.Errorf("executed = %v, remaining repeats should be aborted", executed)
	}
}

func TestOrchestrator_InvalidSkipSet(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.SkipRuns = "2,x"

	o := New(cfg)
	o.execRun = func(ctx context.Context, runIndex int, logPath string) (int, error) {
		t.Error("no run should execute with a malformed skip set")
		return 0, nil
	}

	if err := o.Run(context.Background()); err == nil {
		t.Error("malformed skip set should error")
	}
}

func TestOrchestrator_RestoresEnv(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.MCPFilter = true

	t.Setenv("SWE_BENCH_MCP_FILTER", "false")
	t.Setenv("EXP_NAME", "previous")
	os.Unsetenv("SWE_BENCH_EVAL_MODE")

	var seenFilter, seenExp string
	o := New(cfg)
	o.execRun = func(ctx context.Context, runIndex int, logPath string) (int, error) {
		seenFilter = os.Getenv("SWE_BENCH_MCP_FILTER")
		seenExp = os.Getenv("EXP_NAME")
		return 1, errors.New("boom")
	}

	o.Run(context.Background())

	if seenFilter != "true" {
		t.Errorf("SWE_BENCH_MCP_FILTER during run = %q, want true", seenFilter)
	}
	if seenExp != "exp" {
		t.Errorf("EXP_NAME during run = %q, want exp", seenExp)
	}
	// Restored even though the run failed
	if got := os.Getenv("SWE_BENCH_MCP_FILTER"); got != "false" {
		t.Errorf("SWE_BENCH_MCP_FILTER after run = %q, want false", got)
	}
	if got := os.Getenv("EXP_NAME"); got != "previous" {
		t.Errorf("EXP_NAME after run = %q, want previous", got)
	}
	if _, ok := os.LookupEnv("SWE_BENCH_EVAL_MODE"); ok {
		t.Error("SWE_BENCH_EVAL_MODE should be unset again after the run")
	}
}

type recordingStore struct {
	saved    []*domain.EvalRun
	statuses []domain.RunStatus
}

func (s *recordingStore) SaveRun(run *domain.EvalRun) error {
	s.saved = append(s.saved, run)
	return nil
}

func (s *recordingStore) UpdateRunStatus(id string, status domain.RunStatus, exitCode int) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func TestOrchestrator_PersistsRuns(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.NRuns = 2

	store := &recordingStore{}
	o := New(cfg)
	o.SetStore(store)
	o.execRun = func(ctx context.Context, runIndex int, logPath string) (int, error) {
		return 0, nil
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(store.saved) != 2 {
		t.Fatalf("saved %d runs, want 2", len(store.saved))
	}
	if store.saved[0].EvalNote != "v1-run_1" || store.saved[1].EvalNote != "v1-run_2" {
		t.Errorf("notes = %q, %q", store.saved[0].EvalNote, store.saved[1].EvalNote)
	}
	for _, status := range store.statuses {
		if status != domain.RunCompleted {
			t.Errorf("status = %s, want completed", status)
		}
	}
}

func TestBuildArgs(t *testing.T) {
	cfg := testConfig()
	cfg.Eval.EvalLimit = 50
	cfg.Eval.Language = "python"
	cfg.General.OutputDir = "/out"

	args := BuildArgs(cfg, 2)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--agent-cls CodeActAgent",
		"--llm-config llm.eval",
		"--max-iterations 100",
		"--eval-num-workers 1",
		"--dataset princeton-nlp/SWE-bench_Lite",
		"--split test",
		"--language python",
		"--eval-n-limit 50",
		"--eval-output-dir /out",
		"--eval-note v1-run_2",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestBuildArgs_Defaults(t *testing.T) {
	cfg := testConfig()
	args := BuildArgs(cfg, 1)
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "--eval-n-limit") {
		t.Error("zero limit should omit --eval-n-limit")
	}
	if strings.Contains(joined, "--language") {
		t.Error("empty language should omit --language")
	}
	if !strings.Contains(joined, "--eval-note v1-run_1") {
		t.Errorf("args missing note suffix: %s", joined)
	}
}

func TestNoteForRun(t *testing.T) {
	if got := NoteForRun("v1", 3); got != "v1-run_3" {
		t.Errorf("NoteForRun = %q, want v1-run_3", got)
	}
}

func TestAcquireEnv(t *testing.T) {
	t.Setenv("ACQUIRE_TEST_SET", "before")
	os.Unsetenv("ACQUIRE_TEST_UNSET")

	restore := acquireEnv(map[string]string{
		"ACQUIRE_TEST_SET":   "during",
		"ACQUIRE_TEST_UNSET": "during",
	})

	if os.Getenv("ACQUIRE_TEST_SET") != "during" {
		t.Error("value should be applied")
	}
	if os.Getenv("ACQUIRE_TEST_UNSET") != "during" {
		t.Error("unset variable should be applied")
	}

	restore()

	if os.Getenv("ACQUIRE_TEST_SET") != "before" {
		t.Error("previously set variable should be restored")
	}
	if _, ok := os.LookupEnv("ACQUIRE_TEST_UNSET"); ok {
		t.Error("previously unset variable should be unset again")
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
	if got := ExitCode(fmt.Errorf("wrapped: %w", errors.New("plain"))); got != 1 {
		t.Errorf("ExitCode(plain) = %d, want 1", got)
	}
}
