package runner

import (
	"fmt"
	"strconv"

	"github.com/openbench/swe-eval-orchestrator/internal/config"
)

// NoteForRun returns the evaluation note for one repetition, tagged with the
// run index so repeated runs land in distinct output directories
func NoteForRun(note string, runIndex int) string {
	return fmt.Sprintf("%s-run_%d", note, runIndex)
}

// BuildArgs constructs the evaluator command line for one repetition
func BuildArgs(cfg *config.Config, runIndex int) []string {
	eval := cfg.Eval

	args := append([]string{}, cfg.General.EvaluatorArgs...)
	args = append(args,
		"--agent-cls", eval.Agent,
		"--llm-config", eval.ModelConfig,
		"--max-iterations", strconv.Itoa(eval.MaxIterations),
		"--eval-num-workers", strconv.Itoa(eval.NumWorkers),
		"--dataset", eval.Dataset,
		"--split", eval.Split,
	)
	if eval.Language != "" {
		args = append(args, "--language", eval.Language)
	}
	if eval.EvalLimit > 0 {
		args = append(args, "--eval-n-limit", strconv.Itoa(eval.EvalLimit))
	}
	if cfg.General.OutputDir != "" {
		args = append(args, "--eval-output-dir", cfg.General.OutputDir)
	}
	args = append(args, "--eval-note", NoteForRun(eval.EvalNote, runIndex))

	return args
}
