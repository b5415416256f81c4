package runner

import (
	"os"
	"strconv"

	"github.com/openbench/swe-eval-orchestrator/internal/config"
)

// evalEnv is the environment the evaluator expects to inherit for one
// orchestrated evaluation
func evalEnv(cfg *config.Config) map[string]string {
	eval := cfg.Eval

	vars := map[string]string{
		"AGENT":                    eval.Agent,
		"MAX_ITER":                 strconv.Itoa(eval.MaxIterations),
		"NUM_WORKERS":              strconv.Itoa(eval.NumWorkers),
		"DATASET":                  eval.Dataset,
		"SPLIT":                    eval.Split,
		"EXP_NAME":                 eval.ExpName,
		"EVAL_DOCKER_IMAGE_PREFIX": eval.DockerImagePrefix,
		"USE_INSTANCE_IMAGE":       strconv.FormatBool(eval.UseInstanceImage),
		"USE_HINT_TEXT":            strconv.FormatBool(eval.UseHintText),
		"RUN_WITH_BROWSING":        strconv.FormatBool(eval.RunWithBrowsing),
		"SWE_BENCH_MCP_FILTER":     strconv.FormatBool(eval.MCPFilter),
		"SWE_BENCH_EVAL_MODE":      strconv.FormatBool(eval.EvalMode),
	}
	if eval.Language != "" {
		vars["LANGUAGE"] = eval.Language
	}
	if eval.CommitHash != "" {
		vars["COMMIT_HASH"] = eval.CommitHash
	}
	return vars
}

// acquireEnv applies vars to the process environment and returns a restore
// function that puts every variable back to its prior state. The restore
// must run unconditionally, including on failure paths, so the process is
// never left in an evaluation-only state.
func acquireEnv(vars map[string]string) func() {
	prev := make(map[string]*string, len(vars))
	for key, value := range vars {
		if old, ok := os.LookupEnv(key); ok {
			saved := old
			prev[key] = &saved
		} else {
			prev[key] = nil
		}
		os.Setenv(key, value)
	}

	return func() {
		for key, old := range prev {
			if old == nil {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, *old)
			}
		}
	}
}
