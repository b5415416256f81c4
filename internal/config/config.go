package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Eval          EvalConfig          `toml:"eval"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// GeneralConfig holds settings for the orchestrator itself
type GeneralConfig struct {
	Evaluator     string   `toml:"evaluator"`
	EvaluatorArgs []string `toml:"evaluator_args"`
	OutputDir     string   `toml:"output_dir"`
	DatabasePath  string   `toml:"database_path"`
}

// EvalConfig is the flat run configuration handed to the external evaluator.
// Every field has a default; unset fields never fail.
type EvalConfig struct {
	Agent             string `toml:"agent"`
	ModelConfig       string `toml:"model_config"`
	CommitHash        string `toml:"commit_hash"`
	MaxIterations     int    `toml:"max_iterations"`
	NumWorkers        int    `toml:"num_workers"`
	Dataset           string `toml:"dataset"`
	Split             string `toml:"split"`
	Language          string `toml:"language"`
	EvalNote          string `toml:"eval_note"`
	EvalLimit         int    `toml:"eval_limit"`
	ExpName           string `toml:"exp_name"`
	NRuns             int    `toml:"n_runs"`
	SkipRuns          string `toml:"skip_runs"`
	DockerImagePrefix string `toml:"docker_image_prefix"`
	UseInstanceImage  bool   `toml:"use_instance_image"`
	UseHintText       bool   `toml:"use_hint_text"`
	RunWithBrowsing   bool   `toml:"run_with_browsing"`
	MCPFilter         bool   `toml:"mcp_filter"`
	EvalMode          bool   `toml:"eval_mode"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			Evaluator:     "python",
			EvaluatorArgs: []string{"evaluation/benchmarks/swe_bench/run_infer.py"},
			OutputDir:     "evaluation/evaluation_outputs",
			DatabasePath:  filepath.Join(home, ".swe-eval", "runs.db"),
		},
		Eval: EvalConfig{
			Agent:             "CodeActAgent",
			MaxIterations:     100,
			NumWorkers:        1,
			Dataset:           "princeton-nlp/SWE-bench_Lite",
			Split:             "test",
			EvalNote:          "v1",
			ExpName:           "default",
			NRuns:             1,
			DockerImagePrefix: "docker.io/xingyaoww/",
			UseInstanceImage:  true,
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults,
// then applies environment variable overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.ApplyEnv()
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.OutputDir = ExpandPath(cfg.General.OutputDir)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)

	return cfg, cfg.ApplyEnv()
}

// ApplyEnv overrides configuration from the recognized environment variables
func (c *Config) ApplyEnv() error {
	setString(&c.Eval.Agent, "AGENT")
	setString(&c.Eval.Dataset, "DATASET")
	setString(&c.Eval.Language, "LANGUAGE")
	setString(&c.Eval.Split, "SPLIT")
	setString(&c.Eval.ExpName, "EXP_NAME")
	setString(&c.Eval.SkipRuns, "SKIP_RUNS")
	setString(&c.Eval.DockerImagePrefix, "EVAL_DOCKER_IMAGE_PREFIX")

	if err := setInt(&c.Eval.NumWorkers, "NUM_WORKERS"); err != nil {
		return err
	}
	if err := setInt(&c.Eval.MaxIterations, "MAX_ITER"); err != nil {
		return err
	}
	if err := setInt(&c.Eval.NRuns, "N_RUNS"); err != nil {
		return err
	}

	setBool(&c.Eval.UseInstanceImage, "USE_INSTANCE_IMAGE")
	setBool(&c.Eval.UseHintText, "USE_HINT_TEXT")
	setBool(&c.Eval.RunWithBrowsing, "RUN_WITH_BROWSING")
	setBool(&c.Eval.MCPFilter, "SWE_BENCH_MCP_FILTER")
	setBool(&c.Eval.EvalMode, "SWE_BENCH_EVAL_MODE")

	return nil
}

// Validate checks fields that have hard requirements before a run
func (c *Config) Validate() error {
	if c.Eval.ModelConfig == "" {
		return fmt.Errorf("model config is required")
	}
	if c.Eval.NRuns < 1 {
		return fmt.Errorf("n_runs must be at least 1, got %d", c.Eval.NRuns)
	}
	if c.Eval.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", c.Eval.NumWorkers)
	}
	if c.Eval.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.Eval.MaxIterations)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = n
	return nil
}

// setBool treats any casing of "true" as true and everything else as false
func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.EqualFold(v, "true")
	}
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "swe-eval", "config.toml")
}
