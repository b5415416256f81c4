//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDBPath creates a temporary database path for testing
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "runs.db")
}

// WriteTestConfig writes a config file pointing at a fake evaluator and a
// temporary database, and returns its path
func WriteTestConfig(t *testing.T, evaluator, outputDir, dbPath string) string {
	t.Helper()

	config := `[general]
evaluator = "` + evaluator + `"
evaluator_args = []
output_dir = "` + outputDir + `"
database_path = "` + dbPath + `"

[eval]
model_config = "llm.test"
exp_name = "integration"
eval_note = "it"

[notifications]
desktop = false
`

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// WriteManifest writes an instance manifest and returns its path
func WriteManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}
