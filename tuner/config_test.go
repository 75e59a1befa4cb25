package tuner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigYAML parses the YAML form the command line tools accept.
func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	content := "project_name: thresholds\n" +
		"max_trials: 40\n" +
		"executions_per_trial: 2\n" +
		"objective:\n  name: mean_iou\n  direction: max\n" +
		"seed: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "thresholds", loaded.ProjectName)
	assert.Equal(t, 40, loaded.MaxTrials)
	assert.Equal(t, 2, loaded.ExecutionsPerTrial)
	assert.Equal(t, Maximize("mean_iou"), loaded.Objective)
	assert.Equal(t, int64(7), loaded.Seed)
	assert.Empty(t, loaded.Directory, "omitted fields keep their zero values")
}

// TestLoadConfigJSON parses the JSON form.
func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.json")
	content := `{"directory": "runs", "max_trials": 15, "objective": {"name": "f1", "direction": "max"}, "overwrite": true}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "runs", loaded.Directory)
	assert.Equal(t, 15, loaded.MaxTrials)
	assert.Equal(t, Maximize("f1"), loaded.Objective)
	assert.True(t, loaded.Overwrite)
}

// TestLoadConfigErrors covers missing files and unknown extensions.
func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	badExt := filepath.Join(t.TempDir(), "search.toml")
	require.NoError(t, os.WriteFile(badExt, []byte("max_trials = 5"), 0o644))
	_, err = LoadConfig(badExt)
	assert.Error(t, err)
}

// TestConfigDefaults checks the fallbacks an empty config picks up.
func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "tuning", cfg.Directory)
	assert.Equal(t, "search", cfg.ProjectName)
	assert.Equal(t, 10, cfg.MaxTrials)
	assert.Equal(t, 1, cfg.ExecutionsPerTrial)
	assert.Equal(t, DefaultObjective(), cfg.Objective)

	full := Config{
		Directory:          "runs",
		ProjectName:        "demo",
		MaxTrials:          3,
		ExecutionsPerTrial: 2,
		Objective:          Maximize("f1"),
	}
	assert.Equal(t, full, full.withDefaults(), "set fields pass through untouched")
}
