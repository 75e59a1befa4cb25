package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigValidate covers the threshold range checks.
func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		config Config
	}{
		{"score threshold above one", Config{ScoreThreshold: 1.5, IoUThreshold: 0.45}},
		{"negative score threshold", Config{ScoreThreshold: -0.1, IoUThreshold: 0.45}},
		{"iou threshold above one", Config{ScoreThreshold: 0.25, IoUThreshold: 2}},
		{"negative workers", Config{ScoreThreshold: 0.25, IoUThreshold: 0.45, NumWorkers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.config.Validate())
		})
	}
}

// TestConfigJSONRoundTrip saves and reloads a config through the JSON path.
func TestConfigJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detect.json")

	original := Config{
		ScoreThreshold: 0.3,
		IoUThreshold:   0.6,
		ClassAware:     true,
		NumWorkers:     2,
	}
	require.NoError(t, original.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

// TestConfigYAML parses the YAML form used by run configs.
func TestConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detect.yaml")
	content := "score_threshold: 0.4\niou_threshold: 0.5\nclass_aware: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, loaded.ScoreThreshold, 0.0001)
	assert.InDelta(t, 0.5, loaded.IoUThreshold, 0.0001)
	assert.True(t, loaded.ClassAware)
}

// TestConfigLoadErrors covers unreadable and malformed inputs.
func TestConfigLoadErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	badExt := filepath.Join(t.TempDir(), "detect.toml")
	require.NoError(t, os.WriteFile(badExt, []byte("x = 1"), 0o644))
	_, err = LoadConfig(badExt)
	assert.Error(t, err)

	badRange := filepath.Join(t.TempDir(), "detect.json")
	require.NoError(t, os.WriteFile(badRange, []byte(`{"score_threshold": 4.0}`), 0o644))
	_, err = LoadConfig(badRange)
	assert.Error(t, err, "out of range values fail validation on load")
}
