// Package detect - Detection pipeline configuration.
package detect

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config defines parameters for detection filtering and Non-Maximum
// Suppression.
type Config struct {
	// Detections scoring below this are dropped before suppression.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	// Overlap threshold for suppression.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// If true, suppress only within same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
	// Number of goroutines for per-class suppression. Zero means serial.
	NumWorkers int `json:"num_workers,omitempty" yaml:"num_workers,omitempty"`
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold: 0.25,
		IoUThreshold:   0.45,
		ClassAware:     true,
	}
}

// Validate checks that both thresholds are usable probabilities.
func (c Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return errors.Errorf("score threshold %f outside [0, 1]", c.ScoreThreshold)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return errors.Errorf("iou threshold %f outside [0, 1]", c.IoUThreshold)
	}
	if c.NumWorkers < 0 {
		return errors.Errorf("num workers %d is negative", c.NumWorkers)
	}
	return nil
}

// LoadConfig reads a Config from a JSON or YAML file, chosen by extension.
//
// Arguments:
//   - path: The config file path, ending in .json, .yaml or .yml.
//
// Returns:
//   - Config: The parsed configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "reading config %s", path)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "parsing config %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "parsing config %s", path)
		}
	default:
		return config, errors.Errorf("unsupported config extension %q", filepath.Ext(path))
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// SaveConfig writes the config as indented JSON, the format LoadConfig and
// the command line tools exchange.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing config %s", path)
	}
	return nil
}
