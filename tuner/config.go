// Package tuner - Search configuration.
package tuner

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config collects the knobs of one search.
type Config struct {
	// Directory is where search results are stored.
	Directory string `json:"directory" yaml:"directory"`
	// ProjectName is the subdirectory of Directory for this search.
	ProjectName string `json:"project_name" yaml:"project_name"`
	// MaxTrials is the total number of trials to run.
	MaxTrials int `json:"max_trials" yaml:"max_trials"`
	// ExecutionsPerTrial repeats each trial to average out run-to-run
	// variance; the trial's score is the mean over its executions.
	ExecutionsPerTrial int `json:"executions_per_trial" yaml:"executions_per_trial"`
	// Objective picks the metric to optimize. Zero value: minimize the
	// bare score the trial returns.
	Objective Objective `json:"objective" yaml:"objective"`
	// Overwrite discards previous results in the project directory
	// instead of resuming them.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
	// Seed makes the search reproducible. Zero seeds from the clock.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// Quiet disables the trial progress bar.
	Quiet bool `json:"quiet,omitempty" yaml:"quiet,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Directory == "" {
		c.Directory = "tuning"
	}
	if c.ProjectName == "" {
		c.ProjectName = "search"
	}
	if c.MaxTrials <= 0 {
		c.MaxTrials = 10
	}
	if c.ExecutionsPerTrial <= 0 {
		c.ExecutionsPerTrial = 1
	}
	if c.Objective.Name == "" {
		c.Objective = DefaultObjective()
	}
	return c
}

// LoadConfig reads a search Config from a JSON or YAML file, chosen by
// extension. Fields the file leaves out keep their zero values and pick
// up the usual defaults when the tuner is built.
func LoadConfig(path string) (Config, error) {
	var config Config

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
	return config, nil
}
