// Package tuner - Search persistence.
package tuner

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	stateFile   = "oracle.json"
	trialFile   = "trial.json"
	trialPrefix = "trial_"
)

// searchState is the oracle snapshot persisted as oracle.json in the
// project directory. Together with the per-trial files it is enough to
// resume a search.
type searchState struct {
	RunID     string      `json:"run_id"`
	Objective Objective   `json:"objective"`
	MaxTrials int         `json:"max_trials"`
	Space     []ParamSpec `json:"space"`
	TrialIDs  []string    `json:"trial_ids"`
}

// Storage lays a search out on disk as directory/project/oracle.json plus
// one trial_NN/trial.json per trial.
type Storage struct {
	root string
}

// NewStorage addresses the project subdirectory under directory.
func NewStorage(directory, project string) *Storage {
	return &Storage{root: filepath.Join(directory, project)}
}

// Root returns the project directory path.
func (s *Storage) Root() string {
	return s.root
}

// Exists reports whether a persisted search is present.
func (s *Storage) Exists() bool {
	_, err := os.Stat(filepath.Join(s.root, stateFile))
	return err == nil
}

// Wipe removes the whole project directory, the overwrite behavior.
func (s *Storage) Wipe() error {
	if err := os.RemoveAll(s.root); err != nil {
		return errors.Wrapf(err, "wiping project %s", s.root)
	}
	return nil
}

// SaveState writes the oracle snapshot.
func (s *Storage) SaveState(state searchState) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrapf(err, "creating project %s", s.root)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding search state")
	}
	path := filepath.Join(s.root, stateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// LoadState reads the oracle snapshot back.
func (s *Storage) LoadState() (searchState, error) {
	path := filepath.Join(s.root, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return searchState{}, errors.Wrapf(err, "reading %s", path)
	}
	var state searchState
	if err := json.Unmarshal(data, &state); err != nil {
		return searchState{}, errors.Wrapf(err, "parsing %s", path)
	}
	return state, nil
}

// SaveTrial writes one trial under its own subdirectory.
func (s *Storage) SaveTrial(trial *Trial) error {
	dir := filepath.Join(s.root, trialPrefix+trial.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating trial directory %s", dir)
	}
	data, err := json.MarshalIndent(trial, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding trial %s", trial.ID)
	}
	path := filepath.Join(dir, trialFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// LoadTrial reads one trial back by ID.
func (s *Storage) LoadTrial(id string) (*Trial, error) {
	path := filepath.Join(s.root, trialPrefix+id, trialFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var trial Trial
	if err := json.Unmarshal(data, &trial); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &trial, nil
}

// LoadTrials reads the listed trials in order, skipping ones whose files
// went missing.
func (s *Storage) LoadTrials(ids []string) ([]*Trial, error) {
	trials := make([]*Trial, 0, len(ids))
	for _, id := range ids {
		trial, err := s.LoadTrial(id)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		trials = append(trials, trial)
	}
	return trials, nil
}
