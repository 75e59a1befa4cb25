// Package eval - Evaluation run reports.
package eval

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/profiler"
)

// Report is the artifact an evaluation run writes to disk.
type Report struct {
	// Unique run identifier.
	ID string `json:"id"`
	// The annotation set the run scored against.
	Dataset   string    `json:"dataset"`
	CreatedAt time.Time `json:"created_at"`
	// The detection config the run used.
	Config detect.Config `json:"config"`

	// Corpus sizes.
	Frames     int `json:"frames"`
	Objects    int `json:"objects"`
	Detections int `json:"detections"`

	// Primary holds the metrics at the run's main threshold; Sweep covers
	// the COCO threshold range when requested.
	Primary Metrics   `json:"primary"`
	Sweep   []Metrics `json:"sweep,omitempty"`

	Timing    TimingStats    `json:"timing"`
	Resources profiler.Usage `json:"resources"`
}

// NewReport starts a report for the given dataset and config, stamped with
// a fresh run ID.
func NewReport(dataset string, config detect.Config) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Dataset:   dataset,
		CreatedAt: time.Now().UTC(),
		Config:    config,
	}
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing report %s", path)
	}
	return nil
}

// LoadReport reads a report back from disk.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading report %s", path)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrapf(err, "parsing report %s", path)
	}
	return &report, nil
}
