// Package tuner - Trial records.
package tuner

import (
	"time"

	"github.com/JoDeMiro/go-detlab/profiler"
)

// TrialStatus tracks a trial through its lifecycle.
type TrialStatus string

const (
	TrialRunning   TrialStatus = "running"
	TrialCompleted TrialStatus = "completed"
	TrialFailed    TrialStatus = "failed"
)

// Trial is one sampled point of the search space together with everything
// measured while evaluating it. Trials are persisted as JSON under the
// project directory, one subdirectory per trial.
type Trial struct {
	// ID is the zero-padded sequential trial number, also used as the
	// trial's directory name suffix.
	ID string `json:"id"`
	// Values holds the hyperparameter assignment of this trial. Only
	// parameters the trial's code path requested appear here.
	Values map[string]any `json:"values"`
	// Metrics collects every reported metric, one entry per execution.
	Metrics map[string][]float64 `json:"metrics,omitempty"`
	// Score is the objective metric averaged over the executions.
	Score float64 `json:"score"`
	// Status is running until the trial ends, then completed or failed.
	Status TrialStatus `json:"status"`
	// Message carries the failure reason for failed trials.
	Message string `json:"message,omitempty"`
	// StartedAt is when the trial began, in UTC.
	StartedAt time.Time `json:"started_at"`
	// Duration covers all executions of the trial.
	Duration time.Duration `json:"duration_ns"`
	// Resources is a process snapshot taken as the trial ended.
	Resources profiler.Usage `json:"resources"`

	hp *HyperParameters
}

// HyperParameters returns the trial's live parameter view while it runs.
// Reloaded trials only carry Values.
func (t *Trial) HyperParameters() *HyperParameters {
	return t.hp
}

// RecordMetrics appends one execution's metric values to the trial.
func (t *Trial) RecordMetrics(metrics map[string]float64) {
	if t.Metrics == nil {
		t.Metrics = make(map[string][]float64, len(metrics))
	}
	for name, value := range metrics {
		t.Metrics[name] = append(t.Metrics[name], value)
	}
}

// AverageMetric returns the mean of a metric across the trial's executions.
func (t *Trial) AverageMetric(name string) (float64, bool) {
	samples := t.Metrics[name]
	if len(samples) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples)), true
}
