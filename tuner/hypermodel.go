// Package tuner - Tunable models.
package tuner

import "context"

// HyperModel splits a trial into building a candidate from hyperparameters
// and fitting it to produce metric values. Build may request parameters
// that shape the candidate, Fit may request parameters that shape the
// training itself, and either side can read the other's values through
// HyperParameters.Get.
type HyperModel interface {
	// Build constructs the candidate for one trial.
	Build(hp *HyperParameters) (any, error)
	// Fit evaluates the candidate and returns its metrics. Use
	// ScoreResult when there is only a single bare objective value.
	Fit(ctx context.Context, hp *HyperParameters, model any) (map[string]float64, error)
}

// RunTrialFunc runs one trial end to end, a black-box alternative to
// HyperModel for workflows that do not split into build and fit. The
// trial's ID is handy for per-trial output paths, its hyperparameters
// define the space.
type RunTrialFunc func(ctx context.Context, trial *Trial) (map[string]float64, error)

// ScoreResult wraps a bare objective value in the metrics map the tuner
// records. Paired with the default objective it reproduces the simplest
// workflow: return one float, have it minimized.
func ScoreResult(v float64) map[string]float64 {
	return map[string]float64{DefaultObjectiveName: v}
}
