// Package tuner - Random search.
package tuner

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// maxDuplicateRetries bounds how often the oracle redraws a value
// assignment it has already tried before declaring the space exhausted.
const maxDuplicateRetries = 20

// RandomSearch samples each trial's values uniformly and independently
// from the registered ranges. Simple, hard to beat as a baseline, and the
// only oracle the evaluator needs for its small threshold spaces.
type RandomSearch struct {
	objective Objective
	maxTrials int
	space     *Space
	rng       *rand.Rand
	trials    []*Trial
	tried     map[string]bool
}

// NewRandomSearch builds a random search oracle.
//
// Arguments:
//   - objective: The metric to optimize. A zero Objective falls back to
//     minimizing the trial's bare score.
//   - maxTrials: How many trials the search may spend.
//   - seed: Seed for the sampler. Zero seeds from the clock.
//
// Returns:
//   - *RandomSearch: The oracle.
func NewRandomSearch(objective Objective, maxTrials int, seed int64) *RandomSearch {
	if objective.Name == "" {
		objective = DefaultObjective()
	}
	if maxTrials <= 0 {
		maxTrials = 10
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSearch{
		objective: objective,
		maxTrials: maxTrials,
		space:     NewSpace(),
		rng:       rand.New(rand.NewSource(seed)),
		tried:     map[string]bool{},
	}
}

// Objective returns the metric the oracle ranks trials by.
func (r *RandomSearch) Objective() Objective {
	return r.objective
}

// Space returns the cumulative search space.
func (r *RandomSearch) Space() *Space {
	return r.space
}

// MaxTrials returns the trial budget.
func (r *RandomSearch) MaxTrials() int {
	return r.maxTrials
}

// CreateTrial samples the next trial.
//
// Values are drawn for every parameter registered so far; parameters the
// trial's code discovers on the fly are sampled lazily and join the space
// for the following trials. Assignments already tried are redrawn a
// bounded number of times before the oracle gives up.
func (r *RandomSearch) CreateTrial() (*Trial, error) {
	if len(r.trials) >= r.maxTrials {
		return nil, ErrSearchOver
	}

	values, ok := r.populate()
	if !ok {
		return nil, ErrSearchOver
	}

	trial := &Trial{
		ID:        fmt.Sprintf("%02d", len(r.trials)),
		Values:    values,
		Status:    TrialRunning,
		StartedAt: time.Now().UTC(),
	}
	// The trial's view shares the values map, so parameters requested
	// during the run land in trial.Values as well.
	trial.hp = newHyperParameters(r.space, r.rng, values)
	r.trials = append(r.trials, trial)
	return trial, nil
}

func (r *RandomSearch) populate() (map[string]any, bool) {
	specs := r.space.Specs()
	if len(specs) == 0 {
		// Nothing registered yet, the first trial discovers the space.
		return map[string]any{}, true
	}

	for attempt := 0; attempt < maxDuplicateRetries; attempt++ {
		values := make(map[string]any, len(specs))
		for _, spec := range specs {
			values[spec.Name] = spec.sample(r.rng)
		}
		if !r.tried[Fingerprint(values)] {
			return values, true
		}
	}
	return nil, false
}

// UpdateTrial appends one execution's metrics to the trial.
func (r *RandomSearch) UpdateTrial(trial *Trial, metrics map[string]float64) {
	trial.RecordMetrics(metrics)
}

// EndTrial settles the trial's score and status and remembers its value
// assignment for duplicate detection.
func (r *RandomSearch) EndTrial(trial *Trial, failure error) {
	switch {
	case failure != nil:
		trial.Status = TrialFailed
		trial.Message = failure.Error()
	default:
		if score, ok := trial.AverageMetric(r.objective.Name); ok {
			trial.Score = score
			trial.Status = TrialCompleted
		} else {
			trial.Status = TrialFailed
			trial.Message = fmt.Sprintf("objective %q was not reported", r.objective.Name)
		}
	}
	r.tried[Fingerprint(trial.Values)] = true
}

// Trials returns every trial in creation order.
func (r *RandomSearch) Trials() []*Trial {
	return append([]*Trial(nil), r.trials...)
}

// BestTrials returns up to n completed trials ranked by the objective.
func (r *RandomSearch) BestTrials(n int) []*Trial {
	completed := make([]*Trial, 0, len(r.trials))
	for _, trial := range r.trials {
		if trial.Status == TrialCompleted {
			completed = append(completed, trial)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return r.objective.Better(completed[i].Score, completed[j].Score)
	})
	if n < len(completed) {
		completed = completed[:n]
	}
	return completed
}

// Restore reloads persisted state so a search can resume where it
// stopped. Trial numbering and duplicate detection continue from the
// reloaded trials.
func (r *RandomSearch) Restore(specs []ParamSpec, trials []*Trial) {
	r.space.load(specs)
	r.trials = append([]*Trial(nil), trials...)
	for _, trial := range trials {
		if trial.Status != TrialRunning {
			r.tried[Fingerprint(trial.Values)] = true
		}
	}
}
