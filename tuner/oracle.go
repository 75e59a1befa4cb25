// Package tuner - Search oracles.
package tuner

import "github.com/pkg/errors"

// ErrSearchOver is returned by CreateTrial when an oracle has nothing left
// to try, either because the trial budget is spent or because it keeps
// drawing value assignments it has already tried.
var ErrSearchOver = errors.New("search over")

// Oracle decides which hyperparameter values each trial evaluates.
//
// The search loop drives it: CreateTrial hands out the next assignment,
// the trial code records metrics, EndTrial finalizes score and status.
// Oracles are not safe for concurrent use; the loop is sequential.
type Oracle interface {
	// Objective returns the metric the oracle ranks trials by.
	Objective() Objective
	// Space returns the cumulative search space across all trials.
	Space() *Space
	// CreateTrial starts the next trial, or returns ErrSearchOver.
	CreateTrial() (*Trial, error)
	// UpdateTrial records one execution's metrics on a running trial.
	UpdateTrial(trial *Trial, metrics map[string]float64)
	// EndTrial settles the trial's score and status. A non-nil failure
	// marks the trial failed with the error's message.
	EndTrial(trial *Trial, failure error)
	// Trials returns every trial seen so far in creation order.
	Trials() []*Trial
	// BestTrials returns up to n completed trials, best first.
	BestTrials(n int) []*Trial
	// Restore reloads a previously persisted search so it can continue.
	Restore(specs []ParamSpec, trials []*Trial)
}
