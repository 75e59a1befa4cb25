// Package tuner - Tuning objectives.
package tuner

// Direction says whether an objective improves by growing or shrinking.
type Direction string

const (
	DirectionMin Direction = "min"
	DirectionMax Direction = "max"
)

// DefaultObjectiveName is the metric name a bare float result is recorded
// under when the trial code does not report named metrics.
const DefaultObjectiveName = "score"

// Objective names the metric a search optimizes and the direction to move
// it in.
type Objective struct {
	Name      string    `json:"name" yaml:"name"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultObjective minimizes the bare value returned by the trial, the
// behavior when no objective is configured.
func DefaultObjective() Objective {
	return Objective{Name: DefaultObjectiveName, Direction: DirectionMin}
}

// Minimize returns an objective that drives the named metric down.
func Minimize(name string) Objective {
	return Objective{Name: name, Direction: DirectionMin}
}

// Maximize returns an objective that drives the named metric up.
func Maximize(name string) Objective {
	return Objective{Name: name, Direction: DirectionMax}
}

// Better reports whether score a beats score b under this objective.
func (o Objective) Better(a, b float64) bool {
	if o.Direction == DirectionMax {
		return a > b
	}
	return a < b
}
