// Package tuner - Hyperparameter search spaces.
package tuner

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// ParamKind identifies how a hyperparameter samples its values.
type ParamKind string

const (
	KindInt    ParamKind = "int"
	KindFloat  ParamKind = "float"
	KindBool   ParamKind = "bool"
	KindChoice ParamKind = "choice"
)

// Sampling selects the distribution a float hyperparameter draws from.
type Sampling string

const (
	SamplingLinear Sampling = "linear"
	SamplingLog    Sampling = "log"
)

// ParamSpec describes one hyperparameter of a search space.
type ParamSpec struct {
	Name     string    `json:"name"`
	Kind     ParamKind `json:"kind"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Step     float64   `json:"step,omitempty"`
	Sampling Sampling  `json:"sampling,omitempty"`
	Choices  []string  `json:"choices,omitempty"`
}

func (p ParamSpec) validate() error {
	if p.Name == "" {
		return fmt.Errorf("hyperparameter needs a name")
	}
	switch p.Kind {
	case KindInt, KindFloat:
		if p.Min > p.Max {
			return fmt.Errorf("hyperparameter %q: min %v above max %v", p.Name, p.Min, p.Max)
		}
		if p.Kind == KindInt && p.Step <= 0 {
			return fmt.Errorf("hyperparameter %q: step must be positive", p.Name)
		}
		if p.Sampling == SamplingLog && p.Min <= 0 {
			return fmt.Errorf("hyperparameter %q: log sampling needs min > 0", p.Name)
		}
	case KindChoice:
		if len(p.Choices) == 0 {
			return fmt.Errorf("hyperparameter %q: choice needs at least one option", p.Name)
		}
	case KindBool:
	default:
		return fmt.Errorf("hyperparameter %q: unknown kind %q", p.Name, p.Kind)
	}
	return nil
}

// sample draws one value from the spec's range.
func (p ParamSpec) sample(rng *rand.Rand) any {
	switch p.Kind {
	case KindInt:
		steps := int((p.Max-p.Min)/p.Step) + 1
		return int(p.Min) + rng.Intn(steps)*int(p.Step)
	case KindFloat:
		if p.Sampling == SamplingLog {
			lo, hi := math.Log(p.Min), math.Log(p.Max)
			return math.Exp(lo + rng.Float64()*(hi-lo))
		}
		return p.Min + rng.Float64()*(p.Max-p.Min)
	case KindBool:
		return rng.Intn(2) == 1
	case KindChoice:
		return p.Choices[rng.Intn(len(p.Choices))]
	}
	return nil
}

// Describe renders the spec's range in one line for summaries.
func (p ParamSpec) Describe() string {
	switch p.Kind {
	case KindInt:
		if p.Step != 1 {
			return fmt.Sprintf("[%d, %d] step %d", int(p.Min), int(p.Max), int(p.Step))
		}
		return fmt.Sprintf("[%d, %d]", int(p.Min), int(p.Max))
	case KindFloat:
		if p.Sampling == SamplingLog {
			return fmt.Sprintf("[%g, %g] log", p.Min, p.Max)
		}
		return fmt.Sprintf("[%g, %g]", p.Min, p.Max)
	case KindChoice:
		return "{" + strings.Join(p.Choices, ", ") + "}"
	default:
		return "{false, true}"
	}
}

// Space is the cumulative set of hyperparameters a search has seen. Trials
// register parameters lazily as the model-building code asks for them, so
// the space grows while the search runs.
type Space struct {
	mu    sync.Mutex
	specs []ParamSpec
	index map[string]int
}

// NewSpace returns an empty search space.
func NewSpace() *Space {
	return &Space{index: map[string]int{}}
}

// register adds a new spec, or returns the existing one of the same name.
// The first registration of a name wins; later calls with a different
// range are answered with the original definition. Invalid specs panic,
// they are programming errors in the model-building code.
func (s *Space) register(p ParamSpec) ParamSpec {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.Name]; ok {
		return s.specs[i]
	}
	if err := p.validate(); err != nil {
		panic(err)
	}
	s.index[p.Name] = len(s.specs)
	s.specs = append(s.specs, p)
	return p
}

// load replaces the space with previously persisted specs.
func (s *Space) load(specs []ParamSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = append([]ParamSpec(nil), specs...)
	s.index = make(map[string]int, len(specs))
	for i, spec := range specs {
		s.index[spec.Name] = i
	}
}

// Specs returns a copy of the registered specs in registration order.
func (s *Space) Specs() []ParamSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ParamSpec(nil), s.specs...)
}

// Len returns the number of registered hyperparameters.
func (s *Space) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.specs)
}

// HyperParameters is one trial's view of the search space: definitions are
// shared across the whole search, values belong to this trial alone.
//
// The accessor methods double as definitions. The first call for a name
// registers the parameter and samples a value, later calls return the
// recorded value. A parameter only exists in the trials whose code path
// asked for it, which is what makes conditional hyperparameters work.
type HyperParameters struct {
	space  *Space
	rng    *rand.Rand
	values map[string]any
}

func newHyperParameters(space *Space, rng *rand.Rand, values map[string]any) *HyperParameters {
	if values == nil {
		values = map[string]any{}
	}
	return &HyperParameters{space: space, rng: rng, values: values}
}

func (h *HyperParameters) resolve(p ParamSpec) any {
	p = h.space.register(p)
	if v, ok := h.values[p.Name]; ok {
		return v
	}
	v := p.sample(h.rng)
	h.values[p.Name] = v
	return v
}

// Int defines an integer hyperparameter in [min, max] and returns this
// trial's value for it.
func (h *HyperParameters) Int(name string, min, max int) int {
	return h.IntStep(name, min, max, 1)
}

// IntStep defines an integer hyperparameter in [min, max] sampled on a
// grid of the given step.
//
// Arguments:
//   - name: The hyperparameter name.
//   - min, max: The inclusive value range.
//   - step: The grid spacing, starting at min.
//
// Returns:
//   - int: This trial's value.
func (h *HyperParameters) IntStep(name string, min, max, step int) int {
	v := h.resolve(ParamSpec{
		Name: name,
		Kind: KindInt,
		Min:  float64(min),
		Max:  float64(max),
		Step: float64(step),
	})
	return toInt(v)
}

// Float defines a float hyperparameter sampled uniformly from [min, max].
func (h *HyperParameters) Float(name string, min, max float64) float64 {
	v := h.resolve(ParamSpec{
		Name:     name,
		Kind:     KindFloat,
		Min:      min,
		Max:      max,
		Sampling: SamplingLinear,
	})
	return toFloat(v)
}

// FloatLog defines a float hyperparameter sampled log-uniformly from
// [min, max], the usual choice for learning rates.
func (h *HyperParameters) FloatLog(name string, min, max float64) float64 {
	v := h.resolve(ParamSpec{
		Name:     name,
		Kind:     KindFloat,
		Min:      min,
		Max:      max,
		Sampling: SamplingLog,
	})
	return toFloat(v)
}

// Boolean defines a true/false hyperparameter.
func (h *HyperParameters) Boolean(name string) bool {
	v := h.resolve(ParamSpec{Name: name, Kind: KindBool})
	b, _ := v.(bool)
	return b
}

// Choice defines a hyperparameter picking one of the given options.
func (h *HyperParameters) Choice(name string, options ...string) string {
	v := h.resolve(ParamSpec{Name: name, Kind: KindChoice, Choices: options})
	s, _ := v.(string)
	return s
}

// Get returns the recorded value of a hyperparameter requested earlier in
// the trial, typically to read a build-time value during fitting.
func (h *HyperParameters) Get(name string) (any, bool) {
	v, ok := h.values[name]
	return v, ok
}

// GetInt returns a recorded integer value.
func (h *HyperParameters) GetInt(name string) (int, bool) {
	v, ok := h.values[name]
	if !ok {
		return 0, false
	}
	return toInt(v), true
}

// GetFloat returns a recorded float value.
func (h *HyperParameters) GetFloat(name string) (float64, bool) {
	v, ok := h.values[name]
	if !ok {
		return 0, false
	}
	return toFloat(v), true
}

// GetBool returns a recorded boolean value.
func (h *HyperParameters) GetBool(name string) (bool, bool) {
	v, ok := h.values[name]
	if !ok {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// GetString returns a recorded choice value.
func (h *HyperParameters) GetString(name string) (string, bool) {
	v, ok := h.values[name]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Values returns a copy of the values recorded so far.
func (h *HyperParameters) Values() map[string]any {
	out := make(map[string]any, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// toInt and toFloat absorb the float64 that JSON reloading turns numbers
// into.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Fingerprint canonically encodes a value assignment so oracles can spot
// repeated trials. Numeric values go through %v, which renders int 5 and a
// reloaded float64 5 identically.
func Fingerprint(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, values[k])
	}
	return b.String()
}
