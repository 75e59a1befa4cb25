package tuner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHP(seed int64) *HyperParameters {
	return newHyperParameters(NewSpace(), rand.New(rand.NewSource(seed)), nil)
}

func TestIntSamplingStaysOnGrid(t *testing.T) {
	space := NewSpace()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		hp := newHyperParameters(space, rng, nil)
		units := hp.IntStep("units", 32, 512, 32)
		assert.GreaterOrEqual(t, units, 32)
		assert.LessOrEqual(t, units, 512)
		assert.Zero(t, units%32, "value %d off the step grid", units)
	}
	assert.Equal(t, 1, space.Len())
}

func TestFloatSamplingRanges(t *testing.T) {
	space := NewSpace()
	rng := rand.New(rand.NewSource(2))

	seenLow, seenHigh := false, false
	for i := 0; i < 500; i++ {
		hp := newHyperParameters(space, rng, nil)
		lr := hp.FloatLog("lr", 1e-4, 1e-2)
		require.GreaterOrEqual(t, lr, 1e-4)
		require.LessOrEqual(t, lr, 1e-2)
		if lr < 1e-3 {
			seenLow = true
		} else {
			seenHigh = true
		}

		momentum := hp.Float("momentum", 0.8, 0.99)
		require.GreaterOrEqual(t, momentum, 0.8)
		require.LessOrEqual(t, momentum, 0.99)
	}
	// Log sampling spreads draws across decades instead of clumping at
	// the top of the range.
	assert.True(t, seenLow && seenHigh)
}

func TestBooleanAndChoiceSampling(t *testing.T) {
	space := NewSpace()
	rng := rand.New(rand.NewSource(3))

	seenTrue, seenFalse := false, false
	options := map[string]bool{}
	for i := 0; i < 100; i++ {
		hp := newHyperParameters(space, rng, nil)
		if hp.Boolean("dropout") {
			seenTrue = true
		} else {
			seenFalse = true
		}
		options[hp.Choice("activation", "relu", "tanh")] = true
	}

	assert.True(t, seenTrue && seenFalse)
	assert.Len(t, options, 2)
	for opt := range options {
		assert.Contains(t, []string{"relu", "tanh"}, opt)
	}
}

func TestRepeatedRequestReturnsRecordedValue(t *testing.T) {
	hp := newTestHP(4)

	first := hp.Int("units", 1, 1000000)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, hp.Int("units", 1, 1000000))
	}
	assert.Equal(t, 1, hp.space.Len())
}

func TestFirstDefinitionWins(t *testing.T) {
	hp := newTestHP(5)

	hp.IntStep("units", 32, 512, 32)
	// A later conflicting definition is answered from the original spec.
	v := hp.IntStep("units", 1, 7, 1)
	assert.GreaterOrEqual(t, v, 32)
	assert.Zero(t, v%32)

	specs := hp.space.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, float64(512), specs[0].Max)
}

func TestConditionalParametersOnlyExistWhenRequested(t *testing.T) {
	hp := newTestHP(6)

	if hp.Boolean("dropout") {
		hp.Float("dropout_rate", 0.1, 0.5)
	}
	values := hp.Values()

	_, hasRate := values["dropout_rate"]
	dropout, _ := hp.GetBool("dropout")
	assert.Equal(t, dropout, hasRate)
	// The spec registry still only grows with what was actually asked.
	if dropout {
		assert.Equal(t, 2, hp.space.Len())
	} else {
		assert.Equal(t, 1, hp.space.Len())
	}
}

func TestTypedGettersCoerceReloadedNumbers(t *testing.T) {
	// JSON reloading turns recorded ints into float64.
	hp := newHyperParameters(NewSpace(), rand.New(rand.NewSource(7)), map[string]any{
		"units":   float64(64),
		"lr":      0.001,
		"dropout": true,
		"act":     "relu",
	})

	units, ok := hp.GetInt("units")
	require.True(t, ok)
	assert.Equal(t, 64, units)

	lr, ok := hp.GetFloat("lr")
	require.True(t, ok)
	assert.InDelta(t, 0.001, lr, 1e-12)

	dropout, ok := hp.GetBool("dropout")
	require.True(t, ok)
	assert.True(t, dropout)

	act, ok := hp.GetString("act")
	require.True(t, ok)
	assert.Equal(t, "relu", act)

	_, ok = hp.Get("missing")
	assert.False(t, ok)
	_, ok = hp.GetInt("missing")
	assert.False(t, ok)
}

func TestInvalidSpecsPanic(t *testing.T) {
	tests := []struct {
		name string
		use  func(hp *HyperParameters)
	}{
		{"min above max", func(hp *HyperParameters) { hp.Int("a", 10, 1) }},
		{"zero step", func(hp *HyperParameters) { hp.IntStep("b", 1, 10, 0) }},
		{"log with zero min", func(hp *HyperParameters) { hp.FloatLog("c", 0, 1) }},
		{"empty choice", func(hp *HyperParameters) { hp.Choice("d") }},
		{"empty name", func(hp *HyperParameters) { hp.Boolean("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := newTestHP(8)
			assert.Panics(t, func() { tt.use(hp) })
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := map[string]any{"units": 64, "lr": 0.001, "act": "relu"}
	// The same assignment after a JSON round trip.
	b := map[string]any{"act": "relu", "lr": 0.001, "units": float64(64)}
	c := map[string]any{"units": 96, "lr": 0.001, "act": "relu"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.Empty(t, Fingerprint(nil))
}

func TestParamSpecDescribe(t *testing.T) {
	assert.Equal(t, "[32, 512] step 32",
		ParamSpec{Kind: KindInt, Min: 32, Max: 512, Step: 32}.Describe())
	assert.Equal(t, "[1, 3]",
		ParamSpec{Kind: KindInt, Min: 1, Max: 3, Step: 1}.Describe())
	assert.Equal(t, "[0.0001, 0.01] log",
		ParamSpec{Kind: KindFloat, Min: 1e-4, Max: 1e-2, Sampling: SamplingLog}.Describe())
	assert.Equal(t, "{relu, tanh}",
		ParamSpec{Kind: KindChoice, Choices: []string{"relu", "tanh"}}.Describe())
	assert.Equal(t, "{false, true}", ParamSpec{Kind: KindBool}.Describe())
}
