package tuner

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig(t *testing.T, maxTrials int) Config {
	t.Helper()
	return Config{
		Directory:   t.TempDir(),
		ProjectName: "search",
		MaxTrials:   maxTrials,
		Seed:        21,
		Quiet:       true,
	}
}

// parabola is the classic tune-anything target: minimize f(x) = x*x + 1.
func parabola(ctx context.Context, trial *Trial) (map[string]float64, error) {
	x := trial.HyperParameters().Float("x", -1.0, 1.0)
	return ScoreResult(x*x + 1), nil
}

func TestSearchMinimizesParabola(t *testing.T) {
	tuner, err := NewWithRunFunc(quietConfig(t, 20), parabola)
	require.NoError(t, err)
	require.NoError(t, tuner.Search(context.Background()))

	trials := tuner.Oracle().Trials()
	require.Len(t, trials, 20)

	best, ok := tuner.BestTrial()
	require.True(t, ok)
	assert.GreaterOrEqual(t, best.Score, 1.0)
	for _, trial := range trials {
		assert.Equal(t, TrialCompleted, trial.Status)
		assert.LessOrEqual(t, best.Score, trial.Score)
	}

	hps := tuner.BestHyperParameters(1)
	require.Len(t, hps, 1)
	x, ok := hps[0].GetFloat("x")
	require.True(t, ok)
	assert.InDelta(t, best.Score, x*x+1, 1e-12)
}

func TestSearchExecutionsPerTrialAveraging(t *testing.T) {
	var calls int32
	cfg := quietConfig(t, 1)
	cfg.ExecutionsPerTrial = 3

	tuner, err := NewWithRunFunc(cfg, func(ctx context.Context, trial *Trial) (map[string]float64, error) {
		return ScoreResult(float64(atomic.AddInt32(&calls, 1))), nil
	})
	require.NoError(t, err)
	require.NoError(t, tuner.Search(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	best, ok := tuner.BestTrial()
	require.True(t, ok)
	// Executions returned 1, 2 and 3; the trial scores their mean.
	assert.Equal(t, 2.0, best.Score)
	assert.Len(t, best.Metrics[DefaultObjectiveName], 3)
}

func TestSearchBuildAndFitModel(t *testing.T) {
	tuner, err := New(quietConfig(t, 8), &quadraticModel{})
	require.NoError(t, err)
	require.NoError(t, tuner.Search(context.Background()))

	best, ok := tuner.BestTrial()
	require.True(t, ok)
	assert.GreaterOrEqual(t, best.Score, 1.0)

	_, ok = best.Values["offset"]
	assert.True(t, ok, "build-time parameter recorded on the trial")
}

// quadraticModel exercises the build-then-fit split: Build picks the
// candidate value, Fit scores it.
type quadraticModel struct{}

func (m *quadraticModel) Build(hp *HyperParameters) (any, error) {
	return hp.Float("offset", -2, 2), nil
}

func (m *quadraticModel) Fit(ctx context.Context, hp *HyperParameters, model any) (map[string]float64, error) {
	x := model.(float64)
	return ScoreResult(x*x + 1), nil
}

func TestSearchPersistsAndResumes(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Directory: dir, ProjectName: "resume", MaxTrials: 3, Seed: 22, Quiet: true}

	tuner, err := NewWithRunFunc(cfg, parabola)
	require.NoError(t, err)
	require.NoError(t, tuner.Search(context.Background()))

	root := filepath.Join(dir, "resume")
	assert.FileExists(t, filepath.Join(root, "oracle.json"))
	for _, id := range []string{"00", "01", "02"} {
		assert.FileExists(t, filepath.Join(root, "trial_"+id, "trial.json"))
	}

	// Same project, bigger budget: picks up the three finished trials
	// and runs only the remainder.
	cfg.MaxTrials = 5
	resumed, err := NewWithRunFunc(cfg, parabola)
	require.NoError(t, err)
	require.Len(t, resumed.Oracle().Trials(), 3)
	assert.Equal(t, tuner.RunID(), resumed.RunID(), "resuming keeps the run id")
	require.NoError(t, resumed.Search(context.Background()))

	trials := resumed.Oracle().Trials()
	require.Len(t, trials, 5)
	assert.Equal(t, "03", trials[3].ID)
	assert.Equal(t, "04", trials[4].ID)
	assert.FileExists(t, filepath.Join(root, "trial_04", "trial.json"))
}

func TestSearchOverwriteWipesProject(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Directory: dir, ProjectName: "wipe", MaxTrials: 2, Seed: 23, Quiet: true}

	tuner, err := NewWithRunFunc(cfg, parabola)
	require.NoError(t, err)
	require.NoError(t, tuner.Search(context.Background()))

	cfg.Overwrite = true
	fresh, err := NewWithRunFunc(cfg, parabola)
	require.NoError(t, err)

	assert.Empty(t, fresh.Oracle().Trials())
	assert.NotEqual(t, tuner.RunID(), fresh.RunID(), "overwriting starts a new run")
	_, err = os.Stat(filepath.Join(dir, "wipe", "oracle.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSearchAbortsAfterConsecutiveFailures(t *testing.T) {
	tuner, err := NewWithRunFunc(quietConfig(t, 10), func(ctx context.Context, trial *Trial) (map[string]float64, error) {
		return nil, errors.New("fit blew up")
	})
	require.NoError(t, err)

	err = tuner.Search(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consecutive failed trials")

	trials := tuner.Oracle().Trials()
	require.Len(t, trials, maxConsecutiveFailures)
	for _, trial := range trials {
		assert.Equal(t, TrialFailed, trial.Status)
		assert.Contains(t, trial.Message, "fit blew up")
	}
}

func TestSearchHonorsCanceledContext(t *testing.T) {
	tuner, err := NewWithRunFunc(quietConfig(t, 5), parabola)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, tuner.Search(ctx), context.Canceled)
	assert.Empty(t, tuner.Oracle().Trials())
}

func TestSearchStopsAfterMidRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	tuner, err := NewWithRunFunc(quietConfig(t, 5), func(c context.Context, trial *Trial) (map[string]float64, error) {
		cancel()
		return ScoreResult(1.0), nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, tuner.Search(ctx), context.Canceled)
	// The trial that canceled still finished and was recorded.
	require.Len(t, tuner.Oracle().Trials(), 1)
	assert.Equal(t, TrialCompleted, tuner.Oracle().Trials()[0].Status)
}

func TestTunerNeedsModelOrRunFunc(t *testing.T) {
	_, err := New(quietConfig(t, 2), nil)
	assert.Error(t, err)
}

func TestSummaries(t *testing.T) {
	tuner, err := NewWithRunFunc(quietConfig(t, 4), parabola)
	require.NoError(t, err)

	assert.Contains(t, tuner.SearchSpaceSummary(), "no hyperparameters registered yet")

	require.NoError(t, tuner.Search(context.Background()))

	space := tuner.SearchSpaceSummary()
	assert.Contains(t, space, "Search space")
	assert.Contains(t, space, "x")
	assert.Contains(t, space, "float")

	results := tuner.ResultsSummary(2)
	assert.Contains(t, results, "Results summary")
	assert.Contains(t, results, "score")
	assert.Contains(t, results, "x=")
	assert.Contains(t, results, "4 trials run, 4 completed, 0 failed")
}
