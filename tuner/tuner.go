// Package tuner - The search loop.
package tuner

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/JoDeMiro/go-detlab/profiler"
)

// maxConsecutiveFailures aborts a search that keeps failing, so a broken
// build function does not burn the whole trial budget.
const maxConsecutiveFailures = 3

// Tuner drives an oracle through the trial budget, evaluates each trial
// through a HyperModel or a RunTrialFunc, and persists everything under
// Directory/ProjectName as it goes.
type Tuner struct {
	cfg     Config
	runID   string
	oracle  Oracle
	model   HyperModel
	runFunc RunTrialFunc
	storage *Storage

	consecutiveFailures int
}

// New builds a tuner with a random search oracle over the given model.
func New(cfg Config, model HyperModel) (*Tuner, error) {
	cfg = cfg.withDefaults()
	return assemble(cfg, NewRandomSearch(cfg.Objective, cfg.MaxTrials, cfg.Seed), model, nil)
}

// NewWithRunFunc builds a tuner whose trials run through the given
// black-box function instead of a HyperModel.
func NewWithRunFunc(cfg Config, run RunTrialFunc) (*Tuner, error) {
	cfg = cfg.withDefaults()
	return assemble(cfg, NewRandomSearch(cfg.Objective, cfg.MaxTrials, cfg.Seed), nil, run)
}

// NewWithOracle builds a tuner around a caller-provided oracle.
func NewWithOracle(cfg Config, oracle Oracle, model HyperModel) (*Tuner, error) {
	return assemble(cfg.withDefaults(), oracle, model, nil)
}

func assemble(cfg Config, oracle Oracle, model HyperModel, run RunTrialFunc) (*Tuner, error) {
	if model == nil && run == nil {
		return nil, errors.New("tuner needs a HyperModel or a RunTrialFunc")
	}

	t := &Tuner{
		cfg:     cfg,
		runID:   uuid.NewString(),
		oracle:  oracle,
		model:   model,
		runFunc: run,
		storage: NewStorage(cfg.Directory, cfg.ProjectName),
	}

	if cfg.Overwrite {
		if err := t.storage.Wipe(); err != nil {
			return nil, err
		}
	} else if t.storage.Exists() {
		if err := t.resume(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tuner) resume() error {
	state, err := t.storage.LoadState()
	if err != nil {
		return err
	}
	trials, err := t.storage.LoadTrials(state.TrialIDs)
	if err != nil {
		return err
	}
	if state.Objective != t.oracle.Objective() {
		klog.Warningf("resuming %s with objective %+v, previously %+v",
			t.storage.Root(), t.oracle.Objective(), state.Objective)
	}
	if state.RunID != "" {
		t.runID = state.RunID
	}
	t.oracle.Restore(state.Space, trials)
	klog.V(1).Infof("resuming search %s in %s with %d finished trials",
		t.runID, t.storage.Root(), len(trials))
	return nil
}

// Search runs trials until the oracle is done or the context is canceled.
//
// Each trial is persisted as soon as it ends, so an interrupted search
// resumes from its last finished trial when the tuner is rebuilt with
// Overwrite off.
//
// Arguments:
//   - ctx: Cancels the search; the current trial still runs to its end
//     unless the trial code honors the context itself.
//
// Returns:
//   - error: The context error, a persistence error, or an abort after
//     too many consecutive failed trials.
func (t *Tuner) Search(ctx context.Context) error {
	klog.V(1).Infof("search %s running up to %d trials in %s",
		t.runID, t.cfg.MaxTrials, t.storage.Root())

	var bar *progressbar.ProgressBar
	if !t.cfg.Quiet {
		bar = progressbar.NewOptions(t.cfg.MaxTrials,
			progressbar.OptionSetDescription("Tuning"),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("trials"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		)
		_ = bar.Set(len(t.oracle.Trials()))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		trial, err := t.oracle.CreateTrial()
		if errors.Is(err, ErrSearchOver) {
			break
		}
		if err != nil {
			return err
		}

		start := time.Now()
		failure := t.runTrial(ctx, trial)
		trial.Duration = time.Since(start)
		trial.Resources = profiler.Sample()
		t.oracle.EndTrial(trial, failure)

		if err := t.persist(trial); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		if failure != nil && (errors.Is(failure, context.Canceled) || errors.Is(failure, context.DeadlineExceeded)) {
			return failure
		}

		if trial.Status == TrialFailed {
			t.consecutiveFailures++
			klog.Warningf("trial %s failed: %s", trial.ID, trial.Message)
			if t.consecutiveFailures >= maxConsecutiveFailures {
				return errors.Errorf("search aborted after %d consecutive failed trials, last: %s",
					t.consecutiveFailures, trial.Message)
			}
		} else {
			t.consecutiveFailures = 0
			klog.V(1).Infof("trial %s scored %g", trial.ID, trial.Score)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

func (t *Tuner) runTrial(ctx context.Context, trial *Trial) error {
	for execution := 0; execution < t.cfg.ExecutionsPerTrial; execution++ {
		metrics, err := t.runExecution(ctx, trial)
		if err != nil {
			return err
		}
		t.oracle.UpdateTrial(trial, metrics)
	}
	return nil
}

func (t *Tuner) runExecution(ctx context.Context, trial *Trial) (map[string]float64, error) {
	if t.runFunc != nil {
		return t.runFunc(ctx, trial)
	}
	model, err := t.model.Build(trial.HyperParameters())
	if err != nil {
		return nil, errors.Wrap(err, "building candidate")
	}
	return t.model.Fit(ctx, trial.HyperParameters(), model)
}

func (t *Tuner) persist(trial *Trial) error {
	if err := t.storage.SaveTrial(trial); err != nil {
		return err
	}

	trials := t.oracle.Trials()
	ids := make([]string, 0, len(trials))
	for _, tr := range trials {
		ids = append(ids, tr.ID)
	}
	return t.storage.SaveState(searchState{
		RunID:     t.runID,
		Objective: t.oracle.Objective(),
		MaxTrials: t.cfg.MaxTrials,
		Space:     t.oracle.Space().Specs(),
		TrialIDs:  ids,
	})
}

// Oracle returns the oracle driving the search.
func (t *Tuner) Oracle() Oracle {
	return t.oracle
}

// Directory returns the project directory results are persisted in.
func (t *Tuner) Directory() string {
	return t.storage.Root()
}

// RunID identifies this search run in oracle.json. A fresh search draws a
// new id; resuming keeps the one the state file carries.
func (t *Tuner) RunID() string {
	return t.runID
}

// BestTrials returns up to n completed trials, best first.
func (t *Tuner) BestTrials(n int) []*Trial {
	return t.oracle.BestTrials(n)
}

// BestTrial returns the single best completed trial.
func (t *Tuner) BestTrial() (*Trial, bool) {
	best := t.oracle.BestTrials(1)
	if len(best) == 0 {
		return nil, false
	}
	return best[0], true
}

// BestHyperParameters reconstructs the parameter views of the best trials,
// ready to be passed back into HyperModel.Build to rebuild the winners.
func (t *Tuner) BestHyperParameters(n int) []*HyperParameters {
	best := t.oracle.BestTrials(n)
	out := make([]*HyperParameters, 0, len(best))
	for _, trial := range best {
		values := make(map[string]any, len(trial.Values))
		for k, v := range trial.Values {
			values[k] = v
		}
		out = append(out, newHyperParameters(t.oracle.Space(), rand.New(rand.NewSource(1)), values))
	}
	return out
}
