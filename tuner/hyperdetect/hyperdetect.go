// Package hyperdetect - Tuning detection postprocessing against labeled data.
//
// The detector itself is expensive to rerun, but score filtering and
// suppression are not: run the model once with a permissive score
// threshold, keep the raw detections, then search the postprocessing
// thresholds offline against ground truth. Model is the HyperModel for
// that search; each trial re-filters the same raw detections with a
// candidate detect.Config and scores the outcome with the evaluator.
package hyperdetect

import (
	"context"

	"github.com/pkg/errors"

	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/eval"
	"github.com/JoDeMiro/go-detlab/tuner"
)

// Default search ranges. The score floor stays above zero so a trial
// cannot simply keep every anchor.
const (
	defaultScoreMin = 0.05
	defaultScoreMax = 0.9
	defaultIoUMin   = 0.2
	defaultIoUMax   = 0.8
	defaultEvalIoU  = 0.5
)

// Model searches detect.Config thresholds for the best evaluation scores
// on a fixed set of frames. Tune it with tuner.Maximize("f1") or
// tuner.Maximize("mean_iou").
type Model struct {
	// Frames holds raw detections paired with ground truth. The
	// detections should come from a permissive run whose score threshold
	// sits at or below ScoreMin, otherwise the search floor is the run's
	// threshold rather than ScoreMin.
	Frames []eval.FrameResult
	// EvalIoU is the matching threshold metrics are computed at.
	// Zero picks 0.5.
	EvalIoU float32
	// ScoreMin and ScoreMax bound the score threshold search. Both zero
	// picks the defaults.
	ScoreMin, ScoreMax float64
	// IoUMin and IoUMax bound the suppression threshold search. Both
	// zero picks the defaults.
	IoUMin, IoUMax float64
	// Workers is handed to the candidate configs for per-class
	// suppression.
	Workers int
}

func (m *Model) scoreRange() (float64, float64) {
	if m.ScoreMin == 0 && m.ScoreMax == 0 {
		return defaultScoreMin, defaultScoreMax
	}
	return m.ScoreMin, m.ScoreMax
}

func (m *Model) iouRange() (float64, float64) {
	if m.IoUMin == 0 && m.IoUMax == 0 {
		return defaultIoUMin, defaultIoUMax
	}
	return m.IoUMin, m.IoUMax
}

func (m *Model) evalIoU() float32 {
	if m.EvalIoU == 0 {
		return defaultEvalIoU
	}
	return m.EvalIoU
}

// Build samples one candidate postprocessing configuration.
func (m *Model) Build(hp *tuner.HyperParameters) (any, error) {
	scoreMin, scoreMax := m.scoreRange()
	iouMin, iouMax := m.iouRange()

	cfg := detect.Config{
		ScoreThreshold: float32(hp.Float("score_threshold", scoreMin, scoreMax)),
		IoUThreshold:   float32(hp.Float("iou_threshold", iouMin, iouMax)),
		ClassAware:     hp.Boolean("class_aware"),
		NumWorkers:     m.Workers,
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "sampled config")
	}
	return cfg, nil
}

// Fit re-filters every frame's raw detections with the candidate config
// and returns the evaluator's metrics for it.
//
// Returns:
//   - map[string]float64: f1, precision, recall and mean_iou, ready to be
//     used as tuning objectives.
//   - error: The context error when the search is canceled mid-frame.
func (m *Model) Fit(ctx context.Context, hp *tuner.HyperParameters, model any) (map[string]float64, error) {
	cfg := model.(detect.Config)

	rescored := make([]eval.FrameResult, len(m.Frames))
	for i, frame := range m.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kept := detect.FilterByScore(frame.Detections, cfg.ScoreThreshold)
		kept = detect.NMS(kept, cfg)
		rescored[i] = eval.FrameResult{
			Image:      frame.Image,
			Detections: kept,
			Truth:      frame.Truth,
		}
	}

	metrics := eval.Evaluate(rescored, m.evalIoU(), cfg.ClassAware)
	return map[string]float64{
		"f1":        metrics.F1,
		"precision": metrics.Precision,
		"recall":    metrics.Recall,
		"mean_iou":  metrics.MeanIoU,
	}, nil
}

// BestConfig rebuilds the winning configuration of a finished search.
func (m *Model) BestConfig(t *tuner.Tuner) (detect.Config, bool) {
	hps := t.BestHyperParameters(1)
	if len(hps) == 0 {
		return detect.Config{}, false
	}
	built, err := m.Build(hps[0])
	if err != nil {
		return detect.Config{}, false
	}
	return built.(detect.Config), true
}
