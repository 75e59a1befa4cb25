// Package inference - Corpus detection runs.
package inference

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/eval"
)

// Detector produces detections for one image. ONNXDetector is the
// production implementation; evaluation code only depends on this
// interface so detectors can be swapped or faked.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]detect.Detection, error)
}

// Runner fans an image corpus out to a detector and pairs each frame's
// detections with its ground truth annotations.
type Runner struct {
	Detector Detector
	// Workers is the number of frames processed concurrently. Values
	// below one run a single worker.
	Workers int
	// Progress, when non-nil, is called once per finished frame.
	Progress func()
}

// RunResult holds the per-frame outcomes of one corpus run, index-aligned
// with the input files.
type RunResult struct {
	Frames    []eval.FrameResult
	Durations []time.Duration
}

// Run detects objects in every file of the corpus.
//
// Ground truth is looked up in truth by image name, then by path; frames
// without annotations get empty truth, which the evaluator counts as
// all-false-positive. A nil truth set leaves all truth empty.
//
// Arguments:
//   - ctx: Cancels the run between frames.
//   - files: The image corpus, typically from dataset.LoadImageDir.
//   - truth: The annotation set to pair frames with, or nil.
//
// Returns:
//   - *RunResult: Per-frame detections and detector latencies.
//   - error: The first decode or detection error, or the context error.
func (r *Runner) Run(ctx context.Context, files []dataset.ImageFile, truth *dataset.Set) (*RunResult, error) {
	result := &RunResult{
		Frames:    make([]eval.FrameResult, len(files)),
		Durations: make([]time.Duration, len(files)),
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := r.runFrame(ctx, files[i], truth, result, i); err != nil {
					fail(err)
					return
				}
				if r.Progress != nil {
					r.Progress()
				}
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) runFrame(ctx context.Context, file dataset.ImageFile, truth *dataset.Set, result *RunResult, i int) error {
	img, err := file.Decode()
	if err != nil {
		return err
	}

	start := time.Now()
	detections, err := r.Detector.Detect(ctx, img)
	if err != nil {
		return err
	}
	result.Durations[i] = time.Since(start)

	frame := eval.FrameResult{Image: file.Name(), Detections: detections}
	if truth != nil {
		annotated, ok := truth.FrameByImage(file.Name())
		if !ok {
			annotated, ok = truth.FrameByImage(file.Path)
		}
		if ok {
			frame.Truth = annotated.Objects
		}
	}
	result.Frames[i] = frame
	return nil
}
