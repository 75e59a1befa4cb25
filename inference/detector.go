// Package inference - ONNX object detection.
package inference

import (
	"context"
	"image"
	"sync"

	"github.com/JoDeMiro/go-detlab/detect"
)

// ONNXDetector runs a YOLO-style ONNX model end to end: preprocess, one
// inference pass, decode, then suppression and labeling per the configured
// detect.Config. Safe for concurrent use; calls are serialized because the
// session's tensors are reused between runs.
type ONNXDetector struct {
	cfg     Config
	session *Session
	mu      sync.Mutex
}

// NewDetector loads the model described by cfg.
//
// Arguments:
//   - cfg: The detector configuration.
//
// Returns:
//   - *ONNXDetector: The ready detector. Close it when done.
//   - error: An error if the session cannot be created.
func NewDetector(cfg Config) (*ONNXDetector, error) {
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &ONNXDetector{cfg: cfg, session: session}, nil
}

// Config returns the configuration the detector was built with.
func (d *ONNXDetector) Config() Config {
	return d.cfg
}

// Detect runs the model on one image.
//
// Arguments:
//   - ctx: Checked for cancellation before the (non-interruptible) run.
//   - img: The image to detect objects in.
//
// Returns:
//   - The labeled detections surviving score filtering and NMS, in
//     descending score order.
//   - error: An error if preprocessing or the inference run fails.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image) ([]detect.Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := PrepareInput(img, d.session.Input(), d.cfg.InputSize); err != nil {
		return nil, err
	}
	if err := d.session.Run(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	detections := DecodeOutput(d.session.Output(), d.cfg, bounds.Dx(), bounds.Dy())
	detections = detect.NMS(detections, d.cfg.Detect)
	return detect.Labeled(detections, d.cfg.Labels), nil
}

// Close releases the underlying session.
func (d *ONNXDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.Close()
}
