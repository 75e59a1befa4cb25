// Package inference - ONNX runtime sessions.
package inference

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime loads the onnxruntime shared library and initializes the
// environment. The library can only be initialized once per process, so
// the first caller's library path wins.
func initRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath == "" {
			libraryPath = DefaultLibraryPath()
		}
		ort.SetSharedLibraryPath(libraryPath)
		runtimeErr = ort.InitializeEnvironment()
	})
	if runtimeErr != nil {
		return errors.Wrap(runtimeErr, "failed to initialize onnxruntime")
	}
	return nil
}

// Session owns one loaded model together with its pre-allocated input and
// output tensors. The tensors are reused across Run calls, so a Session
// must not be shared between goroutines without external locking.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession loads the model described by cfg and allocates its tensors.
//
// Arguments:
//   - cfg: The detector configuration. Must validate.
//
// Returns:
//   - *Session: The ready-to-run session.
//   - error: An error if the runtime, tensors or session cannot be created.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	size := int64(cfg.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}

	channels := int64(4 + cfg.NumClasses())
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, channels, int64(cfg.AnchorCount())))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			input.Destroy()
			output.Destroy()
			return nil, errors.Wrap(err, "failed to set intra-op threads")
		}
		if err := options.SetInterOpNumThreads(cfg.Threads); err != nil {
			input.Destroy()
			output.Destroy()
			return nil, errors.Wrap(err, "failed to set inter-op threads")
		}
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "failed to set graph optimization level")
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(err, "failed to load model %s", cfg.ModelPath)
	}

	return &Session{session: session, input: input, output: output}, nil
}

// Run executes one inference pass over the current input tensor contents.
func (s *Session) Run() error {
	if err := s.session.Run(); err != nil {
		return errors.Wrap(err, "inference run failed")
	}
	return nil
}

// Input returns the input tensor so callers can fill it before Run.
func (s *Session) Input() *ort.Tensor[float32] {
	return s.input
}

// Output returns the raw output data of the last Run.
func (s *Session) Output() []float32 {
	return s.output.GetData()
}

// Close releases the resources associated with the Session.
//
// Returns:
//   - No return values.
func (s *Session) Close() {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}
