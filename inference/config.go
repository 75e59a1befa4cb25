// Package inference - ONNX detector configuration.
package inference

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/JoDeMiro/go-detlab/detect"
)

// Config describes one ONNX detector: where the model lives, the tensor
// layout it expects, and how its raw output is filtered.
type Config struct {
	// ModelPath is the path to the .onnx model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// LibraryPath points at the onnxruntime shared library. Empty means
	// DefaultLibraryPath.
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
	// InputName and OutputName are the model's tensor names.
	InputName  string `json:"input_name" yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`
	// InputSize is the square model input resolution in pixels.
	InputSize int `json:"input_size" yaml:"input_size"`
	// Threads caps the intra-op and inter-op thread pools. Zero leaves the
	// runtime default in place.
	Threads int `json:"threads,omitempty" yaml:"threads,omitempty"`
	// Labels maps class indices to names. Defaults to the COCO classes.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	// Detect controls score filtering and non-maximum suppression of the
	// decoded output.
	Detect detect.Config `json:"detect" yaml:"detect"`
}

// DefaultConfig returns a configuration for a stock YOLOv8 COCO model.
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:  modelPath,
		InputName:  "images",
		OutputName: "output0",
		InputSize:  640,
		Labels:     detect.COCOLabels,
		Detect:     detect.DefaultConfig(),
	}
}

// NumClasses returns the number of classes the model predicts.
func (c Config) NumClasses() int {
	return len(c.Labels)
}

// AnchorCount returns the number of candidate boxes a YOLOv8-style head
// emits for the configured input size. The head predicts one box per cell
// at strides 8, 16 and 32, which is 8400 for a 640 input.
func (c Config) AnchorCount() int {
	count := 0
	for _, stride := range []int{8, 16, 32} {
		side := c.InputSize / stride
		count += side * side
	}
	return count
}

// Validate checks the configuration for values the session cannot work with.
//
// Returns:
//   - error: The first problem found, or nil.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path must not be empty")
	}
	if c.InputName == "" || c.OutputName == "" {
		return errors.New("input and output tensor names must not be empty")
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return errors.Errorf("input size %d must be a positive multiple of 32", c.InputSize)
	}
	if c.Threads < 0 {
		return errors.Errorf("threads %d must not be negative", c.Threads)
	}
	if len(c.Labels) == 0 {
		return errors.New("at least one class label is required")
	}
	return c.Detect.Validate()
}

// LoadConfig reads a detector configuration from a JSON or YAML file,
// chosen by extension.
//
// Arguments:
//   - path: The file to read.
//
// Returns:
//   - Config: The parsed configuration.
//   - error: An error if reading, parsing or validation fails.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read detector config %s", path)
	}

	cfg := DefaultConfig("")
	switch ext := filepath.Ext(path); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, errors.Errorf("unsupported detector config extension %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse detector config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid detector config %s", path)
	}
	return cfg, nil
}

// DefaultLibraryPath returns the conventional location of the onnxruntime
// shared library for the current platform, relative to the working
// directory.
func DefaultLibraryPath() string {
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
