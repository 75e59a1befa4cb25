// Command detlab-detect runs an ONNX detector over an image directory and
// writes the detections as a prediction set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/eval"
	"github.com/JoDeMiro/go-detlab/inference"
	"github.com/JoDeMiro/go-detlab/profiler"
)

// Score floor recorded in raw mode. Matches the lowest threshold the
// tuning search explores, so tuned configs stay reachable from the file.
const rawScoreFloor = 0.05

func main() {
	klog.InitFlags(nil)
	var (
		imagesDir    = flag.String("images", "", "Directory of images to run the detector on")
		modelPath    = flag.String("model", "", "Path to ONNX model file")
		configFile   = flag.String("config", "", "Inference config file (.json or .yaml)")
		libraryPath  = flag.String("library", "", "Path to the onnxruntime shared library")
		outputFile   = flag.String("output", "predictions.json", "Path to write the prediction set to")
		truthFile    = flag.String("truth", "", "Ground truth annotations for an immediate report (optional)")
		reportFile   = flag.String("report", "", "Path to write the JSON report to (needs -truth)")
		workers      = flag.Int("workers", 4, "Frames processed concurrently")
		raw          = flag.Bool("raw", false, "Record raw candidates: low score floor, suppression off")
		iouThreshold = flag.Float64("iou", 0.5, "IoU threshold for the report")
	)
	flag.Parse()

	if *imagesDir == "" {
		log.Fatal("Images directory is required (-images)")
	}
	if *modelPath == "" && *configFile == "" {
		log.Fatal("Either model path (-model) or config file (-config) is required")
	}

	config := inference.DefaultConfig(*modelPath)
	if *configFile != "" {
		var err error
		config, err = inference.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
	}
	if *libraryPath != "" {
		config.LibraryPath = *libraryPath
	}
	if *raw {
		config.Detect.ScoreThreshold = rawScoreFloor
		config.Detect.IoUThreshold = 1.0
	}

	files, err := dataset.LoadImageDir(*imagesDir)
	if err != nil {
		log.Fatalf("Failed to load images: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No images found in %s", *imagesDir)
	}

	var truth *dataset.Set
	if *truthFile != "" {
		truth, err = loadTruth(*truthFile)
		if err != nil {
			log.Fatalf("Failed to load ground truth: %v", err)
		}
	}

	detector, err := inference.NewDetector(config)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer detector.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Detecting"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)

	runner := &inference.Runner{
		Detector: detector,
		Workers:  *workers,
		Progress: func() { _ = bar.Add(1) },
	}

	start := time.Now()
	result, err := runner.Run(context.Background(), files, truth)
	if err != nil {
		log.Fatalf("Detection run failed: %v", err)
	}
	fmt.Printf("\nProcessed %d frames in %v\n", len(files), time.Since(start).Round(time.Millisecond))

	preds := &detect.PredictionSet{
		Model:  filepath.Base(config.ModelPath),
		Labels: config.Labels,
		Config: config.Detect,
		Frames: make([]detect.PredictionFrame, 0, len(result.Frames)),
	}
	for _, frame := range result.Frames {
		preds.Frames = append(preds.Frames, detect.PredictionFrame{
			Image:      frame.Image,
			Detections: frame.Detections,
		})
	}
	if err := preds.Save(*outputFile); err != nil {
		log.Fatalf("Failed to save predictions: %v", err)
	}
	fmt.Printf("Predictions saved to: %s (%d detections)\n", *outputFile, preds.TotalDetections())

	if truth == nil {
		return
	}

	datasetName := truth.Name
	if datasetName == "" {
		datasetName = filepath.Base(*truthFile)
	}

	report := eval.NewReport(datasetName, config.Detect)
	report.Frames = len(result.Frames)
	report.Objects = truth.TotalObjects()
	report.Detections = preds.TotalDetections()
	report.Primary = eval.Evaluate(result.Frames, float32(*iouThreshold), config.Detect.ClassAware)
	report.Timing = eval.NewTimingStats(result.Durations)
	report.Resources = profiler.Sample()

	fmt.Println(report.Summary())

	if *reportFile != "" {
		if err := report.Save(*reportFile); err != nil {
			log.Fatalf("Failed to save report: %v", err)
		}
		fmt.Printf("Report saved to: %s\n", *reportFile)
	}
}

// loadTruth reads annotations in either of the supported formats, picked
// by file extension.
func loadTruth(path string) (*dataset.Set, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return dataset.LoadCSV(path)
	}
	return dataset.LoadSet(path)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Run an ONNX detector over an image directory and save the detections.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -images ./frames -model yolov8n.onnx\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -images ./frames -model yolov8n.onnx -raw -output raw.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -images ./frames -config detector.yaml -truth annotations.json -report report.json\n", filepath.Base(os.Args[0]))
	}
}
