// Command detlab-eval scores a prediction set against ground truth
// annotations and writes an evaluation report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/eval"
	"github.com/JoDeMiro/go-detlab/profiler"
)

func main() {
	var (
		predictionsFile = flag.String("predictions", "", "Path to predictions file (from detlab-detect)")
		truthFile       = flag.String("truth", "", "Path to ground truth annotations (.json or .csv)")
		configFile      = flag.String("config", "", "Detection config to re-apply before scoring (.json or .yaml)")
		iouThreshold    = flag.Float64("iou", 0.5, "IoU threshold a detection must reach to count as a hit")
		classAware      = flag.Bool("class-aware", true, "Only match detections to truth of the same class")
		sweep           = flag.Bool("sweep", false, "Also evaluate across the COCO 0.50:0.95 threshold range")
		reportFile      = flag.String("report", "", "Path to write the JSON report to (optional)")
	)
	flag.Parse()

	if *predictionsFile == "" {
		log.Fatal("Predictions path is required (-predictions)")
	}
	if *truthFile == "" {
		log.Fatal("Ground truth path is required (-truth)")
	}

	truth, err := loadTruth(*truthFile)
	if err != nil {
		log.Fatalf("Failed to load ground truth: %v", err)
	}

	preds, err := detect.LoadPredictions(*predictionsFile)
	if err != nil {
		log.Fatalf("Failed to load predictions: %v", err)
	}

	// The recorded config describes how the predictions were produced.
	// An explicit -config reapplies filtering and suppression, so raw
	// low-threshold runs can be scored at production settings.
	config := preds.Config
	if *configFile != "" {
		config, err = detect.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load detection config: %v", err)
		}
		for i, frame := range preds.Frames {
			filtered := detect.FilterByScore(frame.Detections, config.ScoreThreshold)
			preds.Frames[i].Detections = detect.NMS(filtered, config)
		}
	}

	frames := eval.PairFrames(preds, truth)

	datasetName := truth.Name
	if datasetName == "" {
		datasetName = filepath.Base(*truthFile)
	}

	report := eval.NewReport(datasetName, config)
	report.Frames = len(frames)
	report.Objects = truth.TotalObjects()
	report.Detections = preds.TotalDetections()
	report.Primary = eval.Evaluate(frames, float32(*iouThreshold), *classAware)
	if *sweep {
		report.Sweep = eval.Sweep(frames, eval.COCOThresholds(), *classAware)
	}
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
		fmt.Fprintf(os.Stderr, "Score detection predictions against ground truth annotations.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -predictions preds.json -truth annotations.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -predictions preds.json -truth labels.csv -sweep -report report.json\n", filepath.Base(os.Args[0]))
	}
}
