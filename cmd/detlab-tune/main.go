// Command detlab-tune searches detection postprocessing thresholds for the
// settings that score best against ground truth.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/JoDeMiro/go-detlab/dataset"
	"github.com/JoDeMiro/go-detlab/detect"
	"github.com/JoDeMiro/go-detlab/eval"
	"github.com/JoDeMiro/go-detlab/tuner"
	"github.com/JoDeMiro/go-detlab/tuner/hyperdetect"
)

// Metrics the threshold model reports after each trial.
var objectives = []string{"f1", "precision", "recall", "mean_iou"}

func main() {
	klog.InitFlags(nil)
	var (
		predictionsFile = flag.String("predictions", "", "Path to raw predictions file (from detlab-detect -raw)")
		truthFile       = flag.String("truth", "", "Path to ground truth annotations (.json or .csv)")
		searchConfig    = flag.String("config", "", "Search settings file (.json or .yaml), other search flags fill its gaps")
		objective       = flag.String("objective", "f1", "Metric to maximize: "+strings.Join(objectives, ", "))
		trials          = flag.Int("trials", 25, "Number of threshold combinations to try")
		evalIoU         = flag.Float64("eval-iou", 0.5, "IoU threshold metrics are computed at")
		outputDir       = flag.String("output", "./tuning", "Directory for search state")
		seed            = flag.Int64("seed", 0, "Seed for the search, 0 seeds from the clock")
		resume          = flag.Bool("resume", false, "Continue a previous search instead of overwriting")
		configOut       = flag.String("config-out", "", "Path to write the winning detection config to (optional)")
	)
	flag.Parse()

	if *predictionsFile == "" {
		log.Fatal("Predictions path is required (-predictions)")
	}
	if *truthFile == "" {
		log.Fatal("Ground truth path is required (-truth)")
	}

	cfg := tuner.Config{
		Directory:   *outputDir,
		ProjectName: "thresholds",
		MaxTrials:   *trials,
		Objective:   tuner.Maximize(*objective),
		Overwrite:   !*resume,
		Seed:        *seed,
	}
	if *searchConfig != "" {
		loaded, err := tuner.LoadConfig(*searchConfig)
		if err != nil {
			log.Fatalf("Failed to load search config: %v", err)
		}
		if loaded.Directory == "" {
			loaded.Directory = *outputDir
		}
		if loaded.ProjectName == "" {
			loaded.ProjectName = "thresholds"
		}
		if loaded.MaxTrials == 0 {
			loaded.MaxTrials = *trials
		}
		if loaded.Objective.Name == "" {
			loaded.Objective = tuner.Maximize(*objective)
		}
		cfg = loaded
	}
	if !validObjective(cfg.Objective.Name) {
		log.Fatalf("Unknown objective %q, pick one of: %s", cfg.Objective.Name, strings.Join(objectives, ", "))
	}

	truth, err := loadTruth(*truthFile)
	if err != nil {
		log.Fatalf("Failed to load ground truth: %v", err)
	}

	preds, err := detect.LoadPredictions(*predictionsFile)
	if err != nil {
		log.Fatalf("Failed to load predictions: %v", err)
	}
	fmt.Printf("Loaded %d frames with %d raw detections (recorded score threshold %.2f)\n",
		len(preds.Frames), preds.TotalDetections(), preds.Config.ScoreThreshold)

	model := &hyperdetect.Model{
		Frames:  eval.PairFrames(preds, truth),
		EvalIoU: float32(*evalIoU),
	}

	search, err := tuner.New(cfg, model)
	if err != nil {
		log.Fatalf("Failed to build tuner: %v", err)
	}

	fmt.Println(search.SearchSpaceSummary())
	if err := search.Search(context.Background()); err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	fmt.Println(search.ResultsSummary(10))

	config, ok := model.BestConfig(search)
	if !ok {
		log.Fatal("No completed trials to pick a config from")
	}
	best, _ := search.BestTrial()
	fmt.Printf("Best %s: %.4f with score_threshold=%.4f iou_threshold=%.4f class_aware=%t\n",
		cfg.Objective.Name, best.Score, config.ScoreThreshold, config.IoUThreshold, config.ClassAware)

	if *configOut != "" {
		if err := config.SaveConfig(*configOut); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Config saved to: %s\n", *configOut)
	}
}

func validObjective(name string) bool {
	for _, known := range objectives {
		if name == known {
			return true
		}
	}
	return false
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
		fmt.Fprintf(os.Stderr, "Search score and NMS thresholds for the best evaluation metrics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -predictions raw.json -truth annotations.json -trials 50\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -predictions raw.json -truth labels.csv -objective mean_iou -config-out best.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -predictions raw.json -truth annotations.json -config search.yaml\n", filepath.Base(os.Args[0]))
	}
}
