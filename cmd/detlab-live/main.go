// Command detlab-live draws live detection overlays on a webcam or video
// stream. Press ESC to quit.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/JoDeMiro/go-detlab/inference"
)

func main() {
	var (
		deviceID    = flag.Int("device", 0, "Video capture device ID")
		videoPath   = flag.String("video", "", "Video file to play instead of the camera")
		modelPath   = flag.String("model", "", "Path to ONNX model file")
		configFile  = flag.String("config", "", "Inference config file (.json or .yaml)")
		libraryPath = flag.String("library", "", "Path to the onnxruntime shared library")
		minScore    = flag.Float64("score", 0, "Override the configured score threshold (0 keeps it)")
	)
	flag.Parse()

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
	if *minScore > 0 {
		config.Detect.ScoreThreshold = float32(*minScore)
	}

	detector, err := inference.NewDetector(config)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer detector.Close()

	// open webcam or video file
	var capture *gocv.VideoCapture
	source := fmt.Sprintf("camera device %d", *deviceID)
	if *videoPath != "" {
		source = *videoPath
		capture, err = gocv.OpenVideoCapture(*videoPath)
	} else {
		capture, err = gocv.OpenVideoCapture(*deviceID)
	}
	if err != nil {
		log.Fatalf("Error opening video capture %s: %v", source, err)
	}
	defer capture.Close()

	// open display window
	window := gocv.NewWindow("Detection")
	defer window.Close()

	// prepare image matrix
	img := gocv.NewMat()
	defer img.Close()

	green := color.RGBA{0, 255, 0, 0}
	white := color.RGBA{255, 255, 255, 0}

	ctx := context.Background()

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	fmt.Printf("start reading %s\n", source)
	for {
		if ok := capture.Read(&img); !ok {
			fmt.Printf("stream ended: %s\n", source)
			return
		}
		if img.Empty() {
			continue
		}

		frame, err := img.ToImage()
		if err != nil {
			fmt.Printf("cannot convert frame: %v\n", err)
			return
		}

		detections, err := detector.Detect(ctx, frame)
		if err != nil {
			fmt.Printf("detection failed: %v\n", err)
			return
		}

		// Update FPS calculation
		frameCount++
		elapsed := time.Since(lastTime).Seconds()
		if elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		// draw a rectangle and label around each detection
		for _, d := range detections {
			rect := d.Box.ToRect()
			gocv.Rectangle(&img, rect, green, 2)
			label := fmt.Sprintf("%s %.2f", d.Label, d.Score)
			gocv.PutText(&img, label, rect.Min, gocv.FontHersheyPlain, 1.2, green, 2)
		}

		status := fmt.Sprintf("FPS: %.1f | Objects: %d", fps, len(detections))
		gocv.PutText(&img, status, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, white, 2)

		window.IMShow(img)
		if window.WaitKey(1) == 27 {
			return
		}
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Live detection overlays from a camera or video file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -model yolov8n.onnx\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -config detector.yaml -video traffic.mp4 -score 0.4\n", filepath.Base(os.Args[0]))
	}
}
