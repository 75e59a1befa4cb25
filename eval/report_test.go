package eval

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoDeMiro/go-detlab/detect"
)

// TestReportRoundTrip saves a report and reloads it unchanged.
func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	report := NewReport("airplanes", detect.DefaultConfig())
	report.Frames = 120
	report.Objects = 340
	report.Detections = 355
	report.Primary = Evaluate(airportFrames(), 0.5, true)
	report.Sweep = Sweep(airportFrames(), COCOThresholds(), true)
	report.Timing = NewTimingStats([]time.Duration{10 * time.Millisecond, 12 * time.Millisecond})

	require.NoError(t, report.Save(path))

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.ID, loaded.ID)
	assert.Equal(t, report.Dataset, loaded.Dataset)
	assert.Equal(t, report.Primary, loaded.Primary)
	assert.Len(t, loaded.Sweep, 10)
	assert.Equal(t, report.Timing.P50, loaded.Timing.P50)
}

// TestNewReportIDs stamps each run with a distinct identifier.
func TestNewReportIDs(t *testing.T) {
	a := NewReport("set", detect.DefaultConfig())
	b := NewReport("set", detect.DefaultConfig())

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

// TestLoadReportMissing verifies the error path.
func TestLoadReportMissing(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// TestReportSummary renders without panicking and mentions the key fields.
func TestReportSummary(t *testing.T) {
	report := NewReport("airplanes", detect.DefaultConfig())
	report.Frames = 2
	report.Primary = Evaluate(airportFrames(), 0.5, true)
	report.Sweep = Sweep(airportFrames(), []float32{0.5, 0.75}, true)

	summary := report.Summary()

	assert.Contains(t, summary, "Evaluation")
	assert.Contains(t, summary, "airplanes")
	assert.Contains(t, summary, "Mean IoU")
	assert.Contains(t, summary, "0.50")
}
