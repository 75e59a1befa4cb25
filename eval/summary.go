// Package eval - Styled terminal summaries of evaluation reports.
package eval

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

func newSummaryTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row < 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
}

func metricsRow(t *lgtable.Table, m Metrics) {
	t.Row(
		fmt.Sprintf("%.2f", m.IoUThreshold),
		humanize.Comma(int64(m.TruePositives)),
		humanize.Comma(int64(m.FalsePositives)),
		humanize.Comma(int64(m.FalseNegatives)),
		fmt.Sprintf("%.4f", m.Precision),
		fmt.Sprintf("%.4f", m.Recall),
		fmt.Sprintf("%.4f", m.F1),
		fmt.Sprintf("%.4f", m.MeanIoU),
	)
}

// Summary renders the report as styled terminal tables: a run overview
// followed by the metrics at the primary threshold and each sweep
// threshold.
func (r *Report) Summary() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Evaluation %s", r.ID)))
	sb.WriteString("\n")

	overview := newSummaryTable(lipgloss.Left, lipgloss.Right)
	overview.Row("Dataset", r.Dataset)
	overview.Row("Frames", humanize.Comma(int64(r.Frames)))
	overview.Row("Objects", humanize.Comma(int64(r.Objects)))
	overview.Row("Detections", humanize.Comma(int64(r.Detections)))
	overview.Row("Score threshold", fmt.Sprintf("%.2f", r.Config.ScoreThreshold))
	overview.Row("NMS IoU threshold", fmt.Sprintf("%.2f", r.Config.IoUThreshold))
	if r.Timing.Samples > 0 {
		overview.Row("Frames/s", fmt.Sprintf("%.1f", r.Timing.FramesPerSecond))
		overview.Row("Latency p50/p99", fmt.Sprintf("%v / %v",
			r.Timing.P50.Truncate(10*time.Microsecond),
			r.Timing.P99.Truncate(10*time.Microsecond)))
	}
	if r.Resources.HeapAllocBytes > 0 {
		overview.Row("Peak heap", humanize.Bytes(r.Resources.HeapAllocBytes))
	}
	if r.Resources.RSSBytes > 0 {
		overview.Row("Peak RSS", humanize.Bytes(r.Resources.RSSBytes))
	}
	sb.WriteString(overview.Render())
	sb.WriteString("\n")

	metrics := newSummaryTable(
		lipgloss.Center, lipgloss.Right, lipgloss.Right, lipgloss.Right,
		lipgloss.Right, lipgloss.Right, lipgloss.Right, lipgloss.Right)
	metrics.Headers("IoU thr", "TP", "FP", "FN", "Precision", "Recall", "F1", "Mean IoU")
	metricsRow(metrics, r.Primary)
	for _, m := range r.Sweep {
		metricsRow(metrics, m)
	}
	sb.WriteString(metrics.Render())
	sb.WriteString("\n")

	return sb.String()
}
