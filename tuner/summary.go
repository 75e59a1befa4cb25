// Package tuner - Styled terminal summaries of searches.
package tuner

import (
	"fmt"
	"math/rand"
	"sort"
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

// SearchSpaceSummary renders the hyperparameters registered so far with
// their ranges. Useful before a search to check the space is what the
// model-building code meant to define; when no trial has run yet the
// space is populated by a probe build, so the summary is not empty.
func (t *Tuner) SearchSpaceSummary() string {
	if t.oracle.Space().Len() == 0 && t.model != nil {
		probe := newHyperParameters(t.oracle.Space(), rand.New(rand.NewSource(1)), nil)
		_, _ = t.model.Build(probe)
	}
	specs := t.oracle.Space().Specs()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Search space") + "\n")
	if len(specs) == 0 {
		b.WriteString("no hyperparameters registered yet\n")
		return b.String()
	}

	table := newSummaryTable(lipgloss.Left, lipgloss.Left, lipgloss.Left)
	table.Headers("Name", "Kind", "Range")
	for _, spec := range specs {
		table.Row(spec.Name, string(spec.Kind), spec.Describe())
	}
	b.WriteString(table.Render() + "\n")
	return b.String()
}

// ResultsSummary renders the best n trials with their values and scores,
// followed by the search totals.
func (t *Tuner) ResultsSummary(n int) string {
	objective := t.oracle.Objective()
	best := t.oracle.BestTrials(n)
	all := t.oracle.Trials()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Results summary") + "\n")
	fmt.Fprintf(&b, "directory %s, objective %s (%s)\n",
		t.storage.Root(), objective.Name, objective.Direction)

	if len(best) == 0 {
		b.WriteString("no completed trials\n")
		return b.String()
	}

	table := newSummaryTable(lipgloss.Center, lipgloss.Right, lipgloss.Left, lipgloss.Right)
	table.Headers("Trial", "Score", "Hyperparameters", "Duration")
	for _, trial := range best {
		table.Row(
			trial.ID,
			fmt.Sprintf("%.6g", trial.Score),
			formatValues(trial.Values),
			trial.Duration.Round(time.Millisecond).String(),
		)
	}
	b.WriteString(table.Render() + "\n")

	completed, failed := 0, 0
	for _, trial := range all {
		switch trial.Status {
		case TrialCompleted:
			completed++
		case TrialFailed:
			failed++
		}
	}
	fmt.Fprintf(&b, "%s trials run, %s completed, %s failed\n",
		humanize.Comma(int64(len(all))),
		humanize.Comma(int64(completed)),
		humanize.Comma(int64(failed)))
	return b.String()
}

// formatValues renders a value assignment as name=value pairs in sorted
// name order.
func formatValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := values[k].(type) {
		case float64:
			parts = append(parts, fmt.Sprintf("%s=%.6g", k, v))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
