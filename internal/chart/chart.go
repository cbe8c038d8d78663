// Package chart renders a schedule as a terminal bar chart, one row per
// processor, one coloured segment per process.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ChuLiYu/pcmax-genetic/internal/genetic"
	"github.com/ChuLiYu/pcmax-genetic/internal/report"
	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

var (
	colorTeal   = lipgloss.Color("#20B9B4")
	colorOcean  = lipgloss.Color("#157483")
	colorAccent = lipgloss.Color("#F4D03F")
	colorMuted  = lipgloss.Color("#888888")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Bold(true)
	loadStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	peakStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorOcean).
			Padding(0, 1)

	segmentStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(colorTeal),
		lipgloss.NewStyle().Foreground(colorOcean),
	}
)

const block = "█"

// Render draws schedule with the longest bar width cells wide.
func Render(schedule types.Phenotype, width int) string {
	if width < 1 {
		width = 1
	}
	loads := genetic.Loads(schedule)
	makespan := genetic.Makespan(schedule)

	labels := make([]string, len(schedule))
	labelWidth := 0
	for i := range schedule {
		labels[i] = fmt.Sprintf("P%d", i)
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}

	rows := make([]string, 0, len(schedule)+1)
	rows = append(rows, titleStyle.Render(fmt.Sprintf("Schedule - makespan %s", report.Format(makespan))))
	for i, queue := range schedule {
		bar := renderBar(queue, makespan, width)
		pad := strings.Repeat(" ", width-lipgloss.Width(bar)+1)

		load := loadStyle.Render(report.Format(loads[i]))
		if makespan > 0 && loads[i] == makespan {
			load = peakStyle.Render(report.Format(loads[i]) + " *")
		}

		label := labelStyle.Width(labelWidth).Render(labels[i])
		rows = append(rows, label+" │"+bar+pad+load)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderBar scales each segment to the makespan. Every process gets at
// least one cell; the bar is clipped to width.
func renderBar(queue []float64, makespan float64, width int) string {
	if makespan <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	for i, d := range queue {
		cells := max(1, int(math.Round(d/makespan*float64(width))))
		cells = min(cells, width-used)
		if cells <= 0 {
			break
		}
		b.WriteString(segmentStyles[i%len(segmentStyles)].Render(strings.Repeat(block, cells)))
		used += cells
	}
	return b.String()
}
