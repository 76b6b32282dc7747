package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/report"
)

const (
	barWidth   = 40
	ganttWidth = 60
)

// RenderSeries draws a horizontal bar chart, one bar per point in series
// order.
func RenderSeries(title string, w domain.DateWindow, series report.Series) string {
	var b strings.Builder
	b.WriteString(Header(title))
	b.WriteString("\n")
	b.WriteString(Dim(FormatWindow(w)))
	b.WriteString("\n\n")
	if len(series) == 0 {
		b.WriteString(Dim("no data"))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth, top := 0, 0.0
	for _, p := range series {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
		top = max(top, p.Value)
	}
	for i, p := range series {
		style := barPalette[i%len(barPalette)]
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(p.Label))
		fmt.Fprintf(&b, "%s%s  %s %s\n", p.Label, pad, style.Render(RenderBar(p.Value, top, barWidth)), FormatNumber(p.Value))
	}
	return b.String()
}

// RenderGantt draws one row per interval on a shared day axis. The axis spans
// the window, or the intervals when a bound is open. Long spans are scaled
// so the chart stays ganttWidth cells wide.
func RenderGantt(title string, w domain.DateWindow, intervals []gantt.Interval) string {
	var b strings.Builder
	b.WriteString(Header(title))
	b.WriteString("\n")
	b.WriteString(Dim(FormatWindow(w)))
	b.WriteString("\n\n")
	if len(intervals) == 0 {
		b.WriteString(Dim("no intervals"))
		b.WriteString("\n")
		return b.String()
	}

	lo, hi := intervals[0].Start, intervals[0].End
	for _, iv := range intervals {
		if iv.Start.Before(lo) {
			lo = iv.Start
		}
		if iv.End.After(hi) {
			hi = iv.End
		}
	}
	if w.From != nil {
		lo = domain.Day(*w.From)
	}
	if w.To != nil {
		hi = domain.Day(*w.To)
	}
	days := int(hi.Sub(lo).Hours()/24) + 1
	perCell := (days + ganttWidth - 1) / ganttWidth
	cells := (days + perCell - 1) / perCell

	labelWidth := 0
	for _, iv := range intervals {
		labelWidth = max(labelWidth, lipgloss.Width(iv.TaskName))
	}

	axis := fmt.Sprintf("%s %*s", lo.Format(domain.DateLayout),
		max(cells-2*len(domain.DateLayout)-1, 0)+len(domain.DateLayout), hi.Format(domain.DateLayout))
	fmt.Fprintf(&b, "%s  %s\n", strings.Repeat(" ", labelWidth), Dim(axis))

	for _, iv := range intervals {
		from := int(iv.Start.Sub(lo).Hours()/24) / perCell
		to := int(iv.End.Sub(lo).Hours()/24) / perCell
		block, style := filledBlock, StyleBlue
		if iv.PeriodType == domain.PeriodTest {
			block, style = "▒", StyleYellow
		}
		row := strings.Repeat(" ", from) + style.Render(strings.Repeat(block, to-from+1)) + strings.Repeat(" ", max(cells-to-1, 0))
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(iv.TaskName))
		fmt.Fprintf(&b, "%s%s  %s %s\n", iv.TaskName, pad, row,
			Dim(fmt.Sprintf("%s..%s (%dd)", iv.Start.Format(domain.DateLayout), iv.End.Format(domain.DateLayout), iv.Days())))
	}
	return b.String()
}

// RenderScorecard prints the ranked scorecard table.
func RenderScorecard(w domain.DateWindow, rows []report.ScoreRow) string {
	var b strings.Builder
	b.WriteString(Header("Scorecard"))
	b.WriteString("\n")
	b.WriteString(Dim(FormatWindow(w)))
	b.WriteString("\n\n")
	if len(rows) == 0 {
		b.WriteString(Dim("no data"))
		b.WriteString("\n")
		return b.String()
	}
	table := make([][]string, 0, len(rows))
	for i, r := range rows {
		table = append(table, []string{
			fmt.Sprintf("%d", i+1),
			r.Label,
			fmt.Sprintf("%d", r.Tasks),
			FormatNumber(r.LOC),
			FormatNumber(r.SPSum),
			FormatFixed(r.SPAvg),
			StyleGreen.Render(FormatFixed(r.Aggregate)),
		})
	}
	b.WriteString(RenderTable([]string{"#", "USER", "TASKS", "LOC", "SP", "SP AVG", "SCORE"}, table))
	return b.String()
}
