package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"site-planner/internal/filter"
	"site-planner/internal/gantt"
	"site-planner/internal/model"
	"site-planner/internal/virtual"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines.
func normalizePane(s string, width, height int) string {
	width, height = max(0, width), max(0, height)
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			if width <= 1 {
				ln = xansi.Truncate(ln, width, "")
			} else {
				ln = xansi.Truncate(ln, width, "…")
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading…"
	}
	if m.detail {
		body := normalizePane(m.detailVP.View(), m.width, m.height-footerH)
		return body + "\n" + m.statusLine()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) projectLabel() string {
	if m.st.IsAggregated() {
		return "All projects"
	}
	if p, ok := m.st.Project(m.st.ActiveProjectID()); ok {
		return p.Name
	}
	return ""
}

// renderHeader draws month names on the first line and day numbers on the second.
func (m Model) renderHeader() string {
	cols := m.chartCols()
	months := []rune(strings.Repeat(" ", cols))
	days := []rune(strings.Repeat(" ", cols))
	dw := m.tl.DayWidth()
	cellsPerDay := int(math.Round(dw / cellPx))
	prevDay := math.MinInt
	for c := 0; c < cols; c++ {
		d := int(math.Floor(m.contentX(c) / dw))
		if d == prevDay {
			continue
		}
		prevDay = d
		col, ok := m.scene.Column(d)
		if !ok {
			continue
		}
		t := col.Date.Time()
		if col.MonthStart || c == 0 {
			writeAt(months, c, t.Format("Jan 2006"))
		}
		switch {
		case cellsPerDay >= 3:
			writeAt(days, c, fmt.Sprintf("%02d", t.Day()))
		case t.Weekday() == time.Monday:
			writeAt(days, c, fmt.Sprintf("%d", t.Day()))
		}
	}
	label := styleHeader().Render(m.projectLabel())
	return normalizePane(label, labelW, 1) + styleHeader().Render(string(months)) + "\n" +
		normalizePane(styleMuted().Render(string(m.zoom)+" · "+string(m.group)), labelW, 1) + styleMuted().Render(string(days))
}

// writeAt copies s into dst at i when it fits entirely.
func writeAt(dst []rune, i int, s string) {
	r := []rune(s)
	if i+len(r) > len(dst) {
		return
	}
	copy(dst[i:], r)
}

func (m Model) renderBody() string {
	lines := make([]string, m.bodyLines())
	for line := range lines {
		i := int(math.Floor(m.contentY(line) / virtual.RowHeight))
		row, ok := m.scene.Row(i)
		if !ok {
			lines[line] = strings.Repeat(" ", m.width)
			continue
		}
		lines[line] = m.renderLabel(row) + m.renderChartRow(row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLabel(r gantt.VisibleRow) string {
	if r.IsHeader() {
		return normalizePane(styleHeader().Render(fmt.Sprintf("▾ %s (%d)", r.Group, r.Count)), labelW, 1)
	}
	t := r.Task
	text := " " + t.Process
	if t.Title != "" {
		text += " · " + t.Title
	}
	if t.ProjectName != "" {
		text += " [" + t.ProjectName + "]"
	}
	st := lipgloss.NewStyle()
	if r.Index == m.selected {
		st = styleSelected()
	}
	return st.Render(normalizePane(text, labelW-1, 1)) + " "
}

// cell kinds of a chart row.
const (
	cellEmpty = iota
	cellWeekend
	cellToday
	cellMonth
	cellDone
	cellRest
	cellPlanned
	cellWarn
)

func (m Model) renderChartRow(r gantt.VisibleRow) string {
	cols := m.chartCols()
	runes := make([]rune, cols)
	kinds := make([]int, cols)
	dw := m.tl.DayWidth()
	todayOffset := m.tl.DayOffset(m.today)

	for c := 0; c < cols; c++ {
		x := m.contentX(c)
		d := int(math.Floor(x / dw))
		runes[c], kinds[c] = ' ', cellEmpty
		if col, ok := m.scene.Column(d); ok {
			switch {
			case d == todayOffset:
				kinds[c] = cellToday
			case col.Weekend:
				kinds[c] = cellWeekend
			case col.MonthStart && x-col.X < cellPx:
				runes[c], kinds[c] = '┊', cellMonth
			}
		}
		if r.Bar == nil {
			continue
		}
		b := r.Bar
		switch {
		case x >= b.X && x < b.Right():
			if x < b.X+b.Width*float64(b.Progress)/100 {
				runes[c], kinds[c] = '█', cellDone
			} else {
				runes[c], kinds[c] = '▓', cellRest
			}
		case b.Planned != nil && x >= b.Planned.X && x < b.Planned.X+b.Planned.Width:
			runes[c], kinds[c] = '─', cellPlanned
		}
	}

	switch {
	case r.NoDate:
		markAt(runes, kinds, 1, "⚠ no date")
	case r.Offscreen && r.Task.HasDates():
		if m.tl.DayOffset(*r.Task.End) < m.scene.Ranges.Days.Start {
			markAt(runes, kinds, 0, "◂")
		} else {
			markAt(runes, kinds, cols-1, "▸")
		}
	}
	return m.paintCells(runes, kinds, r.Task.Status)
}

func markAt(runes []rune, kinds []int, i int, s string) {
	for j, r := range []rune(s) {
		if i+j < 0 || i+j >= len(runes) {
			return
		}
		runes[i+j], kinds[i+j] = r, cellWarn
	}
}

// paintCells renders runs of equal kind with one style each.
func (m Model) paintCells(runes []rune, kinds []int, status model.Status) string {
	styles := map[int]lipgloss.Style{
		cellEmpty:   lipgloss.NewStyle(),
		cellWeekend: lipgloss.NewStyle().Background(colorWeekendBg),
		cellToday:   lipgloss.NewStyle().Background(colorTodayBg),
		cellMonth:   styleMuted(),
		cellDone:    lipgloss.NewStyle().Foreground(statusColor(status)),
		cellRest:    lipgloss.NewStyle().Foreground(statusColor(status)).Faint(true),
		cellPlanned: lipgloss.NewStyle().Foreground(colorPlanned),
		cellWarn:    styleWarn(),
	}
	var b strings.Builder
	for start := 0; start < len(runes); {
		end := start
		for end < len(runes) && kinds[end] == kinds[start] {
			end++
		}
		b.WriteString(styles[kinds[start]].Render(string(runes[start:end])))
		start = end
	}
	return b.String()
}

func (m Model) statusLine() string {
	parts := []string{m.projectLabel(), fmt.Sprintf("%d rows", len(m.rows))}
	if m.searching || m.search.Value() != "" {
		parts = append(parts, m.search.View())
	}
	var inds []string
	for _, ind := range filter.Indicators {
		if m.criteria.Indicators[ind] {
			inds = append(inds, string(ind))
		}
	}
	if len(inds) > 0 {
		parts = append(parts, "has: "+strings.Join(inds, ","))
	}
	if d, ok := m.drag.Active(); ok {
		parts = append(parts, fmt.Sprintf("%s %+dd → %s..%s", d.Mode, d.DeltaDays, d.Start, d.End))
	}
	if m.saver.Pending() {
		parts = append(parts, "unsaved")
	}
	if m.flash != "" {
		parts = append(parts, m.flash)
	} else if m.activity.count > 0 {
		parts = append(parts, "last: "+m.activity.last.Name)
	}
	return normalizePane(styleStatusBar().Render(strings.Join(parts, " │ ")), m.width, 1)
}
