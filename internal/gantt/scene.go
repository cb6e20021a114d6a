// Package gantt builds the visible part of the chart: the rows and day-columns inside
// the virtualized ranges, with task bars placed on the timeline axis.
package gantt

import (
	"math"
	"time"

	"site-planner/internal/drag"
	"site-planner/internal/filter"
	"site-planner/internal/model"
	"site-planner/internal/timeline"
	"site-planner/internal/virtual"
)

// HandlePx is the width of the resize handle at each end of a bar.
const HandlePx = 3.0

type Bar struct {
	X        float64 `json:"x"`
	Width    float64 `json:"width"`
	StartDay int     `json:"startDay"`
	EndDay   int     `json:"endDay"`
	Progress int     `json:"progress"`

	// Planned is the baseline bar, when the task carries planned dates.
	Planned *Span `json:"planned,omitempty"`
}

type Span struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// Right is the bar's right edge.
func (b Bar) Right() float64 { return b.X + b.Width }

type VisibleRow struct {
	filter.Row
	Y float64 `json:"y"`

	Bar *Bar `json:"bar,omitempty"`
	// NoDate marks a task row without both dates; it renders as a warning.
	NoDate bool `json:"noDate,omitempty"`
	// Offscreen marks a dated task whose bar lies outside the visible day-columns.
	Offscreen bool `json:"offscreen,omitempty"`
}

type Column struct {
	Day        int       `json:"day"`
	Date       model.Day `json:"date"`
	X          float64   `json:"x"`
	Weekend    bool      `json:"weekend,omitempty"`
	MonthStart bool      `json:"monthStart,omitempty"`
}

// Scene is what one frame draws.
type Scene struct {
	Timeline  timeline.Model `json:"timeline"`
	Ranges    virtual.Ranges `json:"ranges"`
	RowHeight float64        `json:"rowHeight"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	TotalRows int            `json:"totalRows"`

	Rows    []VisibleRow `json:"rows"`
	Columns []Column     `json:"columns"`
}

// Build constructs only the rows in ranges.Rows and the columns in ranges.Days.
// rows must be the flat list from filter.Rows (Index equal to slice position).
func Build(tl timeline.Model, rows []filter.Row, ranges virtual.Ranges) Scene {
	sc := Scene{
		Timeline:  tl,
		Ranges:    ranges,
		RowHeight: virtual.RowHeight,
		Width:     tl.TotalWidth(),
		Height:    float64(len(rows)) * virtual.RowHeight,
		TotalRows: len(rows),
	}

	if !ranges.Rows.Empty() && ranges.Rows.Start < len(rows) {
		end := ranges.Rows.End
		if end >= len(rows) {
			end = len(rows) - 1
		}
		sc.Rows = make([]VisibleRow, 0, end-ranges.Rows.Start+1)
		for i := ranges.Rows.Start; i <= end; i++ {
			sc.Rows = append(sc.Rows, buildRow(tl, rows[i], ranges.Days))
		}
	}

	if !ranges.Days.Empty() {
		dw := tl.DayWidth()
		sc.Columns = make([]Column, 0, ranges.Days.Len())
		for d := ranges.Days.Start; d <= ranges.Days.End; d++ {
			date := tl.DateAt(d)
			wd := date.Weekday()
			sc.Columns = append(sc.Columns, Column{
				Day:        d,
				Date:       date,
				X:          float64(d) * dw,
				Weekend:    wd == time.Saturday || wd == time.Sunday,
				MonthStart: date.Time().Day() == 1,
			})
		}
	}
	return sc
}

func buildRow(tl timeline.Model, r filter.Row, days virtual.Range) VisibleRow {
	vr := VisibleRow{Row: r, Y: float64(r.Index) * virtual.RowHeight}
	if r.IsHeader() {
		return vr
	}
	t := r.Task
	if !t.HasDates() {
		vr.NoDate = true
		return vr
	}
	bar := placeBar(tl, *t.Start, *t.End)
	// Bounding-box test against the visible columns; the width floor may push the
	// drawn right edge past the end day.
	lastDay := tl.DayAtPixel(math.Nextafter(bar.Right(), math.Inf(-1)))
	if lastDay < bar.EndDay {
		lastDay = bar.EndDay
	}
	if !days.Overlaps(bar.StartDay, lastDay) {
		vr.Offscreen = true
		return vr
	}
	bar.Progress = t.Progress
	if t.PlannedStart.IsSet() && t.PlannedEnd.IsSet() {
		p := placeBar(tl, *t.PlannedStart, *t.PlannedEnd)
		bar.Planned = &Span{X: p.X, Width: p.Width}
	}
	vr.Bar = &bar
	return vr
}

func placeBar(tl timeline.Model, start, end model.Day) Bar {
	return Bar{
		X:        tl.PixelX(start),
		Width:    tl.Width(start, end),
		StartDay: tl.DayOffset(start),
		EndDay:   tl.DayOffset(end),
	}
}

// Row returns the visible row with index i.
func (s Scene) Row(i int) (VisibleRow, bool) {
	if len(s.Rows) == 0 {
		return VisibleRow{}, false
	}
	j := i - s.Rows[0].Index
	if j < 0 || j >= len(s.Rows) {
		return VisibleRow{}, false
	}
	return s.Rows[j], true
}

// Column returns the visible column for day offset d.
func (s Scene) Column(d int) (Column, bool) {
	if len(s.Columns) == 0 {
		return Column{}, false
	}
	j := d - s.Columns[0].Day
	if j < 0 || j >= len(s.Columns) {
		return Column{}, false
	}
	return s.Columns[j], true
}

// Hit is a pointer press on a task bar.
type Hit struct {
	Row  VisibleRow
	Mode drag.Mode
}

// HitTest finds the bar under content coordinates (x, y). Presses within handlePx of
// either end select a resize; the rest of the bar moves it. On narrow bars the handles
// never cover more than a third each, so the body stays grabbable.
func HitTest(s Scene, x, y, handlePx float64) (Hit, bool) {
	if y < 0 || s.RowHeight <= 0 {
		return Hit{}, false
	}
	row, ok := s.Row(int(math.Floor(y / s.RowHeight)))
	if !ok || row.Bar == nil {
		return Hit{}, false
	}
	b := row.Bar
	if x < b.X || x > b.Right() {
		return Hit{}, false
	}
	h := math.Min(handlePx, b.Width/3)
	switch {
	case x <= b.X+h:
		return Hit{Row: row, Mode: drag.ModeResizeLeft}, true
	case x >= b.Right()-h:
		return Hit{Row: row, Mode: drag.ModeResizeRight}, true
	default:
		return Hit{Row: row, Mode: drag.ModeMove}, true
	}
}
