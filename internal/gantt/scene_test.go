package gantt

import (
	"fmt"
	"testing"

	"site-planner/internal/drag"
	"site-planner/internal/filter"
	"site-planner/internal/model"
	"site-planner/internal/timeline"
	"site-planner/internal/virtual"
)

func day(s string) *model.Day { return model.MustDay(s).Ptr() }

func axis(z timeline.Zoom) timeline.Model {
	return timeline.New(timeline.Bounds{Start: model.MustDay("2023-12-01"), End: model.MustDay("2024-06-30")}, z)
}

func manyRows(n int) []filter.Row {
	tasks := make([]model.Task, 0, n)
	for i := 0; i < n; i++ {
		start := model.MustDay("2024-01-01").AddDays(i % 90)
		tasks = append(tasks, model.Task{
			ID:       fmt.Sprintf("t%03d", i),
			Position: "A-01",
			Process:  "Works",
			Start:    start.Ptr(),
			End:      start.AddDays(5).Ptr(),
		})
	}
	return filter.Rows(tasks, nil, filter.AllProcesses(tasks), filter.GroupByPosition)
}

func TestBuild_PlacesBarOnAxis(t *testing.T) {
	tl := axis(timeline.ZoomWeek)
	rows := []filter.Row{
		{Index: 0, Kind: filter.RowHeader, Group: "A-01", Count: 1},
		{Index: 1, Kind: filter.RowTask, Group: "A-01", Task: model.Task{ID: "t1", Start: day("2024-01-01"), End: day("2024-01-10"), Progress: 40}},
	}
	ranges := virtual.Ranges{Days: virtual.Range{Start: 0, End: tl.TotalDays()}, Rows: virtual.Range{Start: 0, End: 1}}
	sc := Build(tl, rows, ranges)

	if len(sc.Rows) != 2 {
		t.Fatalf("expected 2 rows; got %d", len(sc.Rows))
	}
	bar := sc.Rows[1].Bar
	if bar == nil {
		t.Fatalf("expected a bar")
	}
	if bar.X != 930 || bar.Width != 270 {
		t.Fatalf("expected x=930 width=270; got x=%v width=%v", bar.X, bar.Width)
	}
	if bar.StartDay != 31 || bar.EndDay != 40 || bar.Progress != 40 {
		t.Fatalf("unexpected bar: %+v", bar)
	}
	if sc.Rows[1].Y != virtual.RowHeight {
		t.Fatalf("unexpected y %v", sc.Rows[1].Y)
	}
}

func TestBuild_OnlyVisibleRowsAndColumns(t *testing.T) {
	tl := axis(timeline.ZoomDay)
	rows := manyRows(500)
	vp := virtual.Viewport{ScrollLeft: 2400, ScrollTop: 4000, Width: 800, Height: 400}
	ranges := virtual.Ranges{
		Days: virtual.DayRange(vp, tl.DayWidth(), tl.TotalDays(), virtual.OverscanDays),
		Rows: virtual.RowRange(vp, virtual.RowHeight, len(rows), virtual.OverscanRows),
	}
	sc := Build(tl, rows, ranges)

	if len(sc.Rows) != ranges.Rows.Len() {
		t.Fatalf("expected %d rows; got %d", ranges.Rows.Len(), len(sc.Rows))
	}
	for _, r := range sc.Rows {
		if !ranges.Rows.Contains(r.Index) {
			t.Fatalf("row %d outside %+v", r.Index, ranges.Rows)
		}
		if r.Bar != nil && !ranges.Days.Overlaps(r.Bar.StartDay, r.Bar.EndDay) {
			t.Fatalf("bar %+v outside %+v", r.Bar, ranges.Days)
		}
	}
	if len(sc.Columns) != ranges.Days.Len() {
		t.Fatalf("expected %d columns; got %d", ranges.Days.Len(), len(sc.Columns))
	}
	for _, c := range sc.Columns {
		if !ranges.Days.Contains(c.Day) {
			t.Fatalf("column %d outside %+v", c.Day, ranges.Days)
		}
	}
}

func TestBuild_SkipsOffscreenBarAndFlagsUndated(t *testing.T) {
	tl := axis(timeline.ZoomDay)
	rows := []filter.Row{
		{Index: 0, Kind: filter.RowTask, Task: model.Task{ID: "far", Start: day("2024-05-01"), End: day("2024-05-03")}},
		{Index: 1, Kind: filter.RowTask, Task: model.Task{ID: "nodate", Start: day("2024-01-01")}},
	}
	ranges := virtual.Ranges{Days: virtual.Range{Start: 0, End: 20}, Rows: virtual.Range{Start: 0, End: 1}}
	sc := Build(tl, rows, ranges)

	if sc.Rows[0].Bar != nil || !sc.Rows[0].Offscreen {
		t.Fatalf("expected offscreen row without bar; got %+v", sc.Rows[0])
	}
	if !sc.Rows[1].NoDate || sc.Rows[1].Bar != nil {
		t.Fatalf("expected no-date row; got %+v", sc.Rows[1])
	}
}

func TestBuild_WidthFloorCountsForOverlap(t *testing.T) {
	tl := axis(timeline.ZoomMonth) // 10px per day, 20px floor spans two columns
	rows := []filter.Row{{Index: 0, Kind: filter.RowTask, Task: model.Task{ID: "z", Start: day("2023-12-05"), End: day("2023-12-05")}}}
	ranges := virtual.Ranges{Days: virtual.Range{Start: 5, End: 10}, Rows: virtual.Range{Start: 0, End: 0}}
	sc := Build(tl, rows, ranges)
	if sc.Rows[0].Bar == nil {
		t.Fatalf("zero-length bar starting at day 4 reaches into day 5 and must be built")
	}
	if sc.Rows[0].Bar.Width != timeline.MinBarWidth {
		t.Fatalf("expected floor width; got %v", sc.Rows[0].Bar.Width)
	}
}

func TestBuild_Columns(t *testing.T) {
	tl := axis(timeline.ZoomWeek)
	sc := Build(tl, nil, virtual.Ranges{Days: virtual.Range{Start: 0, End: 3}, Rows: virtual.Range{Start: 0, End: -1}})
	if len(sc.Rows) != 0 || len(sc.Columns) != 4 {
		t.Fatalf("unexpected scene: %d rows %d columns", len(sc.Rows), len(sc.Columns))
	}
	// 2023-12-01 is a Friday.
	if !sc.Columns[0].MonthStart || sc.Columns[0].Weekend {
		t.Fatalf("unexpected first column: %+v", sc.Columns[0])
	}
	if !sc.Columns[1].Weekend || !sc.Columns[2].Weekend || sc.Columns[3].Weekend {
		t.Fatalf("expected Sat/Sun weekend flags: %+v", sc.Columns)
	}
	if sc.Columns[3].X != 90 {
		t.Fatalf("unexpected x %v", sc.Columns[3].X)
	}
}

func TestHitTest_Modes(t *testing.T) {
	tl := axis(timeline.ZoomWeek)
	rows := []filter.Row{{Index: 0, Kind: filter.RowTask, Task: model.Task{ID: "t1", Start: day("2024-01-01"), End: day("2024-01-10")}}}
	sc := Build(tl, rows, virtual.Ranges{Days: virtual.Range{Start: 0, End: tl.TotalDays()}, Rows: virtual.Range{Start: 0, End: 0}})
	y := virtual.RowHeight / 2

	cases := []struct {
		x    float64
		want drag.Mode
		ok   bool
	}{
		{929, "", false},
		{931, drag.ModeResizeLeft, true},
		{1050, drag.ModeMove, true},
		{1199, drag.ModeResizeRight, true},
		{1201, "", false},
	}
	for _, tc := range cases {
		hit, ok := HitTest(sc, tc.x, y, HandlePx)
		if ok != tc.ok || hit.Mode != tc.want {
			t.Fatalf("x=%v: got (%q, %v) want (%q, %v)", tc.x, hit.Mode, ok, tc.want, tc.ok)
		}
	}
	if hit, _ := HitTest(sc, 1050, y, HandlePx); hit.Row.Task.ID != "t1" {
		t.Fatalf("unexpected hit row: %+v", hit.Row)
	}
	if _, ok := HitTest(sc, 1050, 3*virtual.RowHeight, HandlePx); ok {
		t.Fatalf("expected miss below the rows")
	}
}
