package timeline

import (
	"testing"

	"site-planner/internal/model"
)

func dayPtr(s string) *model.Day { return model.MustDay(s).Ptr() }

func TestPixelXAndWidth_WeekZoom(t *testing.T) {
	m := New(Bounds{Start: model.MustDay("2023-12-01"), End: model.MustDay("2024-02-01")}, ZoomWeek)
	start := model.MustDay("2024-01-01")
	end := model.MustDay("2024-01-10")

	if got := m.PixelX(start); got != 930 {
		t.Fatalf("expected x=930; got %v", got)
	}
	if got := m.Width(start, end); got != 270 {
		t.Fatalf("expected width=270; got %v", got)
	}
}

func TestWidth_FloorForZeroAndNegativeSpans(t *testing.T) {
	m := New(Bounds{Start: model.MustDay("2024-01-01"), End: model.MustDay("2024-03-01")}, ZoomMonth)
	d := model.MustDay("2024-01-05")
	if got := m.Width(d, d); got != MinBarWidth {
		t.Fatalf("expected floor width for zero span; got %v", got)
	}
	if got := m.Width(d, d.AddDays(-3)); got != MinBarWidth {
		t.Fatalf("expected floor width for negative span; got %v", got)
	}
}

func TestPixelX_StrictlyMonotonic(t *testing.T) {
	for _, z := range []Zoom{ZoomDay, ZoomWeek, ZoomMonth} {
		m := New(Bounds{Start: model.MustDay("2024-01-01"), End: model.MustDay("2025-01-01")}, z)
		prev := m.PixelX(m.Bounds.Start.AddDays(-10))
		for i := -9; i < 400; i++ {
			x := m.PixelX(m.Bounds.Start.AddDays(i))
			if x <= prev {
				t.Fatalf("zoom=%s: pixelX not strictly increasing at offset %d (%v <= %v)", z, i, x, prev)
			}
			prev = x
		}
	}
}

func TestPixelX_AcrossDSTBoundary(t *testing.T) {
	m := New(Bounds{Start: model.MustDay("2024-03-01"), End: model.MustDay("2024-04-30")}, ZoomDay)
	// 2024-03-31 is a DST switch in much of Europe; calendar days must stay whole.
	if got := m.DayOffset(model.MustDay("2024-04-01")); got != 31 {
		t.Fatalf("expected offset 31; got %d", got)
	}
}

func TestComputeBounds_NoDatedTasks(t *testing.T) {
	today := model.MustDay("2024-06-15")
	tasks := []model.Task{
		{ID: "t1", Start: dayPtr("2024-01-01")},
		{ID: "t2", End: dayPtr("2024-01-10")},
		{ID: "t3"},
	}
	b := ComputeBounds(tasks, DefaultPadding, today)
	if !b.Start.Equal(today.AddDays(-30)) || !b.End.Equal(today.AddDays(60)) {
		t.Fatalf("expected [today-30, today+60]; got %s..%s", b.Start, b.End)
	}
}

func TestComputeBounds_PadsMinMax(t *testing.T) {
	tasks := []model.Task{
		{ID: "t1", Start: dayPtr("2024-02-10"), End: dayPtr("2024-02-20")},
		{ID: "t2", Start: dayPtr("2024-01-05"), End: dayPtr("2024-01-09")},
		{ID: "t3", Start: dayPtr("2023-01-01")}, // undated: ignored
	}
	b := ComputeBounds(tasks, Padding{Left: 3, Right: 5}, model.MustDay("2030-01-01"))
	if got := b.Start.String(); got != "2024-01-02" {
		t.Fatalf("expected start 2024-01-02; got %s", got)
	}
	if got := b.End.String(); got != "2024-02-25" {
		t.Fatalf("expected end 2024-02-25; got %s", got)
	}
}

func TestDateAtInvertsDayOffset(t *testing.T) {
	m := New(Bounds{Start: model.MustDay("2024-01-01"), End: model.MustDay("2024-12-31")}, ZoomWeek)
	for _, s := range []string{"2024-01-01", "2024-02-29", "2024-10-27", "2023-12-25"} {
		d := model.MustDay(s)
		if got := m.DateAt(m.DayOffset(d)); !got.Equal(d) {
			t.Fatalf("DateAt(DayOffset(%s)) = %s", s, got)
		}
	}
}

func TestZoomParseAndCycle(t *testing.T) {
	z, err := ParseZoom(" Month ")
	if err != nil || z != ZoomMonth {
		t.Fatalf("ParseZoom: %v %v", z, err)
	}
	if _, err := ParseZoom("year"); err == nil {
		t.Fatalf("expected error for unknown zoom")
	}
	if ZoomDay.Next() != ZoomWeek || ZoomWeek.Next() != ZoomMonth || ZoomMonth.Next() != ZoomDay {
		t.Fatalf("unexpected zoom cycle")
	}
	if DayWidth(ZoomDay) != 80 || DayWidth(ZoomWeek) != 30 || DayWidth(ZoomMonth) != 10 {
		t.Fatalf("unexpected day widths")
	}
}
