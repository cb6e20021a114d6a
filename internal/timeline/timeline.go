// Package timeline maps calendar days onto the chart's horizontal pixel axis.
//
// Everything here is pure: callers re-derive a Model whenever the task set or the
// zoom level changes.
package timeline

import (
	"fmt"
	"math"
	"strings"

	"site-planner/internal/model"
)

type Zoom string

const (
	ZoomDay   Zoom = "day"
	ZoomWeek  Zoom = "week"
	ZoomMonth Zoom = "month"
)

var zooms = []Zoom{ZoomDay, ZoomWeek, ZoomMonth}

func ParseZoom(s string) (Zoom, error) {
	v := Zoom(strings.ToLower(strings.TrimSpace(s)))
	for _, z := range zooms {
		if z == v {
			return z, nil
		}
	}
	return "", fmt.Errorf("invalid zoom: %q (want day|week|month)", s)
}

// Next cycles day -> week -> month -> day.
func (z Zoom) Next() Zoom {
	for i, v := range zooms {
		if v == z {
			return zooms[(i+1)%len(zooms)]
		}
	}
	return ZoomWeek
}

// MinBarWidth keeps zero and negative duration bars clickable.
const MinBarWidth = 20.0

// DayWidth returns the pixel width of one day at zoom.
func DayWidth(z Zoom) float64 {
	switch z {
	case ZoomDay:
		return 80
	case ZoomMonth:
		return 10
	default:
		return 30
	}
}

// Padding is the number of days added before the earliest start and after the latest end.
type Padding struct {
	Left  int `json:"left" mapstructure:"left"`
	Right int `json:"right" mapstructure:"right"`
}

var DefaultPadding = Padding{Left: 7, Right: 14}

type Bounds struct {
	Start model.Day `json:"start"`
	End   model.Day `json:"end"`
}

// Days returns the number of days from Start to End.
func (b Bounds) Days() int { return model.DaysBetween(b.Start, b.End) }

// ComputeBounds spans every task that has both dates, widened by padding.
// Without dated tasks the window is [today-30d, today+60d].
func ComputeBounds(tasks []model.Task, pad Padding, today model.Day) Bounds {
	var (
		minStart, maxEnd model.Day
		found            bool
	)
	for _, t := range tasks {
		if !t.HasDates() {
			continue
		}
		if !found || t.Start.Before(minStart) {
			minStart = *t.Start
		}
		if !found || t.End.After(maxEnd) {
			maxEnd = *t.End
		}
		found = true
	}
	if !found {
		return Bounds{Start: today.AddDays(-30), End: today.AddDays(60)}
	}
	return Bounds{Start: minStart.AddDays(-pad.Left), End: maxEnd.AddDays(pad.Right)}
}

// Model is the coordinate space for one chart render.
type Model struct {
	Bounds Bounds
	Zoom   Zoom
}

func New(b Bounds, z Zoom) Model { return Model{Bounds: b, Zoom: z} }

func (m Model) DayWidth() float64 { return DayWidth(m.Zoom) }

// TotalDays is the index of the last day-column (columns run 0..TotalDays inclusive).
func (m Model) TotalDays() int {
	n := m.Bounds.Days()
	if n < 0 {
		return 0
	}
	return n
}

func (m Model) TotalWidth() float64 { return float64(m.TotalDays()+1) * m.DayWidth() }

// DayOffset is the signed day index of d relative to the timeline start.
func (m Model) DayOffset(d model.Day) int { return model.DaysBetween(m.Bounds.Start, d) }

// DateAt is the inverse of DayOffset.
func (m Model) DateAt(offset int) model.Day { return m.Bounds.Start.AddDays(offset) }

// PixelX returns the left edge of d.
func (m Model) PixelX(d model.Day) float64 { return float64(m.DayOffset(d)) * m.DayWidth() }

// Width returns the bar width for [start, end], never below MinBarWidth.
func (m Model) Width(start, end model.Day) float64 {
	return math.Max(float64(model.DaysBetween(start, end))*m.DayWidth(), MinBarWidth)
}

// DayAtPixel returns the day-column under pixel x.
func (m Model) DayAtPixel(x float64) int { return int(math.Floor(x / m.DayWidth())) }
