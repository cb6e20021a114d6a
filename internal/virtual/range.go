package virtual

import "math"

const (
	OverscanDays = 7
	OverscanRows = 5

	// RowHeight is the fixed pixel height of every chart row.
	RowHeight = 40.0
)

type Viewport struct {
	ScrollLeft float64 `json:"scrollLeft"`
	ScrollTop  float64 `json:"scrollTop"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Range is an inclusive index range. End < Start means empty.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

var emptyRange = Range{Start: 0, End: -1}

func (r Range) Empty() bool { return r.End < r.Start }

func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

func (r Range) Contains(i int) bool { return !r.Empty() && i >= r.Start && i <= r.End }

// Overlaps reports whether [a, b] intersects r. a and b may come in either order.
func (r Range) Overlaps(a, b int) bool {
	if r.Empty() {
		return false
	}
	if a > b {
		a, b = b, a
	}
	return b >= r.Start && a <= r.End
}

type Ranges struct {
	Days Range `json:"days"`
	Rows Range `json:"rows"`
}

// DayRange returns the day-columns intersecting the viewport plus overscan,
// clamped to [0, totalDays].
func DayRange(vp Viewport, dayWidth float64, totalDays, overscan int) Range {
	if dayWidth <= 0 || totalDays < 0 {
		return emptyRange
	}
	start := int(math.Floor(vp.ScrollLeft/dayWidth)) - overscan
	end := int(math.Ceil((vp.ScrollLeft+vp.Width)/dayWidth)) + overscan
	return clamp(start, end, 0, totalDays)
}

// RowRange returns the rows intersecting the viewport plus overscan,
// clamped to [0, totalRows-1].
func RowRange(vp Viewport, rowHeight float64, totalRows, overscan int) Range {
	if rowHeight <= 0 || totalRows <= 0 {
		return emptyRange
	}
	start := int(math.Floor(vp.ScrollTop/rowHeight)) - overscan
	end := int(math.Ceil((vp.ScrollTop+vp.Height)/rowHeight)) + overscan
	return clamp(start, end, 0, totalRows-1)
}

func clamp(start, end, lo, hi int) Range {
	if start < lo {
		start = lo
	}
	if end > hi {
		end = hi
	}
	if end < start {
		return emptyRange
	}
	return Range{Start: start, End: end}
}
