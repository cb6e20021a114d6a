// Package virtual computes which rows and day-columns of the chart intersect the
// viewport, so rendering work stays proportional to what is visible.
package virtual

import "math"

// Content describes the scrollable area.
type Content struct {
	DayWidth  float64
	TotalDays int // last day-column index
	TotalRows int
	RowHeight float64
}

func (c Content) Width() float64 { return float64(c.TotalDays+1) * c.DayWidth }

func (c Content) Height() float64 { return float64(c.TotalRows) * c.rowHeight() }

func (c Content) rowHeight() float64 {
	if c.RowHeight <= 0 {
		return RowHeight
	}
	return c.RowHeight
}

type Options struct {
	OverscanDays int
	OverscanRows int

	// RequestFrame is called when a scroll or resize needs a frame. Nil means the
	// owner polls Pending and calls Frame itself.
	RequestFrame func()

	// OnChange runs after each frame recomputation.
	OnChange func(Ranges)
}

// Virtualizer tracks the viewport and the visible ranges derived from it.
type Virtualizer struct {
	opts    Options
	content Content

	viewport Viewport
	next     Viewport // accumulated, not yet applied
	ranges   Ranges

	throttle *Throttle[Viewport]
}

func New(content Content, vp Viewport, opts Options) *Virtualizer {
	if opts.OverscanDays < 0 {
		opts.OverscanDays = 0
	}
	if opts.OverscanRows < 0 {
		opts.OverscanRows = 0
	}
	v := &Virtualizer{opts: opts, content: content}
	v.throttle = NewThrottle(opts.RequestFrame, v.apply)
	v.viewport = v.clampViewport(vp)
	v.next = v.viewport
	v.ranges = v.compute(v.viewport)
	return v
}

// NewDefault uses the package overscan constants.
func NewDefault(content Content, vp Viewport, requestFrame func()) *Virtualizer {
	return New(content, vp, Options{OverscanDays: OverscanDays, OverscanRows: OverscanRows, RequestFrame: requestFrame})
}

func (v *Virtualizer) Viewport() Viewport { return v.viewport }
func (v *Virtualizer) Ranges() Ranges { return v.ranges }
func (v *Virtualizer) Content() Content { return v.content }
func (v *Virtualizer) Pending() bool { return v.throttle.Pending() }

// OnScroll queues a scroll position; applied on the next frame.
func (v *Virtualizer) OnScroll(scrollLeft, scrollTop float64) bool {
	v.next.ScrollLeft = scrollLeft
	v.next.ScrollTop = scrollTop
	return v.throttle.Call(v.next)
}

// ScrollTo queues an absolute jump (for example to today); it coalesces like a scroll.
func (v *Virtualizer) ScrollTo(scrollLeft, scrollTop float64) bool {
	return v.OnScroll(scrollLeft, scrollTop)
}

// ScrollBy queues a relative scroll from the most recent queued position.
func (v *Virtualizer) ScrollBy(dx, dy float64) bool {
	return v.OnScroll(v.next.ScrollLeft+dx, v.next.ScrollTop+dy)
}

// OnResize queues a viewport size change; applied on the next frame.
func (v *Virtualizer) OnResize(width, height float64) bool {
	v.next.Width = width
	v.next.Height = height
	return v.throttle.Call(v.next)
}

// Frame applies the latest queued viewport. It reports whether anything ran.
func (v *Virtualizer) Frame() bool { return v.throttle.Frame() }

// SetContent swaps the content size (zoom, filter or data changes) and recomputes
// immediately; content changes are not scroll events.
func (v *Virtualizer) SetContent(c Content) {
	v.content = c
	v.viewport = v.clampViewport(v.viewport)
	v.next.ScrollLeft = v.viewport.ScrollLeft
	v.next.ScrollTop = v.viewport.ScrollTop
	v.ranges = v.compute(v.viewport)
	if v.opts.OnChange != nil {
		v.opts.OnChange(v.ranges)
	}
}

func (v *Virtualizer) apply(vp Viewport) {
	v.viewport = v.clampViewport(vp)
	v.next = v.viewport
	v.ranges = v.compute(v.viewport)
	if v.opts.OnChange != nil {
		v.opts.OnChange(v.ranges)
	}
}

func (v *Virtualizer) compute(vp Viewport) Ranges {
	return Ranges{
		Days: DayRange(vp, v.content.DayWidth, v.content.TotalDays, v.opts.OverscanDays),
		Rows: RowRange(vp, v.content.rowHeight(), v.content.TotalRows, v.opts.OverscanRows),
	}
}

func (v *Virtualizer) clampViewport(vp Viewport) Viewport {
	if vp.Width < 0 {
		vp.Width = 0
	}
	if vp.Height < 0 {
		vp.Height = 0
	}
	maxLeft := math.Max(0, v.content.Width()-vp.Width)
	maxTop := math.Max(0, v.content.Height()-vp.Height)
	vp.ScrollLeft = math.Min(math.Max(0, vp.ScrollLeft), maxLeft)
	vp.ScrollTop = math.Min(math.Max(0, vp.ScrollTop), maxTop)
	return vp
}
