// Package drag turns pointer gestures on task bars into date changes.
//
// A gesture is a small state machine: Idle until a bar is pressed, Dragging until the
// pointer is released or the gesture is cancelled. Intermediate positions are applied as
// previews; only the release commits (and journals) the result.
package drag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/timeline"
	"site-planner/internal/virtual"
)

type Mode string

const (
	ModeMove        Mode = "move"
	ModeResizeLeft  Mode = "resize-left"
	ModeResizeRight Mode = "resize-right"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMove:
		return ModeMove, nil
	case ModeResizeLeft, "left":
		return ModeResizeLeft, nil
	case ModeResizeRight, "right":
		return ModeResizeRight, nil
	default:
		return "", fmt.Errorf("invalid drag mode: %q (want move|resize-left|resize-right)", s)
	}
}

var (
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrUndated        = errors.New("task has no dates")
)

// State is either Idle or Dragging.
type State interface{ isState() }

type Idle struct{}

// Dragging is the single in-flight gesture.
type Dragging struct {
	Mode Mode

	// Original is the task as it was when the gesture began, provenance tag included.
	Original model.Task
	// Owner is the project the gesture writes to; empty when it could not be resolved.
	Owner string

	// Timeline is the axis captured at gesture start. Offsets are relative to it, so
	// later bound changes cannot shift the gesture.
	Timeline    timeline.Model
	AnchorX     float64
	StartOffset int
	EndOffset   int

	// DeltaDays is the last accepted delta; Start/End are the dates it produced.
	DeltaDays int
	Start     model.Day
	End       model.Day
}

func (Idle) isState()     {}
func (Dragging) isState() {}

// Target is the schedule the controller writes to.
type Target interface {
	PreviewTaskDates(ref store.TaskRef, start, end *model.Day) error
	SetTaskDates(ref store.TaskRef, start, end *model.Day) (store.Result, error)
	ConcreteActiveProjectID() string
}

type Controller struct {
	target   Target
	log      *slog.Logger
	state    State
	throttle *virtual.Throttle[float64]
}

// New returns an idle controller. requestFrame is called when a pointer move needs a
// frame to be handled (nil when the caller drives Frame on its own clock).
func New(target Target, requestFrame func(), logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Controller{target: target, log: logger, state: Idle{}}
	c.throttle = virtual.NewThrottle(requestFrame, c.apply)
	return c
}

func (c *Controller) State() State { return c.state }

// Active returns the in-flight gesture, if any.
func (c *Controller) Active() (Dragging, bool) {
	d, ok := c.state.(Dragging)
	return d, ok
}

func (c *Controller) ref(d Dragging) store.TaskRef {
	return store.TaskRef{ProjectID: d.Owner, Position: d.Original.Position, TaskID: d.Original.ID}
}

// Begin starts a gesture on t with the pointer at x.
func (c *Controller) Begin(t model.Task, mode Mode, x float64, tl timeline.Model) error {
	if _, busy := c.state.(Dragging); busy {
		return ErrDragInProgress
	}
	if !t.HasDates() {
		return ErrUndated
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	owner := t.ProjectID
	if owner == "" {
		// Legacy records without a tag belong to the project being viewed.
		owner = c.target.ConcreteActiveProjectID()
	}
	snap := t.Clone()
	c.state = Dragging{
		Mode:        mode,
		Original:    snap,
		Owner:       owner,
		Timeline:    tl,
		AnchorX:     x,
		StartOffset: tl.DayOffset(*snap.Start),
		EndOffset:   tl.DayOffset(*snap.End),
		Start:       *snap.Start,
		End:         *snap.End,
	}
	c.log.Debug("drag begin", "task", snap.ID, "mode", mode, "owner", owner)
	return nil
}

// Move records the pointer position. It is handled on the next Frame; moves arriving in
// between replace each other.
func (c *Controller) Move(x float64) error {
	if _, ok := c.state.(Dragging); !ok {
		return ErrNotDragging
	}
	c.throttle.Call(x)
	return nil
}

// Frame handles the latest pending move. It reports whether anything was handled.
func (c *Controller) Frame() bool { return c.throttle.Frame() }

// Pending reports whether a move is waiting for a frame.
func (c *Controller) Pending() bool { return c.throttle.Pending() }

// DeltaDays converts a pointer displacement into whole days, rounding half up.
func DeltaDays(dx, dayWidth float64) int {
	if dayWidth <= 0 {
		return 0
	}
	return int(math.Floor(dx/dayWidth + 0.5))
}

// Candidate returns the offsets a delta would produce and whether they are acceptable.
// Resizes never collapse a bar onto or past its opposite edge.
func (d Dragging) Candidate(delta int) (start, end int, ok bool) {
	start, end = d.StartOffset, d.EndOffset
	switch d.Mode {
	case ModeMove:
		return start + delta, end + delta, true
	case ModeResizeLeft:
		start += delta
		return start, end, start < end
	case ModeResizeRight:
		end += delta
		return start, end, end > start
	}
	return start, end, false
}

func (c *Controller) apply(x float64) {
	d, ok := c.state.(Dragging)
	if !ok {
		return
	}
	delta := DeltaDays(x-d.AnchorX, d.Timeline.DayWidth())
	if delta == d.DeltaDays {
		return
	}
	so, eo, ok := d.Candidate(delta)
	if !ok {
		return
	}
	start, end := d.Timeline.DateAt(so), d.Timeline.DateAt(eo)
	if d.Owner != "" {
		if err := c.target.PreviewTaskDates(c.ref(d), start.Ptr(), end.Ptr()); err != nil {
			c.log.Warn("drag preview failed", "task", d.Original.ID, "owner", d.Owner, "err", err)
			return
		}
	}
	d.DeltaDays, d.Start, d.End = delta, start, end
	c.state = d
}

// End finishes the gesture: any pending move is applied, the task is restored to its
// original dates and the final range is committed once, producing a single duration
// change. The controller is Idle afterwards whatever happens.
func (c *Controller) End() (store.Result, error) {
	d, ok := c.state.(Dragging)
	if !ok {
		return store.Result{}, ErrNotDragging
	}
	c.throttle.Frame()
	d = c.state.(Dragging)
	c.state = Idle{}
	c.throttle.Cancel()

	if d.Owner == "" {
		c.log.Warn("drag released without an owning project; nothing recorded", "task", d.Original.ID)
		return store.Result{}, &store.OwnershipError{Position: d.Original.Position, EntityID: d.Original.ID}
	}
	ref := c.ref(d)
	if d.DeltaDays != 0 {
		if err := c.target.PreviewTaskDates(ref, d.Original.Start, d.Original.End); err != nil {
			c.log.Warn("drag restore failed", "task", d.Original.ID, "err", err)
			return store.Result{ProjectID: d.Owner}, err
		}
	}
	res, err := c.target.SetTaskDates(ref, d.Start.Ptr(), d.End.Ptr())
	if err != nil {
		c.log.Warn("drag commit failed", "task", d.Original.ID, "owner", d.Owner, "err", err)
		return res, err
	}
	c.log.Debug("drag end", "task", d.Original.ID, "delta_days", d.DeltaDays, "changed", res.Changed)
	return res, nil
}

// Cancel abandons the gesture and puts the original dates back without journaling.
func (c *Controller) Cancel() error {
	d, ok := c.state.(Dragging)
	if !ok {
		return ErrNotDragging
	}
	c.state = Idle{}
	c.throttle.Cancel()
	if d.Owner == "" || d.DeltaDays == 0 {
		return nil
	}
	return c.target.PreviewTaskDates(c.ref(d), d.Original.Start, d.Original.End)
}
