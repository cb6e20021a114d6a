package drag

import (
	"errors"
	"math/rand"
	"testing"

	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/timeline"
)

func day(s string) *model.Day { return model.MustDay(s).Ptr() }

func schedule() model.State {
	return model.State{
		ActiveProjectID: model.AllProjects,
		Projects: []model.Project{
			{ID: "p1", Name: "North", Tasks: []model.Task{
				{ID: "t1", Position: "A-01", Process: "Formwork", Start: day("2024-01-01"), End: day("2024-01-10")},
			}},
			{ID: "p2", Name: "South", Tasks: []model.Task{
				{ID: "t2", Position: "A-01", Process: "Rebar", Start: day("2024-01-01"), End: day("2024-01-10")},
			}},
		},
	}
}

func weekAxis() timeline.Model {
	return timeline.New(timeline.Bounds{Start: model.MustDay("2023-12-01"), End: model.MustDay("2024-03-01")}, timeline.ZoomWeek)
}

// viewTask returns a task the way the aggregated view hands it out (tagged).
func viewTask(t *testing.T, s *store.Store, id string) model.Task {
	t.Helper()
	for _, task := range s.Aggregated().Tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not in view", id)
	return model.Task{}
}

func storedTask(t *testing.T, s *store.Store, projectID, id string) model.Task {
	t.Helper()
	p, ok := s.Project(projectID)
	if !ok {
		t.Fatalf("project %s missing", projectID)
	}
	i := p.FindTask(id)
	if i < 0 {
		t.Fatalf("task %s missing from %s", id, projectID)
	}
	return p.Tasks[i]
}

func moveTo(t *testing.T, c *Controller, x float64) {
	t.Helper()
	if err := c.Move(x); err != nil {
		t.Fatalf("Move: %v", err)
	}
	c.Frame()
}

func TestResizeRight_PastStartIsRejected(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	c := New(s, nil, nil)
	tl := weekAxis()

	if err := c.Begin(viewTask(t, s, "t1"), ModeResizeRight, 600, tl); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	moveTo(t, c, 600-15*tl.DayWidth())
	if _, ok := c.Active(); !ok {
		t.Fatalf("rejected resize must keep the session open")
	}
	res, err := c.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected nothing committed")
	}
	got := storedTask(t, s, "p1", "t1")
	if got.Start.String() != "2024-01-01" || got.End.String() != "2024-01-10" {
		t.Fatalf("dates changed: %s..%s", got.Start, got.End)
	}
	p1, _ := s.Project("p1")
	if len(p1.History) != 0 {
		t.Fatalf("expected no events; got %d", len(p1.History))
	}
}

func TestMove_CommitsOneEventOnOwnerOnly(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	c := New(s, nil, nil)
	tl := weekAxis()

	if err := c.Begin(viewTask(t, s, "t2"), ModeMove, 100, tl); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, x := range []float64{110, 130, 160, 190} {
		moveTo(t, c, x)
	}
	live := storedTask(t, s, "p2", "t2")
	if live.Start.String() != "2024-01-04" {
		t.Fatalf("expected live preview at +3 days; got %s", live.Start)
	}
	p2, _ := s.Project("p2")
	if len(p2.History) != 0 {
		t.Fatalf("previews must not journal")
	}

	res, err := c.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if !res.Changed || res.ProjectID != "p2" || res.Event.Type != model.EventDurationChanged {
		t.Fatalf("unexpected commit: %+v", res)
	}
	p2, _ = s.Project("p2")
	if len(p2.History) != 1 {
		t.Fatalf("expected exactly one event; got %d", len(p2.History))
	}
	got := storedTask(t, s, "p2", "t2")
	if got.Start.String() != "2024-01-04" || got.End.String() != "2024-01-13" {
		t.Fatalf("unexpected dates: %s..%s", got.Start, got.End)
	}
	untouched := storedTask(t, s, "p1", "t1")
	if untouched.Start.String() != "2024-01-01" {
		t.Fatalf("p1 task moved")
	}
	if _, ok := c.State().(Idle); !ok {
		t.Fatalf("expected idle after release")
	}
}

func TestMove_NoRoundingDrift(t *testing.T) {
	tl := weekAxis()

	single := store.New(schedule(), store.Options{})
	cs := New(single, nil, nil)
	if err := cs.Begin(viewTask(t, single, "t1"), ModeMove, 0, tl); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	moveTo(t, cs, 7*31)
	if _, err := cs.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	steps := store.New(schedule(), store.Options{})
	cm := New(steps, nil, nil)
	if err := cm.Begin(viewTask(t, steps, "t1"), ModeMove, 0, tl); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 1; i <= 31; i++ {
		moveTo(t, cm, float64(7*i))
	}
	if _, err := cm.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	a, b := storedTask(t, single, "p1", "t1"), storedTask(t, steps, "p1", "t1")
	if !a.Start.Equal(*b.Start) || !a.End.Equal(*b.End) {
		t.Fatalf("drift: single %s..%s, steps %s..%s", a.Start, a.End, b.Start, b.End)
	}
	// 217px at 30px/day rounds to 7 days.
	if a.Start.String() != "2024-01-08" {
		t.Fatalf("unexpected start %s", a.Start)
	}
}

func TestResize_NeverCollapses(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, mode := range []Mode{ModeResizeLeft, ModeResizeRight} {
		s := store.New(schedule(), store.Options{})
		c := New(s, nil, nil)
		if err := c.Begin(viewTask(t, s, "t1"), mode, 1000, weekAxis()); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		for i := 0; i < 200; i++ {
			moveTo(t, c, 1000+float64(rng.Intn(1200)-600))
			got := storedTask(t, s, "p1", "t1")
			if !got.Start.Before(*got.End) {
				t.Fatalf("%s: collapsed to %s..%s after step %d", mode, got.Start, got.End, i)
			}
			if mode == ModeResizeLeft && got.End.String() != "2024-01-10" {
				t.Fatalf("resize-left moved the end: %s", got.End)
			}
			if mode == ModeResizeRight && got.Start.String() != "2024-01-01" {
				t.Fatalf("resize-right moved the start: %s", got.Start)
			}
		}
		if _, err := c.End(); err != nil {
			t.Fatalf("End: %v", err)
		}
	}
}

func TestBegin_IsExclusive(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	c := New(s, nil, nil)
	tl := weekAxis()
	if err := c.Begin(viewTask(t, s, "t1"), ModeMove, 0, tl); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := c.Begin(viewTask(t, s, "t2"), ModeMove, 0, tl); !errors.Is(err, ErrDragInProgress) {
		t.Fatalf("expected ErrDragInProgress; got %v", err)
	}
	d, _ := c.Active()
	if d.Original.ID != "t1" {
		t.Fatalf("second gesture replaced the first")
	}
}

func TestBegin_RejectsUndated(t *testing.T) {
	c := New(store.New(schedule(), store.Options{}), nil, nil)
	err := c.Begin(model.Task{ID: "x", ProjectID: "p1"}, ModeMove, 0, weekAxis())
	if !errors.Is(err, ErrUndated) {
		t.Fatalf("expected ErrUndated; got %v", err)
	}
	if _, err := c.End(); !errors.Is(err, ErrNotDragging) {
		t.Fatalf("expected ErrNotDragging; got %v", err)
	}
}

func TestCancel_RestoresWithoutEvent(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	c := New(s, nil, nil)
	if err := c.Begin(viewTask(t, s, "t1"), ModeMove, 0, weekAxis()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	moveTo(t, c, 300)
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got := storedTask(t, s, "p1", "t1")
	if got.Start.String() != "2024-01-01" || got.End.String() != "2024-01-10" {
		t.Fatalf("cancel did not restore: %s..%s", got.Start, got.End)
	}
	p1, _ := s.Project("p1")
	if len(p1.History) != 0 {
		t.Fatalf("cancel must not journal")
	}
}

func TestEnd_AppliesPendingMove(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	frames := 0
	c := New(s, func() { frames++ }, nil)
	if err := c.Begin(viewTask(t, s, "t1"), ModeMove, 0, weekAxis()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_ = c.Move(30)
	_ = c.Move(60)
	if frames != 1 || !c.Pending() {
		t.Fatalf("expected one coalesced frame request; got %d", frames)
	}
	res, err := c.End()
	if err != nil || !res.Changed {
		t.Fatalf("End: %+v, %v", res, err)
	}
	if got := storedTask(t, s, "p1", "t1"); got.Start.String() != "2024-01-03" {
		t.Fatalf("expected pending +2 days applied; got %s", got.Start)
	}
}

func TestUntaggedTaskFallsBackToActiveProject(t *testing.T) {
	st := schedule()
	st.ActiveProjectID = "p1"
	s := store.New(st, store.Options{})
	c := New(s, nil, nil)

	p1, _ := s.Project("p1")
	if err := c.Begin(p1.Tasks[0], ModeMove, 0, weekAxis()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	moveTo(t, c, 30)
	res, err := c.End()
	if err != nil || res.ProjectID != "p1" || !res.Changed {
		t.Fatalf("unexpected: %+v, %v", res, err)
	}
}

func TestUnresolvedOwnerClosesSession(t *testing.T) {
	s := store.New(schedule(), store.Options{})
	c := New(s, nil, nil)
	untagged := storedTask(t, s, "p1", "t1")
	if err := c.Begin(untagged, ModeMove, 0, weekAxis()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	moveTo(t, c, 90)
	_, err := c.End()
	if !store.IsOwnership(err) {
		t.Fatalf("expected ownership error; got %v", err)
	}
	if _, ok := c.State().(Idle); !ok {
		t.Fatalf("session must close")
	}
	if got := storedTask(t, s, "p1", "t1"); got.Start.String() != "2024-01-01" {
		t.Fatalf("unresolved gesture wrote dates")
	}
}
