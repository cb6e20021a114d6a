package tui

import (
	"strings"
	"testing"

	"site-planner/internal/bus"
	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
)

func day(s string) *model.Day {
	d := model.MustDay(s)
	return &d
}

func newTestModel(t *testing.T) (Model, *store.Store) {
	t.Helper()
	st := model.State{
		Projects: []model.Project{{
			ID:   "p1",
			Name: "Tower A",
			Tasks: []model.Task{
				{ID: "t1", Position: "A-01", Process: "Formwork", Start: day("2024-01-08"), End: day("2024-01-18"), Status: model.StatusInProgress},
				{ID: "t2", Position: "A-02", Process: "Rebar"},
			},
			SubtasksByPosition: map[string][]model.Subtask{
				"A-01": {{ID: "s1", Title: "Check anchors"}},
			},
		}},
		ActiveProjectID: "p1",
	}
	s := store.New(st, store.Options{Bus: bus.New()})
	m := New(Options{Store: s, Zoom: timeline.ZoomWeek, Padding: timeline.DefaultPadding, Today: model.MustDay("2024-01-10")})
	t.Cleanup(m.Close)
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 20})
	m = update(m, frameMsg{})
	return m, s
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(x, y int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func task(t *testing.T, s *store.Store, id string) model.Task {
	t.Helper()
	got, err := s.Task(store.TaskRef{ProjectID: "p1", TaskID: id})
	if err != nil {
		t.Fatalf("Task(%s): %v", id, err)
	}
	return got
}

func history(s *store.Store) []model.Event {
	p, _ := s.Project("p1")
	return p.History
}

func TestView_RendersRowsAndNoDateWarning(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"Tower A", "Formwork", "Rebar", "no date", "A-01 (1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if got := len(strings.Split(out, "\n")); got != 20 {
		t.Fatalf("expected 20 lines, got %d", got)
	}
}

// The bar of t1 starts 7 days into the timeline: 210px, column 21 at 10px per cell.
func TestMouseDrag_MovesBarAndRecordsOneEvent(t *testing.T) {
	m, s := newTestModel(t)
	x, y := labelW+36, headerH+1

	m = update(m, mouse(x, y, tea.MouseActionPress))
	if _, ok := m.drag.Active(); !ok {
		t.Fatalf("expected a drag to start; flash=%q", m.flash)
	}
	m = update(m, mouse(x+3, y, tea.MouseActionMotion))
	m = update(m, mouse(x+6, y, tea.MouseActionMotion))
	m = update(m, frameMsg{})
	if len(history(s)) != 0 {
		t.Fatalf("preview must not journal; got %d events", len(history(s)))
	}
	m = update(m, tea.MouseMsg{X: x + 6, Y: y, Action: tea.MouseActionRelease})

	got := task(t, s, "t1")
	if got.Start.String() != "2024-01-10" || got.End.String() != "2024-01-20" {
		t.Fatalf("dates after drag: %s..%s", got.Start, got.End)
	}
	h := history(s)
	if len(h) != 1 || h[0].Type != model.EventDurationChanged {
		t.Fatalf("expected one duration change, got %+v", h)
	}
	if _, ok := m.drag.Active(); ok {
		t.Fatalf("drag still active after release")
	}
}

func TestEsc_CancelsDragWithoutJournaling(t *testing.T) {
	m, s := newTestModel(t)
	x, y := labelW+36, headerH+1
	m = update(m, mouse(x, y, tea.MouseActionPress))
	m = update(m, mouse(x+9, y, tea.MouseActionMotion))
	m = update(m, frameMsg{})
	if got := task(t, s, "t1"); got.Start.String() != "2024-01-11" {
		t.Fatalf("expected live preview at 2024-01-11, got %s", got.Start)
	}
	m = update(m, key("esc"))

	got := task(t, s, "t1")
	if got.Start.String() != "2024-01-08" || got.End.String() != "2024-01-18" {
		t.Fatalf("cancel did not restore dates: %s..%s", got.Start, got.End)
	}
	if len(history(s)) != 0 {
		t.Fatalf("cancel journaled %d events", len(history(s)))
	}
	if _, ok := m.drag.Active(); ok {
		t.Fatalf("drag still active after esc")
	}
}

func TestKeyS_CyclesSelectedTaskStatus(t *testing.T) {
	m, s := newTestModel(t)
	if tk, ok := m.selectedTask(); !ok || tk.ID != "t1" {
		t.Fatalf("expected t1 selected initially, got %+v", tk)
	}
	m = update(m, key("s"))
	if got := task(t, s, "t1"); got.Status != model.StatusDone {
		t.Fatalf("status = %s", got.Status)
	}
	if h := history(s); len(h) != 1 || h[0].Type != model.EventStatusChanged {
		t.Fatalf("expected one status change, got %+v", h)
	}
	if m.flash == "" {
		t.Fatalf("expected a flash message")
	}
}

func TestKeyX_TogglesFirstOpenSubtask(t *testing.T) {
	m, s := newTestModel(t)
	m = update(m, key("x"))
	p, _ := s.Project("p1")
	if !p.SubtasksByPosition["A-01"][0].Done {
		t.Fatalf("subtask not toggled; flash=%q", m.flash)
	}
	m = update(m, key("x"))
	if !strings.Contains(m.flash, "no open subtasks") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestSearch_FiltersRows(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, key("/"))
	m = update(m, key("A-02"))
	m = update(m, key("enter"))
	if len(m.rows) != 2 || m.rows[1].Task.ID != "t2" {
		t.Fatalf("expected only the A-02 group, got %+v", m.rows)
	}
	m = update(m, key("esc"))
	if len(m.rows) != 4 {
		t.Fatalf("esc should clear the search; %d rows", len(m.rows))
	}
}

func TestScroll_CoalescesIntoOneFrame(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(key("l"))
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("first scroll should request a frame")
	}
	next, cmd = m.Update(key("l"))
	m = next.(Model)
	if cmd != nil {
		t.Fatalf("second scroll should join the queued frame")
	}
	if got := m.virt.Viewport().ScrollLeft; got != 0 {
		t.Fatalf("scroll applied before the frame: %v", got)
	}
	m = update(m, frameMsg{})
	if got := m.virt.Viewport().ScrollLeft; got != 60 {
		t.Fatalf("ScrollLeft = %v, want 60", got)
	}
}

func TestKeyP_SwitchesToAggregatedView(t *testing.T) {
	m, s := newTestModel(t)
	m = update(m, key("p"))
	if !s.IsAggregated() {
		t.Fatalf("expected the aggregated view")
	}
	if !strings.Contains(m.View(), "All projects") {
		t.Fatalf("view does not show the aggregated label")
	}
	if m.activity.last.Name != bus.SwitchView {
		t.Fatalf("last bus event = %q", m.activity.last.Name)
	}
}

func TestTaskMarkdown(t *testing.T) {
	tk := model.Task{ID: "t1", Position: "A-01", Process: "Formwork", Status: model.StatusWaiting, Urgency: model.UrgencyHigh}
	md := taskMarkdown(tk, []model.Subtask{{Title: "Check anchors"}, {Title: "Pour", Done: true}})
	for _, want := range []string{"# Formwork", "_not scheduled_", "- [ ] Check anchors", "- [x] Pour"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestNormalizePane(t *testing.T) {
	got := normalizePane("abcdef\nx", 4, 3)
	want := "abc…\nx   \n    "
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHelpPane(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, key("?"))
	if !m.detail {
		t.Fatalf("? should open the help pane")
	}
	m = update(m, key("esc"))
	if m.detail {
		t.Fatalf("esc should close the help pane")
	}
}
