// Package store holds the authoritative per-project schedule and routes every mutation
// to the one project that owns the record, even when it was picked from the aggregated view.
package store

import (
	"io"
	"log/slog"
	"strings"

	"site-planner/internal/bus"
	"site-planner/internal/journal"
	"site-planner/internal/model"
)

type Options struct {
	Journal *journal.Journal
	Bus     *bus.Bus
	Logger  *slog.Logger

	// NewID generates entity ids; defaults to prefix-<random>.
	NewID func(prefix string) string
}

// Store is the schedule state. Projects are replaced copy-on-write: an update builds a
// new slice in which only the touched project is a fresh value, so earlier snapshots
// returned by Projects or State are never mutated.
//
// Store is not safe for concurrent use; it lives on the UI loop.
type Store struct {
	projects []model.Project
	activeID string
	rev      uint64

	aggRev uint64
	agg    *Aggregated

	journal *journal.Journal
	bus     *bus.Bus
	log     *slog.Logger
	newID   func(prefix string) string
}

func New(st model.State, opts Options) *Store {
	s := &Store{
		journal: opts.Journal,
		bus:     opts.Bus,
		log:     opts.Logger,
		newID:   opts.NewID,
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.journal == nil {
		s.journal = journal.New(nil, s.log)
	}
	if s.newID == nil {
		s.newID = newRandomID
	}
	st = normalizeState(st, s.newID)
	s.projects = st.Projects
	s.activeID = st.ActiveProjectID
	s.rev = 1
	return s
}

func (s *Store) Journal() *journal.Journal { return s.journal }
func (s *Store) Bus() *bus.Bus { return s.bus }

// Revision changes whenever the project set is replaced.
func (s *Store) Revision() uint64 { return s.rev }

// Projects returns the current project values. Treat them as read-only.
func (s *Store) Projects() []model.Project { return s.projects }

func (s *Store) Project(id string) (model.Project, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.projects[i], true
	}
	return model.Project{}, false
}

func (s *Store) indexOf(id string) int {
	id = strings.TrimSpace(id)
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ActiveProjectID() string { return s.activeID }

// IsAggregated reports whether the all-projects view is selected.
func (s *Store) IsAggregated() bool { return s.activeID == model.AllProjects }

// ConcreteActiveProjectID returns the selected project id, or "" in aggregated mode.
func (s *Store) ConcreteActiveProjectID() string {
	if s.IsAggregated() {
		return ""
	}
	return s.activeID
}

// SetActiveProject selects a project (or model.AllProjects) and emits switch-view.
func (s *Store) SetActiveProject(id string) error {
	id = strings.TrimSpace(id)
	if id != model.AllProjects && s.indexOf(id) < 0 {
		return NotFoundError{Kind: "project", ID: id}
	}
	if s.activeID == id {
		return nil
	}
	s.activeID = id
	s.bus.Emit(bus.SwitchView, bus.ViewDetail{ProjectID: id, View: "gantt"})
	return nil
}

// View returns the tasks and subtasks of the current selection: the aggregated projection
// in all-projects mode, the active project otherwise.
func (s *Store) View() ([]model.Task, map[string][]model.Subtask) {
	if s.IsAggregated() {
		agg := s.Aggregated()
		return agg.Tasks, agg.SubtasksByPosition
	}
	p, ok := s.Project(s.activeID)
	if !ok {
		return nil, nil
	}
	return p.Tasks, p.SubtasksByPosition
}

// ViewEvents returns the display feed of the current selection, newest first.
func (s *Store) ViewEvents(history bool) []model.Event {
	if s.IsAggregated() {
		agg := s.Aggregated()
		if history {
			return agg.History
		}
		return agg.Events
	}
	p, ok := s.Project(s.activeID)
	if !ok {
		return nil
	}
	src := p.Events
	if history {
		src = p.History
	}
	return sortEventsNewestFirst(append([]model.Event(nil), src...))
}

// State returns the persisted layout of the current state.
func (s *Store) State() model.State {
	return model.State{
		Version:         model.StateVersion,
		Projects:        s.projects,
		ActiveProjectID: s.activeID,
	}
}

// UpdateProject applies fn to a private copy of exactly one project and, if fn succeeds,
// swaps that copy in. On error nothing changes.
func (s *Store) UpdateProject(projectID string, fn func(p *model.Project) error) error {
	i := s.indexOf(projectID)
	if i < 0 {
		return NotFoundError{Kind: "project", ID: projectID}
	}
	next := s.projects[i].Clone()
	if err := fn(&next); err != nil {
		return err
	}
	projects := make([]model.Project, len(s.projects))
	copy(projects, s.projects)
	projects[i] = next
	s.projects = projects
	s.rev++
	return nil
}
