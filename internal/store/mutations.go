package store

import (
	"errors"
	"fmt"
	"strings"

	"site-planner/internal/bus"
	"site-planner/internal/journal"
	"site-planner/internal/model"
)

// errUnchanged aborts an update that would not change anything; commit maps it to a no-op.
var errUnchanged = errors.New("unchanged")

// Result describes a committed mutation. Changed is false for no-ops, in which case no
// event was journaled.
type Result struct {
	ProjectID string
	EntityID  string
	Changed   bool
	Event     model.Event
}

// commit runs fn against a private copy of one project and journals the draft it returns.
// The copy is swapped in only when both succeed, so a project gains exactly one event per
// committed mutation and none otherwise.
func (s *Store) commit(projectID string, fn func(p *model.Project) (journal.Draft, error)) (Result, error) {
	var ev model.Event
	err := s.UpdateProject(projectID, func(p *model.Project) error {
		d, err := fn(p)
		if err != nil {
			return err
		}
		ev, err = s.journal.Append(p, d)
		return err
	})
	res := Result{ProjectID: projectID}
	if errors.Is(err, errUnchanged) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	s.journal.Publish(ev)
	res.EntityID = ev.EntityID
	res.Changed = true
	res.Event = ev
	return res, nil
}

func taskLabel(t model.Task) string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	if t.Position == "" {
		return t.Process
	}
	return fmt.Sprintf("%s (%s)", t.Process, t.Position)
}

func dayLabel(d *model.Day) string {
	if !d.IsSet() {
		return "-"
	}
	return d.String()
}

func sameDay(a, b *model.Day) bool {
	if !a.IsSet() || !b.IsSet() {
		return a.IsSet() == b.IsSet()
	}
	return a.Equal(*b)
}

func validateDates(start, end *model.Day) error {
	if start.IsSet() && end.IsSet() && start.After(*end) {
		return ErrInvalidDates
	}
	return nil
}

func registerPosition(p *model.Project, position string) {
	if position != "" && !p.HasPosition(position) {
		p.Positions = append(p.Positions, position)
	}
}

// AddProject creates an empty project and records its creation.
func (s *Store) AddProject(name string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, errors.New("missing project name")
	}
	p := model.Project{ID: s.newID("prj"), Name: name}
	p.Normalize()
	ev, err := s.journal.Append(&p, journal.Draft{
		Type:     model.EventProjectCreated,
		Title:    "Project created: " + name,
		EntityID: p.ID,
	})
	if err != nil {
		return model.Project{}, err
	}
	projects := make([]model.Project, len(s.projects), len(s.projects)+1)
	copy(projects, s.projects)
	s.projects = append(projects, p)
	s.rev++
	s.journal.Publish(ev)
	return p, nil
}

func (s *Store) RenameProject(projectID, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{ProjectID: projectID}, errors.New("missing project name")
	}
	return s.commit(projectID, func(p *model.Project) (journal.Draft, error) {
		if p.Name == name {
			return journal.Draft{}, errUnchanged
		}
		old := p.Name
		p.Name = name
		return journal.Draft{
			Type:     model.EventNote,
			Title:    fmt.Sprintf("Project renamed: %s -> %s", old, name),
			EntityID: p.ID,
		}, nil
	})
}

// AddTask appends t to the owning project. New tasks have no provenance, so the owner is
// the explicit project or the active one; in the aggregated view a unique position owner
// is accepted.
func (s *Store) AddTask(projectID string, t model.Task) (Result, error) {
	owner, err := s.resolve("add-task", t.Position, "", projectID)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(t.Process) == "" && strings.TrimSpace(t.Title) == "" {
		return Result{ProjectID: owner}, errors.New("missing task process or title")
	}
	if err := validateDates(t.Start, t.End); err != nil {
		return Result{ProjectID: owner}, err
	}
	t = t.Clone()
	t.ProjectID, t.ProjectName = "", ""
	if t.ID == "" {
		t.ID = s.newID("task")
	}
	if t.Status == "" {
		t.Status = model.StatusWaiting
	}
	if t.Urgency == "" {
		t.Urgency = model.UrgencyNormal
	}
	res, err := s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		if p.FindTask(t.ID) >= 0 {
			return journal.Draft{}, fmt.Errorf("task already exists: %s", t.ID)
		}
		p.Tasks = append(p.Tasks, t)
		registerPosition(p, t.Position)
		return journal.Draft{
			Type:     model.EventTaskCreated,
			Title:    "Task created: " + taskLabel(t),
			Position: t.Position,
			EntityID: t.ID,
		}, nil
	})
	if err == nil && res.Changed {
		s.bus.Emit(bus.TaskCreated, bus.TaskDetail{ProjectID: owner, TaskID: t.ID, Position: t.Position})
	}
	return res, err
}

// mutateTask resolves the owner of ref and applies fn to the stored task.
func (s *Store) mutateTask(op string, ref TaskRef, fn func(t *model.Task) (journal.Draft, error)) (Result, error) {
	owner, err := s.resolve(op, ref.Position, ref.TaskID, ref.ProjectID)
	if err != nil {
		return Result{}, err
	}
	res, err := s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		i := p.FindTask(ref.TaskID)
		if i < 0 {
			return journal.Draft{}, NotFoundError{Kind: "task", ID: ref.TaskID}
		}
		next := p.Tasks[i].Clone()
		d, err := fn(&next)
		if err != nil {
			return journal.Draft{}, err
		}
		if err := validateDates(next.Start, next.End); err != nil {
			return journal.Draft{}, err
		}
		next.ProjectID, next.ProjectName = "", ""
		p.Tasks[i] = next
		registerPosition(p, next.Position)
		if d.EntityID == "" {
			d.EntityID = next.ID
		}
		if d.Position == "" {
			d.Position = next.Position
		}
		return d, nil
	})
	if err == nil && res.Changed {
		s.bus.Emit(bus.TaskUpdated, bus.TaskDetail{ProjectID: owner, TaskID: ref.TaskID, Position: res.Event.Position})
	}
	return res, err
}

// UpdateTask applies an arbitrary edit. fn returning an error aborts without writing.
func (s *Store) UpdateTask(ref TaskRef, fn func(t *model.Task) error) (Result, error) {
	return s.mutateTask("update-task", ref, func(t *model.Task) (journal.Draft, error) {
		before := t.Clone()
		if err := fn(t); err != nil {
			return journal.Draft{}, err
		}
		t.ID = before.ID
		return journal.Draft{Type: model.EventTaskUpdated, Title: "Task updated: " + taskLabel(*t)}, nil
	})
}

// SetTaskStatus changes the status. Setting the current status is a no-op.
func (s *Store) SetTaskStatus(ref TaskRef, status model.Status) (Result, error) {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return Result{}, err
	}
	return s.mutateTask("set-status", ref, func(t *model.Task) (journal.Draft, error) {
		if t.Status == status {
			return journal.Draft{}, errUnchanged
		}
		old := t.Status
		t.Status = status
		if status == model.StatusDone {
			t.Progress = 100
		}
		return journal.Draft{
			Type:  model.EventStatusChanged,
			Title: fmt.Sprintf("%s: %s -> %s", taskLabel(*t), old, status),
		}, nil
	})
}

// SetTaskDates commits a new date range and records one duration change.
func (s *Store) SetTaskDates(ref TaskRef, start, end *model.Day) (Result, error) {
	if err := validateDates(start, end); err != nil {
		return Result{}, err
	}
	return s.mutateTask("set-dates", ref, func(t *model.Task) (journal.Draft, error) {
		if sameDay(t.Start, start) && sameDay(t.End, end) {
			return journal.Draft{}, errUnchanged
		}
		desc := fmt.Sprintf("%s..%s -> %s..%s", dayLabel(t.Start), dayLabel(t.End), dayLabel(start), dayLabel(end))
		t.Start, t.End = start.Clone(), end.Clone()
		return journal.Draft{
			Type:        model.EventDurationChanged,
			Title:       "Duration changed: " + taskLabel(*t),
			Description: desc,
		}, nil
	})
}

// PreviewTaskDates writes a provisional date range without journaling or emitting.
// The drag controller uses it for live feedback and commits once with SetTaskDates.
func (s *Store) PreviewTaskDates(ref TaskRef, start, end *model.Day) error {
	if err := validateDates(start, end); err != nil {
		return err
	}
	owner, err := s.resolve("preview-dates", ref.Position, ref.TaskID, ref.ProjectID)
	if err != nil {
		return err
	}
	err = s.UpdateProject(owner, func(p *model.Project) error {
		i := p.FindTask(ref.TaskID)
		if i < 0 {
			return NotFoundError{Kind: "task", ID: ref.TaskID}
		}
		if sameDay(p.Tasks[i].Start, start) && sameDay(p.Tasks[i].End, end) {
			return errUnchanged
		}
		p.Tasks[i].Start, p.Tasks[i].End = start.Clone(), end.Clone()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// Task looks a task up in its owning project.
func (s *Store) Task(ref TaskRef) (model.Task, error) {
	owner, err := s.ResolveOwner(ref.Position, ref.TaskID, ref.ProjectID)
	if err != nil {
		return model.Task{}, err
	}
	p, ok := s.Project(owner)
	if !ok {
		return model.Task{}, NotFoundError{Kind: "project", ID: owner}
	}
	i := p.FindTask(ref.TaskID)
	if i < 0 {
		return model.Task{}, NotFoundError{Kind: "task", ID: ref.TaskID}
	}
	t := p.Tasks[i].Clone()
	t.ProjectID, t.ProjectName = p.ID, p.Name
	return t, nil
}

func (s *Store) DeleteTask(ref TaskRef) (Result, error) {
	owner, err := s.resolve("delete-task", ref.Position, ref.TaskID, ref.ProjectID)
	if err != nil {
		return Result{}, err
	}
	var position string
	res, err := s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		i := p.FindTask(ref.TaskID)
		if i < 0 {
			return journal.Draft{}, NotFoundError{Kind: "task", ID: ref.TaskID}
		}
		t := p.Tasks[i]
		position = t.Position
		p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
		return journal.Draft{
			Type:     model.EventTaskDeleted,
			Title:    "Task deleted: " + taskLabel(t),
			Position: t.Position,
			EntityID: t.ID,
		}, nil
	})
	if err == nil && res.Changed {
		s.bus.Emit(bus.TaskDeleted, bus.TaskDetail{ProjectID: owner, TaskID: ref.TaskID, Position: position})
	}
	return res, err
}

// AddSubtask appends sub under ref.Position in the owning project.
func (s *Store) AddSubtask(ref SubtaskRef, sub model.Subtask) (Result, error) {
	if strings.TrimSpace(ref.Position) == "" {
		return Result{}, errors.New("missing position")
	}
	if strings.TrimSpace(sub.Title) == "" {
		return Result{}, errors.New("missing subtask title")
	}
	owner, err := s.resolve("add-subtask", ref.Position, "", ref.ProjectID)
	if err != nil {
		return Result{}, err
	}
	sub = sub.Clone()
	sub.ProjectID = ""
	if sub.ID == "" {
		sub.ID = s.newID("sub")
	}
	if sub.Status == "" {
		sub.Status = model.StatusWaiting
	}
	if sub.Urgency == "" {
		sub.Urgency = model.UrgencyNormal
	}
	if sub.Done {
		sub.Status = model.StatusDone
	}
	res, err := s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		if p.FindSubtask(ref.Position, sub.ID) >= 0 {
			return journal.Draft{}, fmt.Errorf("subtask already exists: %s", sub.ID)
		}
		p.SubtasksByPosition[ref.Position] = append(p.SubtasksByPosition[ref.Position], sub)
		registerPosition(p, ref.Position)
		return journal.Draft{
			Type:     model.EventSubtaskAdded,
			Title:    "Subtask added: " + sub.Title,
			Position: ref.Position,
			EntityID: sub.ID,
		}, nil
	})
	s.emitSubtask(res, err, ref.Position, sub.ID, "added")
	return res, err
}

func (s *Store) emitSubtask(res Result, err error, position, id, change string) {
	if err != nil || !res.Changed {
		return
	}
	s.bus.Emit(bus.SubtaskChanged, bus.SubtaskDetail{
		ProjectID: res.ProjectID,
		Position:  position,
		SubtaskID: id,
		Change:    change,
	})
}

func (s *Store) mutateSubtask(op string, ref SubtaskRef, fn func(p *model.Project, i int) (journal.Draft, error)) (Result, error) {
	owner, err := s.resolve(op, ref.Position, ref.SubtaskID, ref.ProjectID)
	if err != nil {
		return Result{}, err
	}
	return s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		i := p.FindSubtask(ref.Position, ref.SubtaskID)
		if i < 0 {
			return journal.Draft{}, NotFoundError{Kind: "subtask", ID: ref.SubtaskID}
		}
		d, err := fn(p, i)
		if err != nil {
			return journal.Draft{}, err
		}
		d.Position = ref.Position
		d.EntityID = ref.SubtaskID
		return d, nil
	})
}

// ToggleSubtask flips completion; status follows (done or waiting).
func (s *Store) ToggleSubtask(ref SubtaskRef) (Result, error) {
	res, err := s.mutateSubtask("toggle-subtask", ref, func(p *model.Project, i int) (journal.Draft, error) {
		sub := &p.SubtasksByPosition[ref.Position][i]
		sub.Done = !sub.Done
		state := "reopened"
		sub.Status = model.StatusWaiting
		if sub.Done {
			state = "completed"
			sub.Status = model.StatusDone
		}
		return journal.Draft{
			Type:  model.EventSubtaskToggled,
			Title: fmt.Sprintf("Subtask %s: %s", state, sub.Title),
		}, nil
	})
	s.emitSubtask(res, err, ref.Position, ref.SubtaskID, "toggled")
	return res, err
}

func (s *Store) UpdateSubtask(ref SubtaskRef, fn func(sub *model.Subtask) error) (Result, error) {
	res, err := s.mutateSubtask("update-subtask", ref, func(p *model.Project, i int) (journal.Draft, error) {
		next := p.SubtasksByPosition[ref.Position][i].Clone()
		if err := fn(&next); err != nil {
			return journal.Draft{}, err
		}
		next.ID = ref.SubtaskID
		next.ProjectID = ""
		if strings.TrimSpace(next.Title) == "" {
			return journal.Draft{}, errors.New("missing subtask title")
		}
		p.SubtasksByPosition[ref.Position][i] = next
		return journal.Draft{Type: model.EventSubtaskUpdated, Title: "Subtask updated: " + next.Title}, nil
	})
	s.emitSubtask(res, err, ref.Position, ref.SubtaskID, "updated")
	return res, err
}

func (s *Store) DeleteSubtask(ref SubtaskRef) (Result, error) {
	res, err := s.mutateSubtask("delete-subtask", ref, func(p *model.Project, i int) (journal.Draft, error) {
		subs := p.SubtasksByPosition[ref.Position]
		title := subs[i].Title
		p.SubtasksByPosition[ref.Position] = append(subs[:i], subs[i+1:]...)
		return journal.Draft{Type: model.EventSubtaskRemoved, Title: "Subtask removed: " + title}, nil
	})
	s.emitSubtask(res, err, ref.Position, ref.SubtaskID, "removed")
	return res, err
}

// AddEvent records a free-form journal entry (a site note by default).
func (s *Store) AddEvent(projectID string, d journal.Draft) (Result, error) {
	owner, err := s.resolve("add-event", d.Position, "", projectID)
	if err != nil {
		return Result{}, err
	}
	if d.Type == "" {
		d.Type = model.EventNote
	}
	res, err := s.commit(owner, func(p *model.Project) (journal.Draft, error) {
		return d, nil
	})
	if err == nil && res.Changed {
		s.bus.Emit(bus.EventAdded, res.Event)
	}
	return res, err
}

// Import replaces the whole schedule with st and records one import event on the active
// project (the first one when the aggregated view is selected).
func (s *Store) Import(st model.State) (Result, error) {
	st = normalizeState(st, s.newID)
	s.projects = st.Projects
	s.activeID = st.ActiveProjectID
	s.rev++

	target := s.ConcreteActiveProjectID()
	if s.indexOf(target) < 0 {
		target = s.projects[0].ID
	}
	tasks := 0
	for _, p := range s.projects {
		tasks += len(p.Tasks)
	}
	res, err := s.commit(target, func(p *model.Project) (journal.Draft, error) {
		return journal.Draft{
			Type:  model.EventImport,
			Title: fmt.Sprintf("Schedule imported: %d projects, %d tasks", len(s.projects), tasks),
		}, nil
	})
	if err == nil {
		s.bus.Emit(bus.ScheduleImported, bus.ViewDetail{ProjectID: s.activeID, View: "gantt"})
	}
	return res, err
}
