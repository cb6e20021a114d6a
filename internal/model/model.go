package model

import (
	"encoding/json"
	"time"
)

// AllProjects is the active-project sentinel selecting the aggregated view.
const AllProjects = "__all__"

// StateVersion is the current persisted layout version.
const StateVersion = 2

type Comment struct {
	ID     string    `json:"id"`
	Author string    `json:"author,omitempty"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Task struct {
	ID          string `json:"id"`
	Position    string `json:"position"`
	Process     string `json:"process"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Start        *Day `json:"start,omitempty"`
	End          *Day `json:"end,omitempty"`
	PlannedStart *Day `json:"plannedStart,omitempty"`
	PlannedEnd   *Day `json:"plannedEnd,omitempty"`

	Status   Status  `json:"status"`
	Urgency  Urgency `json:"urgency"`
	Progress int     `json:"progress"`
	Assignee string  `json:"assignee,omitempty"`

	Comments    []Comment    `json:"comments,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Provenance tag injected by the aggregated view. Not ownership.
	ProjectID   string `json:"projectId,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
}

// HasDates reports whether both start and end are set.
func (t Task) HasDates() bool { return t.Start.IsSet() && t.End.IsSet() }

func (t Task) Clone() Task {
	out := t
	out.Start = t.Start.Clone()
	out.End = t.End.Clone()
	out.PlannedStart = t.PlannedStart.Clone()
	out.PlannedEnd = t.PlannedEnd.Clone()
	if t.Comments != nil {
		out.Comments = append([]Comment(nil), t.Comments...)
	}
	if t.Attachments != nil {
		out.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	return out
}

type Subtask struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	DueDate    *Day    `json:"dueDate,omitempty"`
	AssignedTo string  `json:"assignedTo,omitempty"`
	Urgency    Urgency `json:"urgency"`
	Status     Status  `json:"status"`
	Done       bool    `json:"done"`

	// Provenance tag injected by the aggregated view.
	ProjectID string `json:"projectId,omitempty"`
}

func (s Subtask) Clone() Subtask {
	out := s
	out.DueDate = s.DueDate.Clone()
	return out
}

type Event struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Type        EventType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    string    `json:"position,omitempty"`
	EntityID    string    `json:"entityId,omitempty"`
	ProjectID   string    `json:"projectId,omitempty"`

	// RecordedAt is stamped by the journal clock on history entries.
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

type Project struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Tasks              []Task               `json:"tasks"`
	Positions          []string             `json:"pozicije"`
	SubtasksByPosition map[string][]Subtask `json:"subtasksByPosition"`
	Events             []Event              `json:"events"`
	History            []Event              `json:"history"`

	// Documents are owned by the document feature; kept opaque so they survive a round trip.
	Documents []json.RawMessage `json:"documents,omitempty"`

	// Legacy field (migrated to Positions on load).
	LegacyPositions []string `json:"positions,omitempty"`
}

// Clone returns a deep copy; mutating it never touches p.
func (p Project) Clone() Project {
	out := p
	if p.Tasks != nil {
		out.Tasks = make([]Task, len(p.Tasks))
		for i := range p.Tasks {
			out.Tasks[i] = p.Tasks[i].Clone()
		}
	}
	if p.Positions != nil {
		out.Positions = append([]string(nil), p.Positions...)
	}
	if p.SubtasksByPosition != nil {
		out.SubtasksByPosition = make(map[string][]Subtask, len(p.SubtasksByPosition))
		for pos, subs := range p.SubtasksByPosition {
			cp := make([]Subtask, len(subs))
			for i := range subs {
				cp[i] = subs[i].Clone()
			}
			out.SubtasksByPosition[pos] = cp
		}
	}
	if p.Events != nil {
		out.Events = append([]Event(nil), p.Events...)
	}
	if p.History != nil {
		out.History = append([]Event(nil), p.History...)
	}
	if p.Documents != nil {
		out.Documents = append([]json.RawMessage(nil), p.Documents...)
	}
	out.LegacyPositions = nil
	return out
}

// FindTask returns the index of the task with id, or -1.
func (p Project) FindTask(id string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSubtask returns the index of the subtask with id under position, or -1.
func (p Project) FindSubtask(position, id string) int {
	for i, s := range p.SubtasksByPosition[position] {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// HasPosition reports whether position is registered on the project.
func (p Project) HasPosition(position string) bool {
	for _, pos := range p.Positions {
		if pos == position {
			return true
		}
	}
	return false
}

// Normalize fills nil collections and migrates legacy fields. It reports whether anything changed.
func (p *Project) Normalize() bool {
	changed := false
	if len(p.Positions) == 0 && len(p.LegacyPositions) > 0 {
		p.Positions = append([]string(nil), p.LegacyPositions...)
		changed = true
	}
	p.LegacyPositions = nil
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.Positions == nil {
		p.Positions = []string{}
	}
	if p.SubtasksByPosition == nil {
		p.SubtasksByPosition = map[string][]Subtask{}
	}
	if p.Events == nil {
		p.Events = []Event{}
	}
	if p.History == nil {
		p.History = []Event{}
	}
	for i := range p.Tasks {
		t := &p.Tasks[i]
		for _, d := range []**Day{&t.Start, &t.End, &t.PlannedStart, &t.PlannedEnd} {
			if *d != nil && !(*d).IsSet() {
				*d = nil
			}
		}
		// Imported ranges may be inverted; stored ranges keep start <= end.
		if t.Start.IsSet() && t.End.IsSet() && t.Start.After(*t.End) {
			t.Start, t.End = t.End, t.Start
			changed = true
		}
		if t.PlannedStart.IsSet() && t.PlannedEnd.IsSet() && t.PlannedStart.After(*t.PlannedEnd) {
			t.PlannedStart, t.PlannedEnd = t.PlannedEnd, t.PlannedStart
			changed = true
		}
		// Records inside a project never carry a provenance tag.
		if t.ProjectID != "" || t.ProjectName != "" {
			t.ProjectID, t.ProjectName = "", ""
			changed = true
		}
		if t.Status == "" {
			t.Status = StatusWaiting
		}
		if t.Urgency == "" {
			t.Urgency = UrgencyNormal
		}
		if t.Progress < 0 {
			t.Progress = 0
		}
		if t.Progress > 100 {
			t.Progress = 100
		}
		if t.Position != "" && !p.HasPosition(t.Position) {
			p.Positions = append(p.Positions, t.Position)
			changed = true
		}
	}
	for pos, subs := range p.SubtasksByPosition {
		for i := range subs {
			subs[i].ProjectID = ""
			if subs[i].Status == "" {
				subs[i].Status = StatusWaiting
			}
			if subs[i].Urgency == "" {
				subs[i].Urgency = UrgencyNormal
			}
		}
		p.SubtasksByPosition[pos] = subs
	}
	return changed
}

// State is the persisted import/export layout.
type State struct {
	Version         int       `json:"version"`
	Projects        []Project `json:"projects"`
	ActiveProjectID string    `json:"activeProjectId"`
}
