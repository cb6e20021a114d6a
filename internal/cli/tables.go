package cli

import (
	"fmt"
	"strconv"
	"time"

	"site-planner/internal/format"
	"site-planner/internal/gantt"
	"site-planner/internal/model"
	"site-planner/internal/store"
)

// mutationOut is what every mutating command prints.
type mutationOut struct {
	ProjectID string       `json:"projectId"`
	EntityID  string       `json:"entityId,omitempty"`
	Changed   bool         `json:"changed"`
	Event     *model.Event `json:"event,omitempty"`
}

func mutation(res store.Result) mutationOut {
	out := mutationOut{ProjectID: res.ProjectID, EntityID: res.EntityID, Changed: res.Changed}
	if res.Changed {
		ev := res.Event
		out.Event = &ev
	}
	return out
}

func (m mutationOut) Header() []any { return []any{"PROJECT", "ENTITY", "CHANGED", "EVENT"} }
func (m mutationOut) Rows() [][]any {
	title := "-"
	if m.Event != nil {
		title = m.Event.Title
	}
	return [][]any{{m.ProjectID, m.EntityID, strconv.FormatBool(m.Changed), title}}
}

type projectRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tasks  int    `json:"tasks"`
	Events int    `json:"events"`
	Active bool   `json:"active"`
}

type projectTable []projectRow

func (t projectTable) Header() []any { return []any{"", "ID", "NAME", "TASKS", "EVENTS"} }
func (t projectTable) Rows() [][]any {
	out := make([][]any, 0, len(t))
	for _, p := range t {
		mark := ""
		if p.Active {
			mark = "*"
		}
		out = append(out, []any{mark, p.ID, p.Name, p.Tasks, p.Events})
	}
	return out
}

type taskTable []model.Task

func (t taskTable) Header() []any {
	return []any{"ID", "PROJECT", "POSITION", "PROCESS", "STATUS", "START", "END", "PROGRESS"}
}

func (t taskTable) Rows() [][]any {
	out := make([][]any, 0, len(t))
	for _, task := range t {
		start, end := dayCell(task.Start), dayCell(task.End)
		out = append(out, []any{
			task.ID, task.ProjectName, task.Position, task.Process,
			format.Status(string(task.Status)), start, end, fmt.Sprintf("%d%%", task.Progress),
		})
	}
	return out
}

func dayCell(d *model.Day) string {
	if !d.IsSet() {
		return format.Warn("no date")
	}
	return d.String()
}

type subtaskTable []model.Subtask

func (t subtaskTable) Header() []any {
	return []any{"ID", "TITLE", "STATUS", "DUE", "ASSIGNED", "URGENCY"}
}

func (t subtaskTable) Rows() [][]any {
	out := make([][]any, 0, len(t))
	for _, s := range t {
		due := "-"
		if s.DueDate.IsSet() {
			due = s.DueDate.String()
		}
		out = append(out, []any{s.ID, s.Title, format.Status(string(s.Status)), due, s.AssignedTo, string(s.Urgency)})
	}
	return out
}

type eventTable []model.Event

func (t eventTable) Header() []any { return []any{"DATE", "PROJECT", "TYPE", "TITLE", "POSITION"} }
func (t eventTable) Rows() [][]any {
	out := make([][]any, 0, len(t))
	for _, ev := range t {
		out = append(out, []any{ev.Date.Local().Format(time.DateTime), ev.ProjectID, string(ev.Type), ev.Title, ev.Position})
	}
	return out
}

// sceneTable lists the rows of a built scene.
type sceneTable struct {
	gantt.Scene
}

func (t sceneTable) Header() []any { return []any{"ROW", "KIND", "LABEL", "X", "WIDTH", "NOTE"} }
func (t sceneTable) Rows() [][]any {
	out := make([][]any, 0, len(t.Scene.Rows))
	for _, r := range t.Scene.Rows {
		if r.IsHeader() {
			out = append(out, []any{r.Index, "header", fmt.Sprintf("%s (%d)", r.Group, r.Count), "", "", ""})
			continue
		}
		x, w, note := "", "", ""
		switch {
		case r.NoDate:
			note = format.Warn("no date")
		case r.Offscreen:
			note = "offscreen"
		case r.Bar != nil:
			x = strconv.FormatFloat(r.Bar.X, 'f', -1, 64)
			w = strconv.FormatFloat(r.Bar.Width, 'f', -1, 64)
		}
		label := r.Task.Process
		if r.Task.Title != "" {
			label += " · " + r.Task.Title
		}
		out = append(out, []any{r.Index, "task", label, x, w, note})
	}
	return out
}
