package tui

import (
	"context"
	"errors"
	"math"

	"site-planner/internal/docs"
	"site-planner/internal/drag"
	"site-planner/internal/filter"
	"site-planner/internal/gantt"
	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/virtual"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detailVP.Width, m.detailVP.Height = msg.Width, m.bodyLines()+headerH
		m.virt.OnResize(m.viewportSize())
		return m.requestFrame()

	case frameMsg:
		m.frameQueued = false
		moved := m.virt.Frame()
		if m.drag.Frame() {
			m.rebuild()
		} else if moved {
			m.rebuildScene()
		}
		return m.requestFrame()

	case savedMsg:
		if msg.err != nil {
			m.flash = "save failed: " + msg.err.Error()
		} else {
			m.flash = "saved"
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dw := m.tl.DayWidth()
	_, vh := m.viewportSize()
	switch msg.String() {
	case "ctrl+c", "q":
		if _, ok := m.drag.Active(); ok {
			_ = m.drag.Cancel()
		}
		return m, tea.Quit

	case "esc":
		if _, ok := m.drag.Active(); ok {
			if err := m.drag.Cancel(); err != nil {
				m.flash = "cancel failed: " + err.Error()
			} else {
				m.flash = "drag cancelled"
			}
			m.rebuild()
			return m, nil
		}
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.criteria.Search = ""
			m.rebuild()
		}
		return m, nil

	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "left", "h":
		m.virt.ScrollBy(-dw, 0)
	case "right", "l":
		m.virt.ScrollBy(dw, 0)
	case "H":
		m.virt.ScrollBy(-7*dw, 0)
	case "L":
		m.virt.ScrollBy(7*dw, 0)
	case "pgup":
		m.virt.ScrollBy(0, -vh)
	case "pgdown":
		m.virt.ScrollBy(0, vh)
	case "t":
		vw, _ := m.viewportSize()
		m.virt.ScrollTo(m.tl.PixelX(m.today)-vw/2, m.virt.Viewport().ScrollTop)

	case "z":
		// Keep the leftmost visible day in place across the zoom change.
		left := m.tl.DateAt(m.tl.DayAtPixel(m.virt.Viewport().ScrollLeft))
		m.zoom = m.zoom.Next()
		m.rebuild()
		m.virt.ScrollTo(m.tl.PixelX(left), m.virt.Viewport().ScrollTop)
		m.flash = "zoom: " + string(m.zoom)
	case "g":
		m.group = m.group.Toggle()
		m.rebuild()
		m.flash = "grouped by " + string(m.group)
	case "/":
		m.searching = true
		m.search.Focus()
		return m, nil
	case "1", "2", "3", "4":
		ind := filter.Indicators[int(msg.String()[0]-'1')]
		m.criteria = m.criteria.ToggleIndicator(ind)
		m.rebuild()
	case "p":
		m.cycleProject()
	case "s":
		if t, ok := m.selectedTask(); ok {
			m.committed(m.st.SetTaskStatus(store.RefOf(t), t.Status.Next()))
		}
	case "x":
		m.toggleFirstOpenSubtask()
	case "enter":
		if t, ok := m.selectedTask(); ok {
			m.detail = true
			m.detailVP.SetContent(renderMarkdown(taskMarkdown(t, subtasksOf(t, m.subs)), max(20, m.width-4)))
			m.detailVP.GotoTop()
		}
	case "?":
		if body, ok := docs.Get("keys"); ok {
			m.detail = true
			m.detailVP.SetContent(renderMarkdown(body, max(20, m.width-4)))
			m.detailVP.GotoTop()
		}
	case "y":
		if t, ok := m.selectedTask(); ok {
			if err := clipboard.WriteAll(t.ID); err != nil {
				m.flash = "copy failed: " + err.Error()
			} else {
				m.flash = "copied " + t.ID
			}
		}
	case "w":
		m.saver.Notify(m.st.State())
		return m, m.saveCmd()
	}
	return m.requestFrame()
}

func (m Model) saveCmd() tea.Cmd {
	saver := m.saver
	return func() tea.Msg {
		return savedMsg{err: saver.Flush(context.Background())}
	}
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.criteria.Search = ""
		m.rebuild()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.criteria.Search != m.search.Value() {
		m.criteria.Search = m.search.Value()
		m.rebuild()
	}
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

func (m *Model) moveSelection(delta int) {
	i := m.selected
	for {
		i += delta
		if i < 0 || i >= len(m.rows) {
			return
		}
		if !m.rows[i].IsHeader() {
			break
		}
	}
	m.selected = i
	m.selectedID = m.rows[i].Task.ID

	vp := m.virt.Viewport()
	y := float64(i) * virtual.RowHeight
	switch {
	case y < vp.ScrollTop:
		m.virt.OnScroll(vp.ScrollLeft, y)
	case y+virtual.RowHeight > vp.ScrollTop+vp.Height:
		m.virt.OnScroll(vp.ScrollLeft, y+virtual.RowHeight-vp.Height)
	}
}

// cycleProject steps through every project, then the aggregated view.
func (m *Model) cycleProject() {
	ids := make([]string, 0, len(m.st.Projects())+1)
	for _, p := range m.st.Projects() {
		ids = append(ids, p.ID)
	}
	ids = append(ids, model.AllProjects)
	next := ids[0]
	for i, id := range ids {
		if id == m.st.ActiveProjectID() {
			next = ids[(i+1)%len(ids)]
			break
		}
	}
	if err := m.st.SetActiveProject(next); err != nil {
		m.flash = err.Error()
		return
	}
	m.resetCriteria()
	m.selected, m.selectedID = 0, ""
	m.rebuild()
	m.virt.ScrollTo(0, 0)
	m.saver.Notify(m.st.State())
	if next == model.AllProjects {
		m.flash = "all projects"
	} else if p, ok := m.st.Project(next); ok {
		m.flash = "project: " + p.Name
	}
}

func (m *Model) toggleFirstOpenSubtask() {
	t, ok := m.selectedTask()
	if !ok {
		return
	}
	for _, sub := range filter.SubtasksFor(t, m.subs) {
		if sub.Done {
			continue
		}
		owner := sub.ProjectID
		if owner == "" {
			owner = t.ProjectID
		}
		m.committed(m.st.ToggleSubtask(store.SubtaskRef{ProjectID: owner, Position: t.Position, SubtaskID: sub.ID}))
		return
	}
	m.flash = "no open subtasks at " + t.Position
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.detail {
		var cmd tea.Cmd
		m.detailVP, cmd = m.detailVP.Update(msg)
		return m, cmd
	}
	dw := m.tl.DayWidth()
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.virt.ScrollBy(0, -3*virtual.RowHeight)
		return m.requestFrame()
	case tea.MouseButtonWheelDown:
		m.virt.ScrollBy(0, 3*virtual.RowHeight)
		return m.requestFrame()
	case tea.MouseButtonWheelLeft:
		m.virt.ScrollBy(-3*dw, 0)
		return m.requestFrame()
	case tea.MouseButtonWheelRight:
		m.virt.ScrollBy(3*dw, 0)
		return m.requestFrame()
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.press(msg.X, msg.Y)
		}
	case tea.MouseActionMotion:
		if _, ok := m.drag.Active(); ok {
			_ = m.drag.Move(m.contentX(msg.X - labelW))
		}
	case tea.MouseActionRelease:
		// Releases are delivered wherever the pointer is, so a drag always ends.
		if _, ok := m.drag.Active(); ok {
			res, err := m.drag.End()
			if err != nil && !errors.Is(err, drag.ErrNotDragging) {
				m.log.Warn("drag not recorded", "err", err)
			}
			m.committed(res, err)
		}
	}
	return m.requestFrame()
}

// press selects the row under the pointer and starts a drag when it lands on a bar.
func (m *Model) press(x, y int) {
	line := y - headerH
	if line < 0 || line >= m.bodyLines() {
		return
	}
	cy := m.contentY(line)
	if i := int(math.Floor(cy / virtual.RowHeight)); i < len(m.rows) && !m.rows[i].IsHeader() {
		m.selected, m.selectedID = i, m.rows[i].Task.ID
	}
	if x < labelW {
		return
	}
	cx := m.contentX(x - labelW)
	hit, ok := gantt.HitTest(m.scene, cx, cy, cellPx)
	if !ok {
		return
	}
	if err := m.drag.Begin(hit.Row.Task, hit.Mode, cx, m.tl); err != nil {
		m.flash = err.Error()
		return
	}
	m.flash = string(hit.Mode) + " " + hit.Row.Task.ID
}
