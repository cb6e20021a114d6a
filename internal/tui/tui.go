// Package tui is the interactive Gantt chart: a windowed scene over the virtualized
// ranges, redrawn at most once per frame, with mouse drags committed through the store.
package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"site-planner/internal/autosave"
	"site-planner/internal/bus"
	"site-planner/internal/drag"
	"site-planner/internal/filter"
	"site-planner/internal/gantt"
	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/timeline"
	"site-planner/internal/virtual"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Screen geometry. One terminal column is cellPx content pixels and one line is a
// whole chart row, so every zoom's day width maps onto whole cells.
const (
	cellPx  = 10.0
	labelW  = 30
	headerH = 2
	footerH = 1

	frameInterval = time.Second / 60
)

type Options struct {
	Store   *store.Store
	Saver   *autosave.Saver
	Zoom    timeline.Zoom
	Padding timeline.Padding
	// Today anchors the empty-schedule window and the today column.
	Today  model.Day
	Logger *slog.Logger
}

type frameMsg struct{}

type savedMsg struct{ err error }

// activity remembers the last boundary event the store emitted.
type activity struct {
	last  bus.Event
	count int
}

type Model struct {
	st    *store.Store
	saver *autosave.Saver
	log   *slog.Logger

	zoom    timeline.Zoom
	padding timeline.Padding
	today   model.Day

	criteria filter.Criteria
	known    map[string]bool
	group    filter.GroupBy

	rows  []filter.Row
	subs  map[string][]model.Subtask
	tl    timeline.Model
	virt  *virtual.Virtualizer
	scene gantt.Scene
	drag  *drag.Controller

	width, height int
	selected      int
	selectedID    string
	frameQueued   bool

	search    textinput.Model
	searching bool

	detail   bool
	detailVP viewport.Model

	flash    string
	activity *activity
	unsub    func()
}

func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	zoom := opts.Zoom
	if _, err := timeline.ParseZoom(string(zoom)); err != nil {
		zoom = timeline.ZoomWeek
	}
	today := opts.Today
	if today.IsZero() {
		today = model.DayOf(time.Now())
	}
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "position, title or project"

	m := Model{
		st:       opts.Store,
		saver:    opts.Saver,
		log:      logger,
		zoom:     zoom,
		padding:  opts.Padding,
		today:    today,
		group:    filter.GroupByPosition,
		search:   search,
		detailVP: viewport.New(0, 0),
		activity: &activity{},
	}
	m.resetCriteria()
	m.virt = virtual.NewDefault(virtual.Content{DayWidth: timeline.DayWidth(zoom), RowHeight: virtual.RowHeight}, virtual.Viewport{}, nil)
	m.drag = drag.New(m.st, nil, logger)
	act := m.activity
	m.unsub = m.st.Bus().Subscribe("*", func(ev bus.Event) {
		act.last = ev
		act.count++
	})
	m.rebuild()
	return m
}

// Close releases the bus subscription.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Run shows the chart until the user quits, then flushes any pending autosave.
func Run(ctx context.Context, opts Options) error {
	applyColorProfile()
	m := New(opts)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	if ferr := opts.Saver.Flush(context.Background()); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func (m *Model) resetCriteria() {
	tasks, _ := m.st.View()
	m.criteria = filter.AllProcesses(tasks)
	m.known = map[string]bool{}
	for p := range m.criteria.Processes {
		m.known[p] = true
	}
	m.criteria.Search = m.search.Value()
}

// rebuild re-derives rows, timeline and content size from the store. The timeline is
// frozen while a drag is in flight so the bar under the pointer does not jump.
func (m *Model) rebuild() {
	tasks, subs := m.st.View()
	for _, p := range filter.Processes(tasks) {
		if !m.known[p] {
			m.known[p] = true
			m.criteria.Processes[p] = true
		}
	}
	m.subs = subs
	m.rows = filter.Rows(tasks, subs, m.criteria, m.group)
	if _, dragging := m.drag.Active(); !dragging {
		m.tl = timeline.New(timeline.ComputeBounds(tasks, m.padding, m.today), m.zoom)
	}
	m.virt.SetContent(virtual.Content{
		DayWidth:  m.tl.DayWidth(),
		TotalDays: m.tl.TotalDays(),
		TotalRows: len(m.rows),
		RowHeight: virtual.RowHeight,
	})
	m.reselect()
	m.rebuildScene()
}

func (m *Model) rebuildScene() {
	m.scene = gantt.Build(m.tl, m.rows, m.virt.Ranges())
}

// reselect keeps the selection on the same task across rebuilds.
func (m *Model) reselect() {
	if m.selectedID != "" {
		for i, r := range m.rows {
			if !r.IsHeader() && r.Task.ID == m.selectedID {
				m.selected = i
				return
			}
		}
	}
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	for i := m.selected; i < len(m.rows); i++ {
		if !m.rows[i].IsHeader() {
			m.selected = i
			break
		}
	}
	m.selectedID = ""
	if t, ok := m.selectedTask(); ok {
		m.selectedID = t.ID
	}
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) || m.rows[m.selected].IsHeader() {
		return model.Task{}, false
	}
	return m.rows[m.selected].Task, true
}

func (m Model) chartCols() int { return max(0, m.width-labelW) }
func (m Model) bodyLines() int { return max(0, m.height-headerH-footerH) }

func (m Model) viewportSize() (w, h float64) {
	return float64(m.chartCols()) * cellPx, float64(m.bodyLines()) * virtual.RowHeight
}

// contentX maps a chart column to the content pixel at the centre of that cell.
func (m Model) contentX(col int) float64 {
	return m.virt.Viewport().ScrollLeft + (float64(col)+0.5)*cellPx
}

func (m Model) contentY(line int) float64 {
	return m.virt.Viewport().ScrollTop + (float64(line)+0.5)*virtual.RowHeight
}

// requestFrame schedules one frame tick; further requests before it fires coalesce.
func (m Model) requestFrame() (Model, tea.Cmd) {
	if m.frameQueued || (!m.virt.Pending() && !m.drag.Pending()) {
		return m, nil
	}
	m.frameQueued = true
	return m, tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

// committed reports a store mutation and schedules an autosave.
func (m *Model) committed(res store.Result, err error) {
	switch {
	case err != nil:
		m.flash = "not recorded: " + err.Error()
	case res.Changed:
		m.flash = res.Event.Title
		m.saver.Notify(m.st.State())
	default:
		m.flash = "no change"
	}
	m.rebuild()
}
