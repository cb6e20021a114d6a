package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"site-planner/internal/drag"
	"site-planner/internal/filter"
	"site-planner/internal/model"
	"site-planner/internal/store"
	"site-planner/internal/timeline"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksStatusCmd(app))
	cmd.AddCommand(newTasksDatesCmd(app))
	cmd.AddCommand(newTasksDragCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))
	return cmd
}

// optionalDay parses a date flag; empty means unset.
func optionalDay(name, v string) (*model.Day, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := model.ParseDay(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return d.Ptr(), nil
}

func today() model.Day { return model.DayOf(time.Now()) }

type listFlags struct {
	search    string
	processes []string
	has       []string
	group     string
}

func (f listFlags) criteria(tasks []model.Task) (filter.Criteria, filter.GroupBy, error) {
	c := filter.AllProcesses(tasks)
	if len(f.processes) > 0 {
		c.Processes = map[string]bool{}
		for _, p := range f.processes {
			c.Processes[strings.TrimSpace(p)] = true
		}
	}
	c.Search = f.search
	for _, h := range f.has {
		ind, err := filter.ParseIndicator(h)
		if err != nil {
			return c, "", err
		}
		c = c.ToggleIndicator(ind)
	}
	by, err := filter.ParseGroupBy(f.group)
	return c, by, err
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Match position, title or project name")
	cmd.Flags().StringSliceVar(&f.processes, "process", nil, "Only these processes (repeatable)")
	cmd.Flags().StringSliceVar(&f.has, "has", nil, "Require indicators: comments,attachments,description,subtasks")
	cmd.Flags().StringVar(&f.group, "group", "position", "Group rows by position|process")
}

func newTasksListCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of the active view (all projects when aggregated)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := taskTable{}
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				tasks, subs := s.st.View()
				c, by, err := f.criteria(tasks)
				if err != nil {
					return err
				}
				for _, r := range filter.Rows(tasks, subs, c, by) {
					if !r.IsHeader() {
						out = append(out, r.Task)
					}
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	f.register(cmd)
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var (
		projectID                            string
		t                                    model.Task
		start, end, plannedStart, plannedEnd string
		status, urgency                      string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to the owning project",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if t.Start, err = optionalDay("start", start); err != nil {
				return writeErr(cmd, err)
			}
			if t.End, err = optionalDay("end", end); err != nil {
				return writeErr(cmd, err)
			}
			if t.PlannedStart, err = optionalDay("planned-start", plannedStart); err != nil {
				return writeErr(cmd, err)
			}
			if t.PlannedEnd, err = optionalDay("planned-end", plannedEnd); err != nil {
				return writeErr(cmd, err)
			}
			if status != "" {
				if t.Status, err = model.ParseStatus(status); err != nil {
					return writeErr(cmd, err)
				}
			}
			if urgency != "" {
				if t.Urgency, err = model.ParseUrgency(urgency); err != nil {
					return writeErr(cmd, err)
				}
			}
			var res store.Result
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.AddTask(projectID, t)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Owning project id (default: active project)")
	cmd.Flags().StringVar(&t.Position, "position", "", "Position (site location)")
	cmd.Flags().StringVar(&t.Process, "process", "", "Construction process")
	cmd.Flags().StringVar(&t.Title, "title", "", "Title")
	cmd.Flags().StringVar(&t.Description, "description", "", "Description")
	cmd.Flags().StringVar(&t.Assignee, "assignee", "", "Assignee")
	cmd.Flags().IntVar(&t.Progress, "progress", 0, "Progress percent")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&plannedStart, "planned-start", "", "Baseline start date")
	cmd.Flags().StringVar(&plannedEnd, "planned-end", "", "Baseline end date")
	cmd.Flags().StringVar(&status, "status", "", "waiting|in_progress|done|late|blocked")
	cmd.Flags().StringVar(&urgency, "urgency", "", "normal|medium|high|critical")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

type taskDetail struct {
	model.Task
	Subtasks []model.Subtask `json:"subtasks"`
}

func newTasksShowCmd(app *App) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out taskDetail
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				t, err := s.resolveTask(args[0], projectID)
				if err != nil {
					return err
				}
				p, _ := s.st.Project(t.ProjectID)
				out = taskDetail{Task: t, Subtasks: append([]model.Subtask{}, p.SubtasksByPosition[t.Position]...)}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Owning project id")
	return cmd
}

func newTasksStatusCmd(app *App) *cobra.Command {
	var ref store.TaskRef
	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseStatus(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ref.TaskID = args[0]
			var res store.Result
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.SetTaskStatus(ref, status)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&ref.ProjectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&ref.Position, "position", "", "Task position (narrows the lookup)")
	return cmd
}

func newTasksDatesCmd(app *App) *cobra.Command {
	var (
		ref        store.TaskRef
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "dates <task-id>",
		Short: "Set a task's start and end dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := optionalDay("start", start)
			if err != nil {
				return writeErr(cmd, err)
			}
			ed, err := optionalDay("end", end)
			if err != nil {
				return writeErr(cmd, err)
			}
			ref.TaskID = args[0]
			var res store.Result
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.SetTaskDates(ref, sd, ed)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&ref.ProjectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&ref.Position, "position", "", "Task position (narrows the lookup)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

type dragOut struct {
	mutationOut
	Mode      drag.Mode `json:"mode"`
	DeltaDays int       `json:"deltaDays"`
	Start     model.Day `json:"start"`
	End       model.Day `json:"end"`
}

// newTasksDragCmd replays a pointer drag: the bar is grabbed at its left edge and the
// pointer travels dx pixels in the given number of moves, one frame each.
func newTasksDragCmd(app *App) *cobra.Command {
	var (
		projectID string
		mode      string
		dx        float64
		steps     int
	)
	cmd := &cobra.Command{
		Use:   "drag <task-id>",
		Short: "Move or resize a task bar by a pixel offset at the current zoom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := drag.ParseMode(mode)
			if err != nil {
				return writeErr(cmd, err)
			}
			if steps < 1 {
				steps = 1
			}
			var out dragOut
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				t, err := s.resolveTask(args[0], projectID)
				if err != nil {
					return err
				}
				if !t.HasDates() {
					return drag.ErrUndated
				}
				tasks, _ := s.st.View()
				tl := timeline.New(timeline.ComputeBounds(tasks, app.cfg.Padding, today()), app.cfg.ZoomLevel())
				c := drag.New(s.st, nil, app.log)
				x0 := tl.PixelX(*t.Start)
				if err := c.Begin(t, m, x0, tl); err != nil {
					return err
				}
				for i := 1; i <= steps; i++ {
					if err := c.Move(x0 + dx*float64(i)/float64(steps)); err != nil {
						return err
					}
					c.Frame()
				}
				d, _ := c.Active()
				res, err := c.End()
				if err != nil {
					return err
				}
				out = dragOut{mutationOut: mutation(res), Mode: m, DeltaDays: d.DeltaDays, Start: d.Start, End: d.End}
				return nil
			})
			if errors.Is(err, drag.ErrUndated) {
				err = fmt.Errorf("task %s has no dates; set them with `tasks dates` first", args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&mode, "mode", string(drag.ModeMove), "move|resize-left|resize-right")
	cmd.Flags().Float64Var(&dx, "dx", 0, "Horizontal pointer travel in pixels")
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of pointer moves the travel is split into")
	return cmd
}

func newTasksRmCmd(app *App) *cobra.Command {
	var ref store.TaskRef
	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref.TaskID = args[0]
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.DeleteTask(ref)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&ref.ProjectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&ref.Position, "position", "", "Task position (narrows the lookup)")
	return cmd
}
