package cli

import (
	"site-planner/internal/filter"
	"site-planner/internal/gantt"
	"site-planner/internal/model"
	"site-planner/internal/timeline"
	"site-planner/internal/virtual"

	"github.com/spf13/cobra"
)

func newTimelineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Inspect the chart coordinate space",
	}
	cmd.AddCommand(newTimelineBoundsCmd(app))
	cmd.AddCommand(newTimelineSceneCmd(app))
	return cmd
}

// todayFlag returns the --today value, or the current date.
func todayFlag(v string) (model.Day, error) {
	d, err := optionalDay("today", v)
	if err != nil || d == nil {
		return today(), err
	}
	return *d, nil
}

type boundsOut struct {
	Bounds     timeline.Bounds `json:"bounds"`
	Zoom       timeline.Zoom   `json:"zoom"`
	DayWidth   float64         `json:"dayWidth"`
	TotalDays  int             `json:"totalDays"`
	TotalWidth float64         `json:"totalWidth"`
}

func newTimelineBoundsCmd(app *App) *cobra.Command {
	var todayStr string
	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Show the timeline window of the active view",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := todayFlag(todayStr)
			if err != nil {
				return writeErr(cmd, err)
			}
			var out boundsOut
			err = withSession(commandContext(cmd), app, false, func(s *session) error {
				tasks, _ := s.st.View()
				tl := timeline.New(timeline.ComputeBounds(tasks, app.cfg.Padding, now), app.cfg.ZoomLevel())
				out = boundsOut{
					Bounds:     tl.Bounds,
					Zoom:       tl.Zoom,
					DayWidth:   tl.DayWidth(),
					TotalDays:  tl.TotalDays(),
					TotalWidth: tl.TotalWidth(),
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().StringVar(&todayStr, "today", "", "Reference date for an empty schedule (default: today)")
	return cmd
}

func newTimelineSceneCmd(app *App) *cobra.Command {
	var (
		todayStr string
		vp       virtual.Viewport
		f        listFlags
	)
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Build the visible rows and day-columns for a viewport",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := todayFlag(todayStr)
			if err != nil {
				return writeErr(cmd, err)
			}
			var sc gantt.Scene
			err = withSession(commandContext(cmd), app, false, func(s *session) error {
				tasks, subs := s.st.View()
				c, by, err := f.criteria(tasks)
				if err != nil {
					return err
				}
				rows := filter.Rows(tasks, subs, c, by)
				tl := timeline.New(timeline.ComputeBounds(tasks, app.cfg.Padding, now), app.cfg.ZoomLevel())
				v := virtual.NewDefault(virtual.Content{
					DayWidth:  tl.DayWidth(),
					TotalDays: tl.TotalDays(),
					TotalRows: len(rows),
					RowHeight: virtual.RowHeight,
				}, vp, nil)
				sc = gantt.Build(tl, rows, v.Ranges())
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, sceneTable{sc})
		},
	}
	cmd.Flags().StringVar(&todayStr, "today", "", "Reference date for an empty schedule (default: today)")
	cmd.Flags().Float64Var(&vp.ScrollLeft, "scroll-left", 0, "Horizontal scroll offset in pixels")
	cmd.Flags().Float64Var(&vp.ScrollTop, "scroll-top", 0, "Vertical scroll offset in pixels")
	cmd.Flags().Float64Var(&vp.Width, "width", 1200, "Viewport width in pixels")
	cmd.Flags().Float64Var(&vp.Height, "height", 800, "Viewport height in pixels")
	f.register(cmd)
	return cmd
}
