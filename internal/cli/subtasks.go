package cli

import (
	"strings"

	"site-planner/internal/model"
	"site-planner/internal/store"

	"github.com/spf13/cobra"
)

func newSubtasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtasks",
		Short: "Subtask (position checklist) commands",
	}
	cmd.AddCommand(newSubtasksListCmd(app))
	cmd.AddCommand(newSubtasksAddCmd(app))
	cmd.AddCommand(newSubtasksToggleCmd(app))
	cmd.AddCommand(newSubtasksEditCmd(app))
	cmd.AddCommand(newSubtasksRmCmd(app))
	return cmd
}

func newSubtasksListCmd(app *App) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list <position>",
		Short: "List the subtasks under a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := subtaskTable{}
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				if projectID != "" {
					p, ok := s.st.Project(projectID)
					if !ok {
						return store.NotFoundError{Kind: "project", ID: projectID}
					}
					out = append(out, p.SubtasksByPosition[args[0]]...)
					return nil
				}
				_, subs := s.st.View()
				out = append(out, subs[args[0]]...)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Only this project's subtasks")
	return cmd
}

type subtaskFlags struct {
	title, due, assigned, urgency string
}

func (f *subtaskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.assigned, "assigned", "", "Assigned to")
	cmd.Flags().StringVar(&f.urgency, "urgency", "", "normal|medium|high|critical")
}

// apply copies the flags that were set onto sub.
func (f subtaskFlags) apply(cmd *cobra.Command, sub *model.Subtask) error {
	if cmd.Flags().Changed("title") {
		sub.Title = strings.TrimSpace(f.title)
	}
	if cmd.Flags().Changed("due") {
		d, err := optionalDay("due", f.due)
		if err != nil {
			return err
		}
		sub.DueDate = d
	}
	if cmd.Flags().Changed("assigned") {
		sub.AssignedTo = strings.TrimSpace(f.assigned)
	}
	if cmd.Flags().Changed("urgency") {
		u, err := model.ParseUrgency(f.urgency)
		if err != nil {
			return err
		}
		sub.Urgency = u
	}
	return nil
}

func newSubtasksAddCmd(app *App) *cobra.Command {
	var (
		projectID string
		f         subtaskFlags
	)
	cmd := &cobra.Command{
		Use:   "add <position>",
		Short: "Add a subtask under a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub model.Subtask
			if err := f.apply(cmd, &sub); err != nil {
				return writeErr(cmd, err)
			}
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.AddSubtask(store.SubtaskRef{ProjectID: projectID, Position: args[0]}, sub)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Owning project id")
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// subtaskRefFlags registers the flags that locate an existing subtask.
func subtaskRefFlags(cmd *cobra.Command, ref *store.SubtaskRef) {
	cmd.Flags().StringVar(&ref.ProjectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&ref.Position, "position", "", "Position the subtask belongs to")
	_ = cmd.MarkFlagRequired("position")
}

func newSubtasksToggleCmd(app *App) *cobra.Command {
	var ref store.SubtaskRef
	cmd := &cobra.Command{
		Use:   "toggle <subtask-id>",
		Short: "Complete or reopen a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref.SubtaskID = args[0]
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.ToggleSubtask(ref)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	subtaskRefFlags(cmd, &ref)
	return cmd
}

func newSubtasksEditCmd(app *App) *cobra.Command {
	var (
		ref store.SubtaskRef
		f   subtaskFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <subtask-id>",
		Short: "Edit a subtask's title, due date, assignee or urgency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref.SubtaskID = args[0]
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.UpdateSubtask(ref, func(sub *model.Subtask) error {
					return f.apply(cmd, sub)
				})
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	subtaskRefFlags(cmd, &ref)
	f.register(cmd)
	return cmd
}

func newSubtasksRmCmd(app *App) *cobra.Command {
	var ref store.SubtaskRef
	cmd := &cobra.Command{
		Use:   "rm <subtask-id>",
		Short: "Remove a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref.SubtaskID = args[0]
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.DeleteSubtask(ref)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	subtaskRefFlags(cmd, &ref)
	return cmd
}
