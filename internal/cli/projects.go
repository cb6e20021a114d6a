package cli

import (
	"strings"

	"site-planner/internal/model"
	"site-planner/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory with an empty schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			var out map[string]any
			err := withSession(ctx, app, true, func(s *session) error {
				out = map[string]any{
					"dir":      app.cfg.Dir,
					"backend":  app.cfg.Backend,
					"journal":  app.cfg.Journal,
					"projects": len(s.st.Projects()),
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
}

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsUseCmd(app))
	cmd.AddCommand(newProjectsRenameCmd(app))
	return cmd
}

func projectRows(st *store.Store) projectTable {
	out := projectTable{}
	for _, p := range st.Projects() {
		out = append(out, projectRow{
			ID:     p.ID,
			Name:   p.Name,
			Tasks:  len(p.Tasks),
			Events: len(p.History),
			Active: p.ID == st.ActiveProjectID(),
		})
	}
	return out
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects (* marks the active one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows projectTable
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				rows = projectRows(s.st)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, rows)
		},
	}
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Project
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				if p, err = s.st.AddProject(strings.Join(args, " ")); err != nil {
					return err
				}
				if use {
					return s.st.SetActiveProject(p.ID)
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, p)
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Make the new project active")
	return cmd
}

func newProjectsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id|all>",
		Short: "Select the active project, or all projects for the aggregated view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if strings.EqualFold(id, "all") {
				id = model.AllProjects
			}
			var rows projectTable
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				if err := s.st.SetActiveProject(id); err != nil {
					return err
				}
				rows = projectRows(s.st)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, rows)
		},
	}
}

func newProjectsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res store.Result
			err := withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.RenameProject(args[0], strings.Join(args[1:], " "))
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
}
