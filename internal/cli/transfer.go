package cli

import (
	"io"
	"os"
	"path/filepath"

	"site-planner/internal/model"
	"site-planner/internal/store"

	"github.com/spf13/cobra"
)

type importOut struct {
	mutationOut
	Projects int    `json:"projects"`
	Tasks    int    `json:"tasks"`
	Warning  string `json:"warning,omitempty"`
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole schedule with a JSON export (malformed input yields one empty project)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			st, perr := store.ParseState(b)
			out := importOut{}
			if perr != nil {
				app.log.Warn("import file is malformed; replacing the schedule with an empty project", "file", args[0], "err", perr)
				out.Warning = perr.Error()
			}
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				res, err := s.st.Import(st)
				if err != nil {
					return err
				}
				out.mutationOut = mutation(res)
				for _, p := range s.st.Projects() {
					out.Projects++
					out.Tasks += len(p.Tasks)
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

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the whole schedule as JSON (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st model.State
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				st = s.st.State()
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := store.MarshalState(st)
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(args) == 0 || args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(args[0]), 0o755); err != nil {
				return writeErr(cmd, err)
			}
			if err := os.WriteFile(args[0], b, 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"file": args[0], "projects": len(st.Projects)})
		},
	}
}
