package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"site-planner/internal/config"
	"site-planner/internal/format"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigFile string
	Dir        string
	Backend    string
	Journal    string
	Format     string
	PrettyJSON bool
	Zoom       string
	LogLevel   string
	LogFile    string

	cfg       config.Config
	log       *slog.Logger
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "planner",
		Short:        "Construction schedule planner (Gantt TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive Gantt chart
  planner

  # Scriptable commands
  planner projects list
  planner tasks add --position A-01 --process Formwork --start 2024-01-01 --end 2024-01-10
  planner tasks drag task-abcd --mode move --dx 90 --zoom week
  planner --format table tasks list --group process
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigFile, cmd.Flags())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		// The TUI owns the terminal; only a log file may receive its logs.
		var fallback io.Writer = cmd.ErrOrStderr()
		if cmd == cmd.Root() {
			fallback = nil
		}
		logger, closer, err := cfg.NewLogger(fallback)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log, app.logCloser = logger, closer
		slog.SetDefault(logger)
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", envOr("PLANNER_CONFIG", ""), "Config file (default: <dir>/config.yaml)")
	pf.StringVar(&app.Dir, "dir", config.DefaultDir, "Data directory")
	pf.StringVar(&app.Backend, "backend", "json", "Storage backend (json|sqlite|diskv)")
	pf.StringVar(&app.Journal, "journal", config.JournalJSONL, "Durable audit journal (none|jsonl|sqlite)")
	pf.StringVar(&app.Format, "format", "json", "Output format (json|edn|yaml|table)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.Zoom, "zoom", "week", "Timeline zoom (day|week|month)")
	pf.StringVar(&app.LogLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.LogFile, "log-file", "", "Write logs to this file")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newSubtasksCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newJournalCmd(app))
	cmd.AddCommand(newTimelineCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.PrettyJSON)
}

// writeData wraps data in the {"data": ...} envelope. With --format table, values that
// implement format.Table are rendered as a table instead.
func writeData(cmd *cobra.Command, app *App, data any) error {
	if t, ok := data.(format.Table); ok && strings.EqualFold(app.cfg.Format, "table") {
		return format.WriteTable(cmd.OutOrStdout(), t)
	}
	return writeOut(cmd, app, map[string]any{"data": data})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeData(cmd, app, app.cfg)
		},
	}
}
