package cli

import (
	"site-planner/internal/autosave"
	"site-planner/internal/tui"

	"github.com/spf13/cobra"
)

// runTUI opens the chart on the data dir. Edits are autosaved after the configured
// debounce and flushed once more on exit.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = s.close(ctx) }()

	saver := autosave.New(autosave.Options{
		Persistence: s.p,
		Journal:     s.j,
		Debounce:    app.cfg.Autosave,
		Logger:      app.log,
	})
	err = tui.Run(ctx, tui.Options{
		Store:   s.st,
		Saver:   saver,
		Zoom:    app.cfg.ZoomLevel(),
		Padding: app.cfg.Padding,
		Logger:  app.log,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
