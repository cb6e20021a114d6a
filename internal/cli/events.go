package cli

import (
	"errors"
	"strings"

	"site-planner/internal/config"
	"site-planner/internal/journal"
	"site-planner/internal/model"
	"site-planner/internal/store"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Project event feed commands",
	}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsAddCmd(app))
	return cmd
}

func limitEvents(evs []model.Event, limit int) []model.Event {
	if limit > 0 && len(evs) > limit {
		return evs[:limit]
	}
	return evs
}

func newEventsListCmd(app *App) *cobra.Command {
	var (
		history bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the event feed of the active view, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := eventTable{}
			err := withSession(commandContext(cmd), app, false, func(s *session) error {
				out = append(out, limitEvents(s.st.ViewEvents(history), limit)...)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Show the full history instead of the capped feed")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N events")
	return cmd
}

func newEventsAddCmd(app *App) *cobra.Command {
	var (
		projectID string
		typ       string
		d         journal.Draft
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a site note or other event",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseEventType(typ)
			if err != nil {
				return writeErr(cmd, err)
			}
			d.Type = t
			var res store.Result
			err = withSession(commandContext(cmd), app, true, func(s *session) error {
				var err error
				res, err = s.st.AddEvent(projectID, d)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, mutation(res))
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Owning project id")
	cmd.Flags().StringVar(&typ, "type", string(model.EventNote), "Event type")
	cmd.Flags().StringVar(&d.Title, "title", "", "Title")
	cmd.Flags().StringVar(&d.Description, "description", "", "Description")
	cmd.Flags().StringVar(&d.Position, "position", "", "Position the event concerns")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// newJournalCmd reads the durable audit sink, which survives state imports and resets.
func newJournalCmd(app *App) *cobra.Command {
	var (
		limit     int
		projectID string
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read the durable audit journal (oldest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			out := eventTable{}
			switch strings.ToLower(app.cfg.Journal) {
			case config.JournalJSONL:
				lines, err := journal.ReadJSONL(journalPath(app.cfg))
				if err != nil {
					return writeErr(cmd, err)
				}
				for _, l := range lines {
					if projectID == "" || l.Event.ProjectID == projectID {
						out = append(out, l.Event)
					}
				}
				if limit > 0 && len(out) > limit {
					out = out[len(out)-limit:]
				}
			case config.JournalSQLite:
				sink, err := journal.OpenSQLite(ctx, journalPath(app.cfg))
				if err != nil {
					return writeErr(cmd, err)
				}
				defer sink.Close()
				evs, err := sink.Read(ctx, projectID, 0)
				if err != nil {
					return writeErr(cmd, err)
				}
				if limit > 0 && len(evs) > limit {
					evs = evs[len(evs)-limit:]
				}
				out = append(out, evs...)
			default:
				return writeErr(cmd, errors.New("journal is disabled (journal: none)"))
			}
			return writeData(cmd, app, out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the last N entries")
	cmd.Flags().StringVar(&projectID, "project", "", "Only this project's entries")
	return cmd
}
