package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"site-planner/internal/bus"
	"site-planner/internal/config"
	"site-planner/internal/journal"
	"site-planner/internal/model"
	"site-planner/internal/store"
)

// session is one command's view of the data dir: the persisted state loaded into a
// store, plus the journal sink its mutations are mirrored to.
type session struct {
	app   *App
	p     store.Persistence
	st    *store.Store
	j     *journal.Journal
	jsink *journal.SQLiteSink

	// loadErr is set when the stored state was unreadable and an empty one was used.
	loadErr error
}

func journalPath(cfg config.Config) string {
	switch strings.ToLower(cfg.Journal) {
	case config.JournalSQLite:
		return filepath.Join(cfg.Dir, "journal.sqlite")
	case config.JournalJSONL:
		return filepath.Join(cfg.Dir, "journal.jsonl")
	}
	return ""
}

func openSession(ctx context.Context, app *App) (*session, error) {
	cfg := app.cfg
	p, err := store.Open(ctx, cfg.Backend, cfg.Dir)
	if err != nil {
		return nil, err
	}
	s := &session{app: app, p: p}

	st, err := p.LoadAllProjects(ctx)
	if err != nil {
		// A corrupt state file must not lock the user out; keep going with what parsed.
		app.log.Warn("stored schedule is unreadable; starting from an empty project", "backend", cfg.Backend, "err", err)
		s.loadErr = err
		if len(st.Projects) == 0 {
			st = store.EmptyState()
		}
	}

	var sink journal.Sink
	switch strings.ToLower(cfg.Journal) {
	case config.JournalJSONL:
		sink = journal.NewJSONLSink(journalPath(cfg))
	case config.JournalSQLite:
		sq, err := journal.OpenSQLite(ctx, journalPath(cfg))
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		s.jsink = sq
		sink = sq
	}
	s.j = journal.New(sink, app.log)
	s.j.FeedCap = cfg.FeedCap

	s.st = store.New(st, store.Options{Journal: s.j, Bus: bus.New(), Logger: app.log})
	return s, nil
}

// save persists the whole state and flushes the journal outbox.
func (s *session) save(ctx context.Context) error {
	if err := s.p.SaveAllProjects(ctx, s.st.State()); err != nil {
		return err
	}
	if err := s.j.Flush(ctx); err != nil {
		// The schedule is saved; a lost audit line is reported but not fatal.
		s.app.log.Warn("journal flush failed", "err", err)
	}
	return nil
}

func (s *session) close(ctx context.Context) error {
	return errors.Join(s.j.Close(ctx), s.p.Close())
}

// withSession opens a session, runs fn and, when mutate is true, saves before closing.
func withSession(ctx context.Context, app *App, mutate bool, fn func(s *session) error) error {
	s, err := openSession(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = s.close(ctx) }()
	if err := fn(s); err != nil {
		return err
	}
	if !mutate {
		return nil
	}
	return s.save(ctx)
}

// resolveTask finds a task by id in the current view, honouring an explicit project.
func (s *session) resolveTask(id, projectID string) (model.Task, error) {
	ref := store.TaskRef{ProjectID: projectID, TaskID: id}
	if projectID == "" {
		tasks, _ := s.st.View()
		for _, t := range tasks {
			if t.ID == id {
				ref = store.RefOf(t)
				break
			}
		}
	}
	return s.st.Task(ref)
}
