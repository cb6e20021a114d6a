// Package autosave writes the schedule to its backend after edits settle, off the
// interaction loop.
package autosave

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"site-planner/internal/journal"
	"site-planner/internal/model"
	"site-planner/internal/store"
)

const DefaultDebounce = 2 * time.Second

type Options struct {
	Persistence store.Persistence
	// Journal, when set, has its outbox flushed together with each save.
	Journal  *journal.Journal
	Debounce time.Duration
	Logger   *slog.Logger
}

// Saver debounces saves: each Notify replaces the pending snapshot and restarts a single
// timer; when it fires the latest snapshot is saved. Snapshots are immutable store states,
// so saving on the timer goroutine never races with the UI.
type Saver struct {
	p        store.Persistence
	j        *journal.Journal
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  model.State
	lastErr error
	saves   int

	saveMu sync.Mutex
}

func New(opts Options) *Saver {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Saver{p: opts.Persistence, j: opts.Journal, debounce: debounce, log: logger}
}

// Notify schedules st to be saved once no newer Notify arrives within the debounce window.
func (s *Saver) Notify(st model.State) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending = true
	s.latest = st
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
		s.mu.Unlock()
		return
	}
	s.timer.Reset(s.debounce)
	s.mu.Unlock()
}

func (s *Saver) onTimer() {
	if err := s.save(context.Background()); err != nil {
		s.log.Warn("autosave failed", "err", err)
	}
}

// take claims the pending snapshot, if any.
func (s *Saver) take() (model.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return model.State{}, false
	}
	s.pending = false
	st := s.latest
	s.latest = model.State{}
	return st, true
}

func (s *Saver) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	st, ok := s.take()
	if !ok {
		return nil
	}
	err := s.p.SaveAllProjects(ctx, st)
	if err == nil && s.j != nil {
		err = s.j.Flush(ctx)
	}

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.saves++
	} else if !s.pending {
		// Keep the snapshot so the next Flush or Notify retries it.
		s.pending = true
		s.latest = st
	}
	s.mu.Unlock()
	if err == nil {
		s.log.Debug("autosave", "projects", len(st.Projects))
	}
	return err
}

// Flush saves any pending snapshot now.
func (s *Saver) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Pending reports whether a snapshot is waiting to be saved.
func (s *Saver) Pending() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Err returns the result of the most recent save.
func (s *Saver) Err() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Saves counts successful saves.
func (s *Saver) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
