package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"site-planner/internal/model"
	"site-planner/internal/store"
)

type recorder struct {
	mu    sync.Mutex
	saved []model.State
	fail  error
}

func (r *recorder) LoadAllProjects(context.Context) (model.State, error) { return store.EmptyState(), nil }

func (r *recorder) SaveAllProjects(_ context.Context, st model.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saved = append(r.saved, st)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func stateNamed(name string) model.State {
	return model.State{Projects: []model.Project{{ID: "p1", Name: name}}, ActiveProjectID: "p1"}
}

func TestNotify_CoalescesBurstIntoOneSave(t *testing.T) {
	rec := &recorder{}
	s := New(Options{Persistence: rec, Debounce: 20 * time.Millisecond})
	for _, n := range []string{"a", "b", "c"} {
		s.Notify(stateNamed(n))
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if rec.count() != 1 {
		t.Fatalf("expected one save; got %d", rec.count())
	}
	if got := rec.saved[0].Projects[0].Name; got != "c" {
		t.Fatalf("expected latest snapshot saved; got %q", got)
	}
}

func TestFlush_SavesImmediately(t *testing.T) {
	rec := &recorder{}
	s := New(Options{Persistence: rec, Debounce: time.Hour})
	s.Notify(stateNamed("x"))
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if rec.count() != 1 || s.Pending() {
		t.Fatalf("expected flushed save; count=%d pending=%v", rec.count(), s.Pending())
	}
	if err := s.Flush(context.Background()); err != nil || rec.count() != 1 {
		t.Fatalf("second flush must be a no-op; count=%d err=%v", rec.count(), err)
	}
}

func TestFlush_FailureKeepsSnapshot(t *testing.T) {
	boom := errors.New("disk full")
	rec := &recorder{fail: boom}
	s := New(Options{Persistence: rec, Debounce: time.Hour})
	s.Notify(stateNamed("x"))

	if err := s.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected failure; got %v", err)
	}
	if !s.Pending() || !errors.Is(s.Err(), boom) {
		t.Fatalf("expected snapshot kept for retry")
	}

	rec.mu.Lock()
	rec.fail = nil
	rec.mu.Unlock()
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if rec.count() != 1 || s.Saves() != 1 {
		t.Fatalf("expected retry to save once; got %d", rec.count())
	}
}
