// Package journal appends the per-project audit trail written by every committed mutation.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"site-planner/internal/model"

	"github.com/google/uuid"
)

// DefaultFeedCap bounds the display feed; history is never trimmed.
const DefaultFeedCap = 100

var ErrEventContract = errors.New("event contract violation")

func formatErrEventContract(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEventContract, fmt.Sprintf(format, args...))
}

// Draft is an event before the journal assigns its id and timestamps.
type Draft struct {
	Type        model.EventType
	Title       string
	Description string
	Position    string
	EntityID    string

	// Date defaults to the journal clock.
	Date time.Time
}

// Sink mirrors committed events somewhere durable.
type Sink interface {
	Write(ctx context.Context, ev model.Event) error
	Close() error
}

type Journal struct {
	FeedCap int
	Now     func() time.Time
	NewID   func() string
	Sink    Sink
	Logger  *slog.Logger

	mu     sync.Mutex
	outbox []model.Event
}

func New(sink Sink, logger *slog.Logger) *Journal {
	return &Journal{FeedCap: DefaultFeedCap, Sink: sink, Logger: logger}
}

func (j *Journal) now() time.Time {
	if j != nil && j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

func (j *Journal) newID() string {
	if j != nil && j.NewID != nil {
		return j.NewID()
	}
	return "evt-" + uuid.NewString()
}

func (j *Journal) feedCap() int {
	if j == nil || j.FeedCap <= 0 {
		return DefaultFeedCap
	}
	return j.FeedCap
}

// Append validates d, then appends exactly one event to both p.Events (trimmed to the feed
// cap, newest kept) and p.History (stamped with RecordedAt). p must be a private copy.
func (j *Journal) Append(p *model.Project, d Draft) (model.Event, error) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return model.Event{}, formatErrEventContract("missing project")
	}
	if strings.TrimSpace(string(d.Type)) == "" {
		return model.Event{}, formatErrEventContract("missing type")
	}
	if _, err := model.ParseEventType(string(d.Type)); err != nil {
		return model.Event{}, formatErrEventContract("unknown type %q", d.Type)
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return model.Event{}, formatErrEventContract("missing title")
	}

	now := j.now()
	date := d.Date
	if date.IsZero() {
		date = now
	}
	ev := model.Event{
		ID:          j.newID(),
		Date:        date.UTC(),
		Type:        d.Type,
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Position:    d.Position,
		EntityID:    d.EntityID,
		ProjectID:   p.ID,
	}

	p.Events = append(p.Events, ev)
	if n := j.feedCap(); len(p.Events) > n {
		p.Events = append([]model.Event(nil), p.Events[len(p.Events)-n:]...)
	}

	hist := ev
	stamp := now
	hist.RecordedAt = &stamp
	p.History = append(p.History, hist)
	return hist, nil
}

// Publish queues a committed event for the sink. Nothing is written until Flush, so
// mutations on the interaction path never touch the disk.
func (j *Journal) Publish(ev model.Event) {
	if j == nil || j.Sink == nil {
		return
	}
	j.mu.Lock()
	j.outbox = append(j.outbox, ev)
	j.mu.Unlock()
}

// Pending returns the number of queued, unflushed events.
func (j *Journal) Pending() int {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.outbox)
}

// Flush writes queued events to the sink in order. Sink failures never undo a mutation;
// they are logged and the first one is returned. Failed events are dropped.
func (j *Journal) Flush(ctx context.Context) error {
	if j == nil || j.Sink == nil {
		return nil
	}
	j.mu.Lock()
	queued := j.outbox
	j.outbox = nil
	j.mu.Unlock()

	var first error
	for _, ev := range queued {
		if err := j.Sink.Write(ctx, ev); err != nil {
			if j.Logger != nil {
				j.Logger.Warn("journal sink write failed", "event", ev.ID, "project", ev.ProjectID, "err", err)
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close flushes the outbox and closes the sink.
func (j *Journal) Close(ctx context.Context) error {
	if j == nil || j.Sink == nil {
		return nil
	}
	err := j.Flush(ctx)
	if cerr := j.Sink.Close(); err == nil {
		err = cerr
	}
	return err
}
