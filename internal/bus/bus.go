// Package bus dispatches named, detail-bearing boundary events to other panels.
//
// The scheduling engine only emits; it never subscribes to its own events.
package bus

import "sync"

const (
	TaskCreated      = "task-created"
	TaskUpdated      = "task-updated"
	TaskDeleted      = "task-deleted"
	SubtaskChanged   = "subtask-changed"
	EventAdded       = "event-added"
	ScheduleImported = "schedule-imported"
	SwitchView       = "switch-view"
)

// Event is one emitted notification.
type Event struct {
	Name   string
	Detail any
}

type Handler func(Event)

// TaskDetail is the detail of task-* events.
type TaskDetail struct {
	ProjectID string
	TaskID    string
	Position  string
}

// SubtaskDetail is the detail of subtask-changed events.
type SubtaskDetail struct {
	ProjectID string
	Position  string
	SubtaskID string
	Change    string // added|updated|toggled|removed
}

// ViewDetail is the detail of switch-view events.
type ViewDetail struct {
	ProjectID string
	View      string
}

type subscription struct {
	id int
	fn Handler
}

// Bus is a synchronous publish/subscribe dispatcher. Handlers run in subscription order
// on the emitting goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

func New() *Bus { return &Bus{subs: map[string][]subscription{}} }

// Subscribe registers fn for name ("*" receives everything). The returned func unsubscribes.
func (b *Bus) Subscribe(name string, fn Handler) (cancel func()) {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[name]
		for i, s := range list {
			if s.id == id {
				b.subs[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers an event to subscribers of name and of "*". A nil bus drops it.
func (b *Bus) Emit(name string, detail any) {
	if b == nil {
		return
	}
	b.mu.Lock()
	targets := append([]subscription(nil), b.subs[name]...)
	targets = append(targets, b.subs["*"]...)
	b.mu.Unlock()

	ev := Event{Name: name, Detail: detail}
	for _, s := range targets {
		s.fn(ev)
	}
}
