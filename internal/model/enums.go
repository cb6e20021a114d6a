package model

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusLate       Status = "late"
	StatusBlocked    Status = "blocked"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusWaiting, StatusInProgress, StatusDone, StatusLate, StatusBlocked}

func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	for _, st := range Statuses {
		if string(st) == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// Next returns the status that follows s in display order, wrapping around.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusWaiting
}

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var Urgencies = []Urgency{UrgencyNormal, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func ParseUrgency(s string) (Urgency, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, u := range Urgencies {
		if string(u) == v {
			return u, nil
		}
	}
	return "", fmt.Errorf("invalid urgency: %q", s)
}

type EventType string

const (
	EventTaskCreated     EventType = "task_created"
	EventTaskUpdated     EventType = "task_updated"
	EventTaskDeleted     EventType = "task_deleted"
	EventStatusChanged   EventType = "status_changed"
	EventDurationChanged EventType = "duration_changed"
	EventSubtaskAdded    EventType = "subtask_added"
	EventSubtaskUpdated  EventType = "subtask_updated"
	EventSubtaskToggled  EventType = "subtask_toggled"
	EventSubtaskRemoved  EventType = "subtask_removed"
	EventNote            EventType = "note"
	EventImport          EventType = "import"
	EventProjectCreated  EventType = "project_created"
)

var eventTypes = []EventType{
	EventTaskCreated, EventTaskUpdated, EventTaskDeleted, EventStatusChanged,
	EventDurationChanged, EventSubtaskAdded, EventSubtaskUpdated, EventSubtaskToggled,
	EventSubtaskRemoved, EventNote, EventImport, EventProjectCreated,
}

func ParseEventType(s string) (EventType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, t := range eventTypes {
		if string(t) == v {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid event type: %q", s)
}
