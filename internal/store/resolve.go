package store

import (
	"strings"

	"site-planner/internal/model"
)

// TaskRef points at a task, possibly as seen through the aggregated view.
// ProjectID is the explicit owner when known (e.g. the view's provenance tag).
type TaskRef struct {
	ProjectID string
	Position  string
	TaskID    string
}

// RefOf builds a reference from a task value, carrying its provenance tag.
func RefOf(t model.Task) TaskRef {
	return TaskRef{ProjectID: t.ProjectID, Position: t.Position, TaskID: t.ID}
}

type SubtaskRef struct {
	ProjectID string
	Position  string
	SubtaskID string
}

// ResolveOwner determines the single project that must be mutated for an entity:
//
//  1. an explicit project id wins;
//  2. otherwise the active concrete project;
//  3. otherwise (aggregated mode) the tag of the entity with matching position and id in
//     the aggregated projection, provided every match carries the same tag. With an empty
//     entityID the position alone decides, and only when exactly one project uses it.
//
// Failure returns *OwnershipError; callers treat it as a no-op.
func (s *Store) ResolveOwner(position, entityID, explicitProjectID string) (string, error) {
	if id := strings.TrimSpace(explicitProjectID); id != "" {
		return id, nil
	}
	if id := s.ConcreteActiveProjectID(); id != "" {
		return id, nil
	}

	agg := s.Aggregated()
	if entityID == "" {
		if owner, ok := s.uniquePositionOwner(position); ok {
			return owner, nil
		}
		return "", &OwnershipError{Position: position}
	}
	owner := ""
	ambiguous := false
	match := func(projectID string) {
		if owner != "" && owner != projectID {
			ambiguous = true
		}
		if owner == "" {
			owner = projectID
		}
	}
	for _, t := range agg.Tasks {
		if t.ID == entityID && (position == "" || t.Position == position) {
			match(t.ProjectID)
		}
	}
	positions := agg.Positions
	if position != "" {
		positions = []string{position}
	}
	for _, pos := range positions {
		for _, sub := range agg.SubtasksByPosition[pos] {
			if sub.ID == entityID {
				match(sub.ProjectID)
			}
		}
	}
	if owner == "" || ambiguous {
		return "", &OwnershipError{Position: position, EntityID: entityID}
	}
	return owner, nil
}

func (s *Store) uniquePositionOwner(position string) (string, bool) {
	if position == "" {
		return "", false
	}
	owner := ""
	for _, p := range s.projects {
		if !p.HasPosition(position) && len(p.SubtasksByPosition[position]) == 0 {
			continue
		}
		if owner != "" {
			return "", false
		}
		owner = p.ID
	}
	return owner, owner != ""
}

// resolve wraps ResolveOwner and logs failures; the caller turns them into a no-op.
func (s *Store) resolve(op, position, entityID, explicit string) (string, error) {
	owner, err := s.ResolveOwner(position, entityID, explicit)
	if err != nil {
		s.log.Warn("ownership resolution failed; mutation dropped",
			"op", op, "position", position, "entity", entityID, "active", s.activeID)
		return "", err
	}
	return owner, nil
}
