package store

import (
	"sort"

	"site-planner/internal/model"
)

// Aggregated is the read-only all-projects projection. Every task and subtask carries the
// id of the project it was read from.
type Aggregated struct {
	Tasks              []model.Task
	Positions          []string
	Events             []model.Event
	History            []model.Event
	SubtasksByPosition map[string][]model.Subtask
}

// Aggregated returns the projection for the current revision, rebuilding it only when
// the project set has been replaced since the last call.
func (s *Store) Aggregated() *Aggregated {
	if s.agg == nil || s.aggRev != s.rev {
		s.agg = buildAggregated(s.projects)
		s.aggRev = s.rev
	}
	return s.agg
}

func buildAggregated(projects []model.Project) *Aggregated {
	agg := &Aggregated{
		Tasks:              []model.Task{},
		Positions:          []string{},
		Events:             []model.Event{},
		History:            []model.Event{},
		SubtasksByPosition: map[string][]model.Subtask{},
	}
	seenPos := map[string]bool{}
	addPos := func(pos string) {
		if pos == "" || seenPos[pos] {
			return
		}
		seenPos[pos] = true
		agg.Positions = append(agg.Positions, pos)
	}

	for _, p := range projects {
		for _, t := range p.Tasks {
			tagged := t.Clone()
			tagged.ProjectID = p.ID
			tagged.ProjectName = p.Name
			agg.Tasks = append(agg.Tasks, tagged)
		}
		for _, pos := range p.Positions {
			addPos(pos)
		}
		// Deterministic merge order for subtasks: project order, then position name.
		positions := make([]string, 0, len(p.SubtasksByPosition))
		for pos := range p.SubtasksByPosition {
			positions = append(positions, pos)
		}
		sort.Strings(positions)
		for _, pos := range positions {
			addPos(pos)
			for _, sub := range p.SubtasksByPosition[pos] {
				tagged := sub.Clone()
				tagged.ProjectID = p.ID
				agg.SubtasksByPosition[pos] = append(agg.SubtasksByPosition[pos], tagged)
			}
		}
		for _, ev := range p.Events {
			ev.ProjectID = p.ID
			agg.Events = append(agg.Events, ev)
		}
		for _, ev := range p.History {
			ev.ProjectID = p.ID
			agg.History = append(agg.History, ev)
		}
	}
	sortEventsNewestFirst(agg.Events)
	sortEventsNewestFirst(agg.History)
	return agg
}

func sortEventsNewestFirst(evs []model.Event) []model.Event {
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Date.After(evs[j].Date) })
	return evs
}
