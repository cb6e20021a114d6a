// Package filter selects tasks and flattens them into the row list the chart scrolls over.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"site-planner/internal/model"
)

type Indicator string

const (
	HasComments    Indicator = "comments"
	HasAttachments Indicator = "attachments"
	HasDescription Indicator = "description"
	HasSubtasks    Indicator = "subtasks"
)

var Indicators = []Indicator{HasComments, HasAttachments, HasDescription, HasSubtasks}

func ParseIndicator(s string) (Indicator, error) {
	v := Indicator(strings.ToLower(strings.TrimSpace(s)))
	for _, ind := range Indicators {
		if ind == v {
			return ind, nil
		}
	}
	return "", fmt.Errorf("invalid indicator: %q (want comments|attachments|description|subtasks)", s)
}

type GroupBy string

const (
	GroupByPosition GroupBy = "position"
	GroupByProcess  GroupBy = "process"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupByPosition:
		return GroupByPosition, nil
	case GroupByProcess:
		return GroupByProcess, nil
	default:
		return "", fmt.Errorf("invalid group: %q (want position|process)", s)
	}
}

func (g GroupBy) Toggle() GroupBy {
	if g == GroupByProcess {
		return GroupByPosition
	}
	return GroupByProcess
}

// Criteria is the active filter. A task passes only if its process is in Processes.
type Criteria struct {
	Processes  map[string]bool
	Search     string
	Indicators map[Indicator]bool
}

// AllProcesses returns criteria admitting every process that occurs in tasks.
func AllProcesses(tasks []model.Task) Criteria {
	c := Criteria{Processes: map[string]bool{}, Indicators: map[Indicator]bool{}}
	for _, p := range Processes(tasks) {
		c.Processes[p] = true
	}
	return c
}

// Processes returns the distinct processes in tasks, sorted.
func Processes(tasks []model.Task) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		if seen[t.Process] {
			continue
		}
		seen[t.Process] = true
		out = append(out, t.Process)
	}
	sort.Strings(out)
	return out
}

// ToggleIndicator flips ind and returns the updated criteria.
func (c Criteria) ToggleIndicator(ind Indicator) Criteria {
	next := make(map[Indicator]bool, len(c.Indicators)+1)
	for k, v := range c.Indicators {
		next[k] = v
	}
	next[ind] = !next[ind]
	c.Indicators = next
	return c
}

func (c Criteria) activeIndicators() []Indicator {
	var out []Indicator
	for _, ind := range Indicators {
		if c.Indicators[ind] {
			out = append(out, ind)
		}
	}
	return out
}

// Match reports whether t passes c. subtasks is the by-position subtask map of the
// collection t was read from.
func Match(t model.Task, subtasks map[string][]model.Subtask, c Criteria) bool {
	if !c.Processes[t.Process] {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		hay := strings.ToLower(t.Position + " " + t.Title + " " + t.ProjectName)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	for _, ind := range c.activeIndicators() {
		if !hasIndicator(t, subtasks, ind) {
			return false
		}
	}
	return true
}

func hasIndicator(t model.Task, subtasks map[string][]model.Subtask, ind Indicator) bool {
	switch ind {
	case HasComments:
		return len(t.Comments) > 0
	case HasAttachments:
		return len(t.Attachments) > 0
	case HasDescription:
		return strings.TrimSpace(t.Description) != ""
	case HasSubtasks:
		return len(SubtasksFor(t, subtasks)) > 0
	default:
		return false
	}
}

// SubtasksFor returns the subtasks under t's position. In the aggregated view the merged
// map holds subtasks from every project, so tagged tasks only see their own project's.
func SubtasksFor(t model.Task, subtasks map[string][]model.Subtask) []model.Subtask {
	subs := subtasks[t.Position]
	if t.ProjectID == "" {
		return subs
	}
	var out []model.Subtask
	for _, s := range subs {
		if s.ProjectID == "" || s.ProjectID == t.ProjectID {
			out = append(out, s)
		}
	}
	return out
}
