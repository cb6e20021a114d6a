package filter

import (
	"sort"

	"site-planner/internal/model"
)

type RowKind int

const (
	RowHeader RowKind = iota
	RowTask
)

func (k RowKind) String() string {
	if k == RowHeader {
		return "header"
	}
	return "task"
}

func (k RowKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Row is one physical chart row. Index is its position in the flat list.
type Row struct {
	Index int        `json:"index"`
	Kind  RowKind    `json:"kind"`
	Group string     `json:"group"`
	Count int        `json:"count,omitempty"` // header rows: tasks in the group
	Task  model.Task `json:"task,omitempty"`
}

func (r Row) IsHeader() bool { return r.Kind == RowHeader }

// Rows filters tasks and flattens them into header + task rows, one header per group.
// Groups are ordered by key; tasks inside a group by start date, undated tasks last,
// ties keeping input order.
func Rows(tasks []model.Task, subtasks map[string][]model.Subtask, c Criteria, by GroupBy) []Row {
	groups := map[string][]model.Task{}
	var keys []string
	for _, t := range tasks {
		if !Match(t, subtasks, c) {
			continue
		}
		k := groupKey(t, by)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}
	sort.Strings(keys)

	out := make([]Row, 0, len(keys)+len(tasks))
	for _, k := range keys {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool { return startLess(g[i], g[j]) })
		out = append(out, Row{Index: len(out), Kind: RowHeader, Group: k, Count: len(g)})
		for _, t := range g {
			out = append(out, Row{Index: len(out), Kind: RowTask, Group: k, Task: t})
		}
	}
	return out
}

func groupKey(t model.Task, by GroupBy) string {
	if by == GroupByProcess {
		return t.Process
	}
	return t.Position
}

func startLess(a, b model.Task) bool {
	as, bs := a.Start.IsSet(), b.Start.IsSet()
	switch {
	case as && bs:
		return a.Start.Before(*b.Start)
	case as:
		return true
	default:
		return false
	}
}
