package model

import "testing"

func TestStatusNext_Wraps(t *testing.T) {
	if got := StatusInProgress.Next(); got != StatusDone {
		t.Fatalf("in_progress.Next = %s", got)
	}
	if got := StatusBlocked.Next(); got != StatusWaiting {
		t.Fatalf("blocked.Next = %s", got)
	}
	if got, err := ParseStatus("In-Progress"); err != nil || got != StatusInProgress {
		t.Fatalf("ParseStatus = %s, %v", got, err)
	}
}

func TestProjectNormalize(t *testing.T) {
	empty := Day{}
	p := Project{
		ID:              "p1",
		LegacyPositions: []string{"A-01"},
		Tasks: []Task{
			{ID: "t1", Position: "B-01", Start: &empty, Progress: 140, ProjectID: "p9", ProjectName: "Other"},
		},
	}
	if !p.Normalize() {
		t.Fatalf("expected Normalize to report a change")
	}
	if len(p.Positions) != 2 || p.Positions[0] != "A-01" || p.Positions[1] != "B-01" {
		t.Fatalf("positions = %v", p.Positions)
	}
	tk := p.Tasks[0]
	if tk.Start != nil || tk.Progress != 100 || tk.Status != StatusWaiting || tk.Urgency != UrgencyNormal {
		t.Fatalf("task = %+v", tk)
	}
	if tk.ProjectID != "" || tk.ProjectName != "" {
		t.Fatalf("stored tasks must not carry a provenance tag: %+v", tk)
	}
	if p.SubtasksByPosition == nil || p.Events == nil || p.History == nil {
		t.Fatalf("collections should be non-nil")
	}
}

func TestProjectNormalize_SwapsInvertedRange(t *testing.T) {
	p := Project{
		ID: "p1",
		Tasks: []Task{{
			ID: "t1", Position: "A-01",
			Start: MustDay("2024-02-01").Ptr(), End: MustDay("2024-01-01").Ptr(),
			PlannedStart: MustDay("2024-03-05").Ptr(), PlannedEnd: MustDay("2024-03-01").Ptr(),
		}},
		Positions: []string{"A-01"},
	}
	if !p.Normalize() {
		t.Fatalf("expected Normalize to report a change")
	}
	tk := p.Tasks[0]
	if tk.Start.String() != "2024-01-01" || tk.End.String() != "2024-02-01" {
		t.Fatalf("range = %s..%s", tk.Start, tk.End)
	}
	if tk.PlannedStart.String() != "2024-03-01" || tk.PlannedEnd.String() != "2024-03-05" {
		t.Fatalf("planned = %s..%s", tk.PlannedStart, tk.PlannedEnd)
	}
}

func TestProjectClone_IsDeep(t *testing.T) {
	start := MustDay("2024-01-01")
	p := Project{
		Tasks:              []Task{{ID: "t1", Start: &start}},
		SubtasksByPosition: map[string][]Subtask{"A-01": {{ID: "s1"}}},
	}
	c := p.Clone()
	*c.Tasks[0].Start = MustDay("2030-01-01")
	c.SubtasksByPosition["A-01"][0].Done = true

	if p.Tasks[0].Start.String() != "2024-01-01" {
		t.Fatalf("clone shares task dates")
	}
	if p.SubtasksByPosition["A-01"][0].Done {
		t.Fatalf("clone shares subtasks")
	}
}
