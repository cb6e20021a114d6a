package journal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"site-planner/internal/model"
)

func fixedJournal() *Journal {
	n := 0
	return &Journal{
		FeedCap: 3,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("evt-%d", n)
		},
	}
}

func TestAppend_WritesFeedAndHistory(t *testing.T) {
	j := fixedJournal()
	p := &model.Project{ID: "p1"}

	ev, err := j.Append(p, Draft{Type: model.EventNote, Title: "  site visit  ", Position: "A-01"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(p.Events) != 1 || len(p.History) != 1 {
		t.Fatalf("expected one event in feed and history; got %d/%d", len(p.Events), len(p.History))
	}
	if ev.ID != "evt-1" || ev.ProjectID != "p1" || ev.Title != "site visit" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if p.History[0].RecordedAt == nil || !p.History[0].RecordedAt.Equal(j.Now()) {
		t.Fatalf("expected history to carry the journal timestamp; got %+v", p.History[0].RecordedAt)
	}
	if p.Events[0].RecordedAt != nil {
		t.Fatalf("feed entries are not stamped")
	}
}

func TestAppend_FeedIsCappedHistoryIsNot(t *testing.T) {
	j := fixedJournal()
	p := &model.Project{ID: "p1"}
	for i := 0; i < 5; i++ {
		if _, err := j.Append(p, Draft{Type: model.EventNote, Title: fmt.Sprintf("n%d", i)}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if len(p.Events) != 3 {
		t.Fatalf("expected feed capped at 3; got %d", len(p.Events))
	}
	if p.Events[0].Title != "n2" || p.Events[2].Title != "n4" {
		t.Fatalf("expected newest entries kept; got %q..%q", p.Events[0].Title, p.Events[2].Title)
	}
	if len(p.History) != 5 {
		t.Fatalf("expected full history; got %d", len(p.History))
	}
}

func TestAppend_RejectsContractViolationsWithoutWriting(t *testing.T) {
	j := fixedJournal()
	p := &model.Project{ID: "p1"}
	bad := []Draft{
		{Title: "no type"},
		{Type: "bogus", Title: "x"},
		{Type: model.EventNote, Title: "   "},
	}
	for _, d := range bad {
		if _, err := j.Append(p, d); !errors.Is(err, ErrEventContract) {
			t.Fatalf("expected ErrEventContract for %+v; got %v", d, err)
		}
	}
	if _, err := j.Append(&model.Project{}, Draft{Type: model.EventNote, Title: "x"}); !errors.Is(err, ErrEventContract) {
		t.Fatalf("expected ErrEventContract for missing project; got %v", err)
	}
	if len(p.Events) != 0 || len(p.History) != 0 {
		t.Fatalf("rejected drafts must not append")
	}
}

func TestJSONLSink_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "events.jsonl")
	j := fixedJournal()
	j.Sink = NewJSONLSink(path)
	p := &model.Project{ID: "p1"}

	for _, title := range []string{"first", "second"} {
		ev, err := j.Append(p, Draft{Type: model.EventNote, Title: title})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		j.Publish(ev)
	}
	if j.Pending() != 2 {
		t.Fatalf("expected 2 queued events; got %d", j.Pending())
	}
	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	lines, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(lines) != 2 || lines[0].Event.Title != "first" || lines[1].Line != 2 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if err := j.Sink.Write(context.Background(), model.Event{ID: "x"}); !errors.Is(err, ErrEventContract) {
		t.Fatalf("expected contract error for missing project; got %v", err)
	}
}

func TestReadJSONL_MissingFileIsEmpty(t *testing.T) {
	lines, err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil || len(lines) != 0 {
		t.Fatalf("expected empty log; got %v %v", lines, err)
	}
}

func TestSQLiteSink_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sink, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "audit.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer sink.Close()

	j := fixedJournal()
	j.Sink = sink
	p1 := &model.Project{ID: "p1"}
	p2 := &model.Project{ID: "p2"}
	for _, p := range []*model.Project{p1, p2, p1} {
		ev, err := j.Append(p, Draft{Type: model.EventDurationChanged, Title: "moved", EntityID: "t1"})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		j.Publish(ev)
	}
	if err := j.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	all, err := sink.Read(ctx, "", 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events; got %d", len(all))
	}
	only, err := sink.Read(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Read p1: %v", err)
	}
	if len(only) != 2 || only[0].Type != model.EventDurationChanged || only[0].EntityID != "t1" {
		t.Fatalf("unexpected p1 events: %+v", only)
	}
	limited, err := sink.Read(ctx, "", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to apply; got %d %v", len(limited), err)
	}
}
