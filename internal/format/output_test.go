package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

type payload struct {
	ProjectID string   `json:"projectId"`
	Count     int      `json:"count"`
	Ratio     float64  `json:"ratio"`
	Tags      []string `json:"tags"`
	Missing   *string  `json:"missing"`
}

func TestWrite_EDN(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, payload{ProjectID: "p1", Count: 2, Ratio: 0.5, Tags: []string{"a", "b"}}, "edn", false)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `{:count 2 :missing nil :project-id "p1" :ratio 0.5 :tags ["a" "b"]}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWrite_EDNPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"a": []any{1, 2}, "e": []any{}}, "edn", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "{\n  :a [\n    1\n    2\n  ]\n  :e []\n}\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWrite_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, payload{ProjectID: "p1", Count: 3}, "yaml", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "projectId: p1") || !strings.Contains(out, "count: 3") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

type tasksTable [][]any

func (t tasksTable) Header() []any  { return []any{"ID", "STATUS"} }
func (t tasksTable) Rows() [][]any { return t }

func TestWrite_Table(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	if err := Write(&buf, tasksTable{{"t1", Status("done")}, {"t2", "waiting"}}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows; got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "done") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestWrite_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 1}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"n": 1`) {
		t.Fatalf("expected json fallback; got %q", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "xml", false); err == nil {
		t.Fatalf("expected error")
	}
}
