package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"site-planner/internal/model"
)

// JSONLSink appends one JSON line per event. The file is only ever appended to.
type JSONLSink struct {
	Path string

	mu sync.Mutex
}

func NewJSONLSink(path string) *JSONLSink { return &JSONLSink{Path: filepath.Clean(path)} }

func (s *JSONLSink) Write(ctx context.Context, ev model.Event) error {
	if strings.TrimSpace(ev.ID) == "" {
		return formatErrEventContract("missing event id")
	}
	if strings.TrimSpace(ev.ProjectID) == "" {
		return formatErrEventContract("missing project id")
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func (s *JSONLSink) Close() error { return nil }

// Line is a decoded event with its source location.
type Line struct {
	Path  string
	Line  int
	Event model.Event
}

// ReadJSONL reads every event in path, oldest first. A missing file is an empty log.
func ReadJSONL(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Line{}, nil
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	out := []Line{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, Line{Path: path, Line: lineNo, Event: ev})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return recordedAt(out[i].Event).Before(recordedAt(out[j].Event)) })
	return out, nil
}

func recordedAt(ev model.Event) time.Time {
	if ev.RecordedAt != nil {
		return *ev.RecordedAt
	}
	return ev.Date
}
