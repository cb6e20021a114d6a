package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"site-planner/internal/model"
)

const stateFileName = "schedule.json"

// Persistence loads and saves the whole schedule. Backends never see partial states.
type Persistence interface {
	// LoadAllProjects returns the stored state, or EmptyState when nothing is stored yet.
	LoadAllProjects(ctx context.Context) (model.State, error)
	SaveAllProjects(ctx context.Context, st model.State) error
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendDiskv  = "diskv"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendJSON, BackendSQLite, BackendDiskv}

// Open returns the named backend rooted at dir.
func Open(ctx context.Context, backend, dir string) (Persistence, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return JSONFile{Path: filepath.Join(dir, stateFileName)}, nil
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, "schedule.sqlite"))
	case BackendDiskv:
		return OpenDiskv(filepath.Join(dir, "kv")), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want one of: %s)", backend, strings.Join(Backends, ", "))
	}
}

// JSONFile stores the state as one JSON document, replaced atomically on save.
type JSONFile struct {
	Path string
}

func (f JSONFile) LoadAllProjects(ctx context.Context) (model.State, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return EmptyState(), nil
		}
		return model.State{}, err
	}
	st, err := ParseState(b)
	if err != nil {
		return st, fmt.Errorf("%s: %w", f.Path, err)
	}
	return st, nil
}

func (f JSONFile) SaveAllProjects(ctx context.Context, st model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := MarshalState(st)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return atomicWriteFile(dir, ".schedule-*.tmp", f.Path, b, 0o644)
}

func (f JSONFile) Close() error { return nil }

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	tf, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := tf.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := tf.Write(b); err != nil {
		_ = tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
