package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"site-planner/internal/model"

	"github.com/peterbourgon/diskv/v3"
)

const (
	projectKeyPrefix = "project/"
	metaKey          = "meta/state"
)

// DiskvState stores each project under its own key plus one meta key.
type DiskvState struct {
	d *diskv.Diskv
}

type diskvMeta struct {
	Version         int      `json:"version"`
	ActiveProjectID string   `json:"activeProjectId"`
	Order           []string `json:"order"`
}

func OpenDiskv(basePath string) *DiskvState {
	return &DiskvState{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

func (s *DiskvState) LoadAllProjects(ctx context.Context) (model.State, error) {
	var meta diskvMeta
	if s.d.Has(metaKey) {
		b, err := s.d.Read(metaKey)
		if err != nil {
			return model.State{}, err
		}
		if err := json.Unmarshal(b, &meta); err != nil {
			return model.State{}, fmt.Errorf("%s: %w", metaKey, err)
		}
	}

	byID := map[string]model.Project{}
	for key := range s.d.KeysPrefix(projectKeyPrefix, ctx.Done()) {
		b, err := s.d.Read(key)
		if err != nil {
			return model.State{}, err
		}
		var p model.Project
		if err := json.Unmarshal(b, &p); err != nil {
			return model.State{}, fmt.Errorf("%s: %w", key, err)
		}
		byID[p.ID] = p
	}
	if err := ctx.Err(); err != nil {
		return model.State{}, err
	}
	if len(byID) == 0 {
		return EmptyState(), nil
	}

	st := model.State{ActiveProjectID: meta.ActiveProjectID}
	for _, id := range meta.Order {
		if p, ok := byID[id]; ok {
			st.Projects = append(st.Projects, p)
			delete(byID, id)
		}
	}
	// Keys missing from the recorded order (e.g. written by hand) go last, by id.
	rest := make([]string, 0, len(byID))
	for id := range byID {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		st.Projects = append(st.Projects, byID[id])
	}
	return normalizeState(st, newRandomID), nil
}

func (s *DiskvState) SaveAllProjects(ctx context.Context, st model.State) error {
	keep := map[string]bool{}
	meta := diskvMeta{Version: model.StateVersion, ActiveProjectID: st.ActiveProjectID}
	for _, p := range st.Projects {
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		key := projectKey(p.ID)
		if err := s.d.Write(key, b); err != nil {
			return err
		}
		keep[key] = true
		meta.Order = append(meta.Order, p.ID)
	}

	var stale []string
	for key := range s.d.KeysPrefix(projectKeyPrefix, ctx.Done()) {
		if !keep[key] {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		if err := s.d.Erase(key); err != nil {
			return err
		}
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.d.Write(metaKey, b)
}

func (s *DiskvState) Close() error { return nil }

func projectKey(id string) string {
	return projectKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(id))
}

func keyToPathTransform(s string) *diskv.PathKey {
	dir, file, ok := strings.Cut(s, "/")
	if !ok {
		return &diskv.PathKey{FileName: s}
	}
	return &diskv.PathKey{Path: []string{dir}, FileName: file}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s/%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}
