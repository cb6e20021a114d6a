package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"site-planner/internal/model"
)

// DefaultProjectName names the project created when nothing usable was loaded.
const DefaultProjectName = "Project 1"

// EmptyState returns a state with a single empty project, selected.
func EmptyState() model.State {
	return normalizeState(model.State{}, newRandomID)
}

// ParseState decodes persisted or imported bytes. It always returns a usable state: empty
// or malformed input falls back to EmptyState, and the decode error (if any) is returned
// alongside for logging.
//
// Besides the current layout it accepts a bare project object and a bare project array.
func ParseState(b []byte) (model.State, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return EmptyState(), nil
	}
	var probe map[string]json.RawMessage
	if b[0] == '[' {
		var projects []model.Project
		if err := json.Unmarshal(b, &projects); err != nil {
			return EmptyState(), fmt.Errorf("decode projects: %w", err)
		}
		return normalizeState(model.State{Projects: projects}, newRandomID), nil
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return EmptyState(), fmt.Errorf("decode state: %w", err)
	}
	if _, ok := probe["projects"]; !ok {
		if _, single := probe["tasks"]; single {
			var p model.Project
			if err := json.Unmarshal(b, &p); err != nil {
				return EmptyState(), fmt.Errorf("decode project: %w", err)
			}
			return normalizeState(model.State{Projects: []model.Project{p}}, newRandomID), nil
		}
	}
	var st model.State
	if err := json.Unmarshal(b, &st); err != nil {
		return EmptyState(), fmt.Errorf("decode state: %w", err)
	}
	return normalizeState(st, newRandomID), nil
}

// MarshalState encodes the state in the persisted layout.
func MarshalState(st model.State) ([]byte, error) {
	st.Version = model.StateVersion
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// normalizeState guarantees at least one project, unique non-empty ids, migrated legacy
// fields and a valid active selection.
func normalizeState(st model.State, newID func(string) string) model.State {
	out := model.State{Version: model.StateVersion, ActiveProjectID: strings.TrimSpace(st.ActiveProjectID)}
	seen := map[string]bool{}
	for _, src := range st.Projects {
		p := src.Clone()
		p.LegacyPositions = append([]string(nil), src.LegacyPositions...)
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || p.ID == model.AllProjects || seen[p.ID] {
			p.ID = newID("prj")
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.ID
		}
		p.Normalize()
		out.Projects = append(out.Projects, p)
	}
	if len(out.Projects) == 0 {
		p := model.Project{ID: newID("prj"), Name: DefaultProjectName}
		p.Normalize()
		out.Projects = []model.Project{p}
	}
	if out.ActiveProjectID != model.AllProjects && !seen[out.ActiveProjectID] {
		out.ActiveProjectID = out.Projects[0].ID
	}
	return out
}
