package tui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"site-planner/internal/filter"
	"site-planner/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdMu sync.Mutex
	// Renderers are cached per style and wrap width. WithAutoStyle is avoided because its
	// terminal background query can block on some terminals.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(width))
		if err != nil {
			mdMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// taskMarkdown is the detail pane document for t.
func taskMarkdown(t model.Task, subs []model.Subtask) string {
	var b strings.Builder
	title := t.Process
	if t.Title != "" {
		title += " · " + t.Title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Id:** `%s`\n", t.ID)
	fmt.Fprintf(&b, "- **Position:** %s\n", t.Position)
	if t.ProjectName != "" {
		fmt.Fprintf(&b, "- **Project:** %s\n", t.ProjectName)
	}
	fmt.Fprintf(&b, "- **Status:** %s, **urgency** %s, **progress** %d%%\n", t.Status, t.Urgency, t.Progress)
	if t.HasDates() {
		fmt.Fprintf(&b, "- **Dates:** %s → %s (%d days)\n", t.Start, t.End, model.DaysBetween(*t.Start, *t.End))
	} else {
		b.WriteString("- **Dates:** _not scheduled_\n")
	}
	if t.PlannedStart.IsSet() && t.PlannedEnd.IsSet() {
		fmt.Fprintf(&b, "- **Planned:** %s → %s\n", t.PlannedStart, t.PlannedEnd)
	}
	if t.Assignee != "" {
		fmt.Fprintf(&b, "- **Assignee:** %s\n", t.Assignee)
	}
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", d)
	}
	if len(subs) > 0 {
		b.WriteString("\n## Subtasks\n\n")
		for _, s := range subs {
			mark := " "
			if s.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s", mark, s.Title)
			if s.DueDate.IsSet() {
				fmt.Fprintf(&b, " (due %s)", s.DueDate)
			}
			if s.AssignedTo != "" {
				fmt.Fprintf(&b, " @%s", s.AssignedTo)
			}
			b.WriteString("\n")
		}
	}
	if len(t.Comments) > 0 {
		b.WriteString("\n## Comments\n\n")
		for _, c := range t.Comments {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", emptyAsDash(c.Author), c.Date.Format("2006-01-02"), c.Text)
		}
	}
	if len(t.Attachments) > 0 {
		b.WriteString("\n## Attachments\n\n")
		for _, a := range t.Attachments {
			if a.URL != "" {
				fmt.Fprintf(&b, "- [%s](%s)\n", a.Name, a.URL)
			} else {
				fmt.Fprintf(&b, "- %s\n", a.Name)
			}
		}
	}
	return b.String()
}

func emptyAsDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// subtasksOf is filter.SubtasksFor with a stable empty result.
func subtasksOf(t model.Task, subs map[string][]model.Subtask) []model.Subtask {
	out := filter.SubtasksFor(t, subs)
	if out == nil {
		return []model.Subtask{}
	}
	return out
}
