package format

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// Table is implemented by results that have a tabular rendering.
type Table interface {
	Header() []any
	Rows() [][]any
}

func WriteTable(w io.Writer, t Table) error {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	header := t.Header()
	bold := color.New(color.Bold).SprintFunc()
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = bold(h)
	}
	tbl.AddRow(cells...)
	for _, r := range t.Rows() {
		tbl.AddRow(r...)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

var statusColors = map[string]*color.Color{
	"waiting":     color.New(color.FgWhite),
	"in_progress": color.New(color.FgCyan),
	"done":        color.New(color.FgGreen),
	"late":        color.New(color.FgRed),
	"blocked":     color.New(color.FgYellow),
}

// Status colours a status name for table cells. Colours are dropped automatically when
// stdout is not a terminal.
func Status(s string) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s)
	}
	return s
}

// Warn highlights a cell (for example a task without dates).
func Warn(s string) string { return color.New(color.FgYellow, color.Bold).Sprint(s) }
