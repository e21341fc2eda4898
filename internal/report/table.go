package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table renders aligned columnar output for the metrics listing. Rows are
// buffered and written in one Render pass so truncation and the header
// separator stay consistent.
type Table struct {
	out      io.Writer
	headers  []string
	rows     [][]string
	maxWidth map[int]int
}

// NewTable creates a table with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	return &Table{out: out, headers: headers, maxWidth: make(map[int]int)}
}

// SetMaxWidth caps the display width of a column (0-indexed). Longer values
// are truncated with "...".
func (t *Table) SetMaxWidth(col, width int) *Table {
	t.maxWidth[col] = width
	return t
}

// AddRow buffers a data row. Values beyond the header count are dropped;
// short rows are padded with empty cells.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(values) {
			row[i] = t.clip(i, values[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the header, a dash separator, and all buffered rows.
func (t *Table) Render() error {
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)

	writeRow(w, t.headers)

	separator := make([]string, len(t.headers))
	for i, h := range t.headers {
		separator[i] = strings.Repeat("-", len(h))
	}
	writeRow(w, separator)

	for _, row := range t.rows {
		writeRow(w, row)
	}
	return w.Flush()
}

// clip truncates a cell to the column's max width, if one is set.
func (t *Table) clip(col int, s string) string {
	max := t.maxWidth[col]
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func writeRow(w io.Writer, cells []string) {
	//nolint:errcheck // terminal output; flush reports the real error
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}
