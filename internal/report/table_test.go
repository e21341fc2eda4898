package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "METRIC", "MODE", "BASELINE")
	tbl.AddRow("unwrap", "occurrences", "47")
	tbl.AddRow("missing-docs", "lines", "12")
	require.NoError(t, tbl.Render())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "METRIC")
	assert.Contains(t, lines[0], "BASELINE")
	assert.Contains(t, lines[1], "------")
	assert.Contains(t, lines[2], "unwrap")
	assert.Contains(t, lines[3], "missing-docs")
}

func TestTableRowPaddingAndOverflow(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "B")
	tbl.AddRow("only")                  // short row padded
	tbl.AddRow("one", "two", "dropped") // extra cell ignored
	require.NoError(t, tbl.Render())

	out := buf.String()
	assert.Contains(t, out, "only")
	assert.NotContains(t, out, "dropped")
}

func TestTableMaxWidthTruncates(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ID", "DESCRIPTION")
	tbl.SetMaxWidth(1, 10)
	tbl.AddRow("x", "a very long description that overflows")
	require.NoError(t, tbl.Render())

	assert.Contains(t, buf.String(), "a very ...")
	assert.NotContains(t, buf.String(), "overflows")
}
