package display

import (
	"strings"
	"unicode/utf8"
)

// Table renders aligned columns with a rule under the header.
type Table struct {
	palette   Palette
	headers   []string
	rows      [][]string
	highlight int // row index, -1 for none
}

// NewTable creates a table with the given column headers.
func NewTable(p Palette, headers ...string) *Table {
	return &Table{palette: p, headers: headers, highlight: -1}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Highlight marks row idx (0-based) with the accent style.
func (t *Table) Highlight(idx int) {
	t.highlight = idx
}

// Render returns the table, each line indented by two spaces.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + t.palette.Bold(pad(t.headers, widths)) + "\n")

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	sb.WriteString("  " + t.palette.Dim(strings.Join(rule, "  ")) + "\n")

	for i, row := range t.rows {
		line := pad(row, widths)
		if i == t.highlight {
			line = t.palette.Accent(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// pad left-aligns cells to widths, trimming trailing space on the last column.
func pad(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
