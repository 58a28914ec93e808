package model

import "strings"

// Table is a generically-shaped tabular input: named columns over string
// cells. It is the ingestion boundary shape; stages convert rows into typed
// records immediately rather than passing tables around.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the trimmed value at (row, column). Absent columns and
// ragged rows read as empty.
func (t *Table) Cell(row int, column string) string {
	return t.CellAt(row, t.ColumnIndex(column))
}

// CellAt is Cell addressed by column position, for scans that already hold
// the index.
func (t *Table) CellAt(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

func (t *Table) Len() int {
	return len(t.Rows)
}
