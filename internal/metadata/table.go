// Package metadata implements the plate metadata tables and the curation
// steps that turn raw per-well assay metadata into the cleaned tables the
// segmenter and dataset layers consume.
package metadata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Table is an ordered, CSV-backed metadata table. The integer row index is
// carried alongside the rows so that files written by this package round-trip
// with the pandas convention of a leading unnamed index column; downstream
// label encoding re-reads these files by path and relies on the index being
// preserved.
type Table struct {
	Columns []string
	Index   []int
	Rows    [][]string

	nextIndex int
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// LoadTable reads a CSV metadata table. A leading column with an empty header
// is treated as the row index; otherwise rows are indexed 0..n-1.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metadata %s is empty", path)
	}

	header := records[0]
	hasIndex := len(header) > 0 && header[0] == ""

	t := &Table{}
	if hasIndex {
		t.Columns = append(t.Columns, header[1:]...)
	} else {
		t.Columns = append(t.Columns, header...)
	}

	for i, rec := range records[1:] {
		if hasIndex {
			if len(rec) != len(t.Columns)+1 {
				return nil, fmt.Errorf("metadata %s: row %d has %d fields, want %d", path, i, len(rec), len(t.Columns)+1)
			}
			idx, err := strconv.Atoi(rec[0])
			if err != nil {
				return nil, fmt.Errorf("metadata %s: row %d has non-integer index %q", path, i, rec[0])
			}
			t.Index = append(t.Index, idx)
			t.Rows = append(t.Rows, rec[1:])
			if idx >= t.nextIndex {
				t.nextIndex = idx + 1
			}
		} else {
			if len(rec) != len(t.Columns) {
				return nil, fmt.Errorf("metadata %s: row %d has %d fields, want %d", path, i, len(rec), len(t.Columns))
			}
			t.Index = append(t.Index, i)
			t.Rows = append(t.Rows, rec)
			t.nextIndex = i + 1
		}
	}

	return t, nil
}

// Save writes the table as CSV with a leading unnamed index column, creating
// parent directories as needed.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := append([]string{""}, t.Columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", path, err)
	}
	for i, row := range t.Rows {
		rec := append([]string{strconv.Itoa(t.Index[i])}, row...)
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write metadata %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush metadata %s: %w", path, err)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown metadata column %q", name)
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, error) {
	ci, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	vals := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		vals[i] = row[ci]
	}
	return vals, nil
}

// Cell returns the value at (row, column).
func (t *Table) Cell(row int, name string) (string, error) {
	ci, err := t.ColumnIndex(name)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(t.Rows) {
		return "", fmt.Errorf("metadata row %d out of range (%d rows)", row, len(t.Rows))
	}
	return t.Rows[row][ci], nil
}

// SetCell overwrites the value at (row, column).
func (t *Table) SetCell(row int, name, value string) error {
	ci, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("metadata row %d out of range (%d rows)", row, len(t.Rows))
	}
	t.Rows[row][ci] = value
	return nil
}

// SetColumn replaces the named column, appending it when absent. The value
// count must match the row count.
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.Rows))
	}
	ci, err := t.ColumnIndex(name)
	if err != nil {
		t.Columns = append(t.Columns, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}
	for i := range t.Rows {
		t.Rows[i][ci] = values[i]
	}
	return nil
}

// Filter keeps only the rows for which pred returns true, preserving the
// original index values of the survivors.
func (t *Table) Filter(pred func(row []string) bool) {
	var rows [][]string
	var index []int
	for i, row := range t.Rows {
		if pred(row) {
			rows = append(rows, row)
			index = append(index, t.Index[i])
		}
	}
	t.Rows = rows
	t.Index = index
}

// AppendRow adds a row, assigning it the next free index.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d fields, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	t.Index = append(t.Index, t.nextIndex)
	t.nextIndex++
	return nil
}

// SelectRenamed projects the table onto src columns, in order, renaming them
// to dst. Both slices must have equal length.
func (t *Table) SelectRenamed(src, dst []string) (*Table, error) {
	if len(src) != len(dst) {
		return nil, fmt.Errorf("select: %d source columns vs %d target names", len(src), len(dst))
	}
	idx := make([]int, len(src))
	for i, name := range src {
		ci, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = ci
	}

	out := NewTable(dst)
	out.Index = append(out.Index, t.Index...)
	out.nextIndex = t.nextIndex
	for _, row := range t.Rows {
		sel := make([]string, len(idx))
		for i, ci := range idx {
			sel[i] = row[ci]
		}
		out.Rows = append(out.Rows, sel)
	}
	return out, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Index = append(out.Index, t.Index...)
	out.nextIndex = t.nextIndex
	for _, row := range t.Rows {
		cp := make([]string, len(row))
		copy(cp, row)
		out.Rows = append(out.Rows, cp)
	}
	return out
}
