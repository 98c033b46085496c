package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrColumnNotFound is returned when a header lookup by exact name fails.
var ErrColumnNotFound = errors.New("column not found")

// Table is an in-memory header plus string rows. Every row has exactly
// len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// New returns an empty table with a copy of header.
func New(header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the column with exactly this name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// MustIndex is Index with a descriptive error for missing columns.
func (t *Table) MustIndex(name string) (int, error) {
	if i := t.Index(name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, normalize(row, len(t.Header)))
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.MustIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Head returns a copy of the table limited to the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := New(t.Header)
	out.Name = t.Name
	for _, r := range t.Rows[:n] {
		out.Append(r)
	}
	return out
}

func normalize(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fromRows builds a table whose first row is the header, skipping fully blank
// data rows.
func fromRows(name string, rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{Name: name}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}
	t := New(header)
	t.Name = name
	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		t.Append(r)
	}
	return t
}
