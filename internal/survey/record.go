package survey

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotInteger is returned for item responses that are not whole numbers.
	ErrNotInteger = errors.New("not an integer")
	// ErrOutOfRange is returned for item responses outside [ItemMin, ItemMax].
	ErrOutOfRange = errors.New("response out of range")
)

// Record is one respondent row.
type Record struct {
	ID         string
	Seconds    float64
	Score      float64
	Discipline string
	Gender     string
	Items      []int
}

// ItemValues parses the item responses of row in schema order. Only the item
// cells are inspected.
func (s *Schema) ItemValues(row []string) ([]int, error) {
	out := make([]int, len(s.Items))
	for i, it := range s.Items {
		v, err := s.parseItem(cell(row, it.Index))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", it.Column, err)
		}
		out[i] = v
	}
	return out, nil
}

// Decode parses a full record from a row laid out like the resolved header.
func (s *Schema) Decode(row []string) (Record, error) {
	rec := Record{
		ID:         strings.TrimSpace(cell(row, s.id)),
		Discipline: strings.TrimSpace(cell(row, s.discipline)),
		Gender:     strings.TrimSpace(cell(row, s.gender)),
	}
	var err error
	if rec.Seconds, err = parseFloat(cell(row, s.time)); err != nil {
		return Record{}, fmt.Errorf("column %q: %w", s.TimeColumn, err)
	}
	if rec.Score, err = parseFloat(cell(row, s.score)); err != nil {
		return Record{}, fmt.Errorf("column %q: %w", s.ScoreColumn, err)
	}
	if rec.Gender == "" {
		return Record{}, fmt.Errorf("column %q: empty value", s.GenderColumn)
	}
	if rec.Items, err = s.ItemValues(row); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Encode renders a record in OutputHeader order.
func (s *Schema) Encode(rec Record) []string {
	row := []string{
		rec.ID,
		formatNumber(rec.Seconds),
		formatNumber(rec.Score),
		rec.Discipline,
		rec.Gender,
	}
	for _, v := range rec.Items {
		row = append(row, strconv.Itoa(v))
	}
	for range s.Trailing {
		row = append(row, "")
	}
	return row
}

func (s *Schema) parseItem(raw string) (int, error) {
	f, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, raw)
	}
	v := int(f)
	if s.ItemMax > s.ItemMin && (v < s.ItemMin || v > s.ItemMax) {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, v, s.ItemMin, s.ItemMax)
	}
	return v, nil
}

func parseFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty value")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return f, nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
