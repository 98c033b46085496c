// Package survey describes the respondent record layout of the writing-feedback
// questionnaire and decodes table rows into typed records.
package survey

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

var (
	// ErrUnknownReverseItem is returned when a reverse-scored column is not one
	// of the resolved item columns.
	ErrUnknownReverseItem = errors.New("reverse-scored column is not an item column")
	// ErrNoItems is returned when no item columns could be resolved.
	ErrNoItems = errors.New("no item columns")
)

// Layout is the configured description of a questionnaire export. Column
// names are matched by exact text.
type Layout struct {
	IDColumn         string
	TimeColumn       string
	ScoreColumn      string
	DisciplineColumn string
	GenderColumn     string
	// ItemColumns lists the Likert items in order. When empty, items are every
	// remaining header column in order, minus ExcludeTrailing columns at the end.
	ItemColumns     []string
	ExcludeTrailing int
	ReverseItems    []string
	ItemMin         int
	ItemMax         int
	ScalePoints     int
}

// DefaultLayout matches the questionnaire platform export of the writing-feedback survey.
func DefaultLayout() Layout {
	return Layout{
		IDColumn:         "序号",
		TimeColumn:       "所用时间/秒",
		ScoreColumn:      "总分",
		DisciplineColumn: "我的学科：",
		GenderColumn:     "性别：",
		ExcludeTrailing:  1,
		ReverseItems:     []string{"老师在提供写作反馈的时候不会注意我的感受。"},
		ItemMin:          1,
		ItemMax:          5,
		ScalePoints:      5,
	}
}

// Item is one resolved Likert column.
type Item struct {
	Column  string
	Index   int
	Reverse bool
}

// Schema is a Layout resolved against a concrete header.
type Schema struct {
	Layout
	Items []Item
	// Trailing are the header columns dropped by ExcludeTrailing. They are
	// written back blank so that output resolves to the same items.
	Trailing []string

	id, time, score, discipline, gender int
}

// Resolve binds the layout to header positions and validates the
// reverse-scored set.
func (l Layout) Resolve(header []string) (*Schema, error) {
	lookup := func(name string) (int, error) {
		for i, h := range header {
			if h == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %q", table.ErrColumnNotFound, name)
	}
	s := &Schema{Layout: l}
	var err error
	if s.id, err = lookup(l.IDColumn); err != nil {
		return nil, err
	}
	if s.time, err = lookup(l.TimeColumn); err != nil {
		return nil, err
	}
	if s.score, err = lookup(l.ScoreColumn); err != nil {
		return nil, err
	}
	if s.discipline, err = lookup(l.DisciplineColumn); err != nil {
		return nil, err
	}
	if s.gender, err = lookup(l.GenderColumn); err != nil {
		return nil, err
	}

	if len(l.ItemColumns) > 0 {
		for _, name := range l.ItemColumns {
			idx, err := lookup(name)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, Item{Column: name, Index: idx})
		}
	} else {
		fixed := map[int]bool{s.id: true, s.time: true, s.score: true, s.discipline: true, s.gender: true}
		end := max(len(header)-l.ExcludeTrailing, 0)
		for i := end; i < len(header); i++ {
			if !fixed[i] {
				s.Trailing = append(s.Trailing, header[i])
			}
		}
		for i := 0; i < end; i++ {
			if fixed[i] {
				continue
			}
			s.Items = append(s.Items, Item{Column: header[i], Index: i})
		}
	}
	if len(s.Items) == 0 {
		return nil, ErrNoItems
	}

	for _, name := range l.ReverseItems {
		found := false
		for i := range s.Items {
			if s.Items[i].Column == name {
				s.Items[i].Reverse = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownReverseItem, name)
		}
	}
	return s, nil
}

// ItemColumns returns the resolved item column names in order.
func (s *Schema) ItemColumns() []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Column
	}
	return out
}

// OutputHeader is the canonical column order of a record: the five fixed
// fields followed by the items.
func (s *Schema) OutputHeader() []string {
	h := []string{s.IDColumn, s.TimeColumn, s.ScoreColumn, s.DisciplineColumn, s.GenderColumn}
	h = append(h, s.ItemColumns()...)
	return append(h, s.Trailing...)
}
