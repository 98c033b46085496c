package quality

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// Options configures a filtering pass.
type Options struct {
	Thresholds Thresholds
	// Rules overrides the rules derived from Thresholds when non-empty.
	Rules []Rule
	// Lenient skips malformed rows and collects their errors instead of
	// aborting on the first one.
	Lenient bool
}

// Discard records one dropped row. Row is 1-based over data rows.
type Discard struct {
	Row    int
	ID     string
	Rule   string
	Detail string
}

// Result is the outcome of Filter.
type Result struct {
	Kept      *table.Table
	Discarded []Discard
	// Skipped counts malformed rows dropped in lenient mode.
	Skipped int
	// RowErrors holds the lenient-mode row failures, combined with multierr.
	RowErrors error
}

// Total returns the number of input rows seen.
func (r *Result) Total() int {
	return r.Kept.Len() + len(r.Discarded) + r.Skipped
}

// Filter keeps the rows of t whose item responses pass every rule. The output
// keeps t's header and column order.
func Filter(t *table.Table, s *survey.Schema, opt Options) (*Result, error) {
	rules := opt.Rules
	if len(rules) == 0 {
		rules = opt.Thresholds.Rules()
	}
	kept := table.New(t.Header)
	kept.Name = t.Name
	res := &Result{Kept: kept}
	idCol := t.Index(s.IDColumn)

	for i, row := range t.Rows {
		items, err := s.ItemValues(row)
		if err != nil {
			err = fmt.Errorf("row %d: %w", i+1, err)
			if !opt.Lenient {
				return nil, err
			}
			res.Skipped++
			res.RowErrors = multierr.Append(res.RowErrors, err)
			continue
		}
		v := Evaluate(items, rules)
		if !v.Discard {
			kept.Append(row)
			continue
		}
		id := ""
		if idCol >= 0 && idCol < len(row) {
			id = row[idCol]
		}
		res.Discarded = append(res.Discarded, Discard{Row: i + 1, ID: id, Rule: v.Rule, Detail: v.Detail})
	}
	return res, nil
}

// ReportTable renders the discarded rows as a table for --report output.
func (r *Result) ReportTable() *table.Table {
	t := table.New([]string{"row", "id", "rule", "detail"})
	for _, d := range r.Discarded {
		t.Append([]string{strconv.Itoa(d.Row), d.ID, d.Rule, d.Detail})
	}
	return t
}

// RowErrorList returns the individual lenient-mode errors.
func (r *Result) RowErrorList() []error {
	return multierr.Errors(r.RowErrors)
}
