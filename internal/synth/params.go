// Package synth fits distribution parameters from a reference survey dataset
// and samples synthetic respondents from them.
package synth

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// ErrTooFewRows is returned when the reference dataset cannot support a
// sample standard deviation.
var ErrTooFewRows = errors.New("reference dataset needs at least 2 rows")

// ErrGenderCategories is returned when the reference gender column holds
// more than two distinct codes.
var ErrGenderCategories = errors.New("gender must have at most two categories")

// Moments summarizes one numeric column. Std is the sample standard
// deviation.
type Moments struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Category is one observed categorical value and its relative frequency.
type Category struct {
	Value string  `json:"value"`
	Freq  float64 `json:"freq"`
}

// ItemParams holds the moments of one Likert item.
type ItemParams struct {
	Column  string  `json:"column"`
	Reverse bool    `json:"reverse"`
	Moments Moments `json:"moments"`
}

// Params is the immutable summary a generation run samples from.
type Params struct {
	Rows        int          `json:"rows"`
	Gender      []Category   `json:"gender"`
	Score       Moments      `json:"score"`
	Time        *KDE         `json:"-"`
	Items       []ItemParams `json:"items"`
	ScalePoints int          `json:"scale_points"`
}

// FitOptions controls the response-time density.
type FitOptions struct {
	// Bandwidth of the time KDE on its fitted scale; <= 0 selects Silverman.
	Bandwidth float64
	// LogTime fits the KDE on ln(seconds).
	LogTime bool
}

// Fit decodes every row of t and summarizes it. Any malformed row aborts.
func Fit(t *table.Table, s *survey.Schema, opt FitOptions) (*Params, error) {
	if t.Len() < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewRows, t.Len())
	}
	n := t.Len()
	times := make([]float64, 0, n)
	scores := make([]float64, 0, n)
	genders := make(map[string]int)
	items := make([][]float64, len(s.Items))
	for j := range items {
		items[j] = make([]float64, 0, n)
	}
	for i, row := range t.Rows {
		rec, err := s.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		times = append(times, rec.Seconds)
		scores = append(scores, rec.Score)
		genders[rec.Gender]++
		for j, v := range rec.Items {
			items[j] = append(items[j], float64(v))
		}
	}

	p := &Params{Rows: n, ScalePoints: s.ScalePoints}
	var err error
	if p.Score, err = moments(scores); err != nil {
		return nil, fmt.Errorf("%s: %w", s.ScoreColumn, err)
	}
	if len(genders) > 2 {
		codes := make([]string, 0, len(genders))
		for _, c := range frequencies(genders, n) {
			codes = append(codes, c.Value)
		}
		return nil, fmt.Errorf("%s: %w (found %s)", s.GenderColumn, ErrGenderCategories, strings.Join(codes, ", "))
	}
	p.Gender = frequencies(genders, n)
	if p.Time, err = FitKDE(times, opt.Bandwidth, opt.LogTime); err != nil {
		return nil, fmt.Errorf("%s: %w", s.TimeColumn, err)
	}
	for j, it := range s.Items {
		m, err := moments(items[j])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.Column, err)
		}
		p.Items = append(p.Items, ItemParams{Column: it.Column, Reverse: it.Reverse, Moments: m})
	}
	return p, nil
}

func moments(data []float64) (Moments, error) {
	var m Moments
	var err error
	if m.Mean, err = stats.Mean(data); err != nil {
		return Moments{}, err
	}
	if m.Std, err = stats.StandardDeviationSample(data); err != nil {
		return Moments{}, err
	}
	if m.Min, err = stats.Min(data); err != nil {
		return Moments{}, err
	}
	if m.Max, err = stats.Max(data); err != nil {
		return Moments{}, err
	}
	return m, nil
}

// frequencies returns relative frequencies sorted by category value,
// numerically when every value is a number.
func frequencies(counts map[string]int, total int) []Category {
	out := make([]Category, 0, len(counts))
	numeric := true
	for v, c := range counts {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
		out = append(out, Category{Value: v, Freq: float64(c) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(out[i].Value, 64)
			b, _ := strconv.ParseFloat(out[j].Value, 64)
			if a != b {
				return a < b
			}
		}
		return out[i].Value < out[j].Value
	})
	return out
}
