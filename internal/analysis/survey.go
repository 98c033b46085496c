package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// ItemGroup is a named list of item columns reported together.
type ItemGroup struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Title   string   `mapstructure:"title" yaml:"title"`
	Columns []string `mapstructure:"columns" yaml:"columns"`
}

// SurveyOptions configures AnalyzeSurvey.
type SurveyOptions struct {
	GenderColumn string
	// MeanGroups are reported as per-item means for each gender.
	MeanGroups []ItemGroup
	// FeedbackTypes are each correlated with the row mean of WritingAbility.
	FeedbackTypes  []string
	WritingAbility []string
	// ReliabilityItems feed Cronbach's alpha. ReverseItems among them are
	// reflected first; leave it empty for data whose reverse items were
	// already reflected, such as generator output.
	ReliabilityItems []string
	ReverseItems     []string
	ScalePoints      int
}

// GroupMeans holds per-item means of one item group, one column per gender.
type GroupMeans struct {
	Group  ItemGroup
	Levels []string
	// Means[i][j] is the mean of item i for level j; NaN when undefined.
	Means [][]float64
}

// FeedbackCorrelation holds, for one gender, the Pearson correlation of each
// feedback-type item with the writing-ability row mean.
type FeedbackCorrelation struct {
	Level string
	N     int
	Items []string
	R     []float64
}

// SurveyReport is the result of AnalyzeSurvey.
type SurveyReport struct {
	Name         string
	Rows         int
	GenderColumn string
	Levels       []string
	LevelSizes   []int
	Means        []GroupMeans
	Correlations []FeedbackCorrelation
	Alpha        float64
	AlphaItems   int
	AlphaRows    int
	// Reflected lists the reverse-scored items reflected before Alpha.
	Reflected []string
}

// AnalyzeSurvey computes the gender-split questionnaire summaries. Every
// referenced column must exist; cells that are not numbers are ignored.
func AnalyzeSurvey(t *table.Table, opt SurveyOptions) (*SurveyReport, error) {
	gIdx, err := t.MustIndex(opt.GenderColumn)
	if err != nil {
		return nil, fmt.Errorf("gender: %w", err)
	}
	levels, members := splitLevels(t, gIdx)
	rep := &SurveyReport{Name: t.Name, Rows: t.Len(), GenderColumn: opt.GenderColumn, Levels: levels}
	for _, l := range levels {
		rep.LevelSizes = append(rep.LevelSizes, len(members[l]))
	}

	cache := map[string][]float64{}
	values := func(name string) ([]float64, error) {
		if v, ok := cache[name]; ok {
			return v, nil
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(col))
		for i, c := range col {
			if x, ok := ParseNumeric(c); ok {
				out[i] = x
			} else {
				out[i] = math.NaN()
			}
		}
		cache[name] = out
		return out, nil
	}

	for _, g := range opt.MeanGroups {
		gm := GroupMeans{Group: g, Levels: levels}
		for _, name := range g.Columns {
			vals, err := values(name)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", g.Name, err)
			}
			row := make([]float64, len(levels))
			for j, l := range levels {
				row[j] = meanAt(vals, members[l])
			}
			gm.Means = append(gm.Means, row)
		}
		rep.Means = append(rep.Means, gm)
	}

	if len(opt.FeedbackTypes) > 0 && len(opt.WritingAbility) > 0 {
		ability := make([][]float64, len(opt.WritingAbility))
		for i, name := range opt.WritingAbility {
			if ability[i], err = values(name); err != nil {
				return nil, fmt.Errorf("writing ability: %w", err)
			}
		}
		rowMean := make([]float64, t.Len())
		for r := range rowMean {
			var sum float64
			n := 0
			for _, col := range ability {
				if !math.IsNaN(col[r]) {
					sum += col[r]
					n++
				}
			}
			rowMean[r] = math.NaN()
			if n > 0 {
				rowMean[r] = sum / float64(n)
			}
		}
		for _, l := range levels {
			fc := FeedbackCorrelation{Level: l, N: len(members[l]), Items: opt.FeedbackTypes}
			for _, name := range opt.FeedbackTypes {
				vals, err := values(name)
				if err != nil {
					return nil, fmt.Errorf("feedback type: %w", err)
				}
				fc.R = append(fc.R, Pearson(pick(vals, members[l]), pick(rowMean, members[l])))
			}
			rep.Correlations = append(rep.Correlations, fc)
		}
	}

	if len(opt.ReliabilityItems) >= 2 {
		reverse := map[string]bool{}
		for _, r := range opt.ReverseItems {
			reverse[r] = true
		}
		cols := make([][]float64, len(opt.ReliabilityItems))
		for j, name := range opt.ReliabilityItems {
			if cols[j], err = values(name); err != nil {
				return nil, fmt.Errorf("reliability: %w", err)
			}
		}
		// listwise: a respondent missing any item is left out
		var keep []int
		for r := 0; r < t.Len(); r++ {
			complete := true
			for _, col := range cols {
				if math.IsNaN(col[r]) {
					complete = false
					break
				}
			}
			if complete {
				keep = append(keep, r)
			}
		}
		items := make([][]float64, len(cols))
		for j, col := range cols {
			items[j] = pick(col, keep)
			if reverse[opt.ReliabilityItems[j]] {
				rep.Reflected = append(rep.Reflected, opt.ReliabilityItems[j])
				for i, v := range items[j] {
					items[j][i] = survey.Reflect(v, opt.ScalePoints)
				}
			}
		}
		rep.Alpha = survey.CronbachAlpha(items)
		rep.AlphaRows = len(keep)
		rep.AlphaItems = len(cols)
	}
	return rep, nil
}

// splitLevels returns the distinct non-blank values of column idx, sorted
// numerically when possible, with the row indices of each.
func splitLevels(t *table.Table, idx int) ([]string, map[string][]int) {
	members := map[string][]int{}
	for i, r := range t.Rows {
		v := strings.TrimSpace(r[idx])
		if v == "" {
			continue
		}
		members[v] = append(members[v], i)
	}
	levels := make([]string, 0, len(members))
	for l := range members {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool {
		a, errA := strconv.ParseFloat(levels[i], 64)
		b, errB := strconv.ParseFloat(levels[j], 64)
		if errA == nil && errB == nil && a != b {
			return a < b
		}
		return levels[i] < levels[j]
	})
	return levels, members
}

// pick returns vals at idxs.
func pick(vals []float64, idxs []int) []float64 {
	out := make([]float64, len(idxs))
	for i, idx := range idxs {
		out[i] = vals[idx]
	}
	return out
}

func meanAt(vals []float64, idxs []int) float64 {
	var sum float64
	n := 0
	for _, i := range idxs {
		if !math.IsNaN(vals[i]) {
			sum += vals[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Markdown renders the survey report in the bracketed-section layout.
func (r *SurveyReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[SURVEY SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Grouped by: %s\n", r.GenderColumn))
	for i, l := range r.Levels {
		b.WriteString(fmt.Sprintf("- %s=%s (n=%d)\n", r.GenderColumn, l, r.LevelSizes[i]))
	}

	for _, gm := range r.Means {
		title := gm.Group.Title
		if title == "" {
			title = gm.Group.Name
		}
		b.WriteString("\n[ITEM MEANS]\n")
		b.WriteString(fmt.Sprintf("Group: %s\n\n", title))
		header := []string{"item"}
		for _, l := range gm.Levels {
			header = append(header, fmt.Sprintf("%s %s", r.GenderColumn, l))
		}
		rows := make([][]string, len(gm.Means))
		for i, means := range gm.Means {
			row := []string{gm.Group.Columns[i]}
			for _, m := range means {
				row = append(row, fmtFloat(m))
			}
			rows[i] = row
		}
		writeMarkdownTable(&b, header, rows)
	}

	if len(r.Correlations) > 0 {
		b.WriteString("\n[FEEDBACK TYPE CORRELATIONS]\n")
		b.WriteString("Pearson r of each item with the writing-ability mean.\n\n")
		header := []string{"item"}
		for _, fc := range r.Correlations {
			header = append(header, fmt.Sprintf("%s %s (n=%d)", r.GenderColumn, fc.Level, fc.N))
		}
		items := r.Correlations[0].Items
		rows := make([][]string, len(items))
		for i, item := range items {
			row := []string{item}
			for _, fc := range r.Correlations {
				row = append(row, fmtFloat(fc.R[i]))
			}
			rows[i] = row
		}
		writeMarkdownTable(&b, header, rows)
	}

	if r.AlphaItems > 0 {
		b.WriteString("\n[RELIABILITY]\n")
		b.WriteString(fmt.Sprintf("- Cronbach's alpha over %d items (%d complete rows): %s\n", r.AlphaItems, r.AlphaRows, fmtFloat(r.Alpha)))
		if len(r.Reflected) > 0 {
			b.WriteString(fmt.Sprintf("- Reflected before scoring: %s\n", strings.Join(r.Reflected, ", ")))
		} else {
			b.WriteString("- Reflected before scoring: none\n")
		}
	}
	return b.String()
}
