package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// Options controls descriptive analysis of a table.
type Options struct {
	// Columns restricts the summary to these columns; empty means all.
	Columns []string
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report;
	// 0 omits the section.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column. Numeric
// columns carry the describe() quantiles.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|unknown
	NonNull int
	Missing int
	Unique  int

	Min, Q1, Median, Q3, Max float64
	Mean, Std                float64

	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64

	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary
	CorrPairs []PairCorr
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// column is the parsed view of one table column.
type column struct {
	name   string
	idx    int
	nums   []float64 // NaN where the cell is missing or not numeric
	numCnt int
	txtCnt int
	miss   int
	cats   map[string]int
	exText []string
}

// Describe summarizes t. Cells are parsed as numbers when possible; blank
// cells count as missing.
func Describe(t *table.Table, opt Options) (*Report, error) {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	if len(t.Header) == 0 {
		return rep, nil
	}
	rows := t.Rows
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, t.Len()))
	}
	rep.Processed = len(rows)
	if n := min(opt.SampleRows, len(rows)); n > 0 {
		rep.Samples = t.Head(n).Rows
	}

	names := opt.Columns
	if len(names) == 0 {
		names = t.Header
	}
	cols := make([]*column, 0, len(names))
	for _, name := range names {
		idx, err := t.MustIndex(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, parseColumn(name, idx, rows))
	}

	var numeric []*column
	for _, c := range cols {
		s := summarize(c, opt)
		if s.Kind == "numeric" {
			numeric = append(numeric, c)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		groups, err := groupBy(t, rows, numeric, opt)
		if err != nil {
			return nil, err
		}
		rep.Groups = groups
	}

	if opt.Correlations && len(numeric) >= 2 {
		all := make([]int, len(rows))
		for i := range all {
			all[i] = i
		}
		rep.Corr = corrMatrix(numeric, all)
	}
	return rep, nil
}

func parseColumn(name string, idx int, rows [][]string) *column {
	c := &column{name: name, idx: idx, nums: make([]float64, len(rows)), cats: map[string]int{}}
	for i, r := range rows {
		c.nums[i] = math.NaN()
		v := strings.TrimSpace(r[idx])
		if v == "" {
			c.miss++
			continue
		}
		if x, ok := ParseNumeric(v); ok {
			c.nums[i] = x
			c.numCnt++
			continue
		}
		c.txtCnt++
		if len(c.cats) <= 10000 && len(v) <= 64 {
			c.cats[v]++
		}
		if len(c.exText) < 3 {
			c.exText = append(c.exText, v)
		}
	}
	return c
}

func summarize(c *column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.name, NonNull: c.numCnt + c.txtCnt, Missing: c.miss, Kind: "unknown"}
	switch {
	case c.numCnt > 0 && c.numCnt >= c.txtCnt:
		s.Kind = "numeric"
		vals := present(c.nums)
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		s.Mean, _ = stats.Mean(vals)
		if len(vals) > 1 {
			s.Std, _ = stats.StandardDeviationSample(vals)
		}
		s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
		s.Q1 = quantile(sorted, 0.25)
		s.Median = quantile(sorted, 0.5)
		s.Q3 = quantile(sorted, 0.75)
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, thr)
			s.OutlierThreshold = thr
		}
	case len(c.cats) > 0:
		s.Kind = "categorical"
		s.TopValues = topValues(c.cats, 8)
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = "text"
		s.ExampleTexts = c.exText
	}
	return s
}

func groupBy(t *table.Table, rows [][]string, numeric []*column, opt Options) ([]GroupResult, error) {
	keyIdx := make([]int, 0, len(opt.GroupBy))
	for _, name := range opt.GroupBy {
		idx, err := t.MustIndex(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		keyIdx = append(keyIdx, idx)
	}
	members := map[string][]int{}
	for i, r := range rows {
		parts := make([]string, len(keyIdx))
		for k, idx := range keyIdx {
			parts[k] = fmt.Sprintf("%s=%s", t.Header[idx], safeVal(strings.TrimSpace(r[idx])))
		}
		key := strings.Join(parts, " | ")
		members[key] = append(members[key], i)
	}

	out := make([]GroupResult, 0, len(members))
	for key, idxs := range members {
		gr := GroupResult{Key: key, Size: len(idxs), Metrics: map[string]NumSummary{}}
		for _, c := range numeric {
			var ns NumSummary
			var sum float64
			for _, i := range idxs {
				x := c.nums[i]
				if math.IsNaN(x) {
					continue
				}
				if ns.Count == 0 || x < ns.Min {
					ns.Min = x
				}
				if ns.Count == 0 || x > ns.Max {
					ns.Max = x
				}
				sum += x
				ns.Count++
			}
			if ns.Count == 0 {
				continue
			}
			ns.Mean = sum / float64(ns.Count)
			gr.Metrics[c.name] = ns
		}
		if opt.CorrPerGroup && len(numeric) >= 2 {
			gr.CorrPairs = topPairs(corrMatrix(numeric, idxs), 10)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// corrMatrix computes pairwise-complete Pearson correlations over the given
// row indices. Undefined coefficients are reported as NaN.
func corrMatrix(cols []*column, idxs []int) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(cols[a].nums, cols[b].nums, idxs)
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

func pearson(xs, ys []float64, idxs []int) float64 {
	var x, y []float64
	for _, i := range idxs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		x = append(x, xs[i])
		y = append(y, ys[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}

// Pearson returns the correlation of x and y over pairs where both are
// finite, or NaN when it is undefined.
func Pearson(x, y []float64) float64 {
	idxs := make([]int, len(x))
	for i := range idxs {
		idxs[i] = i
	}
	return pearson(x, y, idxs)
}

func topPairs(m *CorrMatrix, limit int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// ParseNumeric parses a cell as a number, ignoring spaces and thousands
// commas.
func ParseNumeric(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, quantile(dev, 0.5)
}

// quantile interpolates linearly between closest ranks of sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
