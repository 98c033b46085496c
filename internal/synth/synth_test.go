package synth

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
	"github.com/KaramelBytes/surveyloom-cli/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitReference(t *testing.T, rows int) (*table.Table, *survey.Schema, *Params) {
	t.Helper()
	ref := testkit.ReferenceTable(rows, 7)
	s, err := survey.DefaultLayout().Resolve(ref.Header)
	require.NoError(t, err)
	p, err := Fit(ref, s, FitOptions{LogTime: true})
	require.NoError(t, err)
	return ref, s, p
}

func TestFitParams(t *testing.T) {
	ref, s, p := fitReference(t, 60)
	assert.Equal(t, 60, p.Rows)
	require.Len(t, p.Items, testkit.ItemCount)
	assert.True(t, p.Items[6].Reverse)
	assert.Equal(t, testkit.ReverseItem, p.Items[6].Column)

	require.Len(t, p.Gender, 2)
	assert.Equal(t, "1", p.Gender[0].Value)
	assert.Equal(t, "2", p.Gender[1].Value)
	assert.InDelta(t, 1.0, p.Gender[0].Freq+p.Gender[1].Freq, 1e-12)

	col, err := ref.Column(s.ScoreColumn)
	require.NoError(t, err)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range col {
		f, _ := strconv.ParseFloat(v, 64)
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	assert.Equal(t, lo, p.Score.Min)
	assert.Equal(t, hi, p.Score.Max)
	assert.Greater(t, p.Score.Std, 0.0)
	assert.True(t, p.Time.LogScale())
	assert.Greater(t, p.Time.Bandwidth(), 0.0)
}

func TestFitErrors(t *testing.T) {
	ref := testkit.ReferenceTable(1, 1)
	s, err := survey.DefaultLayout().Resolve(ref.Header)
	require.NoError(t, err)
	_, err = Fit(ref, s, FitOptions{LogTime: true})
	assert.True(t, errors.Is(err, ErrTooFewRows))

	ref = testkit.ReferenceTable(5, 1)
	ref.Rows[2][1] = "0"
	_, err = Fit(ref, s, FitOptions{LogTime: true})
	assert.True(t, errors.Is(err, ErrNonPositiveTime))

	_, err = Fit(ref, s, FitOptions{LogTime: false})
	assert.NoError(t, err, "raw-time densities accept zero")

	ref.Rows[3][8] = "maybe"
	_, err = Fit(ref, s, FitOptions{})
	assert.ErrorContains(t, err, "row 4")
}

func TestFitRejectsThirdGender(t *testing.T) {
	ref := testkit.ReferenceTable(10, 3)
	s, err := survey.DefaultLayout().Resolve(ref.Header)
	require.NoError(t, err)
	ref.Rows[0][4], ref.Rows[1][4] = "1", "2"
	ref.Rows[4][4] = "3"
	_, err = Fit(ref, s, FitOptions{LogTime: true})
	require.ErrorIs(t, err, ErrGenderCategories)
	assert.ErrorContains(t, err, "1, 2, 3")

	ref.Rows[4][4] = "1"
	_, err = Fit(ref, s, FitOptions{LogTime: true})
	assert.NoError(t, err)
}

func TestGenerateShapeAndBounds(t *testing.T) {
	_, s, p := fitReference(t, 80)
	out, err := Generate(p, s, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, 300, out.Len())
	assert.Equal(t, s.OutputHeader(), out.Header)

	genders := map[string]bool{}
	for i, row := range out.Rows {
		rec, err := s.Decode(row)
		require.NoError(t, err, "row %d", i+1)
		assert.Equal(t, strconv.Itoa(i+1), rec.ID)
		assert.Equal(t, "1", rec.Discipline)
		assert.GreaterOrEqual(t, rec.Seconds, 0.0)
		assert.GreaterOrEqual(t, rec.Score, p.Score.Min)
		assert.LessOrEqual(t, rec.Score, p.Score.Max)
		genders[rec.Gender] = true
		for j, v := range rec.Items {
			m := p.Items[j].Moments
			assert.GreaterOrEqual(t, float64(v), m.Min, "item %d", j)
			assert.LessOrEqual(t, float64(v), m.Max, "item %d", j)
		}
	}
	for g := range genders {
		assert.Contains(t, []string{"1", "2"}, g)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	_, s, p := fitReference(t, 40)
	dir := t.TempDir()

	write := func(name string, seed uint64) []byte {
		opt := DefaultOptions()
		opt.Seed = seed
		out, err := Generate(p, s, opt)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, table.WriteFile(path, out, table.WriteOptions{}))
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		return b
	}
	a := write("a.csv", 42)
	b := write("b.csv", 42)
	c := write("c.csv", 43)
	assert.True(t, bytes.Equal(a, b), "same seed must give identical bytes")
	assert.False(t, bytes.Equal(a, c))
}

func TestGenerateReverseItem(t *testing.T) {
	l := survey.DefaultLayout()
	l.ReverseItems = []string{"Q01"}
	header := testkit.Header(2)
	s, err := l.Resolve(header)
	require.NoError(t, err)

	// Both items answer 5 with a little spread; the reversed one must land low.
	p := &Params{
		Rows:        10,
		Gender:      []Category{{Value: "1", Freq: 1}},
		Score:       Moments{Mean: 8, Std: 1, Min: 6, Max: 10},
		ScalePoints: 5,
		Items: []ItemParams{
			{Column: "Q01", Reverse: true, Moments: Moments{Mean: 4.8, Std: 0.3, Min: 1, Max: 5}},
			{Column: "Q02", Moments: Moments{Mean: 4.8, Std: 0.3, Min: 1, Max: 5}},
		},
	}
	p.Time, err = FitKDE([]float64{100, 200, 300}, 0, true)
	require.NoError(t, err)

	out, err := Generate(p, s, Options{Count: 200, Seed: 3, Discipline: "1"})
	require.NoError(t, err)
	var rev, plain float64
	for _, row := range out.Rows {
		items, err := s.ItemValues(row)
		require.NoError(t, err)
		rev += float64(items[0])
		plain += float64(items[1])
	}
	assert.Less(t, rev/200, 2.0)
	assert.Greater(t, plain/200, 4.0)
}

func TestGenerateValidation(t *testing.T) {
	_, s, p := fitReference(t, 10)
	_, err := Generate(p, s, Options{Count: 0, Seed: 1})
	assert.Error(t, err)

	q := *p
	q.Time = nil
	_, err = Generate(&q, s, DefaultOptions())
	assert.Error(t, err)
}

func TestKDE(t *testing.T) {
	samples := []float64{120, 150, 180, 240, 300, 420, 600, 900}
	k, err := FitKDE(samples, 0.25, true)
	require.NoError(t, err)
	assert.Equal(t, 0.25, k.Bandwidth())

	a := k.Sample(500, 9)
	b := k.Sample(500, 9)
	assert.Equal(t, a, b)
	for _, v := range a {
		assert.Greater(t, v, 0.0)
	}
	assert.NotEqual(t, a, k.Sample(500, 10))

	// Density integrates to ~1 on the log scale.
	var area float64
	const step = 0.01
	for x := 2.0; x < 9.0; x += step {
		area += k.Density(x) * step
	}
	assert.InDelta(t, 1.0, area, 0.01)

	raw, err := FitKDE([]float64{1, 2, 3}, 50, false)
	require.NoError(t, err)
	for _, v := range raw.Sample(200, 1) {
		assert.GreaterOrEqual(t, v, 0.0)
	}

	_, err = FitKDE(nil, 1, false)
	assert.Error(t, err)
	_, err = FitKDE([]float64{5, -1}, 1, true)
	assert.ErrorIs(t, err, ErrNonPositiveTime)
}

func TestSilvermanBandwidth(t *testing.T) {
	k, err := FitKDE([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0, false)
	require.NoError(t, err)
	assert.Greater(t, k.Bandwidth(), 0.5)
	assert.Less(t, k.Bandwidth(), 3.0)

	flat, err := FitKDE([]float64{4, 4, 4}, 0, false)
	require.NoError(t, err)
	assert.Greater(t, flat.Bandwidth(), 0.0)
}
