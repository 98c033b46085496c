package quality

import (
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
	"github.com/KaramelBytes/surveyloom-cli/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withRun returns 38 varied items with a run of n copies of v starting at 3.
func withRun(v, n int) []int {
	items := testkit.Varied(ReferenceItemCount)
	for i := 3; i < 3+n; i++ {
		items[i] = v
	}
	// keep the run exact
	if items[3+n] == v {
		items[3+n] = v%5 + 1
	}
	if items[2] == v {
		items[2] = v%5 + 1
	}
	return items
}

// withCount returns 38 items where value 3 occurs exactly n times (n <= 26),
// never more than twice in a row.
func withCount(n int) []int {
	items := make([]int, ReferenceItemCount)
	others := []int{1, 2, 4, 5}
	placed := 0
	for i := range items {
		if i%3 != 2 && placed < n {
			items[i] = 3
			placed++
			continue
		}
		items[i] = others[i%len(others)]
	}
	return items
}

func count(items []int, v int) int {
	c := 0
	for _, x := range items {
		if x == v {
			c++
		}
	}
	return c
}

func TestConsecutiveRunRule(t *testing.T) {
	r := ConsecutiveRunRule{Length: 8}

	hit, detail := r.Check(withRun(4, 8))
	assert.True(t, hit)
	assert.Contains(t, detail, "repeated 8 times")

	hit, _ = r.Check(withRun(4, 7))
	assert.False(t, hit, "a run of 7 must not trigger")

	hit, _ = r.Check([]int{2, 2, 2, 2, 2, 2, 2, 2})
	assert.True(t, hit, "run spanning the whole sequence")

	hit, _ = r.Check(nil)
	assert.False(t, hit)
}

func TestDominantValueRule(t *testing.T) {
	r := DominantValueRule{Threshold: 20}

	items := withCount(20)
	require.Equal(t, 20, count(items, 3))
	hit, detail := r.Check(items)
	assert.True(t, hit)
	assert.Contains(t, detail, "value 3 occurs 20 times")

	items = withCount(19)
	require.Equal(t, 19, count(items, 3))
	hit, _ = r.Check(items)
	assert.False(t, hit, "19 occurrences must not trigger")
}

func TestShouldDiscard(t *testing.T) {
	th := DefaultThresholds()
	assert.False(t, ShouldDiscard(testkit.Varied(ReferenceItemCount), th))
	assert.True(t, ShouldDiscard(withRun(1, 8), th))
	assert.False(t, ShouldDiscard(withRun(1, 7), th))
	assert.True(t, ShouldDiscard(withCount(20), th))
	assert.False(t, ShouldDiscard(withCount(19), th))

	same := make([]int, ReferenceItemCount)
	for i := range same {
		same[i] = 3
	}
	v := Evaluate(same, th.Rules())
	assert.True(t, v.Discard)
	assert.Equal(t, "dominant-value", v.Rule, "rule A is evaluated first")
}

func TestScaledThresholds(t *testing.T) {
	assert.Equal(t, DefaultThresholds(), ScaledThresholds(ReferenceItemCount))
	assert.Equal(t, Thresholds{Dominant: 10, Run: 4}, ScaledThresholds(19))
	assert.Equal(t, Thresholds{Dominant: 2, Run: 2}, ScaledThresholds(3))
	assert.Equal(t, DefaultThresholds(), ScaledThresholds(0))
}

func fixture(t *testing.T) (*table.Table, *survey.Schema) {
	t.Helper()
	tb := table.New(testkit.Header(ReferenceItemCount))
	tb.Append(testkit.Row(1, 300, "1", testkit.Varied(ReferenceItemCount)))
	tb.Append(testkit.Row(2, 200, "2", withRun(5, 8)))
	tb.Append(testkit.Row(3, 250, "2", withCount(20)))
	tb.Append(testkit.Row(4, 400, "1", withRun(2, 7)))
	s, err := survey.DefaultLayout().Resolve(tb.Header)
	require.NoError(t, err)
	return tb, s
}

func TestFilterKeepsOrderAndReports(t *testing.T) {
	tb, s := fixture(t)
	res, err := Filter(tb, s, Options{Thresholds: DefaultThresholds()})
	require.NoError(t, err)

	require.Equal(t, 2, res.Kept.Len())
	assert.Equal(t, tb.Header, res.Kept.Header)
	assert.Equal(t, tb.Rows[0], res.Kept.Rows[0])
	assert.Equal(t, tb.Rows[3], res.Kept.Rows[1])
	assert.Equal(t, 4, res.Total())

	require.Len(t, res.Discarded, 2)
	assert.Equal(t, Discard{Row: 2, ID: "2", Rule: "consecutive-run", Detail: res.Discarded[0].Detail}, res.Discarded[0])
	assert.Equal(t, "dominant-value", res.Discarded[1].Rule)

	rep := res.ReportTable()
	assert.Equal(t, []string{"row", "id", "rule", "detail"}, rep.Header)
	assert.Equal(t, "3", rep.Rows[1][0])
}

func TestFilterStrictAndLenient(t *testing.T) {
	tb, s := fixture(t)
	tb.Rows[0][6] = "x"
	tb.Rows[3][7] = "9"

	_, err := Filter(tb, s, Options{Thresholds: DefaultThresholds()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	res, err := Filter(tb, s, Options{Thresholds: DefaultThresholds(), Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Kept.Len())
	assert.Equal(t, 2, res.Skipped)
	errs := res.RowErrorList()
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[1], survey.ErrOutOfRange)
}
