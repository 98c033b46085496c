// Package testkit builds deterministic questionnaire fixtures for tests.
package testkit

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// ItemCount is the number of Likert items on the reference instrument.
const ItemCount = 38

// ReverseItem is the label of the feedback-insensitivity item.
const ReverseItem = "老师在提供写作反馈的时候不会注意我的感受。"

// TrailingColumn is the free-text column after the items in the export.
const TrailingColumn = "来源详情"

// ItemName returns the header label of item i (0-based). Item 6 is the
// reverse-scored question.
func ItemName(i int) string {
	if i == 6 {
		return ReverseItem
	}
	return fmt.Sprintf("Q%02d", i+1)
}

// Header returns the export header with items Likert columns.
func Header(items int) []string {
	h := []string{"序号", "所用时间/秒", "总分", "我的学科：", "性别："}
	for i := 0; i < items; i++ {
		h = append(h, ItemName(i))
	}
	return append(h, TrailingColumn)
}

// Row renders one respondent; the total score is the item sum.
func Row(id, seconds int, gender string, items []int) []string {
	sum := 0
	for _, v := range items {
		sum += v
	}
	row := []string{strconv.Itoa(id), strconv.Itoa(seconds), strconv.Itoa(sum), "1", gender}
	for _, v := range items {
		row = append(row, strconv.Itoa(v))
	}
	return append(row, "")
}

// Varied returns items responses alternating over 1..5 so that no run or
// dominant value appears.
func Varied(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i%5 + 1
	}
	return out
}

// ReferenceTable generates n plausible respondents from a fixed seed.
func ReferenceTable(n int, seed uint64) *table.Table {
	rng := rand.New(rand.NewPCG(seed, 1))
	t := table.New(Header(ItemCount))
	t.Name = "reference.csv"
	for i := 0; i < n; i++ {
		gender := "1"
		if rng.IntN(100) < 46 {
			gender = "2"
		}
		seconds := 60 + rng.IntN(900)
		base := 2 + rng.IntN(3)
		items := make([]int, ItemCount)
		for j := range items {
			v := base + rng.IntN(3) - 1
			if v < 1 {
				v = 1
			}
			if v > 5 {
				v = 5
			}
			items[j] = v
		}
		t.Append(Row(i+1, seconds, gender, items))
	}
	return t
}

// WriteTable writes tb under dir with the given file name and returns its path.
func WriteTable(tb testing.TB, dir, name string, t *table.Table) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := table.WriteFile(p, t, table.WriteOptions{}); err != nil {
		tb.Fatalf("write fixture %s: %v", name, err)
	}
	return p
}
