package survey

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Reflect applies (points+1) - raw to a continuous draw without clamping.
func Reflect(raw float64, points int) float64 {
	if points < 2 {
		return raw
	}
	return float64(points+1) - raw
}

// CronbachAlpha estimates internal consistency from item columns: items[j]
// holds every respondent's answer to item j. Variances are population
// variances. It returns NaN when fewer than two items or respondents are
// given, when columns differ in length, or when the total score is constant.
func CronbachAlpha(items [][]float64) float64 {
	k := len(items)
	if k < 2 {
		return math.NaN()
	}
	n := len(items[0])
	if n < 2 {
		return math.NaN()
	}
	totals := make([]float64, n)
	var itemVar float64
	for _, col := range items {
		if len(col) != n {
			return math.NaN()
		}
		itemVar += stat.PopVariance(col, nil)
		for i, v := range col {
			totals[i] += v
		}
	}
	totalVar := stat.PopVariance(totals, nil)
	if totalVar == 0 {
		return math.NaN()
	}
	kf := float64(k)
	return kf / (kf - 1) * (1 - itemVar/totalVar)
}
