// Package quality flags inattentive or fraudulent questionnaire responses.
package quality

import (
	"fmt"
	"math"
)

// ReferenceItemCount is the item count the default thresholds were tuned on.
const ReferenceItemCount = 38

// Rule inspects an ordered sequence of item responses.
type Rule interface {
	Name() string
	// Check reports whether the rule fires, with a short human detail.
	Check(items []int) (bool, string)
}

// DominantValueRule fires when one response value occurs in at least
// Threshold item fields, consecutive or not.
type DominantValueRule struct {
	Threshold int
}

func (DominantValueRule) Name() string { return "dominant-value" }

func (r DominantValueRule) Check(items []int) (bool, string) {
	if r.Threshold <= 0 || len(items) == 0 {
		return false, ""
	}
	counts := make(map[int]int, 8)
	best, bestCount := 0, 0
	for _, v := range items {
		counts[v]++
		c := counts[v]
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	if bestCount >= r.Threshold {
		return true, fmt.Sprintf("value %d occurs %d times (threshold %d)", best, bestCount, r.Threshold)
	}
	return false, ""
}

// ConsecutiveRunRule fires on a run of at least Length identical
// consecutive values. Column order is significant.
type ConsecutiveRunRule struct {
	Length int
}

func (ConsecutiveRunRule) Name() string { return "consecutive-run" }

func (r ConsecutiveRunRule) Check(items []int) (bool, string) {
	if r.Length <= 0 || len(items) == 0 {
		return false, ""
	}
	run := 1
	for i := 1; i < len(items); i++ {
		if items[i] == items[i-1] {
			run++
		} else {
			run = 1
		}
		if run >= r.Length {
			return true, fmt.Sprintf("value %d repeated %d times ending at item %d", items[i], run, i+1)
		}
	}
	if r.Length == 1 {
		return true, fmt.Sprintf("value %d repeated 1 times ending at item 1", items[0])
	}
	return false, ""
}

// Thresholds parameterizes the two default rules.
type Thresholds struct {
	Dominant int `mapstructure:"dominant_threshold" yaml:"dominant_threshold"`
	Run      int `mapstructure:"run_threshold" yaml:"run_threshold"`
}

// DefaultThresholds returns the thresholds of the 38-item instrument.
func DefaultThresholds() Thresholds {
	return Thresholds{Dominant: 20, Run: 8}
}

// ScaledThresholds rescales the defaults to an instrument with items
// questions, never going below 2.
func ScaledThresholds(items int) Thresholds {
	d := DefaultThresholds()
	if items <= 0 {
		return d
	}
	scale := func(v int) int {
		n := int(math.Round(float64(items) * float64(v) / ReferenceItemCount))
		if n < 2 {
			n = 2
		}
		return n
	}
	return Thresholds{Dominant: scale(d.Dominant), Run: scale(d.Run)}
}

// Rules returns the rules in evaluation order.
func (t Thresholds) Rules() []Rule {
	return []Rule{
		DominantValueRule{Threshold: t.Dominant},
		ConsecutiveRunRule{Length: t.Run},
	}
}

// Verdict is the outcome of evaluating one record.
type Verdict struct {
	Discard bool
	Rule    string
	Detail  string
}

// Evaluate runs rules in order and reports the first that fires.
func Evaluate(items []int, rules []Rule) Verdict {
	for _, r := range rules {
		if hit, detail := r.Check(items); hit {
			return Verdict{Discard: true, Rule: r.Name(), Detail: detail}
		}
	}
	return Verdict{}
}

// ShouldDiscard applies the default rules with t.
func ShouldDiscard(items []int, t Thresholds) bool {
	return Evaluate(items, t.Rules()).Discard
}
