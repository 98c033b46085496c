package analysis

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

func surveyFixture() *table.Table {
	t := table.New([]string{"序号", "性别：", "F1", "F2", "A1", "A2", "R1"})
	t.Name = "cleaned.csv"
	rows := [][]string{
		{"1", "1", "1", "5", "1", "2", "5"},
		{"2", "1", "2", "4", "2", "2", "4"},
		{"3", "1", "3", "3", "3", "4", "3"},
		{"4", "2", "4", "2", "4", "5", "2"},
		{"5", "2", "5", "1", "5", "5", "1"},
		{"6", "2", "3", "3", "2", "3", "4"},
		{"7", "", "3", "3", "3", "3", "3"},
	}
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func surveyOptions() SurveyOptions {
	return SurveyOptions{
		GenderColumn:     "性别：",
		MeanGroups:       []ItemGroup{{Name: "feedback", Title: "Feedback items", Columns: []string{"F1", "F2"}}},
		FeedbackTypes:    []string{"F1", "F2"},
		WritingAbility:   []string{"A1", "A2"},
		ReliabilityItems: []string{"F1", "A1", "R1"},
		ReverseItems:     []string{"R1"},
		ScalePoints:      5,
	}
}

func TestAnalyzeSurvey(t *testing.T) {
	rep, err := AnalyzeSurvey(surveyFixture(), surveyOptions())
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}

	// blank gender is not a level
	if !equalStrings(rep.Levels, []string{"1", "2"}) {
		t.Fatalf("levels = %v", rep.Levels)
	}
	if len(rep.LevelSizes) != 2 || rep.LevelSizes[0] != 3 || rep.LevelSizes[1] != 3 {
		t.Fatalf("level sizes = %v", rep.LevelSizes)
	}

	if len(rep.Means) != 1 {
		t.Fatalf("mean groups = %d", len(rep.Means))
	}
	gm := rep.Means[0]
	want := [][]float64{{2, 4}, {4, 2}}
	for i := range want {
		for j := range want[i] {
			if !almostEqual(gm.Means[i][j], want[i][j], 1e-12) {
				t.Fatalf("means[%d][%d] = %v, want %v", i, j, gm.Means[i][j], want[i][j])
			}
		}
	}

	if len(rep.Correlations) != 2 {
		t.Fatalf("correlation levels = %d", len(rep.Correlations))
	}
	male := rep.Correlations[0]
	if male.Level != "1" || male.N != 3 {
		t.Fatalf("first level = %s n=%d", male.Level, male.N)
	}
	expect := correlation([]float64{1, 2, 3}, []float64{1.5, 2, 3.5})
	if !almostEqual(male.R[0], expect, 1e-12) {
		t.Fatalf("r(F1) = %v, want %v", male.R[0], expect)
	}
	if !almostEqual(male.R[1], -male.R[0], 1e-12) {
		t.Fatalf("r(F2) = %v, want %v", male.R[1], -male.R[0])
	}

	// F1, A1 and reflected R1 move together
	if rep.Alpha <= 0.8 || rep.AlphaItems != 3 || rep.AlphaRows != 7 {
		t.Fatalf("alpha = %v over %d items, %d rows", rep.Alpha, rep.AlphaItems, rep.AlphaRows)
	}
	if !equalStrings(rep.Reflected, []string{"R1"}) {
		t.Fatalf("reflected = %v", rep.Reflected)
	}

	md := rep.Markdown()
	for _, want := range []string{"[SURVEY SUMMARY]", "性别：=1 (n=3)", "Group: Feedback items", "[FEEDBACK TYPE CORRELATIONS]", "[RELIABILITY]", "| F1 | 2.000 | 4.000 |", "Reflected before scoring: R1"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeSurveyWithoutReflection(t *testing.T) {
	// R1 already points the same way as the other items, as in generator
	// output; reflecting it again would break the scale.
	tb := surveyFixture()
	for _, r := range tb.Rows {
		v, _ := strconv.Atoi(r[6])
		r[6] = strconv.Itoa(6 - v)
	}
	opt := surveyOptions()
	opt.ReverseItems = nil
	plain, err := AnalyzeSurvey(tb, opt)
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}
	if len(plain.Reflected) != 0 {
		t.Fatalf("nothing should be reflected, got %v", plain.Reflected)
	}
	reflected, err := AnalyzeSurvey(surveyFixture(), surveyOptions())
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}
	if !almostEqual(plain.Alpha, reflected.Alpha, 1e-12) {
		t.Fatalf("alpha = %v, want %v", plain.Alpha, reflected.Alpha)
	}

	opt.ReverseItems = []string{"R1"}
	twice, err := AnalyzeSurvey(tb, opt)
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}
	if twice.Alpha >= plain.Alpha {
		t.Fatalf("double reflection should lower alpha: %v >= %v", twice.Alpha, plain.Alpha)
	}
	if !strings.Contains(plain.Markdown(), "Reflected before scoring: none") {
		t.Fatalf("markdown should state no reflection")
	}
}

func TestAnalyzeSurveyMissingColumns(t *testing.T) {
	_, err := AnalyzeSurvey(surveyFixture(), SurveyOptions{GenderColumn: "gender"})
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}

	_, err = AnalyzeSurvey(surveyFixture(), SurveyOptions{
		GenderColumn: "性别：",
		MeanGroups:   []ItemGroup{{Name: "x", Columns: []string{"nope"}}},
	})
	if err == nil || !strings.Contains(err.Error(), "group x") {
		t.Fatalf("err = %v, want group context", err)
	}
}

func TestAnalyzeSurveyUndefinedCorrelation(t *testing.T) {
	tb := surveyFixture()
	for _, r := range tb.Rows {
		r[2] = "3"
	}
	rep, err := AnalyzeSurvey(tb, SurveyOptions{
		GenderColumn:   "性别：",
		FeedbackTypes:  []string{"F1"},
		WritingAbility: []string{"A1"},
	})
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}
	if !math.IsNaN(rep.Correlations[0].R[0]) {
		t.Fatalf("constant item should give NaN, got %v", rep.Correlations[0].R[0])
	}
	if !strings.Contains(rep.Markdown(), "n/a") {
		t.Fatalf("undefined r should render as n/a")
	}
}

func TestTrainLogisticSeparable(t *testing.T) {
	tb := table.New([]string{"x", "性别：", "target"})
	tb.Name = "sep.csv"
	for i := 0; i < 50; i++ {
		x := i%5 + 1
		target := 2
		if x >= 3 {
			target = 5
		}
		tb.Append([]string{strconv.Itoa(x), strconv.Itoa(i%2 + 1), strconv.Itoa(target)})
	}
	tb.Append([]string{"oops", "1", "5"})

	opt := DefaultModelOptions()
	opt.Features = []string{"x", "性别："}
	opt.Target = "target"
	rep, err := TrainLogistic(tb, opt)
	if err != nil {
		t.Fatalf("TrainLogistic: %v", err)
	}

	if rep.Dropped != 1 || rep.TestRows != 10 || rep.TrainRows != 40 {
		t.Fatalf("dropped=%d test=%d train=%d", rep.Dropped, rep.TestRows, rep.TrainRows)
	}
	if rep.Accuracy != 1 {
		t.Fatalf("accuracy = %v", rep.Accuracy)
	}
	if rep.Model.Weights[0] <= 0 {
		t.Fatalf("weight on x = %v, want positive", rep.Model.Weights[0])
	}
	cm := rep.Confusion
	if got := cm[0][0] + cm[0][1] + cm[1][0] + cm[1][1]; got != rep.TestRows {
		t.Fatalf("confusion total = %d, want %d", got, rep.TestRows)
	}
	if len(rep.Classes) != 2 || rep.Macro.Support != rep.TestRows {
		t.Fatalf("classes = %d, macro support = %d", len(rep.Classes), rep.Macro.Support)
	}
	if !almostEqual(rep.Weighted.F1, 1, 1e-12) {
		t.Fatalf("weighted f1 = %v", rep.Weighted.F1)
	}

	again, err := TrainLogistic(tb, opt)
	if err != nil {
		t.Fatalf("TrainLogistic again: %v", err)
	}
	if again.Confusion != rep.Confusion {
		t.Fatalf("split is seeded: %v != %v", again.Confusion, rep.Confusion)
	}

	if rep.Model.Predict([]float64{5, 1}) != 1 || rep.Model.Predict([]float64{1, 1}) != 0 {
		t.Fatalf("predictions do not follow x")
	}

	md := rep.Markdown()
	for _, want := range []string{"[MODEL]", "Accuracy: 1.0000", "[CLASSIFICATION REPORT]", "macro avg", "[CONFUSION MATRIX]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q", want)
		}
	}
}

func TestTrainLogisticErrors(t *testing.T) {
	tb := table.New([]string{"x", "target"})
	for i := 0; i < 20; i++ {
		tb.Append([]string{strconv.Itoa(i), "5"})
	}
	opt := DefaultModelOptions()
	opt.Features = []string{"x"}
	opt.Target = "target"
	if _, err := TrainLogistic(tb, opt); !errors.Is(err, ErrSingleClass) {
		t.Fatalf("err = %v, want ErrSingleClass", err)
	}

	opt.Target = "missing"
	if _, err := TrainLogistic(tb, opt); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}

	opt.Features = nil
	if _, err := TrainLogistic(tb, opt); err == nil {
		t.Fatalf("expected error without features")
	}
}
