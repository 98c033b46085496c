package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// ErrSingleClass is returned when the training labels contain one class only.
var ErrSingleClass = errors.New("training data contains a single class")

// ModelOptions configures TrainLogistic.
type ModelOptions struct {
	Features []string
	Target   string
	// Threshold labels a row positive when target >= Threshold.
	Threshold    float64
	TestFraction float64
	Seed         uint64
	// C is the inverse L2 regularization strength.
	C float64
}

// DefaultModelOptions mirrors the classification demo settings.
func DefaultModelOptions() ModelOptions {
	return ModelOptions{Threshold: 4, TestFraction: 0.2, Seed: 42, C: 1}
}

// LogisticModel is a standardized binary logistic regression.
type LogisticModel struct {
	Means   []float64
	Scales  []float64
	Weights []float64
	Bias    float64
}

// Prob returns P(y=1 | x) for raw, unscaled features.
func (m *LogisticModel) Prob(x []float64) float64 {
	z := m.Bias
	for j, v := range x {
		z += m.Weights[j] * (v - m.Means[j]) / m.Scales[j]
	}
	return sigmoid(z)
}

// Predict thresholds Prob at 0.5.
func (m *LogisticModel) Predict(x []float64) int {
	if m.Prob(x) > 0.5 {
		return 1
	}
	return 0
}

// FitLogistic standardizes X with its population mean and standard deviation
// and minimizes C·logloss + ½‖w‖² with L-BFGS. The intercept is not
// penalized.
func FitLogistic(X [][]float64, y []int, c float64) (*LogisticModel, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.New("fit logistic: empty or mismatched data")
	}
	if c <= 0 {
		c = 1
	}
	k := len(X[0])
	m := &LogisticModel{Means: make([]float64, k), Scales: make([]float64, k)}
	col := make([]float64, len(X))
	for j := 0; j < k; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		m.Means[j], _ = stats.Mean(col)
		sd, _ := stats.StandardDeviationPopulation(col)
		if sd == 0 {
			sd = 1
		}
		m.Scales[j] = sd
	}
	pos := 0
	for _, v := range y {
		pos += v
	}
	if pos == 0 || pos == len(y) {
		return nil, ErrSingleClass
	}

	Z := make([][]float64, len(X))
	for i, row := range X {
		Z[i] = make([]float64, k)
		for j, v := range row {
			Z[i][j] = (v - m.Means[j]) / m.Scales[j]
		}
	}
	// params = [w_0..w_k-1, b]
	linear := func(p []float64, z []float64) float64 {
		return floats.Dot(p[:k], z) + p[k]
	}
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			var loss float64
			for i, z := range Z {
				s := linear(p, z)
				if y[i] == 1 {
					loss += softplus(-s)
				} else {
					loss += softplus(s)
				}
			}
			return c*loss + 0.5*floats.Dot(p[:k], p[:k])
		},
		Grad: func(grad, p []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i, z := range Z {
				d := sigmoid(linear(p, z)) - float64(y[i])
				floats.AddScaled(grad[:k], d, z)
				grad[k] += d
			}
			floats.Scale(c, grad)
			floats.Add(grad[:k], p[:k])
		},
	}
	settings := &optimize.Settings{GradientThreshold: 1e-8, MajorIterations: 1000}
	res, err := optimize.Minimize(problem, make([]float64, k+1), settings, &optimize.LBFGS{})
	if res == nil {
		return nil, fmt.Errorf("fit logistic: %w", err)
	}
	// res.X is the best location found even when a line search gave up.
	m.Weights = append([]float64(nil), res.X[:k]...)
	m.Bias = res.X[k]
	return m, nil
}

// ClassMetrics are the per-class scores of a classification report.
type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ModelReport summarizes a train/test run of the classification demo.
type ModelReport struct {
	Name      string
	Features  []string
	Target    string
	Threshold float64
	Dropped   int
	TrainRows int
	TestRows  int
	Model     *LogisticModel
	Accuracy  float64
	Classes   []ClassMetrics
	Macro     ClassMetrics
	Weighted  ClassMetrics
	// Confusion[actual][predicted].
	Confusion [2][2]int
}

// TrainLogistic builds the feature matrix from t, labels target >= threshold
// as 1, splits train/test with a seeded shuffle and evaluates the fitted
// model on the held-out rows. Rows with a non-numeric feature or target are
// dropped.
func TrainLogistic(t *table.Table, opt ModelOptions) (*ModelReport, error) {
	if len(opt.Features) == 0 {
		return nil, errors.New("no feature columns")
	}
	fIdx := make([]int, len(opt.Features))
	for j, name := range opt.Features {
		idx, err := t.MustIndex(name)
		if err != nil {
			return nil, fmt.Errorf("feature: %w", err)
		}
		fIdx[j] = idx
	}
	tIdx, err := t.MustIndex(opt.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	rep := &ModelReport{Name: t.Name, Features: opt.Features, Target: opt.Target, Threshold: opt.Threshold}
	var X [][]float64
	var y []int
rows:
	for _, r := range t.Rows {
		x := make([]float64, len(fIdx))
		for j, idx := range fIdx {
			v, ok := ParseNumeric(r[idx])
			if !ok {
				rep.Dropped++
				continue rows
			}
			x[j] = v
		}
		target, ok := ParseNumeric(r[tIdx])
		if !ok {
			rep.Dropped++
			continue
		}
		label := 0
		if target >= opt.Threshold {
			label = 1
		}
		X = append(X, x)
		y = append(y, label)
	}

	frac := opt.TestFraction
	if frac <= 0 || frac >= 1 {
		frac = 0.2
	}
	n := len(X)
	nTest := int(math.Ceil(frac * float64(n)))
	if n < 4 || nTest >= n {
		return nil, fmt.Errorf("not enough usable rows: %d", n)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed))
	rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	var trainX, testX [][]float64
	var trainY, testY []int
	for k, i := range perm {
		if k < nTest {
			testX, testY = append(testX, X[i]), append(testY, y[i])
		} else {
			trainX, trainY = append(trainX, X[i]), append(trainY, y[i])
		}
	}
	rep.TrainRows, rep.TestRows = len(trainX), len(testX)

	model, err := FitLogistic(trainX, trainY, opt.C)
	if err != nil {
		return nil, err
	}
	rep.Model = model

	pred := make([]int, len(testX))
	for i, x := range testX {
		pred[i] = model.Predict(x)
	}
	rep.score(testY, pred)
	return rep, nil
}

func (r *ModelReport) score(actual, pred []int) {
	correct := 0
	for i := range actual {
		r.Confusion[actual[i]][pred[i]]++
		if actual[i] == pred[i] {
			correct++
		}
	}
	if len(actual) > 0 {
		r.Accuracy = float64(correct) / float64(len(actual))
	}
	total := 0
	r.Macro.Label, r.Weighted.Label = "macro avg", "weighted avg"
	for c := 0; c < 2; c++ {
		tp := r.Confusion[c][c]
		fp := r.Confusion[1-c][c]
		fn := r.Confusion[c][1-c]
		m := ClassMetrics{Label: fmt.Sprint(c), Support: tp + fn}
		m.Precision = ratio(tp, tp+fp)
		m.Recall = ratio(tp, tp+fn)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)
		total += m.Support
		r.Macro.Precision += m.Precision / 2
		r.Macro.Recall += m.Recall / 2
		r.Macro.F1 += m.F1 / 2
		r.Weighted.Precision += m.Precision * float64(m.Support)
		r.Weighted.Recall += m.Recall * float64(m.Support)
		r.Weighted.F1 += m.F1 * float64(m.Support)
	}
	r.Macro.Support, r.Weighted.Support = total, total
	if total > 0 {
		r.Weighted.Precision /= float64(total)
		r.Weighted.Recall /= float64(total)
		r.Weighted.F1 /= float64(total)
	}
}

// Markdown renders accuracy, the classification report and the confusion
// matrix.
func (r *ModelReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[MODEL]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Target: %s >= %g\n", r.Target, r.Threshold))
	b.WriteString(fmt.Sprintf("Features: %s\n", strings.Join(r.Features, ", ")))
	b.WriteString(fmt.Sprintf("Train rows: %d, test rows: %d", r.TrainRows, r.TestRows))
	if r.Dropped > 0 {
		b.WriteString(fmt.Sprintf(", dropped: %d", r.Dropped))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Accuracy: %.4f\n", r.Accuracy))

	b.WriteString("\n[CLASSIFICATION REPORT]\n")
	rows := make([][]string, 0, 4)
	for _, m := range append(append([]ClassMetrics(nil), r.Classes...), r.Macro, r.Weighted) {
		rows = append(rows, []string{
			m.Label,
			fmt.Sprintf("%.2f", m.Precision),
			fmt.Sprintf("%.2f", m.Recall),
			fmt.Sprintf("%.2f", m.F1),
			fmt.Sprint(m.Support),
		})
	}
	writeMarkdownTable(&b, []string{"class", "precision", "recall", "f1-score", "support"}, rows)

	b.WriteString("\n[CONFUSION MATRIX]\n")
	writeMarkdownTable(&b, []string{"actual \\ predicted", "0", "1"}, [][]string{
		{"0", fmt.Sprint(r.Confusion[0][0]), fmt.Sprint(r.Confusion[0][1])},
		{"1", fmt.Sprint(r.Confusion[1][0]), fmt.Sprint(r.Confusion[1][1])},
	})

	if r.Model != nil {
		b.WriteString("\n[COEFFICIENTS]\n")
		for j, name := range r.Features {
			b.WriteString(fmt.Sprintf("- %s: %.4f\n", name, r.Model.Weights[j]))
		}
		b.WriteString(fmt.Sprintf("- (intercept): %.4f\n", r.Model.Bias))
	}
	return b.String()
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
