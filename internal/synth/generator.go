package synth

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// Options controls one generation run.
type Options struct {
	Count      int
	Seed       uint64
	Discipline string
}

// DefaultOptions returns the settings of the published simulated dataset.
func DefaultOptions() Options {
	return Options{Count: 300, Seed: 42, Discipline: "1"}
}

// Generate samples opt.Count synthetic respondents from p. The output header
// is s.OutputHeader(). The same p, schema and options always yield the same
// table.
func Generate(p *Params, s *survey.Schema, opt Options) (*table.Table, error) {
	if opt.Count <= 0 {
		return nil, errors.New("count must be positive")
	}
	if p.Time == nil {
		return nil, errors.New("params have no fitted time density")
	}
	if len(p.Gender) == 0 {
		return nil, errors.New("params have no gender categories")
	}
	if len(p.Items) != len(s.Items) {
		return nil, errors.New("params and schema disagree on item count")
	}
	n := opt.Count
	src := rand.NewPCG(opt.Seed, opt.Seed)

	times := p.Time.SampleFrom(n, src)

	scores := make([]int, n)
	scoreDist := distuv.Normal{Mu: p.Score.Mean, Sigma: p.Score.Std, Src: src}
	for i := range scores {
		scores[i] = int(clip(scoreDist.Rand(), p.Score.Min, p.Score.Max))
	}

	weights := make([]float64, len(p.Gender))
	for i, c := range p.Gender {
		weights[i] = c.Freq
	}
	genderDist := distuv.NewCategorical(weights, src)
	genders := make([]string, n)
	for i := range genders {
		genders[i] = p.Gender[int(genderDist.Rand())].Value
	}

	items := make([][]int, n)
	for i := range items {
		items[i] = make([]int, len(p.Items))
	}
	for j, it := range p.Items {
		d := distuv.Normal{Mu: it.Moments.Mean, Sigma: it.Moments.Std, Src: src}
		for i := 0; i < n; i++ {
			v := d.Rand()
			if it.Reverse {
				v = survey.Reflect(v, p.ScalePoints)
			}
			items[i][j] = int(clip(math.RoundToEven(v), it.Moments.Min, it.Moments.Max))
		}
	}

	out := table.New(s.OutputHeader())
	for i := 0; i < n; i++ {
		out.Append(s.Encode(survey.Record{
			ID:         strconv.Itoa(i + 1),
			Seconds:    math.Trunc(times[i]),
			Score:      float64(scores[i]),
			Discipline: opt.Discipline,
			Gender:     genders[i],
			Items:      items[i],
		}))
	}
	return out, nil
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
