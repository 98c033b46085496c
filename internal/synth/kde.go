package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNonPositiveTime is returned when a log-scale density is fitted on a
// value that is zero or negative.
var ErrNonPositiveTime = errors.New("non-positive value on log scale")

// KDE is a fitted one-dimensional Gaussian kernel density estimate. When
// LogScale is set the estimate models ln(x) and samples are exponentiated
// back to data units.
type KDE struct {
	points    []float64
	bandwidth float64
	logScale  bool
}

// FitKDE fits a Gaussian KDE over samples. A bandwidth <= 0 selects
// Silverman's rule of thumb on the fitted scale.
func FitKDE(samples []float64, bandwidth float64, logScale bool) (*KDE, error) {
	if len(samples) == 0 {
		return nil, errors.New("kde: no samples")
	}
	pts := make([]float64, len(samples))
	for i, v := range samples {
		if logScale {
			if v <= 0 {
				return nil, fmt.Errorf("kde: %w: %v", ErrNonPositiveTime, v)
			}
			v = math.Log(v)
		}
		pts[i] = v
	}
	if bandwidth <= 0 {
		bandwidth = silverman(pts)
	}
	return &KDE{points: pts, bandwidth: bandwidth, logScale: logScale}, nil
}

// Bandwidth returns the kernel standard deviation on the fitted scale.
func (k *KDE) Bandwidth() float64 { return k.bandwidth }

// LogScale reports whether the estimate models the logarithm of the data.
func (k *KDE) LogScale() bool { return k.logScale }

// Sample draws n values in data units from a source seeded with seed.
func (k *KDE) Sample(n int, seed uint64) []float64 {
	return k.SampleFrom(n, rand.NewPCG(seed, seed))
}

// SampleFrom draws n values in data units from src. Each draw picks a fitted
// point uniformly and adds kernel noise.
func (k *KDE) SampleFrom(n int, src rand.Source) []float64 {
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: k.bandwidth, Src: src}
	out := make([]float64, n)
	for i := range out {
		v := k.points[rng.IntN(len(k.points))] + noise.Rand()
		if k.logScale {
			v = math.Exp(v)
		} else if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}

// Density evaluates the estimate at x on the fitted scale.
func (k *KDE) Density(x float64) float64 {
	var sum float64
	kernel := distuv.Normal{Mu: 0, Sigma: k.bandwidth}
	for _, p := range k.points {
		sum += kernel.Prob(x - p)
	}
	return sum / float64(len(k.points))
}

func silverman(pts []float64) float64 {
	const floor = 1e-6
	if len(pts) < 2 {
		return floor
	}
	sd, _ := stats.StandardDeviationSample(pts)
	iqr, _ := stats.InterQuartileRange(pts)
	spread := sd
	if r := iqr / 1.34; r > 0 && r < spread {
		spread = r
	}
	bw := 0.9 * spread * math.Pow(float64(len(pts)), -0.2)
	if !(bw > floor) {
		return floor
	}
	return bw
}
