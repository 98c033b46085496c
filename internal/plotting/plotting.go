// Package plotting renders survey charts to PNG, SVG or PDF files.
package plotting

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

// ErrNoData is returned when nothing plottable was supplied.
var ErrNoData = errors.New("no finite values to plot")

// HistogramSpec describes a single-variable histogram.
type HistogramSpec struct {
	Title  string
	XLabel string
	Values []float64
	Bins   int
	// Density, when set, is drawn over a histogram normalized to unit area.
	Density func(x float64) float64
}

// Series is one bar series of a grouped chart.
type Series struct {
	Name   string
	Values []float64
}

// BarSpec describes a grouped bar chart over shared categories.
type BarSpec struct {
	Title      string
	ValueLabel string
	Categories []string
	Series     []Series
	Horizontal bool
	// Min and Max fix the value axis when Max > Min.
	Min, Max float64
}

// Histogram draws spec to path. Non-finite values are skipped.
func Histogram(path string, spec HistogramSpec) error {
	var vals plotter.Values
	for _, v := range spec.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return ErrNoData
	}
	bins := spec.Bins
	if bins <= 0 {
		bins = 30
	}
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = "count"
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	if spec.Density != nil {
		h.Normalize(1)
		p.Y.Label.Text = "density"
		f := plotter.NewFunction(spec.Density)
		f.Color = plotutil.Color(1)
		f.Width = vg.Points(2)
		f.Samples = 200
		p.Add(f)
		p.Legend.Add("kde", f)
	}
	return save(p, path, 8*vg.Inch, 5*vg.Inch)
}

// GroupedBars draws one bar per category and series. NaN values are drawn
// as zero-length bars.
func GroupedBars(path string, spec BarSpec) error {
	if len(spec.Categories) == 0 || len(spec.Series) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = spec.Title
	p.Legend.Top = true

	const barWidth = 10
	n := len(spec.Series)
	for i, s := range spec.Series {
		if len(s.Values) != len(spec.Categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Values), len(spec.Categories))
		}
		vals := make(plotter.Values, len(s.Values))
		for j, v := range s.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals[j] = v
			}
		}
		bars, err := plotter.NewBarChart(vals, vg.Points(barWidth))
		if err != nil {
			return fmt.Errorf("bars %q: %w", s.Name, err)
		}
		bars.Horizontal = spec.Horizontal
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Points(barWidth * (float64(i) - float64(n-1)/2))
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}

	labels := make([]string, len(spec.Categories))
	for i, c := range spec.Categories {
		labels[i] = shorten(c, 28)
	}
	value := &p.Y
	if spec.Horizontal {
		p.NominalY(labels...)
		value = &p.X
	} else {
		p.NominalX(labels...)
	}
	value.Label.Text = spec.ValueLabel
	if spec.Max > spec.Min {
		value.Min, value.Max = spec.Min, spec.Max
	}

	h := 5 * vg.Inch
	if spec.Horizontal {
		h = vg.Length(len(spec.Categories)*n)*vg.Points(barWidth+2) + 2*vg.Inch
	}
	return save(p, path, 10*vg.Inch, h)
}

func save(p *plot.Plot, path string, w, h vg.Length) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
