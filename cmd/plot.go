package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom-cli/internal/analysis"
	"github.com/KaramelBytes/surveyloom-cli/internal/plotting"
	"github.com/KaramelBytes/surveyloom-cli/internal/synth"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

var (
	pltInput   string
	pltOutput  string
	pltColumn  string
	pltBins    int
	pltTitle   string
	pltGroupBy string
	pltColumns []string
	pltVert    bool
	pltKDE     bool
	pltSheet   sheetFlags
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw charts from a survey dataset",
}

var plotHistCmd = &cobra.Command{
	Use:   "hist",
	Short: "Histogram of a numeric column (default: response time)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		t, err := readPlotTable()
		if err != nil {
			return err
		}
		column := pltColumn
		if column == "" {
			column = c.Layout().TimeColumn
		}
		cells, err := t.Column(column)
		if err != nil {
			return err
		}
		vals := make([]float64, len(cells))
		for i, s := range cells {
			vals[i] = math.NaN()
			if v, ok := analysis.ParseNumeric(s); ok {
				vals[i] = v
			}
		}
		bins := c.Analysis.HistogramBins
		if cmd.Flags().Changed("bins") {
			bins = pltBins
		}
		title := pltTitle
		if title == "" {
			title = "Distribution of " + column
		}
		spec := plotting.HistogramSpec{Title: title, XLabel: column, Values: vals, Bins: bins}
		if pltKDE {
			if spec.Density, err = kdeCurve(vals, c.Simulate.Bandwidth, c.Simulate.LogTime && column == c.Layout().TimeColumn); err != nil {
				return err
			}
		}
		if err := plotting.Histogram(pltOutput, spec); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote histogram to %s\n", pltOutput)
		return nil
	},
}

var plotBarsCmd = &cobra.Command{
	Use:   "bars",
	Short: "Grouped bar chart of column means split by a grouping column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		t, err := readPlotTable()
		if err != nil {
			return err
		}
		group := pltGroupBy
		if group == "" {
			group = c.Layout().GenderColumn
		}
		cols := pltColumns
		if len(cols) == 0 {
			cols = c.Analysis.FeedbackType
		}
		if len(cols) == 0 {
			return fmt.Errorf("no columns to plot; pass --column")
		}
		rep, err := analysis.AnalyzeSurvey(t, analysis.SurveyOptions{
			GenderColumn: group,
			MeanGroups:   []analysis.ItemGroup{{Name: "bars", Columns: cols}},
		})
		if err != nil {
			return err
		}
		gm := rep.Means[0]
		title := pltTitle
		if title == "" {
			title = "Means by " + group
		}
		spec := plotting.BarSpec{Title: title, ValueLabel: "mean", Categories: cols, Horizontal: !pltVert}
		for j, l := range gm.Levels {
			vals := make([]float64, len(cols))
			for i := range cols {
				vals[i] = gm.Means[i][j]
			}
			spec.Series = append(spec.Series, plotting.Series{Name: fmt.Sprintf("%s %s", group, l), Values: vals})
		}
		if err := plotting.GroupedBars(pltOutput, spec); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote bar chart to %s\n", pltOutput)
		return nil
	},
}

// kdeCurve fits the same density simulate samples from and returns it in
// data units.
func kdeCurve(vals []float64, bandwidth float64, logScale bool) (func(float64) float64, error) {
	var finite []float64
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	k, err := synth.FitKDE(finite, bandwidth, logScale)
	if err != nil {
		return nil, err
	}
	if !k.LogScale() {
		return k.Density, nil
	}
	// change of variables from ln(x) back to x
	return func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return k.Density(math.Log(x)) / x
	}, nil
}

func readPlotTable() (*table.Table, error) {
	ropt, err := pltSheet.readOptions()
	if err != nil {
		return nil, err
	}
	return readTable(pltInput, ropt)
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.AddCommand(plotHistCmd)
	plotCmd.AddCommand(plotBarsCmd)
	plotCmd.PersistentFlags().StringVarP(&pltInput, "input", "i", "simulated_300_final.csv", "dataset to plot")
	plotCmd.PersistentFlags().StringVarP(&pltOutput, "output", "o", "chart.png", "image path (.png, .svg or .pdf)")
	plotCmd.PersistentFlags().StringVar(&pltTitle, "title", "", "chart title")
	pltSheet.registerPersistent(plotCmd)
	plotHistCmd.Flags().StringVar(&pltColumn, "column", "", "numeric column (default: response time column)")
	plotHistCmd.Flags().IntVar(&pltBins, "bins", 30, "number of bins (overrides config)")
	plotHistCmd.Flags().BoolVar(&pltKDE, "kde", false, "overlay the kernel density used by simulate")
	plotBarsCmd.Flags().StringVar(&pltGroupBy, "group-by", "", "grouping column (default: gender column)")
	// StringArray: item texts may contain commas
	plotBarsCmd.Flags().StringArrayVar(&pltColumns, "column", nil, "column whose mean is drawn (repeatable; default: feedback-type items)")
	plotBarsCmd.Flags().BoolVar(&pltVert, "vertical", false, "draw vertical bars")
}
