package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/analysis"
	"github.com/KaramelBytes/surveyloom-cli/internal/plotting"
	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

var (
	anaInput     string
	anaOutput    string
	anaCharts    string
	anaChartExt  string
	anaStudy     string
	anaReflect   bool
	anaSheet     sheetFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report item means, feedback correlations and reliability by gender",
	Long: `Produce the questionnaire report: per-item means of the configured item
groups split by gender, the Pearson correlation of each feedback-type item
with the writing-ability mean for each gender, and Cronbach's alpha over all
items. --charts writes a bar chart per item group and a correlation chart.

Generator output already stores reverse-scored items reflected, so alpha is
computed on the values as read. Pass --reflect-reverse for cleaned or raw
exports. With -p, a dataset the study records as simulated is never
reflected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ropt, err := anaSheet.readOptions()
		if err != nil {
			return err
		}
		t, err := readTable(anaInput, ropt)
		if err != nil {
			return err
		}
		reflect := anaReflect
		if reflect && anaStudy != "" {
			d, err := studyDataset(anaStudy, anaInput)
			if err != nil {
				return err
			}
			if d != nil && d.Kind == study.KindSimulated {
				fmt.Printf("⚠ Warning: %s is simulated output with reverse items already reflected; ignoring --reflect-reverse\n", d.Name)
				reflect = false
			}
		}
		// nil keeps the configured reverse set, validated against the header
		var reverse []string
		if !reflect {
			reverse = []string{}
		}
		s, err := resolveSchema(t.Header, reverse)
		if err != nil {
			return err
		}
		opt := c.SurveyOptions(s.ItemColumns())
		opt.ReverseItems = s.ReverseItems
		rep, err := analysis.AnalyzeSurvey(t, opt)
		if err != nil {
			return err
		}
		logger.Debug("analyzed", zap.String("file", anaInput), zap.Int("rows", rep.Rows), zap.Strings("levels", rep.Levels), zap.Float64("alpha", rep.Alpha))

		md := rep.Markdown()
		if anaOutput != "" {
			body := []byte(md)
			if strings.HasSuffix(strings.ToLower(anaOutput), ".html") {
				body = analysis.RenderHTML("Survey report", md)
			}
			if err := utils.SafeWriteFile(anaOutput, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote survey report to %s\n", anaOutput)
			if err := recordOutput(anaStudy, anaOutput, study.KindReport, "analyze", nil); err != nil {
				return err
			}
		} else {
			fmt.Println(md)
		}

		if anaCharts != "" {
			paths, err := surveyCharts(rep, anaCharts, anaChartExt, float64(s.ScalePoints))
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Printf("✓ Wrote chart %s\n", p)
			}
		}
		return nil
	},
}

// surveyCharts renders one horizontal bar chart per item group and one for
// the feedback correlations.
func surveyCharts(rep *analysis.SurveyReport, dir, ext string, maxScore float64) ([]string, error) {
	if ext == "" {
		ext = "png"
	}
	ext = "." + strings.TrimPrefix(ext, ".")
	var out []string
	for _, gm := range rep.Means {
		spec := plotting.BarSpec{
			Title:      gm.Group.Title,
			ValueLabel: "mean",
			Categories: gm.Group.Columns,
			Horizontal: true,
			Min:        1,
			Max:        maxScore,
		}
		for j, l := range gm.Levels {
			vals := make([]float64, len(gm.Means))
			for i := range gm.Means {
				vals[i] = gm.Means[i][j]
			}
			spec.Series = append(spec.Series, plotting.Series{Name: fmt.Sprintf("%s %s", rep.GenderColumn, l), Values: vals})
		}
		path := filepath.Join(dir, gm.Group.Name+"_means"+ext)
		if err := plotting.GroupedBars(path, spec); err != nil {
			return out, fmt.Errorf("chart %s: %w", gm.Group.Name, err)
		}
		out = append(out, path)
	}
	if len(rep.Correlations) > 0 {
		spec := plotting.BarSpec{
			Title:      "Feedback type vs writing ability (Pearson r)",
			ValueLabel: "r",
			Categories: rep.Correlations[0].Items,
			Horizontal: true,
			Min:        -1,
			Max:        1,
		}
		for _, fc := range rep.Correlations {
			spec.Series = append(spec.Series, plotting.Series{Name: fmt.Sprintf("%s %s", rep.GenderColumn, fc.Level), Values: fc.R})
		}
		path := filepath.Join(dir, "feedback_correlations"+ext)
		if err := plotting.GroupedBars(path, spec); err != nil {
			return out, fmt.Errorf("correlation chart: %w", err)
		}
		out = append(out, path)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaInput, "input", "i", "simulated_300_final.csv", "survey dataset to analyze")
	analyzeCmd.Flags().StringVarP(&anaOutput, "output", "o", "", "optional path to write the report (.md or .html)")
	analyzeCmd.Flags().StringVar(&anaCharts, "charts", "", "directory for bar charts")
	analyzeCmd.Flags().StringVar(&anaChartExt, "chart-format", "png", "chart image format: png | svg | pdf")
	analyzeCmd.Flags().StringVarP(&anaStudy, "study", "p", "", "study to record the report in")
	analyzeCmd.Flags().BoolVar(&anaReflect, "reflect-reverse", false, "reflect the configured reverse-scored items before the reliability estimate")
	anaSheet.register(analyzeCmd)
}
