package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/quality"
	"github.com/KaramelBytes/surveyloom-cli/internal/study"
)

var (
	clnInput       string
	clnOutput      string
	clnReport      string
	clnStudy       string
	clnLenient     bool
	clnDominant    int
	clnRun         int
	clnScaled      bool
	clnSheet       sheetFlags
	clnMaxRowError int
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop straight-lined responses from a questionnaire export",
	Long: `Drop respondents whose Likert answers look careless: a single value used
for too many items (dominant value), or the same value repeated across too many
consecutive items (consecutive run). Column order is preserved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ropt, err := clnSheet.readOptions()
		if err != nil {
			return err
		}
		t, err := readTable(clnInput, ropt)
		if err != nil {
			return err
		}
		s, err := resolveSchema(t.Header, nil)
		if err != nil {
			return err
		}

		opt := quality.Options{Thresholds: c.Thresholds(len(s.Items)), Lenient: c.Quality.Lenient}
		if cmd.Flags().Changed("scale-thresholds") && clnScaled {
			opt.Thresholds = quality.ScaledThresholds(len(s.Items))
		}
		if clnDominant > 0 {
			opt.Thresholds.Dominant = clnDominant
		}
		if clnRun > 0 {
			opt.Thresholds.Run = clnRun
		}
		if cmd.Flags().Changed("lenient") {
			opt.Lenient = clnLenient
		}
		logger.Debug("filtering",
			zap.String("file", clnInput),
			zap.Int("items", len(s.Items)),
			zap.Int("dominant_threshold", opt.Thresholds.Dominant),
			zap.Int("run_threshold", opt.Thresholds.Run),
			zap.Bool("lenient", opt.Lenient))

		res, err := quality.Filter(t, s, opt)
		if err != nil {
			return err
		}
		if err := writeTable(clnOutput, res.Kept); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s: kept %d of %d rows (%d discarded)\n", clnOutput, res.Kept.Len(), res.Total(), len(res.Discarded))
		logger.Info("filtered", zap.Int("kept", res.Kept.Len()), zap.Int("discarded", len(res.Discarded)), zap.Int("skipped", res.Skipped))

		if res.Skipped > 0 {
			errs := res.RowErrorList()
			fmt.Printf("⚠ Warning: skipped %d malformed rows\n", res.Skipped)
			for i, e := range errs {
				if clnMaxRowError > 0 && i >= clnMaxRowError {
					fmt.Printf("   ... and %d more\n", len(errs)-i)
					break
				}
				fmt.Printf("   - %v\n", e)
			}
		}
		if clnReport != "" {
			if err := writeTable(clnReport, res.ReportTable()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("✓ Wrote discard report to %s\n", clnReport)
		}
		return recordOutput(clnStudy, clnOutput, study.KindCleaned, "clean", res.Kept)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnInput, "input", "i", "origin.csv", "questionnaire export to filter")
	cleanCmd.Flags().StringVarP(&clnOutput, "output", "o", "preprocessing_cleaned.csv", "path of the filtered file (.csv, .tsv or .xlsx)")
	cleanCmd.Flags().StringVar(&clnReport, "report", "", "optional path listing discarded rows and the rule that fired")
	cleanCmd.Flags().StringVarP(&clnStudy, "study", "p", "", "study to record the output in")
	cleanCmd.Flags().BoolVar(&clnLenient, "lenient", false, "skip malformed rows instead of aborting (overrides config)")
	cleanCmd.Flags().IntVar(&clnDominant, "dominant-threshold", 0, "discard when one value fills at least this many items (overrides config)")
	cleanCmd.Flags().IntVar(&clnRun, "run-threshold", 0, "discard on a run of at least this many identical consecutive items (overrides config)")
	cleanCmd.Flags().BoolVar(&clnScaled, "scale-thresholds", false, "derive thresholds from the item count")
	cleanCmd.Flags().IntVar(&clnMaxRowError, "max-errors", 10, "malformed rows to print in lenient mode (0 = all)")
	clnSheet.register(cleanCmd)
}
