package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/analysis"
	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

var (
	mdlInput     string
	mdlOutput    string
	mdlStudy     string
	mdlTarget    string
	mdlFeatures  []string
	mdlThreshold float64
	mdlTestFrac  float64
	mdlSeed      uint64
	mdlC         float64
	mdlSheet     sheetFlags
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Train a logistic regression predicting a high rating of an item",
	Long: `Label each respondent positive when the target item is at least the
threshold, split train/test with a seeded shuffle, standardize the features
on the training split and fit an L2-regularized logistic regression. Prints
accuracy, the per-class report and the confusion matrix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ropt, err := mdlSheet.readOptions()
		if err != nil {
			return err
		}
		t, err := readTable(mdlInput, ropt)
		if err != nil {
			return err
		}
		opt := c.ModelOptions()
		f := cmd.Flags()
		if f.Changed("target") {
			opt.Target = mdlTarget
		}
		if f.Changed("feature") {
			opt.Features = mdlFeatures
		}
		if f.Changed("threshold") {
			opt.Threshold = mdlThreshold
		}
		if f.Changed("test-fraction") {
			opt.TestFraction = mdlTestFrac
		}
		if f.Changed("seed") {
			opt.Seed = mdlSeed
		}
		if f.Changed("c") {
			if mdlC <= 0 {
				return fmt.Errorf("--c must be positive")
			}
			opt.C = mdlC
		}
		rep, err := analysis.TrainLogistic(t, opt)
		if errors.Is(err, analysis.ErrSingleClass) {
			return fmt.Errorf("%w (target %s, threshold %g)", err, opt.Target, opt.Threshold)
		}
		if err != nil {
			return err
		}
		logger.Info("model trained",
			zap.Int("train", rep.TrainRows),
			zap.Int("test", rep.TestRows),
			zap.Int("dropped", rep.Dropped),
			zap.Float64("accuracy", rep.Accuracy))

		md := rep.Markdown()
		if mdlOutput == "" {
			fmt.Println(md)
			return nil
		}
		body := []byte(md)
		if strings.HasSuffix(strings.ToLower(mdlOutput), ".html") {
			body = analysis.RenderHTML("Classification report", md)
		}
		if err := utils.SafeWriteFile(mdlOutput, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote model report to %s (accuracy %.4f)\n", mdlOutput, rep.Accuracy)
		return recordOutput(mdlStudy, mdlOutput, study.KindReport, "model", nil)
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.Flags().StringVarP(&mdlInput, "input", "i", "simulated_300_final.csv", "survey dataset")
	modelCmd.Flags().StringVarP(&mdlOutput, "output", "o", "", "optional path to write the report (.md or .html)")
	modelCmd.Flags().StringVarP(&mdlStudy, "study", "p", "", "study to record the report in")
	modelCmd.Flags().StringVar(&mdlTarget, "target", "", "target item column (overrides config)")
	// StringArray: item texts may contain commas
	modelCmd.Flags().StringArrayVar(&mdlFeatures, "feature", nil, "feature column (repeatable; overrides config)")
	modelCmd.Flags().Float64Var(&mdlThreshold, "threshold", 4, "positive label when target >= threshold")
	modelCmd.Flags().Float64Var(&mdlTestFrac, "test-fraction", 0.2, "share of rows held out for evaluation")
	modelCmd.Flags().Uint64Var(&mdlSeed, "seed", 42, "shuffle seed")
	modelCmd.Flags().Float64Var(&mdlC, "c", 1, "inverse L2 regularization strength")
	mdlSheet.register(modelCmd)
}
