package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/synth"
)

var (
	simInput      string
	simOutput     string
	simStudy      string
	simCount      int
	simSeed       uint64
	simBandwidth  float64
	simDiscipline string
	simReverse    []string
	simRawTime    bool
	simSheet      sheetFlags
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic respondents that follow a reference dataset",
	Long: `Fit per-item moments, the gender split, the total score and a kernel
density of the response time on a reference dataset, then draw independent
synthetic respondents. The same reference, count and seed always produce the
same output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ropt, err := simSheet.readOptions()
		if err != nil {
			return err
		}
		ref, err := readTable(simInput, ropt)
		if err != nil {
			return err
		}
		var reverse []string
		if cmd.Flags().Changed("reverse") {
			reverse = splitReverse(simReverse)
		}
		s, err := resolveSchema(ref.Header, reverse)
		if err != nil {
			return err
		}

		fopt := synth.FitOptions{Bandwidth: c.Simulate.Bandwidth, LogTime: c.Simulate.LogTime}
		if cmd.Flags().Changed("bandwidth") {
			fopt.Bandwidth = simBandwidth
		}
		if cmd.Flags().Changed("raw-time") {
			fopt.LogTime = !simRawTime
		}
		params, err := synth.Fit(ref, s, fopt)
		if err != nil {
			return fmt.Errorf("fit reference: %w", err)
		}

		gopt := synth.DefaultOptions()
		if c.Simulate.N > 0 {
			gopt.Count = c.Simulate.N
		}
		gopt.Seed = c.Simulate.Seed
		if c.Simulate.Discipline != "" {
			gopt.Discipline = c.Simulate.Discipline
		}
		if cmd.Flags().Changed("count") {
			gopt.Count = simCount
		}
		if cmd.Flags().Changed("seed") {
			gopt.Seed = simSeed
		}
		if cmd.Flags().Changed("discipline") {
			gopt.Discipline = simDiscipline
		}
		logger.Debug("generating",
			zap.String("reference", simInput),
			zap.Int("reference_rows", params.Rows),
			zap.Int("count", gopt.Count),
			zap.Uint64("seed", gopt.Seed),
			zap.Float64("bandwidth", params.Time.Bandwidth()),
			zap.Bool("log_time", params.Time.LogScale()))

		out, err := synth.Generate(params, s, gopt)
		if err != nil {
			return err
		}
		if err := writeTable(simOutput, out); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d synthetic rows to %s (seed %d)\n", out.Len(), simOutput, gopt.Seed)
		return recordOutput(simStudy, simOutput, study.KindSimulated, "simulate", out)
	},
}

// splitReverse accepts repeated --reverse flags; "none" clears the set.
func splitReverse(vals []string) []string {
	out := []string{}
	for _, v := range vals {
		if v == "none" {
			return []string{}
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simInput, "input", "i", "preprocessing_cleaned.xlsx", "reference dataset")
	simulateCmd.Flags().StringVarP(&simOutput, "output", "o", "simulated_300_final.csv", "path of the synthetic file (.csv, .tsv or .xlsx)")
	simulateCmd.Flags().StringVarP(&simStudy, "study", "p", "", "study to record the output in")
	simulateCmd.Flags().IntVarP(&simCount, "count", "n", 300, "number of synthetic respondents (overrides config)")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 42, "random seed (overrides config)")
	simulateCmd.Flags().Float64Var(&simBandwidth, "bandwidth", 0, "response-time KDE bandwidth; 0 selects Silverman's rule")
	simulateCmd.Flags().StringVar(&simDiscipline, "discipline", "1", "constant discipline value (overrides config)")
	// StringArray: item texts may contain commas
	simulateCmd.Flags().StringArrayVar(&simReverse, "reverse", nil, "reverse-scored item column (repeatable; 'none' clears)")
	simulateCmd.Flags().BoolVar(&simRawTime, "raw-time", false, "fit the response-time density on raw seconds instead of log seconds")
	simSheet.register(simulateCmd)
}
