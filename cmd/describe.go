package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/analysis"
	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

var (
	dsStudy        string
	dsOutput       string
	dsOutDir       string
	dsFormat       string
	dsColumns      []string
	dsSampleRows   int
	dsMaxRows      int
	dsGroupBy      []string
	dsCorr         bool
	dsCorrGroups   bool
	dsOutliers     bool
	dsOutlierThr   float64
	dsStudySamples int
	dsQuiet        bool
	dsSheet        sheetFlags
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarize CSV/TSV/XLSX files column by column",
	Long: `Summarize one or more tabular files: inferred column kinds, counts,
mean, standard deviation, quartiles, robust outlier counts, and optional
group-by summaries and Pearson correlations. Reports are Markdown, or HTML
when --format html or an .html output path is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if dsOutput != "" && len(files) > 1 {
			return fmt.Errorf("--output requires a single input (got %d); use --out-dir", len(files))
		}
		ropt, err := dsSheet.readOptions()
		if err != nil {
			return err
		}
		format := strings.ToLower(strings.TrimSpace(dsFormat))
		if format == "" && strings.HasSuffix(strings.ToLower(dsOutput), ".html") {
			format = "html"
		}
		switch format {
		case "", "md", "markdown":
			format = "md"
		case "html":
		default:
			return fmt.Errorf("unsupported --format: %s (use md|html)", dsFormat)
		}

		opt := analysis.DefaultOptions()
		opt.Columns = dsColumns
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = dsSampleRows
		}
		if dsMaxRows >= 0 {
			opt.MaxRows = dsMaxRows
		}
		opt.GroupBy = dsGroupBy
		opt.Correlations = dsCorr
		opt.CorrPerGroup = dsCorrGroups
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = dsOutliers
		}
		if dsOutlierThr > 0 {
			opt.OutlierThreshold = dsOutlierThr
		}

		var st *study.Study
		if dsStudy != "" {
			dir, err := resolveStudyDirByName(dsStudy)
			if err != nil {
				return err
			}
			if st, err = study.LoadStudy(dir); err != nil {
				return err
			}
			if dsStudySamples >= 0 {
				opt.SampleRows = dsStudySamples
			}
		}

		total := len(files)
		for i, path := range files {
			if !dsQuiet && total > 1 {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := readTable(path, ropt)
			if err != nil {
				return err
			}
			rep, err := analysis.Describe(t, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("described", zap.String("file", path), zap.Int("columns", len(rep.Cols)), zap.Int("warnings", len(rep.Warnings)))
			body := []byte(rep.Markdown())
			ext := ".summary.md"
			if format == "html" {
				body = rep.HTML()
				ext = ".summary.html"
			}

			written := false
			if dsOutput != "" {
				if err := utils.SafeWriteFile(dsOutput, body); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				if !dsQuiet {
					fmt.Printf("✓ Wrote summary to %s\n", dsOutput)
				}
				written = true
			}
			if dsOutDir != "" {
				out := filepath.Join(dsOutDir, baseName(path)+ext)
				if err := utils.SafeWriteFile(out, body); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				if !dsQuiet {
					fmt.Printf("✓ Wrote summary to %s\n", out)
				}
				written = true
			}
			if st != nil {
				out := uniquePath(filepath.Join(st.RootDir(), "reports"), baseName(path), ext)
				if err := utils.SafeWriteFile(out, body); err != nil {
					return fmt.Errorf("write study summary: %w", err)
				}
				if _, err := st.Record(out, study.KindReport, "describe", rep.Rows, len(rep.Cols)); err != nil {
					return err
				}
				if err := st.Save(); err != nil {
					return err
				}
				if !dsQuiet {
					fmt.Printf("✓ Added summary to study '%s' as %s\n", st.Name, filepath.Base(out))
				}
				written = true
			}
			if !written && !dsQuiet {
				fmt.Println(string(body))
			}
		}
		return nil
	},
}

// uniquePath returns dir/base+ext, or dir/base__N+ext when that exists.
func uniquePath(dir, base, ext string) string {
	out := filepath.Join(dir, base+ext)
	if _, err := os.Stat(out); err != nil {
		return out
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			if !dsQuiet {
				fmt.Printf("⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(cand))
			}
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&dsStudy, "study", "p", "", "study to attach summaries to")
	describeCmd.Flags().StringVarP(&dsOutput, "output", "o", "", "path to write the summary for a single input")
	describeCmd.Flags().StringVar(&dsOutDir, "out-dir", "", "directory for <name>.summary.md|html files")
	describeCmd.Flags().StringVar(&dsFormat, "format", "", "report format: md | html (default from --output extension)")
	describeCmd.Flags().StringSliceVar(&dsColumns, "columns", nil, "restrict the summary to these columns")
	describeCmd.Flags().IntVar(&dsSampleRows, "sample-rows", 5, "number of sample rows to include (0 omits them)")
	describeCmd.Flags().IntVar(&dsMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	describeCmd.Flags().StringSliceVar(&dsGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	describeCmd.Flags().BoolVar(&dsCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&dsCorrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	describeCmd.Flags().BoolVar(&dsOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&dsOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().IntVar(&dsStudySamples, "sample-rows-study", -1, "when attaching (-p), override sample rows for summaries (0 disables samples)")
	describeCmd.Flags().BoolVar(&dsQuiet, "quiet", false, "suppress progress and non-essential output")
	dsSheet.register(describeCmd)
}
