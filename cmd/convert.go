package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

var (
	cvTo       string
	cvOutDir   string
	cvOutput   string
	cvStudy    string
	cvSheetOut string
	cvDelimOut string
	cvWorkers  int
	cvSheet    sheetFlags
)

type conversion struct {
	in, out string
	result  *table.Table
}

var convertCmd = &cobra.Command{
	Use:   "convert <files...>",
	Short: "Convert questionnaire files between CSV, TSV and XLSX",
	Long: `Convert each input to the format named by --to (or by the extension of
--output for a single input). Files convert independently: a failure is
reported and the rest still convert.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if cvOutput != "" && len(files) > 1 {
			return fmt.Errorf("--output requires a single input (got %d); use --to and --out-dir", len(files))
		}
		ropt, err := cvSheet.readOptions()
		if err != nil {
			return err
		}
		dOut, err := parseDelimiter(cvDelimOut)
		if err != nil {
			return err
		}
		wopt := table.WriteOptions{Delimiter: dOut, SheetName: cvSheetOut}

		jobs := make([]*conversion, len(files))
		for i, in := range files {
			out, err := conversionTarget(in)
			if err != nil {
				return err
			}
			jobs[i] = &conversion{in: in, out: out}
		}
		if err := checkTargets(jobs); err != nil {
			return err
		}

		var (
			mu   sync.Mutex
			errs error
		)
		workers := cvWorkers
		if workers < 1 {
			workers = 1
		}
		var g errgroup.Group
		g.SetLimit(workers)
		for _, job := range jobs {
			g.Go(func() error {
				t, err := table.ReadFile(job.in, ropt)
				if err == nil {
					err = table.WriteFile(job.out, t, wopt)
				}
				if err != nil {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.in, err))
					mu.Unlock()
					return nil
				}
				job.result = t
				logger.Debug("converted", zap.String("from", job.in), zap.String("to", job.out), zap.Int("rows", t.Len()))
				return nil
			})
		}
		_ = g.Wait()

		converted := 0
		for _, job := range jobs {
			if job.result == nil {
				continue
			}
			converted++
			fmt.Printf("✓ %s → %s (%d rows)\n", job.in, job.out, job.result.Len())
			if err := recordOutput(cvStudy, job.out, study.KindConverted, "convert", job.result); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		failures := multierr.Errors(errs)
		for _, e := range failures {
			fmt.Printf("✗ %v\n", e)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d conversions failed", len(failures), len(jobs))
		}
		fmt.Printf("✓ Converted %d file(s)\n", converted)
		return nil
	},
}

// conversionTarget derives the output path for in from --output, --to and
// --out-dir.
func conversionTarget(in string) (string, error) {
	if cvOutput != "" {
		if !table.Supported(cvOutput) {
			return "", fmt.Errorf("%w: %s", table.ErrUnsupported, cvOutput)
		}
		return cvOutput, nil
	}
	to := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cvTo)), ".")
	if to == "" {
		return "", fmt.Errorf("one of --to or --output is required")
	}
	ext := "." + to
	if !table.Supported("x" + ext) {
		return "", fmt.Errorf("%w: --to %s", table.ErrUnsupported, cvTo)
	}
	out := utils.SwapExt(in, ext)
	if cvOutDir != "" {
		out = filepath.Join(cvOutDir, filepath.Base(out))
	}
	if filepath.Clean(out) == filepath.Clean(in) {
		return "", fmt.Errorf("%s is already %s", in, ext)
	}
	return out, nil
}

// checkTargets rejects jobs whose outputs collide with each other or with an
// input, before any worker starts writing.
func checkTargets(jobs []*conversion) error {
	inputs := map[string]string{}
	for _, job := range jobs {
		abs, err := filepath.Abs(job.in)
		if err != nil {
			return err
		}
		inputs[abs] = job.in
	}
	seen := map[string]string{}
	for _, job := range jobs {
		abs, err := filepath.Abs(job.out)
		if err != nil {
			return err
		}
		if prev, ok := seen[abs]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, job.in, job.out)
		}
		if in, ok := inputs[abs]; ok {
			return fmt.Errorf("%s would overwrite input %s", job.out, in)
		}
		seen[abs] = job.in
	}
	return nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&cvTo, "to", "", "target format: csv | tsv | xlsx")
	convertCmd.Flags().StringVar(&cvOutDir, "out-dir", "", "directory for converted files (default next to each input)")
	convertCmd.Flags().StringVarP(&cvOutput, "output", "o", "", "output path for a single input (format from extension)")
	convertCmd.Flags().StringVarP(&cvStudy, "study", "p", "", "study to record the outputs in")
	convertCmd.Flags().StringVar(&cvSheetOut, "sheet-out", "", "XLSX: name of the written sheet (default Sheet1)")
	convertCmd.Flags().StringVar(&cvDelimOut, "delimiter-out", "", "delimiter for written CSV: ',' | ';' | 'tab'")
	convertCmd.Flags().IntVar(&cvWorkers, "workers", 4, "files converted concurrently")
	cvSheet.register(convertCmd)
}
