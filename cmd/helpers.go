package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveyloom-cli/internal/study"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
	"github.com/KaramelBytes/surveyloom-cli/internal/table"
)

// sheetFlags are the XLSX/delimiter read options shared by file commands.
type sheetFlags struct {
	delimiter  string
	sheetName  string
	sheetIndex int
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *sheetFlags) registerPersistent(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	cmd.PersistentFlags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.PersistentFlags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *sheetFlags) readOptions() (table.ReadOptions, error) {
	d, err := parseDelimiter(f.delimiter)
	if err != nil {
		return table.ReadOptions{}, err
	}
	return table.ReadOptions{Delimiter: d, SheetName: f.sheetName, SheetIndex: f.sheetIndex}, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// readTable loads path and logs its shape.
func readTable(path string, opt table.ReadOptions) (*table.Table, error) {
	t, err := table.ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("read table", zap.String("file", path), zap.Int("rows", t.Len()), zap.Int("cols", len(t.Header)))
	return t, nil
}

func writeTable(path string, t *table.Table) error {
	if err := table.WriteFile(path, t, table.WriteOptions{}); err != nil {
		return err
	}
	logger.Debug("wrote table", zap.String("file", path), zap.Int("rows", t.Len()))
	return nil
}

// resolveSchema binds the configured layout to header. reverse, when not
// nil, replaces the configured reverse-scored columns.
func resolveSchema(header []string, reverse []string) (*survey.Schema, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	l := c.Layout()
	if reverse != nil {
		l.ReverseItems = reverse
	}
	s, err := l.Resolve(header)
	if err != nil {
		return nil, fmt.Errorf("resolve survey columns: %w", err)
	}
	return s, nil
}

// recordOutput registers a written file with the named study, if any.
func recordOutput(studyName, path string, kind study.Kind, command string, t *table.Table) error {
	if studyName == "" {
		return nil
	}
	dir, err := resolveStudyDirByName(studyName)
	if err != nil {
		return err
	}
	s, err := study.LoadStudy(dir)
	if err != nil {
		return err
	}
	rows, cols := 0, 0
	if t != nil {
		rows, cols = t.Len(), len(t.Header)
	}
	d, err := s.Record(path, kind, command, rows, cols)
	if err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		return err
	}
	fmt.Printf("✓ Recorded %s in study '%s' as %s\n", d.Name, s.Name, d.Kind)
	return nil
}

// studyDataset returns the dataset the named study holds for path, or nil.
func studyDataset(studyName, path string) (*study.Dataset, error) {
	dir, err := resolveStudyDirByName(studyName)
	if err != nil {
		return nil, err
	}
	s, err := study.LoadStudy(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return s.FindByPath(abs), nil
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
