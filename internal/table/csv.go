package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

type delimitedFormat struct{}

func (delimitedFormat) CanHandle(path string) bool {
	return hasExt(path, ".csv", ".tsv", ".txt")
}

func (delimitedFormat) Read(path string, opt ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delimiterFor(path, opt.Delimiter)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(filepath.Base(path), rows), nil
}

func (delimitedFormat) Write(path string, t *Table, opt WriteOptions) error {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Comma = delimiterFor(path, opt.Delimiter)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func delimiterFor(path string, override rune) rune {
	if override != 0 {
		return override
	}
	if hasExt(path, ".tsv") {
		return '\t'
	}
	return ','
}
