package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a file format is not supported.
var ErrUnsupported = errors.New("unsupported tabular format")

// ReadOptions selects how a file is decoded.
type ReadOptions struct {
	// Delimiter for delimited text. If 0, inferred from the extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; takes precedence over SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet position (default 1).
	SheetIndex int
}

// WriteOptions selects how a table is encoded.
type WriteOptions struct {
	Delimiter rune
	// SheetName names the single XLSX sheet written (default "Sheet1").
	SheetName string
}

// Format reads and writes one family of tabular files.
type Format interface {
	CanHandle(path string) bool
	Read(path string, opt ReadOptions) (*Table, error)
	Write(path string, t *Table, opt WriteOptions) error
}

var registry []Format

// Register adds a format implementation to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

func lookup(path string) (Format, error) {
	for _, f := range registry {
		if f.CanHandle(path) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// ReadFile selects a format by extension and decodes the file.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	f, err := lookup(path)
	if err != nil {
		return nil, err
	}
	return f.Read(path, opt)
}

// WriteFile selects a format by extension and encodes t to path.
func WriteFile(path string, t *Table, opt WriteOptions) error {
	f, err := lookup(path)
	if err != nil {
		return err
	}
	return f.Write(path, t, opt)
}

// Supported reports whether some registered format handles path.
func Supported(path string) bool {
	_, err := lookup(path)
	return err == nil
}

func hasExt(path string, exts ...string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(delimitedFormat{})
	Register(xlsxFormat{})
}
