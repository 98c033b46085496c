package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveyloom-cli/internal/table"
	"github.com/KaramelBytes/surveyloom-cli/internal/utils"
)

const (
	studyFileName = "study.json"
)

// Study is a directory-backed record of the datasets produced for one
// survey round.
type Study struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the study.json
	rootDir string `json:"-"`
}

// NewStudy constructs an in-memory study. Call Save() to persist.
func NewStudy(name, description, rootDir string) *Study {
	return &Study{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadStudy loads a study.json from the provided directory.
func LoadStudy(dir string) (*Study, error) {
	path := filepath.Join(dir, studyFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("study not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read study: %w", err)
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse study: %w", err)
	}
	if s.Datasets == nil {
		s.Datasets = make(map[string]*Dataset)
	}
	s.rootDir = dir
	return &s, nil
}

// Exists reports whether dir holds a study manifest.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, studyFileName))
	return err == nil
}

// RootDir returns the on-disk study directory path.
func (s *Study) RootDir() string { return s.rootDir }

// Save writes study.json using atomic write.
func (s *Study) Save() error {
	if s.rootDir == "" {
		return errors.New("study root directory not set")
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, studyFileName), data)
}

// Record registers an output file under kind. A dataset already registered
// for the same absolute path is updated in place and keeps its ID.
func (s *Study) Record(path string, kind Kind, command string, rows, cols int) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if s.Datasets == nil {
		s.Datasets = make(map[string]*Dataset)
	}
	now := time.Now()
	d := s.FindByPath(abs)
	if d == nil {
		d = &Dataset{ID: uuid.NewString(), Path: abs, CreatedAt: now}
		s.Datasets[d.ID] = d
	}
	d.Name = filepath.Base(abs)
	d.Kind = kind
	d.Command = command
	d.Rows = rows
	d.Columns = cols
	d.UpdatedAt = now
	s.UpdatedAt = now
	return d, nil
}

// AddDataset reads a tabular file and registers it with its shape.
func (s *Study) AddDataset(path string, kind Kind, description string) (*Dataset, error) {
	t, err := table.ReadFile(path, table.ReadOptions{})
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	d, err := s.Record(path, kind, "add", t.Len(), len(t.Header))
	if err != nil {
		return nil, err
	}
	d.Description = description
	return d, nil
}

// FindByPath returns the dataset registered for the absolute path, if any.
func (s *Study) FindByPath(abs string) *Dataset {
	for _, d := range s.Datasets {
		if d.Path == abs {
			return d
		}
	}
	return nil
}

// List returns the datasets ordered by creation time, then name.
func (s *Study) List() []*Dataset {
	out := make([]*Dataset, 0, len(s.Datasets))
	for _, d := range s.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
