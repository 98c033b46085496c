package study

import (
	"fmt"
	"time"
)

// Kind classifies how a dataset was produced.
type Kind string

const (
	KindRaw       Kind = "raw"
	KindCleaned   Kind = "cleaned"
	KindSimulated Kind = "simulated"
	KindConverted Kind = "converted"
	KindReport    Kind = "report"
)

// ParseKind validates a user-supplied kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRaw, KindCleaned, KindSimulated, KindConverted, KindReport:
		return k, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q", s)
}

// Dataset holds metadata for one file tracked by a study.
type Dataset struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description,omitempty"`
	Command     string    `json:"command"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
