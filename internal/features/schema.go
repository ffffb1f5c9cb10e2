// Package features converts validated flat records into the numeric vectors
// the trained regressor consumes.
package features

import (
	"fmt"
	"strings"

	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Schema is the ordered list of column names the model was trained on.
// It is read-only after construction and safe for concurrent use.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a schema from columns in model order. Empty and duplicate
// column names are rejected.
func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, &utils.SchemaMismatchError{Reason: "schema has no columns"}
	}

	s := &Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, &utils.SchemaMismatchError{Reason: fmt.Sprintf("empty column name at position %d", i)}
		}
		if _, dup := s.index[c]; dup {
			return nil, &utils.SchemaMismatchError{Reason: "duplicate column", Columns: []string{c}}
		}
		s.columns[i] = c
		s.index[c] = i
	}
	return s, nil
}

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Index returns the position of column.
func (s *Schema) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

// Has reports whether column is part of the schema.
func (s *Schema) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Equal reports whether other lists the same columns in the same order.
func (s *Schema) Equal(other []string) bool {
	if len(other) != len(s.columns) {
		return false
	}
	for i, c := range s.columns {
		if other[i] != c {
			return false
		}
	}
	return true
}

// Vector is a dense feature vector in schema order.
type Vector []float64

// Feature is one named value produced by the one-hot encoder.
type Feature struct {
	Column string
	Value  float64
}

// Sparse is the ordered, named output of the one-hot encoder. Columns that
// are absent are implicitly zero.
type Sparse []Feature

// Columns returns the column names in emission order.
func (s Sparse) Columns() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Column
	}
	return out
}

// OneHotColumn is the indicator column name for a categorical selection.
func OneHotColumn(field, value string) string {
	return field + "_" + value
}

// Strategy selects how categorical fields are turned into numbers. It is
// fixed per deployment and must match how the model was trained.
type Strategy string

const (
	StrategyOneHot Strategy = "onehot"
	StrategyLabel  Strategy = "label"
)

// ParseStrategy accepts "onehot" (also "one-hot", "one_hot") and "label".
func ParseStrategy(raw string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "onehot", "one-hot", "one_hot":
		return StrategyOneHot, nil
	case "label":
		return StrategyLabel, nil
	default:
		return "", fmt.Errorf("unknown encoding strategy %q", raw)
	}
}
