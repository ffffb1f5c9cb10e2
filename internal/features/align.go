package features

import (
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Alignment is the result of projecting sparse features onto a schema.
type Alignment struct {
	Vector Vector
	// Dropped lists supplied columns that the schema does not contain, in
	// the order they were supplied.
	Dropped []string
}

// Aligner projects one-hot output onto the model's schema.
type Aligner struct {
	// Strict turns dropped columns into a SchemaMismatchError.
	Strict bool
}

// Align places each supplied value at its schema position and zero-fills the
// rest. Columns unknown to the schema are dropped. When the same column is
// supplied twice the later value wins.
func (a Aligner) Align(features Sparse, schema *Schema) (Alignment, error) {
	if schema == nil {
		return Alignment{}, &utils.SchemaMismatchError{Reason: "no schema loaded"}
	}

	vec := make(Vector, schema.Len())
	var dropped []string
	for _, f := range features {
		i, ok := schema.index[f.Column]
		if !ok {
			dropped = append(dropped, f.Column)
			continue
		}
		vec[i] = f.Value
	}

	if a.Strict && len(dropped) > 0 {
		return Alignment{}, &utils.SchemaMismatchError{
			Reason:  "columns not present in model schema",
			Columns: dropped,
		}
	}
	return Alignment{Vector: vec, Dropped: dropped}, nil
}

// Align aligns with the default, non-strict aligner.
func Align(features Sparse, schema *Schema) (Alignment, error) {
	return Aligner{}.Align(features, schema)
}
