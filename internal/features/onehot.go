package features

import (
	"github.com/irfndi/hdb-resale-go/internal/models"
)

// OneHotEncoder expands each categorical field into a single indicator
// column named "{field}_{value}". Numeric fields pass through unchanged.
//
// The encoder has no knowledge of the training domain; columns the model
// never saw are handled by the aligner.
type OneHotEncoder struct{}

// NewOneHotEncoder returns a one-hot encoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Encode emits numerics in fixed order followed by one indicator per
// categorical field. Optional numerics are emitted only when present.
func (e *OneHotEncoder) Encode(rec models.RawInputRecord) (Sparse, error) {
	nums := rec.Numerics()
	cats := rec.Categoricals()

	out := make(Sparse, 0, len(nums)+len(cats))
	for _, n := range nums {
		if !n.Present {
			continue
		}
		out = append(out, Feature{Column: n.Column, Value: n.Value})
	}
	for _, c := range cats {
		out = append(out, Feature{Column: OneHotColumn(c.Field, c.Value), Value: 1})
	}
	return out, nil
}
