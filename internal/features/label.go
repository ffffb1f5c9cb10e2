package features

import (
	"fmt"
	"strings"

	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// CategoryEncoder maps the category values seen during training to their
// integer codes. The class list is frozen; code == position.
type CategoryEncoder struct {
	field   string
	classes []string
	codes   map[string]int
}

// NewCategoryEncoder builds an encoder for field from its trained classes.
func NewCategoryEncoder(field string, classes []string) (*CategoryEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder for %s has no classes", field)
	}
	e := &CategoryEncoder{
		field:   field,
		classes: make([]string, len(classes)),
		codes:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := e.codes[c]; dup {
			return nil, fmt.Errorf("encoder for %s has duplicate class %q", field, c)
		}
		e.classes[i] = c
		e.codes[c] = i
	}
	return e, nil
}

// Field returns the categorical field the encoder serves.
func (e *CategoryEncoder) Field() string { return e.field }

// Classes returns a copy of the trained class list.
func (e *CategoryEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Transform returns the code for value, or an UnknownCategoryError when the
// encoder was never fitted on it. Matching is exact.
func (e *CategoryEncoder) Transform(value string) (int, error) {
	code, ok := e.codes[value]
	if !ok {
		return 0, &utils.UnknownCategoryError{Field: e.field, Value: value}
	}
	return code, nil
}

// LabelEncoder builds a dense vector directly in schema order. Numeric
// columns take the record value, categorical columns take the code from the
// field's CategoryEncoder.
type LabelEncoder struct {
	schema   *Schema
	encoders map[string]*CategoryEncoder
}

// NewLabelEncoder checks that every schema column can be filled from a
// record, either as a numeric column or through an encoder, and fails with
// SchemaMismatchError otherwise.
func NewLabelEncoder(schema *Schema, encoders map[string]*CategoryEncoder) (*LabelEncoder, error) {
	if schema == nil {
		return nil, &utils.SchemaMismatchError{Reason: "label encoding requires a schema"}
	}

	numeric := numericColumns()
	var unfillable []string
	for _, col := range schema.columns {
		if numeric[col] {
			continue
		}
		if _, ok := encoders[col]; ok {
			continue
		}
		unfillable = append(unfillable, col)
	}
	if len(unfillable) > 0 {
		return nil, &utils.SchemaMismatchError{
			Reason:  "no value source for columns",
			Columns: unfillable,
		}
	}

	enc := make(map[string]*CategoryEncoder, len(encoders))
	for k, v := range encoders {
		enc[k] = v
	}
	return &LabelEncoder{schema: schema, encoders: enc}, nil
}

// Encode returns the label-encoded vector for rec. The first categorical
// value outside its encoder's domain aborts encoding with
// UnknownCategoryError. Optional numerics that were not supplied are 0.
func (e *LabelEncoder) Encode(rec models.RawInputRecord) (Vector, error) {
	values := make(map[string]float64, len(models.CategoricalFields)+4)
	for _, n := range rec.Numerics() {
		if n.Present {
			values[n.Column] = n.Value
		}
	}
	cats := make(map[string]string, len(models.CategoricalFields))
	for _, c := range rec.Categoricals() {
		cats[c.Field] = c.Value
	}

	vec := make(Vector, e.schema.Len())
	for i, col := range e.schema.columns {
		if enc, ok := e.encoders[col]; ok {
			code, err := enc.Transform(cats[col])
			if err != nil {
				return nil, err
			}
			vec[i] = float64(code)
			continue
		}
		vec[i] = values[col]
	}
	return vec, nil
}

func numericColumns() map[string]bool {
	out := map[string]bool{}
	for _, n := range (models.RawInputRecord{}).Numerics() {
		out[n.Column] = true
	}
	return out
}

// String renders the encoder for log fields.
func (e *CategoryEncoder) String() string {
	return fmt.Sprintf("%s[%s]", e.field, strings.Join(e.classes, "|"))
}
