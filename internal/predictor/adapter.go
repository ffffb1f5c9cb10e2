package predictor

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Adapter checks a vector against the schema, runs the model and converts
// its output to a price rounded to cents.
type Adapter struct {
	model  Model
	schema *features.Schema
}

// NewAdapter returns an adapter for model bound to schema.
func NewAdapter(model Model, schema *features.Schema) *Adapter {
	return &Adapter{model: model, schema: schema}
}

// Model returns the wrapped model.
func (a *Adapter) Model() Model { return a.model }

// Predict runs a single inference. A width mismatch is a SchemaMismatchError
// and the model is not called. Every model failure, including panics and
// non-finite output, is reported as PredictionError.
func (a *Adapter) Predict(ctx context.Context, vec features.Vector) (price decimal.Decimal, err error) {
	if a.schema == nil {
		return decimal.Zero, &utils.SchemaMismatchError{Reason: "no schema loaded"}
	}
	if len(vec) != a.schema.Len() {
		return decimal.Zero, &utils.SchemaMismatchError{Expected: a.schema.Len(), Actual: len(vec), Reason: "vector width"}
	}
	if a.model == nil {
		return decimal.Zero, &utils.PredictionError{Err: fmt.Errorf("no model loaded")}
	}

	defer func() {
		if r := recover(); r != nil {
			price = decimal.Zero
			err = &utils.PredictionError{Err: fmt.Errorf("model panicked: %v", r)}
		}
	}()

	y, err := a.model.Predict(ctx, []float64(vec))
	if err != nil {
		return decimal.Zero, &utils.PredictionError{Err: err}
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return decimal.Zero, &utils.PredictionError{Err: fmt.Errorf("model returned non-finite value %v", y)}
	}
	return decimal.NewFromFloat(y).Round(2), nil
}
