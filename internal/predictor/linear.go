package predictor

import (
	"context"
	"fmt"
)

// LinearModel is an exported linear regression: intercept + w·x.
type LinearModel struct {
	intercept    float64
	coefficients []float64
	names        []string
	version      string
}

// NewLinearModel builds a linear model. names and coefficients are parallel.
func NewLinearModel(names []string, coefficients []float64, intercept float64, version string) (*LinearModel, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	if len(names) != len(coefficients) {
		return nil, fmt.Errorf("linear model has %d feature names but %d coefficients", len(names), len(coefficients))
	}
	return &LinearModel{
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
		names:        append([]string(nil), names...),
		version:      version,
	}, nil
}

// Predict computes intercept + Σ wᵢxᵢ.
func (m *LinearModel) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != len(m.coefficients) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(m.coefficients), len(x))
	}
	y := m.intercept
	for i, w := range m.coefficients {
		y += w * x[i]
	}
	return y, nil
}

func (m *LinearModel) FeatureNames() []string { return append([]string(nil), m.names...) }

func (m *LinearModel) Version() string { return m.version }
