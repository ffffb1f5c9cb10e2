// Package predictor wraps trained regressors behind a single interface and
// adapts their output to a resale price.
package predictor

import (
	"context"
)

// Model kinds understood by the artifact loader.
const (
	KindLinear = "linear"
	KindForest = "forest"
	KindRemote = "remote"
)

// Model is a trained regressor. Implementations must be safe for concurrent
// use and must not mutate their parameters during Predict.
type Model interface {
	// Predict returns the estimate for one dense feature row.
	Predict(ctx context.Context, features []float64) (float64, error)
	// FeatureNames returns the column order the model was trained on, or nil
	// when the artifact does not record it.
	FeatureNames() []string
	// Version identifies the trained artifact.
	Version() string
}
