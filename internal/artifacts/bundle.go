package artifacts

import (
	"fmt"
	"time"

	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/predictor"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// MissingMessage is shown to operators when a required artifact is absent.
const MissingMessage = "Required files not found. Please ensure the model and encoders are available."

// Options locates the artifacts for one deployment.
type Options struct {
	Strategy   features.Strategy
	ModelPath  string
	SchemaPath string
	EncoderDir string
	// Version is used when the model artifact does not carry one.
	Version string
}

// Bundle holds everything loaded at startup. It is never mutated after
// LoadBundle returns and may be shared across requests.
type Bundle struct {
	Strategy     features.Strategy
	Schema       *features.Schema
	Model        predictor.Model
	Encoders     map[string]*features.CategoryEncoder
	ModelVersion string
	LoadedAt     time.Time
}

// LoadBundle loads and cross-checks all artifacts. When no schema path is
// given the model's own feature names become the schema.
func LoadBundle(opts Options) (*Bundle, error) {
	model, err := LoadModel(opts.ModelPath)
	if err != nil {
		return nil, err
	}

	var schema *features.Schema
	if opts.SchemaPath != "" {
		schema, err = LoadSchema(opts.SchemaPath)
		if err != nil {
			return nil, err
		}
	} else if names := model.FeatureNames(); len(names) > 0 {
		schema, err = features.NewSchema(names)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, &utils.ArtifactNotFoundError{Kind: KindSchema, Path: opts.SchemaPath}
	}

	if err := verifyModelSchema(model, schema); err != nil {
		return nil, err
	}

	b := &Bundle{
		Strategy:     opts.Strategy,
		Schema:       schema,
		Model:        model,
		ModelVersion: model.Version(),
		LoadedAt:     time.Now().UTC(),
	}
	if b.ModelVersion == "" {
		b.ModelVersion = opts.Version
	}

	if opts.Strategy == features.StrategyLabel {
		var fields []string
		for _, f := range models.CategoricalFields {
			if schema.Has(f) {
				fields = append(fields, f)
			}
		}
		b.Encoders, err = LoadEncoders(opts.EncoderDir, fields)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func verifyModelSchema(model predictor.Model, schema *features.Schema) error {
	names := model.FeatureNames()
	if len(names) == 0 || schema.Equal(names) {
		return nil
	}
	return &utils.SchemaMismatchError{
		Expected: schema.Len(),
		Actual:   len(names),
		Reason:   fmt.Sprintf("model %q was trained on a different column order", model.Version()),
	}
}
