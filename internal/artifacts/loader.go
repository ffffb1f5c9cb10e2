// Package artifacts loads the trained model, feature schema and category
// encoders from disk.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/predictor"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Artifact kinds reported in ArtifactNotFoundError.
const (
	KindModel   = "model"
	KindSchema  = "schema"
	KindEncoder = "encoder"
)

// modelFile is the on-disk model document.
type modelFile struct {
	Kind         string             `json:"kind"`
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Trees        []predictor.Tree   `json:"trees"`
	Endpoint     string             `json:"endpoint"`
	Timeout      string             `json:"timeout"`
}

type schemaFile struct {
	Columns []string `json:"columns"`
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

// readJSON opens path and decodes it into v. A missing file is reported as
// ArtifactNotFoundError of the given kind.
func readJSON(kind, path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &utils.ArtifactNotFoundError{Kind: kind, Path: path, Err: err}
		}
		return fmt.Errorf("failed to open %s artifact: %w", kind, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s artifact %s: %w", kind, path, err)
	}
	return nil
}

// LoadModel reads a model document and builds the matching predictor.
func LoadModel(path string) (predictor.Model, error) {
	if path == "" {
		return nil, &utils.ArtifactNotFoundError{Kind: KindModel, Path: path, Err: fs.ErrNotExist}
	}

	var mf modelFile
	if err := readJSON(KindModel, path, &mf); err != nil {
		return nil, err
	}

	switch mf.Kind {
	case predictor.KindLinear:
		return buildLinear(mf)
	case predictor.KindForest:
		return predictor.NewForestModel(mf.FeatureNames, mf.Trees, mf.Version)
	case predictor.KindRemote:
		var timeout time.Duration
		if mf.Timeout != "" {
			d, err := time.ParseDuration(mf.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid remote model timeout %q: %w", mf.Timeout, err)
			}
			timeout = d
		}
		remote, err := predictor.NewRemoteModel(mf.Endpoint, mf.FeatureNames, mf.Version, timeout)
		if err != nil {
			return nil, err
		}
		return predictor.NewGuardedModel(remote, predictor.NewCircuitBreaker("model_server", predictor.BreakerConfig{}, nil)), nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q in %s", mf.Kind, path)
	}
}

// buildLinear orders coefficients by feature name. Names without a
// coefficient weigh 0; coefficients without a name are rejected.
func buildLinear(mf modelFile) (predictor.Model, error) {
	if len(mf.FeatureNames) == 0 {
		return nil, fmt.Errorf("linear model has no feature names")
	}
	known := make(map[string]bool, len(mf.FeatureNames))
	coefs := make([]float64, len(mf.FeatureNames))
	for i, name := range mf.FeatureNames {
		known[name] = true
		coefs[i] = mf.Coefficients[name]
	}
	for name := range mf.Coefficients {
		if !known[name] {
			return nil, fmt.Errorf("linear model has coefficient for unknown feature %q", name)
		}
	}
	return predictor.NewLinearModel(mf.FeatureNames, coefs, mf.Intercept, mf.Version)
}

// LoadSchema reads the ordered column list the model was trained on.
func LoadSchema(path string) (*features.Schema, error) {
	var sf schemaFile
	if err := readJSON(KindSchema, path, &sf); err != nil {
		return nil, err
	}
	return features.NewSchema(sf.Columns)
}

// LoadEncoders reads {dir}/{field}.json for every field.
func LoadEncoders(dir string, fields []string) (map[string]*features.CategoryEncoder, error) {
	out := make(map[string]*features.CategoryEncoder, len(fields))
	for _, field := range fields {
		path := filepath.Join(dir, field+".json")

		var ef encoderFile
		if err := readJSON(KindEncoder, path, &ef); err != nil {
			return nil, err
		}
		enc, err := features.NewCategoryEncoder(field, ef.Classes)
		if err != nil {
			return nil, fmt.Errorf("invalid encoder artifact %s: %w", path, err)
		}
		out[field] = enc
	}
	return out, nil
}
