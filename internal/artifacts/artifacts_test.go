package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/predictor"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const linearModelJSON = `{
  "kind": "linear",
  "version": "lr-2024-01",
  "feature_names": ["floor_area_sqm", "remaining_lease_year", "town_BEDOK"],
  "intercept": 1000,
  "coefficients": {"floor_area_sqm": 5000, "remaining_lease_year": 2000}
}`

func TestLoadModel_Linear(t *testing.T) {
	path := writeFile(t, t.TempDir(), "model.json", linearModelJSON)

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "lr-2024-01", m.Version())
	assert.Equal(t, []string{"floor_area_sqm", "remaining_lease_year", "town_BEDOK"}, m.FeatureNames())

	y, err := m.Predict(context.Background(), []float64{90, 75, 1})
	require.NoError(t, err)
	assert.Equal(t, 1000.0+450000+150000, y)
}

func TestLoadModel_Forest(t *testing.T) {
	path := writeFile(t, t.TempDir(), "forest.json", `{
  "kind": "forest",
  "feature_names": ["a"],
  "trees": [{"nodes": [
    {"feature": 0, "threshold": 1, "left": 1, "right": 2},
    {"left": -1, "right": -1, "value": 10},
    {"left": -1, "right": -1, "value": 20}
  ]}]
}`)

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.IsType(t, &predictor.ForestModel{}, m)

	y, err := m.Predict(context.Background(), []float64{5})
	require.NoError(t, err)
	assert.Equal(t, 20.0, y)
}

func TestLoadModel_Remote(t *testing.T) {
	path := writeFile(t, t.TempDir(), "remote.json", `{"kind":"remote","endpoint":"http://models:8080/predict","timeout":"3s","version":"svc-7"}`)

	m, err := LoadModel(path)
	require.NoError(t, err)
	gm, ok := m.(*predictor.GuardedModel)
	require.True(t, ok)
	assert.Equal(t, predictor.BreakerClosed, gm.Breaker().State())
	rm, ok := gm.Model.(*predictor.RemoteModel)
	require.True(t, ok)
	assert.Equal(t, "svc-7", m.Version())
	assert.Equal(t, "http://models:8080/predict", rm.Endpoint())
	assert.Equal(t, "3s", rm.HTTPClient.Timeout.String())
}

func TestLoadModel_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadModel(filepath.Join(dir, "nope.json"))
		var nf *utils.ArtifactNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, KindModel, nf.Kind)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := LoadModel("")
		var nf *utils.ArtifactNotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := LoadModel(writeFile(t, dir, "svm.json", `{"kind":"svm"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported model kind")
	})

	t.Run("stray coefficient", func(t *testing.T) {
		_, err := LoadModel(writeFile(t, dir, "stray.json", `{"kind":"linear","feature_names":["a"],"coefficients":{"b":1}}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := LoadModel(writeFile(t, dir, "bad.json", `{"kind":`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode model artifact")
	})
}

func TestLoadSchemaAndEncoders(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", `{"columns":["floor_area_sqm","town"]}`)
	writeFile(t, dir, "encoders/town.json", `{"classes":["ANG MO KIO","BEDOK"]}`)

	schema, err := LoadSchema(schemaPath)
	require.NoError(t, err)
	assert.Equal(t, 2, schema.Len())

	encs, err := LoadEncoders(filepath.Join(dir, "encoders"), []string{"town"})
	require.NoError(t, err)
	code, err := encs["town"].Transform("BEDOK")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	_, err = LoadEncoders(filepath.Join(dir, "encoders"), []string{"town", "flat_type"})
	var nf *utils.ArtifactNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindEncoder, nf.Kind)
}

func TestLoadBundle_OneHot(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", linearModelJSON)
	schemaPath := writeFile(t, dir, "schema.json", `{"columns":["floor_area_sqm","remaining_lease_year","town_BEDOK"]}`)

	b, err := LoadBundle(Options{Strategy: features.StrategyOneHot, ModelPath: modelPath, SchemaPath: schemaPath, Version: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "lr-2024-01", b.ModelVersion)
	assert.Equal(t, 3, b.Schema.Len())
	assert.Nil(t, b.Encoders)
	assert.False(t, b.LoadedAt.IsZero())
}

func TestLoadBundle_SchemaFromModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", `{"kind":"linear","feature_names":["a","b"],"coefficients":{"a":1}}`)

	b, err := LoadBundle(Options{Strategy: features.StrategyOneHot, ModelPath: modelPath, Version: "v9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, b.Schema.Columns())
	assert.Equal(t, "v9", b.ModelVersion)
}

func TestLoadBundle_Label(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", `{"kind":"linear","feature_names":["floor_area_sqm","town","flat_type"],"coefficients":{}}`)
	writeFile(t, dir, "enc/town.json", `{"classes":["BEDOK"]}`)
	writeFile(t, dir, "enc/flat_type.json", `{"classes":["4 ROOM"]}`)

	b, err := LoadBundle(Options{Strategy: features.StrategyLabel, ModelPath: modelPath, EncoderDir: filepath.Join(dir, "enc")})
	require.NoError(t, err)
	assert.Len(t, b.Encoders, 2)
	assert.Contains(t, b.Encoders, "town")
	assert.Contains(t, b.Encoders, "flat_type")
}

func TestLoadBundle_MissingModelIsFatal(t *testing.T) {
	_, err := LoadBundle(Options{Strategy: features.StrategyOneHot, ModelPath: filepath.Join(t.TempDir(), "model.json")})
	var nf *utils.ArtifactNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindModel, nf.Kind)
}

func TestLoadBundle_ModelSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", linearModelJSON)
	schemaPath := writeFile(t, dir, "schema.json", `{"columns":["town_BEDOK","floor_area_sqm","remaining_lease_year"]}`)

	_, err := LoadBundle(Options{Strategy: features.StrategyOneHot, ModelPath: modelPath, SchemaPath: schemaPath})
	var sErr *utils.SchemaMismatchError
	assert.ErrorAs(t, err, &sErr)
}

func TestLoadBundle_NoSchemaAnywhere(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "remote.json", `{"kind":"remote","endpoint":"http://x/predict"}`)

	_, err := LoadBundle(Options{Strategy: features.StrategyOneHot, ModelPath: modelPath})
	var nf *utils.ArtifactNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindSchema, nf.Kind)
}
