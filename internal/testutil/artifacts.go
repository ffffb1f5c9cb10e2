package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/hdb-resale-go/internal/artifacts"
	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/models"
)

// MockModel is a testify mock of predictor.Model.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Predict(ctx context.Context, x []float64) (float64, error) {
	args := m.Called(ctx, x)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockModel) FeatureNames() []string {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

func (m *MockModel) Version() string {
	return m.Called().String(0)
}

// OneHotColumns is a trimmed one-hot schema. PUNGGOL and EXECUTIVE are
// deliberately absent.
var OneHotColumns = []string{
	models.ColumnFloorArea,
	models.ColumnRemainingLease,
	"town_ANG MO KIO",
	"town_BEDOK",
	"town_TAMPINES",
	"flat_type_3 ROOM",
	"flat_type_4 ROOM",
	"flat_type_5 ROOM",
	"storey_range_01 TO 03",
	"storey_range_04 TO 06",
	"flat_model_Improved",
	"flat_model_Model A",
}

// LabelColumns is the label-encoded schema.
var LabelColumns = []string{
	models.ColumnFloorArea,
	models.ColumnRemainingLease,
	models.FieldTown,
	models.FieldFlatType,
	models.FieldStoreyRange,
	models.FieldFlatModel,
}

// LabelClasses are the trained encoder domains. EXECUTIVE is a valid flat
// type that the encoder never saw.
var LabelClasses = map[string][]string{
	models.FieldTown:        {"ANG MO KIO", "BEDOK", "PUNGGOL", "TAMPINES"},
	models.FieldFlatType:    {"3 ROOM", "4 ROOM", "5 ROOM"},
	models.FieldStoreyRange: {"01 TO 03", "04 TO 06", "07 TO 09"},
	models.FieldFlatModel:   {"Improved", "Model A", "New Generation"},
}

// BedokRequest is a valid request whose every category is in both schemas.
func BedokRequest() models.PredictionRequest {
	return models.PredictionRequest{
		FloorAreaSqm:       90,
		RemainingLeaseYear: 75,
		Town:               "BEDOK",
		FlatType:           "4 ROOM",
		StoreyRange:        "04 TO 06",
		FlatModel:          "Improved",
	}
}

// BedokRecord is BedokRequest after collection.
func BedokRecord() models.RawInputRecord {
	return models.RawInputRecord{
		FloorAreaSqm:        90,
		RemainingLeaseYears: 75,
		Town:                "BEDOK",
		FlatType:            "4 ROOM",
		StoreyRange:         "04 TO 06",
		FlatModel:           "Improved",
	}
}

// OneHotBundle returns a one-hot bundle around model.
func OneHotBundle(t *testing.T, model *MockModel) *artifacts.Bundle {
	t.Helper()
	schema, err := features.NewSchema(OneHotColumns)
	require.NoError(t, err)
	return &artifacts.Bundle{
		Strategy:     features.StrategyOneHot,
		Schema:       schema,
		Model:        model,
		ModelVersion: "test-onehot",
		LoadedAt:     time.Now().UTC(),
	}
}

// LabelBundle returns a label-encoded bundle around model.
func LabelBundle(t *testing.T, model *MockModel) *artifacts.Bundle {
	t.Helper()
	schema, err := features.NewSchema(LabelColumns)
	require.NoError(t, err)

	encoders := make(map[string]*features.CategoryEncoder, len(LabelClasses))
	for field, classes := range LabelClasses {
		enc, err := features.NewCategoryEncoder(field, classes)
		require.NoError(t, err)
		encoders[field] = enc
	}
	return &artifacts.Bundle{
		Strategy:     features.StrategyLabel,
		Schema:       schema,
		Model:        model,
		Encoders:     encoders,
		ModelVersion: "test-label",
		LoadedAt:     time.Now().UTC(),
	}
}
