package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Numeric feature column names as produced by the training pipeline.
const (
	ColumnFloorArea      = "floor_area_sqm"
	ColumnRemainingLease = "remaining_lease_year"
	ColumnAgeOfFlat      = "age_of_flat"
	ColumnDistanceToMRT  = "distance_to_mrt"
)

// Input bounds enforced by the collector, matching the original sliders.
const (
	MinFloorAreaSqm        = 30
	MaxFloorAreaSqm        = 400
	DefaultFloorAreaSqm    = 90
	MinRemainingLease      = 0
	MaxRemainingLease      = 99
	DefaultRemainingLease  = 75
	MaxAgeOfFlat           = 99
	MaxDistanceToMRTMetres = 50000
)

// PredictionRequest is the raw, untrusted payload supplied by the UI.
type PredictionRequest struct {
	FloorAreaSqm       float64  `json:"floor_area_sqm" form:"floor_area_sqm"`
	RemainingLeaseYear int      `json:"remaining_lease_year" form:"remaining_lease_year"`
	AgeOfFlat          *float64 `json:"age_of_flat,omitempty" form:"age_of_flat"`
	DistanceToMRT      *float64 `json:"distance_to_mrt,omitempty" form:"distance_to_mrt"`
	Town               string   `json:"town" form:"town"`
	FlatType           string   `json:"flat_type" form:"flat_type"`
	StoreyRange        string   `json:"storey_range" form:"storey_range"`
	FlatModel          string   `json:"flat_model" form:"flat_model"`
}

// RawInputRecord is one validated set of flat attributes. Build it through
// the collector; it is never modified afterwards.
type RawInputRecord struct {
	FloorAreaSqm        float64
	RemainingLeaseYears int
	AgeOfFlat           *float64
	DistanceToMRT       *float64
	Town                Town
	FlatType            FlatType
	StoreyRange         StoreyRange
	FlatModel           FlatModel
}

// NumericValue is one numeric feature of a record.
type NumericValue struct {
	Column  string
	Value   float64
	Present bool
}

// CategoricalValue is one categorical selection of a record.
type CategoricalValue struct {
	Field string
	Value string
}

// Numerics returns the numeric features in schema order. Optional fields
// the user did not supply are reported with Present=false.
func (r RawInputRecord) Numerics() []NumericValue {
	out := []NumericValue{
		{Column: ColumnFloorArea, Value: r.FloorAreaSqm, Present: true},
		{Column: ColumnRemainingLease, Value: float64(r.RemainingLeaseYears), Present: true},
		{Column: ColumnAgeOfFlat},
		{Column: ColumnDistanceToMRT},
	}
	if r.AgeOfFlat != nil {
		out[2].Value, out[2].Present = *r.AgeOfFlat, true
	}
	if r.DistanceToMRT != nil {
		out[3].Value, out[3].Present = *r.DistanceToMRT, true
	}
	return out
}

// Categoricals returns the categorical selections in CategoricalFields order.
func (r RawInputRecord) Categoricals() []CategoricalValue {
	return []CategoricalValue{
		{Field: FieldTown, Value: string(r.Town)},
		{Field: FieldFlatType, Value: string(r.FlatType)},
		{Field: FieldStoreyRange, Value: string(r.StoreyRange)},
		{Field: FieldFlatModel, Value: string(r.FlatModel)},
	}
}

// Specification is one row of the flat summary shown back to the user.
type Specification struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Specifications renders the record as the label/value summary table.
func (r RawInputRecord) Specifications() []Specification {
	specs := []Specification{
		{Label: "Floor Area (sqm)", Value: strconv.FormatFloat(r.FloorAreaSqm, 'f', -1, 64)},
		{Label: "Remaining Lease (years)", Value: strconv.Itoa(r.RemainingLeaseYears)},
		{Label: "Town", Value: string(r.Town)},
		{Label: "Flat Type", Value: string(r.FlatType)},
		{Label: "Storey Range", Value: string(r.StoreyRange)},
		{Label: "Flat Model", Value: string(r.FlatModel)},
	}
	if r.AgeOfFlat != nil {
		specs = append(specs, Specification{Label: "Age of Flat (years)", Value: strconv.FormatFloat(*r.AgeOfFlat, 'f', -1, 64)})
	}
	if r.DistanceToMRT != nil {
		specs = append(specs, Specification{Label: "Distance to MRT (m)", Value: strconv.FormatFloat(*r.DistanceToMRT, 'f', -1, 64)})
	}
	return specs
}

// PredictionResult is the outcome of one successful pipeline run.
type PredictionResult struct {
	ID           string          `json:"id" db:"id"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Strategy     string          `json:"strategy" db:"strategy"`
	ModelVersion string          `json:"model_version" db:"model_version"`
	Cached       bool            `json:"cached"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// PredictionRecord is a persisted prediction together with its inputs.
type PredictionRecord struct {
	PredictionResult
	Town         string  `json:"town" db:"town"`
	FlatType     string  `json:"flat_type" db:"flat_type"`
	StoreyRange  string  `json:"storey_range" db:"storey_range"`
	FlatModel    string  `json:"flat_model" db:"flat_model"`
	FloorAreaSqm float64 `json:"floor_area_sqm" db:"floor_area_sqm"`
	LeaseYears   int     `json:"remaining_lease_year" db:"remaining_lease_year"`
	// Nil when the request omitted the optional input.
	AgeOfFlat     *float64 `json:"age_of_flat,omitempty" db:"age_of_flat"`
	DistanceToMRT *float64 `json:"distance_to_mrt,omitempty" db:"distance_to_mrt"`
}
