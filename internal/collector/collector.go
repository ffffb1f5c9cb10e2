// Package collector turns untrusted UI input into a RawInputRecord.
package collector

import (
	"errors"
	"math"

	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Collect validates req and builds the immutable record the encoders consume.
// All field problems are reported together, joined with errors.Join.
func Collect(req models.PredictionRequest) (models.RawInputRecord, error) {
	var errs []error

	if math.IsNaN(req.FloorAreaSqm) || req.FloorAreaSqm < models.MinFloorAreaSqm || req.FloorAreaSqm > models.MaxFloorAreaSqm {
		errs = append(errs, utils.NewValidationErrorf(models.ColumnFloorArea,
			"must be between %d and %d", models.MinFloorAreaSqm, models.MaxFloorAreaSqm))
	}
	if req.RemainingLeaseYear < models.MinRemainingLease || req.RemainingLeaseYear > models.MaxRemainingLease {
		errs = append(errs, utils.NewValidationErrorf(models.ColumnRemainingLease,
			"must be between %d and %d", models.MinRemainingLease, models.MaxRemainingLease))
	}
	if v := req.AgeOfFlat; v != nil && (math.IsNaN(*v) || *v < 0 || *v > models.MaxAgeOfFlat) {
		errs = append(errs, utils.NewValidationErrorf(models.ColumnAgeOfFlat,
			"must be between 0 and %d", models.MaxAgeOfFlat))
	}
	if v := req.DistanceToMRT; v != nil && (math.IsNaN(*v) || *v < 0 || *v > models.MaxDistanceToMRTMetres) {
		errs = append(errs, utils.NewValidationErrorf(models.ColumnDistanceToMRT,
			"must be between 0 and %d", models.MaxDistanceToMRTMetres))
	}

	town, err := models.ParseTown(req.Town)
	errs = appendErr(errs, err)
	flatType, err := models.ParseFlatType(req.FlatType)
	errs = appendErr(errs, err)
	storey, err := models.ParseStoreyRange(req.StoreyRange)
	errs = appendErr(errs, err)
	flatModel, err := models.ParseFlatModel(req.FlatModel)
	errs = appendErr(errs, err)

	if len(errs) > 0 {
		return models.RawInputRecord{}, errors.Join(errs...)
	}

	return models.RawInputRecord{
		FloorAreaSqm:        req.FloorAreaSqm,
		RemainingLeaseYears: req.RemainingLeaseYear,
		AgeOfFlat:           copyFloat(req.AgeOfFlat),
		DistanceToMRT:       copyFloat(req.DistanceToMRT),
		Town:                town,
		FlatType:            flatType,
		StoreyRange:         storey,
		FlatModel:           flatModel,
	}, nil
}

// Defaults returns the request a UI should pre-fill.
func Defaults() models.PredictionRequest {
	return models.PredictionRequest{
		FloorAreaSqm:       models.DefaultFloorAreaSqm,
		RemainingLeaseYear: models.DefaultRemainingLease,
		Town:               string(models.Towns()[0]),
		FlatType:           string(models.FlatTypes()[0]),
		StoreyRange:        string(models.StoreyRanges()[0]),
		FlatModel:          string(models.FlatModels()[0]),
	}
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

// copyFloat detaches the record from the request's pointers.
func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
