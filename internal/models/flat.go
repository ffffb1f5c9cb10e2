package models

import (
	"strings"

	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// Town is an HDB town as offered to the user.
type Town string

// FlatType is the room classification of a flat.
type FlatType string

// StoreyRange is the three-storey band a flat sits in.
type StoreyRange string

// FlatModel is the HDB design model of a flat.
type FlatModel string

// Categorical field names. They double as the one-hot column prefix and the
// label encoder artifact names.
const (
	FieldTown        = "town"
	FieldFlatType    = "flat_type"
	FieldStoreyRange = "storey_range"
	FieldFlatModel   = "flat_model"
)

// CategoricalFields lists the categorical fields in the order the training
// pipeline expanded them.
var CategoricalFields = []string{FieldTown, FieldFlatType, FieldStoreyRange, FieldFlatModel}

var towns = []Town{
	"ANG MO KIO", "BEDOK", "BISHAN", "BUKIT BATOK", "BUKIT MERAH", "BUKIT PANJANG", "BUKIT TIMAH",
	"CENTRAL AREA", "CHOA CHU KANG", "CLEMENTI", "GEYLANG", "HOUGANG", "JURONG EAST", "JURONG WEST",
	"KALLANG/WHAMPOA", "MARINE PARADE", "PASIR RIS", "PUNGGOL", "QUEENSTOWN", "SEMBAWANG", "SENGKANG",
	"SERANGOON", "TAMPINES", "TOA PAYOH", "WOODLANDS", "YISHUN",
}

var flatTypes = []FlatType{
	"1 ROOM", "2 ROOM", "3 ROOM", "4 ROOM", "5 ROOM", "EXECUTIVE", "MULTI-GENERATION",
}

var storeyRanges = []StoreyRange{
	"01 TO 03", "04 TO 06", "07 TO 09", "10 TO 12", "13 TO 15", "16 TO 18", "19 TO 21", "22 TO 24",
	"25 TO 27", "28 TO 30", "31 TO 33", "34 TO 36", "37 TO 39", "40 TO 42", "43 TO 45", "46 TO 48", "49 TO 51",
}

var flatModels = []FlatModel{
	"2-room", "3Gen", "Adjoined flat", "Apartment", "DBSS", "Improved", "Improved-Maisonette", "Maisonette",
	"Model A", "Model A-Maisonette", "Model A2", "Multi Generation", "New Generation", "Premium Apartment",
	"Premium Apartment Loft", "Premium Maisonette", "Simplified", "Standard", "Terrace", "Type S1", "Type S2",
}

// Towns returns the town domain in display order.
func Towns() []Town { return append([]Town(nil), towns...) }

// FlatTypes returns the flat type domain in display order.
func FlatTypes() []FlatType { return append([]FlatType(nil), flatTypes...) }

// StoreyRanges returns the storey range domain in display order.
func StoreyRanges() []StoreyRange { return append([]StoreyRange(nil), storeyRanges...) }

// FlatModels returns the flat model domain in display order.
func FlatModels() []FlatModel { return append([]FlatModel(nil), flatModels...) }

// ParseTown validates raw against the town domain.
func ParseTown(raw string) (Town, error) { return parseEnum(FieldTown, raw, towns) }

// ParseFlatType validates raw against the flat type domain.
func ParseFlatType(raw string) (FlatType, error) { return parseEnum(FieldFlatType, raw, flatTypes) }

// ParseStoreyRange validates raw against the storey range domain.
func ParseStoreyRange(raw string) (StoreyRange, error) {
	return parseEnum(FieldStoreyRange, raw, storeyRanges)
}

// ParseFlatModel validates raw against the flat model domain.
func ParseFlatModel(raw string) (FlatModel, error) { return parseEnum(FieldFlatModel, raw, flatModels) }

// parseEnum returns the declared member matching raw. Surrounding whitespace
// and letter case are tolerated; the returned value is always the canonical
// spelling so downstream column names match the training output.
func parseEnum[T ~string](field, raw string, domain []T) (T, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", utils.NewValidationError(field, "is required")
	}
	for _, d := range domain {
		if string(d) == v {
			return d, nil
		}
	}
	for _, d := range domain {
		if strings.EqualFold(string(d), v) {
			return d, nil
		}
	}
	return "", utils.NewValidationErrorf(field, "%q is not a recognised value", v)
}

// DomainStrings flattens an enumerated domain to plain strings.
func DomainStrings[T ~string](domain []T) []string {
	out := make([]string, len(domain))
	for i, d := range domain {
		out[i] = string(d)
	}
	return out
}
