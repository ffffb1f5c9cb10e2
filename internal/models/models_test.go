package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/hdb-resale-go/internal/utils"
)

func TestDomains_Sizes(t *testing.T) {
	assert.Len(t, Towns(), 26)
	assert.Len(t, FlatTypes(), 7)
	assert.Len(t, StoreyRanges(), 17)
	assert.Len(t, FlatModels(), 21)
}

func TestDomains_ReturnCopies(t *testing.T) {
	ts := Towns()
	ts[0] = "NOWHERE"
	assert.Equal(t, Town("ANG MO KIO"), Towns()[0])
}

func TestParseTown(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Town
		wantErr bool
	}{
		{name: "exact", raw: "BEDOK", want: "BEDOK"},
		{name: "trimmed", raw: "  PUNGGOL ", want: "PUNGGOL"},
		{name: "case folded to canonical", raw: "kallang/whampoa", want: "KALLANG/WHAMPOA"},
		{name: "empty", raw: "", wantErr: true},
		{name: "outside domain", raw: "SENTOSA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTown(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *utils.ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Equal(t, FieldTown, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOtherDomains(t *testing.T) {
	ft, err := ParseFlatType("4 ROOM")
	require.NoError(t, err)
	assert.Equal(t, FlatType("4 ROOM"), ft)

	_, err = ParseFlatType("PENTHOUSE")
	assert.Error(t, err)

	sr, err := ParseStoreyRange("04 TO 06")
	require.NoError(t, err)
	assert.Equal(t, StoreyRange("04 TO 06"), sr)

	fm, err := ParseFlatModel("improved")
	require.NoError(t, err)
	assert.Equal(t, FlatModel("Improved"), fm)
}

func TestRawInputRecord_NumericsAndCategoricals(t *testing.T) {
	age := 20.0
	rec := RawInputRecord{
		FloorAreaSqm:        90,
		RemainingLeaseYears: 75,
		AgeOfFlat:           &age,
		Town:                "BEDOK",
		FlatType:            "4 ROOM",
		StoreyRange:         "04 TO 06",
		FlatModel:           "Improved",
	}

	nums := rec.Numerics()
	require.Len(t, nums, 4)
	assert.Equal(t, NumericValue{Column: ColumnFloorArea, Value: 90, Present: true}, nums[0])
	assert.Equal(t, NumericValue{Column: ColumnRemainingLease, Value: 75, Present: true}, nums[1])
	assert.Equal(t, NumericValue{Column: ColumnAgeOfFlat, Value: 20, Present: true}, nums[2])
	assert.False(t, nums[3].Present)

	cats := rec.Categoricals()
	require.Len(t, cats, len(CategoricalFields))
	for i, field := range CategoricalFields {
		assert.Equal(t, field, cats[i].Field)
	}
	assert.Equal(t, "Improved", cats[3].Value)
}

func TestRawInputRecord_Specifications(t *testing.T) {
	rec := RawInputRecord{
		FloorAreaSqm:        92.5,
		RemainingLeaseYears: 60,
		Town:                "BISHAN",
		FlatType:            "5 ROOM",
		StoreyRange:         "10 TO 12",
		FlatModel:           "Model A",
	}

	specs := rec.Specifications()
	require.Len(t, specs, 6)
	assert.Equal(t, Specification{Label: "Floor Area (sqm)", Value: "92.5"}, specs[0])
	assert.Equal(t, Specification{Label: "Remaining Lease (years)", Value: "60"}, specs[1])
	assert.Equal(t, "Model A", specs[5].Value)
}
