package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "test error message",
	}

	assert.Equal(t, "test error message", err.Error())

	err.Field = "town"
	assert.Equal(t, "town: test error message", err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("floor_area_sqm", "must be between 30 and 400")

	assert.Error(t, err)
	assert.Equal(t, "floor_area_sqm: must be between 30 and 400", err.Error())

	validationErr, ok := err.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "floor_area_sqm", validationErr.Field)
}

func TestNewValidationErrorf(t *testing.T) {
	err := NewValidationErrorf("remaining_lease_year", "value %d out of range", 150)

	assert.Equal(t, "remaining_lease_year: value 150 out of range", err.Error())
}

func TestArtifactNotFoundError(t *testing.T) {
	err := &ArtifactNotFoundError{Kind: "model", Path: "models/price.json", Err: fs.ErrNotExist}

	assert.Equal(t, `model artifact not found at "models/price.json"`, err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	wrapped := fmt.Errorf("load bundle: %w", err)
	var target *ArtifactNotFoundError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "model", target.Kind)
}

func TestUnknownCategoryError(t *testing.T) {
	err := &UnknownCategoryError{Field: "flat_type", Value: "PENTHOUSE"}
	assert.Equal(t, `unknown category "PENTHOUSE" for field flat_type`, err.Error())
}

func TestSchemaMismatchError(t *testing.T) {
	tests := []struct {
		name string
		err  *SchemaMismatchError
		want string
	}{
		{
			name: "width only",
			err:  &SchemaMismatchError{Expected: 4, Actual: 3},
			want: "schema mismatch (expected 4 columns, got 3)",
		},
		{
			name: "reason and columns",
			err:  &SchemaMismatchError{Expected: 2, Actual: 2, Reason: "columns outside schema", Columns: []string{"town_PUNGGOL"}},
			want: "schema mismatch: columns outside schema [town_PUNGGOL]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredictionError_Unwrap(t *testing.T) {
	cause := errors.New("shape mismatch")
	err := &PredictionError{Err: cause}

	assert.Equal(t, "prediction failed: shape mismatch", err.Error())
	assert.ErrorIs(t, err, cause)
}
