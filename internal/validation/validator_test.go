package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speciesdash/speciesdash/internal/validation"
)

type searchParams struct {
	Query string `query:"q" validate:"required,min=2"`
}

type nested struct {
	Inner struct {
		Level string `koanf:"level" validate:"oneof=debug info"`
		Ratio float64 `koanf:"ratio" validate:"gt=0,lte=1"`
	} `koanf:"inner"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, validation.ValidateStruct(&searchParams{Query: "ly"}))
}

func TestValidateStruct_MinCountsCharacters(t *testing.T) {
	assert.NoError(t, validation.ValidateStruct(&searchParams{Query: "żó"}))

	err := validation.ValidateStruct(&searchParams{Query: "ż"})
	require.Error(t, err)
}

func TestValidateStruct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		params  searchParams
		tag     string
		message string
	}{
		{"missing", searchParams{}, "required", "q is required"},
		{"too short", searchParams{Query: "a"}, "min", "q must be at least 2 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateStruct(&tt.params)
			require.Error(t, err)

			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "q", verr.Fields[0].Field)
			assert.Equal(t, tt.tag, verr.Fields[0].Tag)
			assert.Equal(t, tt.message, verr.Fields[0].Message)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidateStruct_NestedPaths(t *testing.T) {
	var cfg nested
	cfg.Inner.Level = "loud"
	cfg.Inner.Ratio = 2

	err := validation.ValidateStruct(&cfg)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "inner.level", verr.Fields[0].Field)
	assert.Equal(t, "inner.level must be one of: debug info", verr.Fields[0].Message)
	assert.Equal(t, "inner.ratio", verr.Fields[1].Field)
	assert.Equal(t, "inner.ratio must be less than or equal to 1", verr.Fields[1].Message)
}
