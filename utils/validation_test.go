package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type testRequest struct {
	Name  string     `json:"name" validate:"required"`
	Count int        `json:"count" validate:"min=1,max=10"`
	Items []testItem `json:"items" validate:"omitempty,dive"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := testRequest{
			Name:  "chat",
			Count: 3,
			Items: []testItem{{Role: "user", Content: "hi"}},
		}

		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("missing required field uses json name", func(t *testing.T) {
		s := testRequest{Count: 3}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "name is required", fields["name"])
	})

	t.Run("out of range", func(t *testing.T) {
		s := testRequest{Name: "chat", Count: 11}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "count must be at most 10", fields["count"])
	})

	t.Run("nested items are validated", func(t *testing.T) {
		s := testRequest{
			Name:  "chat",
			Count: 1,
			Items: []testItem{
				{Role: "user", Content: "ok"},
				{Role: "robot", Content: ""},
			},
		}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "items[1].role must be one of: user assistant system", fields["items[1].role"])
		assert.Equal(t, "items[1].content is required", fields["items[1].content"])
		assert.NotContains(t, fields, "items[0].role")
	})
}

func TestValidator_Struct_NonStruct(t *testing.T) {
	err := NewValidator().Struct("not a struct")
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestValidationError_Error(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		err := &ValidationError{Message: "Validation failed"}
		assert.Equal(t, "Validation failed", err.Error())
	})

	t.Run("fields are listed in stable order", func(t *testing.T) {
		err := &ValidationError{
			Message: "Validation failed",
			Fields: map[string]string{
				"service": "service is required",
				"message": "message is required",
			},
		}
		assert.Equal(t, "Validation failed: message is required; service is required", err.Error())
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "x"}))
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
	assert.Nil(t, GetValidationFields(errors.New("plain")))
}

func TestValidateStringLength(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		min     int
		max     int
		wantErr bool
	}{
		{"within bounds", "abcd", 3, 10, false},
		{"too short", "ab", 3, 0, true},
		{"too long", "abcdef", 0, 5, true},
		{"multibyte counted as characters", "día", 3, 0, false},
		{"no bounds", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStringLength(tt.value, "query", tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
