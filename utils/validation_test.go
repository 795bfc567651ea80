package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type triggerSettings struct {
	ProjectID string `validate:"required"`
	Token     string `validate:"required"`
	Ref       string
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := triggerSettings{ProjectID: "group/project", Token: "glptt-abc"}
		assert.NoError(t, ValidateStruct(s))
	})

	t.Run("missing required fields", func(t *testing.T) {
		err := ValidateStruct(triggerSettings{Ref: "main"})
		require.Error(t, err)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Fields, "ProjectID")
		assert.Contains(t, validationErr.Fields, "Token")
		assert.Equal(t, "ProjectID is required", validationErr.Fields["ProjectID"])
	})

	t.Run("untagged fields ignored", func(t *testing.T) {
		s := triggerSettings{ProjectID: "42", Token: "tok", Ref: ""}
		assert.NoError(t, ValidateStruct(s))
	})
}

func TestIsValidationError(t *testing.T) {
	err := ValidateStruct(triggerSettings{})
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(errors.New("other")))
	assert.False(t, IsValidationError(nil))
}

func TestGetValidationFields(t *testing.T) {
	err := ValidateStruct(triggerSettings{Token: "tok"})
	fields := GetValidationFields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "ProjectID")
	assert.NotContains(t, fields, "Token")

	assert.Nil(t, GetValidationFields(errors.New("other")))
}
