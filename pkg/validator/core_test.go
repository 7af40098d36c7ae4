package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/pkg/validator"
)

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	t.Run("returns default message when no errors", func(t *testing.T) {
		var errs validator.ValidationErrors
		assert.Equal(t, "validation failed", errs.Error())
	})

	t.Run("returns formatted message with multiple errors", func(t *testing.T) {
		errs := validator.ValidationErrors{
			{Field: "name", Message: "is required"},
			{Field: "price", Message: "must be greater than zero"},
		}
		assert.Equal(t, "validation failed: name: is required; price: must be greater than zero", errs.Error())
	})
}

func TestValidationErrors_Accessors(t *testing.T) {
	t.Parallel()

	errs := validator.ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "name", Message: "too long"},
		{Field: "price", Message: "must be greater than zero"},
	}

	assert.True(t, errs.Has("name"))
	assert.False(t, errs.Has("notes"))
	assert.Equal(t, []string{"is required", "too long"}, errs.Get("name"))
	assert.Nil(t, errs.Get("notes"))
	assert.Equal(t, []string{"name", "price"}, errs.Fields())
	assert.Equal(t, map[string][]string{
		"name":  {"is required", "too long"},
		"price": {"must be greater than zero"},
	}, errs.Map())
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("nil when every rule passes", func(t *testing.T) {
		err := validator.Apply(
			validator.RequiredString("name", "Kos Melati"),
			validator.Positive("price", int64(1_500_000)),
		)
		assert.NoError(t, err)
	})

	t.Run("aggregates failures", func(t *testing.T) {
		err := validator.Apply(
			validator.RequiredString("name", "  "),
			validator.Positive("price", int64(0)),
			validator.MaxLenString("code", "A1", 10),
		)
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
		assert.ErrorIs(t, err, validator.ErrValidationFailed)

		errs := validator.ExtractValidationErrors(err)
		assert.Equal(t, []string{"name", "price"}, errs.Fields())
	})

	t.Run("extracts from wrapped errors", func(t *testing.T) {
		err := fmt.Errorf("create room: %w", validator.Apply(validator.RequiredString("name", "")))
		assert.True(t, validator.IsValidationError(err))
		assert.True(t, validator.ExtractValidationErrors(err).Has("name"))
	})

	t.Run("non validation errors", func(t *testing.T) {
		assert.False(t, validator.IsValidationError(errors.New("boom")))
		assert.False(t, validator.IsValidationError(nil))
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("boom")))
	})
}

func TestWhen(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validator.Apply(validator.When(false, validator.RequiredString("notes", ""))))
	assert.Error(t, validator.Apply(validator.When(true, validator.RequiredString("notes", ""))))
}

func TestEach(t *testing.T) {
	t.Parallel()

	type item struct {
		Description string
		Amount      int64
	}
	items := []item{{"Sewa", 1_000_000}, {"", 0}}

	rules := validator.Each("items", items, func(field string, it item) []validator.Rule {
		return []validator.Rule{
			validator.RequiredString(field+".description", it.Description),
			validator.Positive(field+".amount", it.Amount),
		}
	})
	errs := validator.ExtractValidationErrors(validator.Apply(rules...))
	assert.Equal(t, []string{"items[1].description", "items[1].amount"}, errs.Fields())
}
