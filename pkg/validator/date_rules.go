package validator

import (
	"time"
)

func RequiredTime(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return !value.IsZero()
		},
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// DateNotBefore validates value >= start. Zero values pass; pair with RequiredTime if needed.
func DateNotBefore(field string, value, start time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.IsZero() || start.IsZero() || !value.Before(start)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must not be before " + start.Format(time.DateOnly),
			TranslationKey: "validation.date_not_before",
			TranslationValues: map[string]any{
				"field": field,
				"date":  start,
			},
		},
	}
}
