package validator

import "fmt"

func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool {
			return len(value) > 0
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

func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must have at most %d items", max),
			TranslationKey: "validation.max_items",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// Each builds rules for every element. The field passed to fn is indexed, e.g. "items[2]".
func Each[T any](field string, values []T, fn func(field string, v T) []Rule) []Rule {
	var rules []Rule
	for i, v := range values {
		rules = append(rules, fn(fmt.Sprintf("%s[%d]", field, i), v)...)
	}
	return rules
}
