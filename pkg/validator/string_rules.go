package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
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

// MaxLenString counts characters, not bytes; property and tenant names are often non-ASCII.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at most %d characters long", max),
			TranslationKey: "validation.max_length",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// Slug validates lowercase letters, digits and single hyphens, e.g. "pro-yearly".
func Slug(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" || value[0] == '-' || value[len(value)-1] == '-' {
				return false
			}
			prevHyphen := false
			for _, r := range value {
				switch {
				case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
					prevHyphen = false
				case r == '-':
					if prevHyphen {
						return false
					}
					prevHyphen = true
				default:
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must contain only lowercase letters, digits and hyphens",
			TranslationKey: "validation.slug",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
