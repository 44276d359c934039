package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validator classifies query strings against a fixed rule table. It holds no
// mutable state, so a single instance is safe to share across goroutines and
// cheap enough to run on every keystroke.
type Validator struct {
	rules Rules
}

func NewValidator(rules Rules) *Validator {
	return &Validator{rules: rules}
}

var defaultValidator = NewValidator(DefaultRules())

// Validate classifies query with the built-in rule table.
func Validate(query string) Result {
	return defaultValidator.Validate(query)
}

// Validate classifies a raw query string. It never fails: every input maps to
// a Result. At most one blocking reason is ever recorded, chosen by the fixed
// category priority, and evaluation stops at the first blocking match.
func (v *Validator) Validate(query string) Result {
	result := okResult()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		// Submission is gated on non-empty input elsewhere.
		return result
	}

	// Limits are in characters, not bytes.
	length := utf8.RuneCountInString(trimmed)

	if length < v.rules.MinLength {
		result.IsValid = false
		result.Warnings = append(result.Warnings, "Query is too short")
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Please provide at least %d characters", v.rules.MinLength))
		return result
	}

	if length > v.rules.MaxLength {
		result.IsValid = false
		result.IsBlocked = true
		result.BlockedReasons = append(result.BlockedReasons, ReasonTooLong)
		result.Warnings = append(result.Warnings, "Query exceeds maximum length")
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Please keep your query under %d characters", v.rules.MaxLength))
		return result
	}

	for _, category := range v.rules.Categories {
		if category.matches(trimmed) {
			result.IsValid = false
			result.IsBlocked = true
			result.BlockedReasons = append(result.BlockedReasons, category.Code)
			result.Warnings = append(result.Warnings, category.Warning)
			result.Suggestions = append(result.Suggestions, category.Suggestion)
			return result
		}
	}

	// Accepted. Advisory warnings only from here on.
	if length < v.rules.ShortAdvisoryLen {
		result.Warnings = append(result.Warnings, "Query is quite short")
		result.Suggestions = append(result.Suggestions, "Consider adding more context for better results")
	}

	if length > v.rules.LongAdvisoryLen {
		result.Warnings = append(result.Warnings, "Query is getting long")
		result.Suggestions = append(result.Suggestions, "Consider breaking into smaller, focused questions")
	}

	for _, p := range v.rules.GenericPatterns {
		if p.MatchString(trimmed) {
			result.Warnings = append(result.Warnings, "Query is very generic")
			result.Suggestions = append(result.Suggestions, "Be more specific about what you want to know")
			break
		}
	}

	return result
}
