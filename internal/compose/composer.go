// Package compose turns raw UI state into a valid GenerationRequest, or
// rejects it with an actionable validation error before any network activity.
package compose

import (
	"regexp"
	"strings"

	"fridgechef/internal/domain"
)

// invalidChars matches any character the ingredients list may not contain:
// only letters, whitespace, commas, apostrophes, and hyphens are allowed.
var invalidChars = regexp.MustCompile(`[^a-zA-Z\s,'-]`)

// Input is the raw form state as the user submitted it.
type Input struct {
	Mode            domain.InputMode
	IngredientsText string
	Dietary         domain.DietaryOption
	DishTypeHint    string
	Media           *domain.MediaBlob
}

// Build validates in, first failing check wins:
//
//  1. non-empty ingredients text with a disallowed character -> InvalidCharacters
//  2. text mode with blank (or whitespace-only) ingredients  -> MissingIngredients
//  3. image/video mode with no captured media                -> MissingMedia
//
// The character class is checked only against the ingredients text, and only
// when it is non-empty. The free-text field in image/video mode passes
// through unchecked, matching the historical behavior.
func Build(in Input) (domain.GenerationRequest, error) {
	if in.IngredientsText != "" && invalidChars.MatchString(in.IngredientsText) {
		return domain.GenerationRequest{}, &domain.ValidationError{Code: domain.InvalidCharacters}
	}

	trimmed := strings.TrimSpace(in.IngredientsText)
	if in.Mode == domain.ModeText && trimmed == "" {
		return domain.GenerationRequest{}, &domain.ValidationError{Code: domain.MissingIngredients}
	}

	if in.Mode != domain.ModeText && in.Media == nil {
		return domain.GenerationRequest{}, &domain.ValidationError{Code: domain.MissingMedia, Mode: in.Mode}
	}

	return domain.GenerationRequest{
		IngredientsText: trimmed,
		Dietary:         in.Dietary,
		DishTypeHint:    strings.TrimSpace(in.DishTypeHint),
		Media:           in.Media,
	}, nil
}
