// Package generate defines the generation-service boundary: one
// request/response cycle against an external model that returns a validated
// Recipe or a typed failure. Backends live in subpackages; this package holds
// the prompts and the strict response decoding they share.
package generate

import (
	"context"
	"fmt"
	"strings"

	"fridgechef/internal/domain"
)

// Generator performs exactly one generation round-trip. No retries.
type Generator interface {
	GenerateRecipe(ctx context.Context, req domain.GenerationRequest) (*domain.Recipe, error)
}

// BuildPrompt constructs the instructional prompt for req. The media variant
// tells the model to identify ingredients from the media and use the text
// only to disambiguate; the text variant asks it to first judge whether the
// listed items are plausible food. Both direct the model to report
// unrecognizable input inside the description field rather than failing.
func BuildPrompt(req domain.GenerationRequest) string {
	dietary := ""
	if req.Dietary != domain.DietNone && req.Dietary != "" {
		dietary = fmt.Sprintf("The recipe must be %s.", req.Dietary)
	}
	dishType := ""
	if req.DishTypeHint != "" {
		dishType = fmt.Sprintf("The recipe should be a type of %q.", req.DishTypeHint)
	}

	var b strings.Builder
	b.WriteString("You are an expert chef who creates simple, delicious, and creative recipes.\n")

	if req.Media != nil {
		b.WriteString("Analyze the provided media (image or video) to identify all available food ingredients.\n")
		b.WriteString("Based on the ingredients you identify, generate a complete recipe.\n")
		fmt.Fprintf(&b, "The user has also provided the following text for additional context: %q. Use this to clarify ambiguity, but prioritize visually present ingredients. Ensure any text ingredients are also valid food items.\n", req.IngredientsText)
		b.WriteString("You can assume common pantry staples like salt, pepper, oil, and water are available.\n")
		writeLine(&b, dishType)
		writeLine(&b, dietary)
		b.WriteString("Return the response in a JSON format that adheres to the provided schema. If you cannot identify any valid food ingredients from the media or text, return an error message in the JSON's description field.")
		return b.String()
	}

	b.WriteString("First, verify that the following list of items contains actual food ingredients. If the list contains non-food items or is nonsensical, your response's description field should contain an error message explaining why a recipe cannot be created.\n")
	b.WriteString("If the ingredients are valid, generate a complete recipe based on them.\n")
	fmt.Fprintf(&b, "Available ingredients: %s.\n", req.IngredientsText)
	writeLine(&b, dishType)
	writeLine(&b, dietary)
	b.WriteString("You can assume common pantry staples like salt, pepper, oil, and water are available.\n")
	b.WriteString("Please create a recipe that primarily uses the listed ingredients.\n")
	b.WriteString("Return the response in a JSON format that adheres to the provided schema.")
	return b.String()
}

func writeLine(b *strings.Builder, s string) {
	if s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
}

// SchemaInstruction spells out the response shape for backends whose API has
// no structured-output constraint. Field names and types match domain.Recipe.
const SchemaInstruction = `Respond with a single clean JSON object and nothing else (no markdown fencing). ` +
	`It must have exactly these keys: "recipeName" (string), "description" (string), ` +
	`"prepTime" (string, e.g. "15 minutes"), "cookTime" (string), "servings" (string, e.g. "4 servings"), ` +
	`"ingredients" (array of strings, each an ingredient with its quantity), ` +
	`"instructions" (array of strings, each a single cooking step). All seven keys are required.`

// DecodeRecipe parses the model's JSON payload into a Recipe and enforces
// that all seven fields are present and non-empty. A response missing any
// field is a malformed response, not a partial result.
func DecodeRecipe(jsonText string) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := unmarshalStrictJSON(strings.TrimSpace(jsonText), &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe JSON: %w", err)
	}

	missing := ""
	switch {
	case r.RecipeName == "":
		missing = "recipeName"
	case r.Description == "":
		missing = "description"
	case r.PrepTime == "":
		missing = "prepTime"
	case r.CookTime == "":
		missing = "cookTime"
	case r.Servings == "":
		missing = "servings"
	case len(r.Ingredients) == 0:
		missing = "ingredients"
	case len(r.Instructions) == 0:
		missing = "instructions"
	}
	if missing != "" {
		return nil, fmt.Errorf("malformed response: missing required field %q", missing)
	}

	return &r, nil
}

// ExtractJSON returns the substring between the first '{' and the last '}',
// for models that wrap their JSON in prose or markdown fencing.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start > end {
		return "", fmt.Errorf("could not find JSON object in response")
	}
	return s[start : end+1], nil
}

// WrapErr classifies err as a generation failure, differentiated for message
// wording by whether media was involved.
func WrapErr(req domain.GenerationRequest, err error) error {
	return &domain.GenerationError{FromMedia: req.Media != nil, Err: err}
}
