package gemini

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgechef/internal/domain"
)

// The genai client talks to the live API, so this is an integration test
// gated on a real key being present.
func TestGenerateRecipeLive(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping live Gemini test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, apiKey, "gemini-2.5-flash")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	recipe, err := client.GenerateRecipe(ctx, domain.GenerationRequest{
		IngredientsText: "chicken, rice, broccoli",
		Dietary:         domain.DietNone,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, recipe.RecipeName)
	assert.NotEmpty(t, recipe.Description)
	assert.NotEmpty(t, recipe.PrepTime)
	assert.NotEmpty(t, recipe.CookTime)
	assert.NotEmpty(t, recipe.Servings)
	assert.NotEmpty(t, recipe.Ingredients)
	assert.NotEmpty(t, recipe.Instructions)
}

func TestRecipeSchemaCoversAllFields(t *testing.T) {
	require.Len(t, recipeSchema.Required, 7)
	for _, field := range recipeSchema.Required {
		assert.Contains(t, recipeSchema.Properties, field)
	}
}
