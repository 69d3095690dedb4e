// Package share renders a recipe as plain text suitable for messaging apps
// and clipboards.
package share

import (
	"fmt"
	"strings"

	"fridgechef/internal/domain"
)

// Text formats the recipe for sharing: a headline, the description, and
// the ingredient and instruction lists under banner separators.
func Text(recipe domain.Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Check out this recipe: %s\n\n", recipe.RecipeName)
	b.WriteString(recipe.Description)
	b.WriteString("\n\n---INGREDIENTS---\n")
	for _, ing := range recipe.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	b.WriteString("\n---INSTRUCTIONS---\n")
	for i, step := range recipe.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	return b.String()
}
