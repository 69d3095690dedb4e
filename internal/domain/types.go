// Package domain defines the core types shared by the capture-and-generate
// pipeline. It has no dependencies on other packages in this module.
package domain

// InputMode selects where the ingredients come from.
type InputMode string

const (
	ModeText  InputMode = "text"
	ModeImage InputMode = "image"
	ModeVideo InputMode = "video"
)

// ParseInputMode returns the InputMode for name, or false if unrecognized.
func ParseInputMode(name string) (InputMode, bool) {
	switch InputMode(name) {
	case ModeText, ModeImage, ModeVideo:
		return InputMode(name), true
	}
	return "", false
}

// DietaryOption constrains recipe composition to a fixed set of diets.
type DietaryOption string

const (
	DietNone       DietaryOption = "None"
	DietVegan      DietaryOption = "Vegan"
	DietVegetarian DietaryOption = "Vegetarian"
	DietGlutenFree DietaryOption = "Gluten-Free"
	DietKeto       DietaryOption = "Keto"
)

// DietaryOptions lists every valid dietary option, in display order.
func DietaryOptions() []DietaryOption {
	return []DietaryOption{DietNone, DietVegan, DietVegetarian, DietGlutenFree, DietKeto}
}

// ParseDietaryOption returns the DietaryOption for name, or false if name is
// not one of the fixed set. An empty name maps to DietNone.
func ParseDietaryOption(name string) (DietaryOption, bool) {
	if name == "" {
		return DietNone, true
	}
	for _, opt := range DietaryOptions() {
		if DietaryOption(name) == opt {
			return opt, true
		}
	}
	return "", false
}

// Facing selects which physical camera supplies the live stream.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Toggle returns the opposite facing direction.
func (f Facing) Toggle() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// MediaBlob is a finished captured or uploaded media payload.
type MediaBlob struct {
	Data     []byte
	MIMEType string
}

// IsVideo reports whether the blob holds video rather than a still image.
func (m MediaBlob) IsVideo() bool {
	return len(m.MIMEType) >= 6 && m.MIMEType[:6] == "video/"
}

// GenerationRequest is the validated input for one generation attempt.
// Construct it through the compose package; a zero value is not valid.
type GenerationRequest struct {
	IngredientsText string
	Dietary         DietaryOption
	DishTypeHint    string
	Media           *MediaBlob
}

// Recipe is the structured result of a successful generation. All seven
// fields are required; RecipeName is the unique key for the saved collection.
type Recipe struct {
	RecipeName   string   `json:"recipeName"`
	Description  string   `json:"description"`
	PrepTime     string   `json:"prepTime"`
	CookTime     string   `json:"cookTime"`
	Servings     string   `json:"servings"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// SavedRecipe is a Recipe plus the user's rating, as persisted in the
// saved-recipe collection.
type SavedRecipe struct {
	Recipe
	UserRating int `json:"userRating,omitempty"` // 1-5, 0 = unrated
}
