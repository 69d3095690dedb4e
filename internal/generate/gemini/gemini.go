// Package gemini implements generate.Generator against the Google Gemini API
// using a structured response schema, so the model's output parses
// deterministically into the Recipe shape.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fridgechef/internal/domain"
	"fridgechef/internal/generate"
)

// Compile-time interface check.
var _ generate.Generator = (*Client)(nil)

// recipeSchema constrains the response to the Recipe shape. All seven fields
// are required; ingredients and instructions are ordered string arrays.
var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recipeName": {
			Type:        genai.TypeString,
			Description: "The name of the recipe.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "A short, enticing description of the dish.",
		},
		"prepTime": {
			Type:        genai.TypeString,
			Description: `Estimated preparation time (e.g., "15 minutes").`,
		},
		"cookTime": {
			Type:        genai.TypeString,
			Description: `Estimated cooking time (e.g., "30 minutes").`,
		},
		"servings": {
			Type:        genai.TypeString,
			Description: `How many servings the recipe makes (e.g., "4 servings").`,
		},
		"ingredients": {
			Type:        genai.TypeArray,
			Description: "A list of all ingredients required for the recipe.",
			Items: &genai.Schema{
				Type:        genai.TypeString,
				Description: `A single ingredient with its quantity (e.g., "1 cup of flour").`,
			},
		},
		"instructions": {
			Type:        genai.TypeArray,
			Description: "The step-by-step instructions to prepare the dish.",
			Items: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A single, clear step in the cooking instructions.",
			},
		},
	},
	Required: []string{"recipeName", "description", "prepTime", "cookTime", "servings", "ingredients", "instructions"},
}

type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a Gemini-backed generator. The API key never leaves this
// package; it is held only by the underlying genai client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recipeSchema
	model.SetTemperature(0.8)
	model.SetTopP(0.95)

	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() error { return c.client.Close() }

// GenerateRecipe performs one round-trip. Any transport error, schema
// violation, or parse failure comes back as a domain.GenerationError.
func (c *Client) GenerateRecipe(ctx context.Context, req domain.GenerationRequest) (*domain.Recipe, error) {
	var parts []genai.Part
	if req.Media != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Media.MIMEType, Data: req.Media.Data})
	}
	parts = append(parts, genai.Text(generate.BuildPrompt(req)))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, generate.WrapErr(req, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, generate.WrapErr(req, fmt.Errorf("empty response from gemini"))
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, generate.WrapErr(req, fmt.Errorf("unexpected response part type from gemini"))
	}

	recipe, err := generate.DecodeRecipe(string(text))
	if err != nil {
		return nil, generate.WrapErr(req, err)
	}
	return recipe, nil
}
