// Package anthropic implements generate.Generator against the Anthropic
// Messages API. The API has no structured-output constraint, so the prompt
// carries an explicit schema instruction and the JSON object is extracted
// from the reply before decoding.
package anthropic

import (
	"context"
	"fmt"

	anthropicsdk "github.com/liushuangls/go-anthropic/v2"

	"fridgechef/internal/domain"
	"fridgechef/internal/generate"
)

// Compile-time interface check.
var _ generate.Generator = (*Client)(nil)

// maxTokens leaves headroom for long instruction lists; a typical recipe
// response is well under 1024 tokens.
const maxTokens = 2048

type Client struct {
	client *anthropicsdk.Client
	model  string
}

// Option configures the client.
type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a different API endpoint (tests, proxies).
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// NewClient creates an Anthropic-backed generator. The API key never leaves
// this package; it is held only by the underlying SDK client.
func NewClient(apiKey, model string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var sdkOpts []anthropicsdk.ClientOption
	if o.baseURL != "" {
		sdkOpts = append(sdkOpts, anthropicsdk.WithBaseURL(o.baseURL))
	}

	return &Client{
		client: anthropicsdk.NewClient(apiKey, sdkOpts...),
		model:  model,
	}
}

// GenerateRecipe performs one round-trip. Video media is not supported by
// this backend and fails before any network call.
func (c *Client) GenerateRecipe(ctx context.Context, req domain.GenerationRequest) (*domain.Recipe, error) {
	if req.Media != nil && req.Media.IsVideo() {
		return nil, generate.WrapErr(req, fmt.Errorf("the anthropic backend does not accept video media"))
	}

	prompt := generate.BuildPrompt(req) + "\n" + generate.SchemaInstruction

	var msg anthropicsdk.Message
	if req.Media != nil {
		msg = anthropicsdk.Message{
			Role: anthropicsdk.RoleUser,
			Content: []anthropicsdk.MessageContent{
				anthropicsdk.NewImageMessageContent(anthropicsdk.NewMessageContentSource(
					anthropicsdk.MessagesContentSourceTypeBase64, req.Media.MIMEType, req.Media.Data)),
				anthropicsdk.NewTextMessageContent(prompt),
			},
		}
	} else {
		msg = anthropicsdk.NewUserTextMessage(prompt)
	}

	temperature := float32(0.8)
	resp, err := c.client.CreateMessages(ctx, anthropicsdk.MessagesRequest{
		Model:       anthropicsdk.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages:    []anthropicsdk.Message{msg},
	})
	if err != nil {
		return nil, generate.WrapErr(req, err)
	}

	if len(resp.Content) == 0 {
		return nil, generate.WrapErr(req, fmt.Errorf("empty response from anthropic"))
	}

	raw, err := generate.ExtractJSON(resp.Content[0].GetText())
	if err != nil {
		return nil, generate.WrapErr(req, err)
	}

	recipe, err := generate.DecodeRecipe(raw)
	if err != nil {
		return nil, generate.WrapErr(req, err)
	}
	return recipe, nil
}
