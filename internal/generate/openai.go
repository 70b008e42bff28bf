// Package generate drafts post content with an OpenAI-compatible chat API.
// Everything it produces is untrusted input to the pipeline.
package generate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"postwave/internal/domain"
)

const defaultModel = openai.GPT4oMini

// systemPrompt keeps drafts plain-text and inside the platform budget; the
// pipeline still sanitizes and validates whatever comes back.
const systemPrompt = `You are a social media copywriter. Write a single post ` +
	`ready for publishing: plain text only, no markdown, no surrounding quotes, ` +
	`no commentary about the post.`

// OpenAIGenerator implements domain.Generator over chat completions.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// Config configures the generator. BaseURL switches to any OpenAI-compatible
// endpoint; Model defaults to a small fast model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates an OpenAI-compatible generator.
func New(cfg Config) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Draft implements domain.Generator.
func (g *OpenAIGenerator) Draft(ctx context.Context, topic string, platform domain.Platform, tone domain.Tone) (string, error) {
	prompt := fmt.Sprintf("Write a %s post for %s about: %s", tone, platform, topic)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("draft generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("draft generation returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
