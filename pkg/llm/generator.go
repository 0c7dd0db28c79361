// Package llm wraps the external language-model call behind a small
// synchronous interface.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/akarpovich/newsbrief/pkg/config"
)

// Generator produces briefing text via an OpenAI-compatible chat endpoint
type Generator struct {
	client *openai.Client
	config config.LLMConfig
}

// NewGenerator creates a generator from LLM configuration
func NewGenerator(cfg config.LLMConfig) *Generator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Generate sends the system instruction and user message to the model and
// returns the raw text response. Transient transport failures are retried
// with backoff; whatever error survives the retries is returned to the
// caller to convert into a displayable answer.
func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Temperature: float32(g.config.Temperature),
		MaxTokens:   g.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	var content string
	retrier := repeater.NewBackoff(3, 500*time.Millisecond, repeater.WithMaxDelay(5*time.Second))
	err := retrier.Do(ctx, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in model response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	return content, nil
}
