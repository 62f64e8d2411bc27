package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient talks to OpenAI-compatible chat-completion endpoints
// (OpenAI itself, vLLM, Ollama, etc.).
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	pricing  Pricing
	logger   *zap.Logger
}

// Config holds connection settings for creating a client.
type Config struct {
	Provider string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"` // "openai" or "anthropic"
	Endpoint string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string  `yaml:"-" env:"LLM_API_KEY"` // Secret, env only
	Pricing  Pricing `yaml:"pricing"`
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		pricing:  cfg.Pricing,
		logger:   logger.Named("llm"),
	}, nil
}

var _ Client = (*OpenAIClient)(nil)

// Generate produces a chat completion and reports token usage and cost.
func (c *OpenAIClient) Generate(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResult, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(ErrorTypeMalformed, "no choices in response", false, nil)
	}

	result := &GenerateResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		CostUSD:          c.pricing.Cost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Float64("cost_usd", result.CostUSD),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
