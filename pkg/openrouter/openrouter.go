package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type ChatModelBuilder interface {
	NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ ChatModelBuilder = (*Config)(nil)

// ReasoningBlacklist lists models whose reasoning output must be disabled for tool calling.
var ReasoningBlacklist = map[string]bool{
	"x-ai/grok-4.1-fast": true,
}

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" required:"true"`
	Model              string        `envconfig:"MODEL" required:"true"`
	MaxCompletionToken *int          `split_words:"true" default:"1000"`
	Temperature        float32       `split_words:"true" default:"0.7"`
	Timeout            time.Duration `split_words:"true" default:"30s"`
	SiteURL            string        `split_words:"true"`
	SiteName           string        `split_words:"true"`
}

func (c *Config) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	modelName := strings.TrimSpace(c.Model)

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	if ReasoningBlacklist[modelName] {
		conf.ExtraFields = map[string]any{
			"reasoning": map[string]any{
				"exclude": true,
				"effort":  "none",
			},
		}
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openrouter: create chat model: %w", err)
	}
	return m, nil
}

// NewClient returns an OpenAI SDK client pointed at OpenRouter, or nil without an API key.
func (c Config) NewClient(extra ...option.RequestOption) *openaisdk.Client {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed+"/"))
	}
	if c.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.Timeout))
	}

	// OpenRouter app attribution
	if c.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", c.SiteURL))
	}
	if c.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", c.SiteName))
	}
	opts = append(opts, extra...)

	client := openaisdk.NewClient(opts...)
	return &client
}
