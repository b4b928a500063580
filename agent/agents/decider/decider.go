package decider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
	llmx "github.com/tanpawarit/cargo-dispatch/agent/llm"
	promptx "github.com/tanpawarit/cargo-dispatch/agent/prompt"
)

// New builds the model capability selected by cfg.Backend.
func New(ctx context.Context, cfg llmx.Config) (contractx.Decider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	systemPrompt := promptx.Dispatcher()
	if systemPrompt == "" {
		return nil, contractx.ErrPromptMissing
	}

	routerCfg := cfg.OpenRouter()
	switch cfg.NormalizedBackend() {
	case llmx.BackendOpenAI:
		// retries belong to the caller; the dispatch loop invokes the model exactly once
		client := routerCfg.NewClient(option.WithMaxRetries(0))
		if client == nil {
			return nil, fmt.Errorf("%w: openai client requires an api key", contractx.ErrValidation)
		}
		return NewOpenAI(client, OpenAIOptions{
			Model:        routerCfg.Model,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxCompletionToken,
			SystemPrompt: systemPrompt,
		})
	default:
		chatModel, err := routerCfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create chat model: %v", contractx.ErrModelInvoke, err)
		}
		return NewEino(chatModel, systemPrompt)
	}
}

// invokeError classifies a failed model call. Deadline failures stay distinguishable.
func invokeError(ctx context.Context, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %s: %v", contractx.ErrModelInvoke, contractx.ErrModelTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, stage, err)
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", contractx.ErrModelInvoke, contractx.ErrSchemaViolation, fmt.Sprintf(format, args...))
}

func parseCall(id, name, rawArgs string) (contractx.ActionCallRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractx.ActionCallRequest{}, schemaError("tool call name is empty")
	}

	args := map[string]any{}
	if trimmed := strings.TrimSpace(rawArgs); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return contractx.ActionCallRequest{}, schemaError("invalid tool args for tool=%s: %v", name, err)
		}
	}
	return contractx.ActionCallRequest{
		ID:     id,
		Action: name,
		Args:   args,
	}, nil
}

func decisionOf(content string, calls []contractx.ActionCallRequest) (contractx.Decision, error) {
	content = strings.TrimSpace(content)
	if len(calls) == 0 && content == "" {
		return contractx.Decision{}, schemaError("response has neither text nor tool calls")
	}
	return contractx.Decision{Text: content, Calls: calls}, nil
}
