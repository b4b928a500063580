package decider

import (
	"context"
	"errors"
	"strings"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

type OpenAIOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// OpenAIDecider calls the chat completions API directly through the OpenAI SDK.
type OpenAIDecider struct {
	client *openaisdk.Client
	opts   OpenAIOptions
}

var _ contractx.Decider = (*OpenAIDecider)(nil)

func NewOpenAI(client *openaisdk.Client, opts OpenAIOptions) (*OpenAIDecider, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	opts.Model = strings.TrimSpace(opts.Model)
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	opts.SystemPrompt = strings.TrimSpace(opts.SystemPrompt)
	return &OpenAIDecider{client: client, opts: opts}, nil
}

func (d *OpenAIDecider) Decide(ctx context.Context, req contractx.DecisionRequest) (contractx.Decision, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(d.opts.Model),
		Messages:    openAIMessages(d.opts.SystemPrompt, req.Turns),
		Temperature: openaisdk.Float(float64(d.opts.Temperature)),
	}
	if d.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(d.opts.MaxTokens))
	}
	if tools := openAITools(req.Actions); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Decision{}, invokeError(ctx, "chat completion", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return contractx.Decision{}, schemaError("chat completion has no choices")
	}

	msg := resp.Choices[0].Message
	calls := make([]contractx.ActionCallRequest, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		call, err := parseCall(tc.ID, tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			return contractx.Decision{}, err
		}
		calls = append(calls, call)
	}
	return decisionOf(msg.Content, calls)
}

func openAIMessages(systemPrompt string, turns []contractx.ConversationTurn) []openaisdk.ChatCompletionMessageParamUnion {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(systemPrompt))
	}
	for _, t := range turns {
		if t.Role == contractx.RoleUser {
			msgs = append(msgs, openaisdk.UserMessage(t.Content))
			continue
		}
		msgs = append(msgs, openaisdk.AssistantMessage(t.Content))
	}
	return msgs
}

func openAITools(actions []contractx.ActionSchema) []openaisdk.ChatCompletionToolParam {
	tools := make([]openaisdk.ChatCompletionToolParam, 0, len(actions))
	for _, a := range actions {
		properties := make(map[string]any, len(a.Parameters))
		required := make([]string, 0, len(a.Parameters))
		for _, p := range a.Parameters {
			properties[p.Name] = map[string]any{
				"type":        string(p.Type),
				"description": p.Desc,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		tools = append(tools, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        a.Name,
				Description: openaisdk.String(a.Desc),
				Parameters: openaisdk.FunctionParameters{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return tools
}
