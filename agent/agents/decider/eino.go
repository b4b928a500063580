package decider

import (
	"context"
	"errors"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

// EinoDecider asks an eino tool-calling chat model for one decision.
type EinoDecider struct {
	chatModel    einomodel.ToolCallingChatModel
	systemPrompt string
}

var _ contractx.Decider = (*EinoDecider)(nil)

func NewEino(chatModel einomodel.ToolCallingChatModel, systemPrompt string) (*EinoDecider, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	return &EinoDecider{
		chatModel:    chatModel,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}, nil
}

func (d *EinoDecider) Decide(ctx context.Context, req contractx.DecisionRequest) (contractx.Decision, error) {
	chatModel := d.chatModel
	if infos := toolInfos(req.Actions); len(infos) > 0 {
		bound, err := d.chatModel.WithTools(infos)
		if err != nil {
			return contractx.Decision{}, invokeError(ctx, "bind tools", err)
		}
		chatModel = bound
	}

	msg, err := chatModel.Generate(ctx, einoMessages(d.systemPrompt, req.Turns))
	if err != nil {
		return contractx.Decision{}, invokeError(ctx, "generate", err)
	}
	if msg == nil {
		return contractx.Decision{}, schemaError("empty model response")
	}

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

func einoMessages(systemPrompt string, turns []contractx.ConversationTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(systemPrompt))
	}
	for _, t := range turns {
		if t.Role == contractx.RoleUser {
			msgs = append(msgs, schema.UserMessage(t.Content))
			continue
		}
		msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
	}
	return msgs
}

func toolInfos(actions []contractx.ActionSchema) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(actions))
	for _, a := range actions {
		params := make(map[string]*schema.ParameterInfo, len(a.Parameters))
		for _, p := range a.Parameters {
			params[p.Name] = &schema.ParameterInfo{
				Type:     schema.String,
				Desc:     p.Desc,
				Required: p.Required,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        a.Name,
			Desc:        a.Desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}
