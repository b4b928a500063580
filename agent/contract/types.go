package contract

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a caller-supplied role onto the roles the model accepts.
// Anything that is not "user" degrades to assistant.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ParamType string

const (
	ParamString ParamType = "string"
)

type ParameterSpec struct {
	Name     string    `json:"name"`
	Desc     string    `json:"description"`
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
}

type ActionSchema struct {
	Name       string          `json:"name"`
	Desc       string          `json:"description"`
	Parameters []ParameterSpec `json:"parameters,omitempty"`
}

type ActionCallRequest struct {
	ID     string         `json:"id,omitempty"`
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// Decision is what the model returns for one turn: either Text or at least one Call.
type Decision struct {
	Text  string              `json:"text,omitempty"`
	Calls []ActionCallRequest `json:"calls,omitempty"`
}

func (d Decision) WantsAction() bool {
	return len(d.Calls) > 0
}

type DecisionRequest struct {
	Turns   []ConversationTurn `json:"turns"`
	Actions []ActionSchema     `json:"actions"`
}

type ChatRequest struct {
	Message string             `json:"message"`
	History []ConversationTurn `json:"history"`
}

type ChatResponse struct {
	Reply   string             `json:"reply"`
	History []ConversationTurn `json:"history"`
}
