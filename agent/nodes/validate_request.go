package dispatchnode

import (
	"strings"

	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

// ValidateRequest builds the turn sequence the model sees: normalized history, then the new message.
func ValidateRequest(in GraphInput) (*GraphState, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, ErrInvalidMessage
	}

	history := NormalizeTurns(in.History)
	turns := make([]contractx.ConversationTurn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, contractx.ConversationTurn{
		Role:    contractx.RoleUser,
		Content: in.Message,
	})

	return &GraphState{
		Message: in.Message,
		History: history,
		Turns:   turns,
	}, nil
}

// NormalizeTurns keeps every turn in order. Unknown roles become assistant turns.
func NormalizeTurns(history []contractx.ConversationTurn) []contractx.ConversationTurn {
	out := make([]contractx.ConversationTurn, 0, len(history))
	for _, t := range history {
		out = append(out, contractx.ConversationTurn{
			Role:    contractx.ParseRole(string(t.Role)),
			Content: t.Content,
		})
	}
	return out
}
