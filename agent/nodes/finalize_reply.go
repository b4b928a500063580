package dispatchnode

import (
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

// FinalizeReply appends the user message and the reply to the caller's history.
// The server keeps nothing; the caller sends the returned history back next turn.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}

	history := make([]contractx.ConversationTurn, 0, len(in.History)+2)
	history = append(history, in.History...)
	history = append(history,
		contractx.ConversationTurn{Role: contractx.RoleUser, Content: in.Message},
		contractx.ConversationTurn{Role: contractx.RoleAssistant, Content: in.Reply},
	)

	return GraphOutput{
		Reply:          in.Reply,
		History:        history,
		Outcome:        in.Outcome,
		Action:         in.Action,
		DroppedCalls:   in.DroppedCalls,
		ActionDuration: in.ActionDuration,
	}, nil
}
