package dispatchnode

import (
	"context"
	"time"

	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

// InvokeModel is the only model call of a chat turn.
func InvokeModel(
	ctx context.Context,
	in *GraphState,
	decider contractx.Decider,
	actions []contractx.ActionSchema,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	decision, err := decider.Decide(ctx, contractx.DecisionRequest{
		Turns:   in.Turns,
		Actions: actions,
	})
	if err != nil {
		return nil, err
	}
	in.Decision = decision
	return in, nil
}

const (
	NodeComposeReply   = "compose_reply"
	NodeDispatchAction = "dispatch_action"
)

// RouteDecision picks the dispatching branch iff the model proposed at least one call.
func RouteDecision(in *GraphState) (string, error) {
	if in == nil {
		return "", ErrNilState
	}
	if in.Decision.WantsAction() {
		return NodeDispatchAction, nil
	}
	return NodeComposeReply, nil
}
