package dispatchnode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

// UnsupportedActionReply is the reply for an action name the registry does not know.
func UnsupportedActionReply(action string) string {
	return fmt.Sprintf("Sorry, I can't perform the action %q yet.", action)
}

// DispatchAction runs the first proposed call and nothing else.
func DispatchAction(
	ctx context.Context,
	in *GraphState,
	resolver contractx.ActionResolver,
) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}
	if !in.Decision.WantsAction() {
		return GraphOutput{}, fmt.Errorf("%w: dispatch without a call request", contractx.ErrValidation)
	}

	call := in.Decision.Calls[0]
	in.Action = call.Action
	in.DroppedCalls = len(in.Decision.Calls) - 1
	logger := log.Ctx(ctx).With().Str("action", call.Action).Logger()
	if in.DroppedCalls > 0 {
		logger.Warn().Int("dropped_calls", in.DroppedCalls).Msg("model proposed several actions; only the first runs")
	}

	handler, ok := resolver.Resolve(call.Action)
	if !ok {
		logger.Warn().Msg("model proposed an unregistered action")
		in.Reply = UnsupportedActionReply(call.Action)
		in.Outcome = OutcomeUnsupported
		return FinalizeReply(in)
	}

	logger.Info().Msg("dispatching action")
	started := time.Now()
	result, err := handler(ctx, call.Args)
	in.ActionDuration = time.Since(started)
	if err != nil {
		return GraphOutput{}, fmt.Errorf("action %s: %w", call.Action, err)
	}

	in.Reply = result
	in.Outcome = OutcomeDispatched
	return FinalizeReply(in)
}

// ComposeReply forwards the model's own text.
func ComposeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}
	in.Reply = in.Decision.Text
	in.Outcome = OutcomeReplied
	return FinalizeReply(in)
}
