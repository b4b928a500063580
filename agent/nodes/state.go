package dispatchnode

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrNilState       = fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
)

type Outcome string

const (
	OutcomeReplied     Outcome = "replied"
	OutcomeDispatched  Outcome = "dispatched"
	OutcomeUnsupported Outcome = "unsupported"
)

type GraphInput struct {
	Message string
	History []contractx.ConversationTurn
}

type GraphOutput struct {
	Reply   string
	History []contractx.ConversationTurn

	Outcome        Outcome
	Action         string
	DroppedCalls   int
	ActionDuration time.Duration
}

// GraphState is carried through one traversal of the dispatch graph and discarded afterwards.
type GraphState struct {
	Message string
	History []contractx.ConversationTurn
	Turns   []contractx.ConversationTurn

	Decision contractx.Decision

	Reply          string
	Outcome        Outcome
	Action         string
	DroppedCalls   int
	ActionDuration time.Duration
}
