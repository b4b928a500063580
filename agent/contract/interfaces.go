package contract

import "context"

// Decider is the model capability: one call per chat turn, no retries.
type Decider interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

type ActionHandler func(ctx context.Context, args map[string]any) (string, error)

type ActionResolver interface {
	Schemas() []ActionSchema
	Resolve(name string) (ActionHandler, bool)
}
