package tool

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
)

var (
	ErrActionNameEmpty = errors.New("action name is empty")
	ErrNilHandler      = errors.New("action handler is nil")
	ErrDuplicateAction = errors.New("action already registered")
)

// Registry maps action names to their schema and handler.
// Actions are registered at startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	schemas map[string]contractx.ActionSchema
	actions map[string]contractx.ActionHandler
}

var _ contractx.ActionResolver = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]contractx.ActionSchema, 4),
		actions: make(map[string]contractx.ActionHandler, 4),
	}
}

func (r *Registry) Register(schema contractx.ActionSchema, handler contractx.ActionHandler) error {
	name := strings.TrimSpace(schema.Name)
	if name == "" {
		return ErrActionNameEmpty
	}
	if handler == nil {
		return fmt.Errorf("%w: %q", ErrNilHandler, name)
	}
	schema.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, name)
	}
	r.order = append(r.order, name)
	r.schemas[name] = schema
	r.actions[name] = handler
	return nil
}

func (r *Registry) Resolve(name string) (contractx.ActionHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.actions[strings.TrimSpace(name)]
	return handler, ok
}

// Schemas returns the registered schemas in registration order.
func (r *Registry) Schemas() []contractx.ActionSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contractx.ActionSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}
