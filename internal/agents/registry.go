package agents

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/WestonVincze/utility-ai/internal/utility"
)

var (
	// ErrNoHandler is returned when a selected action has no registered handler.
	ErrNoHandler = errors.New("no handler registered for action")
	// ErrDuplicateHandler is returned when an action name is registered twice.
	ErrDuplicateHandler = errors.New("handler already registered")
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("nil handler")
)

// Handler executes an action against an agent and returns any notable
// events for the log. It is the only code allowed to mutate the agent's
// context in response to a decision.
type Handler func(a *Agent, act utility.Action) []string

// Registry maps action names to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[utility.ActionName]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[utility.ActionName]Handler)}
}

// Register binds name to h.
func (r *Registry) Register(name utility.ActionName, h Handler) error {
	if h == nil {
		return fmt.Errorf("%s: %w", name, ErrNilHandler)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateHandler)
	}
	r.handlers[name] = h
	return nil
}

// Replace binds name to h, overwriting any existing handler.
func (r *Registry) Replace(name utility.ActionName, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name utility.ActionName) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Execute runs the handler for act.
func (r *Registry) Execute(a *Agent, act utility.Action) ([]string, error) {
	h, ok := r.Lookup(act.Name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", act.Name, ErrNoHandler)
	}
	return h(a, act), nil
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []utility.ActionName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]utility.ActionName, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
