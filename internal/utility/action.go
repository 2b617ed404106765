package utility

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// ActionName identifies an action variant. Behaviour for a name lives in a
// handler registry owned by the integrator, not on the Action itself.
type ActionName string

// ActionIdle is the name of the fallback action returned when nothing is eligible.
const ActionIdle ActionName = "Idle"

// Action is an immutable decision result: a name plus optional parameters
// (for example the id of the unit to attack).
type Action struct {
	Name   ActionName     `json:"name" yaml:"name"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Idle returns the parameterless fallback action.
func Idle() Action {
	return Action{Name: ActionIdle}
}

// NewAction builds an action, copying params so later edits by the caller
// cannot leak into a configured consideration.
func NewAction(name ActionName, params map[string]any) Action {
	if len(params) == 0 {
		return Action{Name: name}
	}
	return Action{Name: name, Params: maps.Clone(params)}
}

// IsIdle reports whether the action is the Idle fallback.
func (a Action) IsIdle() bool {
	return a.Name == ActionIdle
}

// Param returns a single parameter.
func (a Action) Param(key string) (any, bool) {
	v, ok := a.Params[key]
	return v, ok
}

// IntParam returns a numeric parameter as an int.
func (a Action) IntParam(key string) (int, bool) {
	v, ok := a.Params[key]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String renders the action as Name or Name(k=v, ...) with keys sorted.
func (a Action) String() string {
	if len(a.Params) == 0 {
		return string(a.Name)
	}
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, a.Params[k])
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(parts, ", "))
}
