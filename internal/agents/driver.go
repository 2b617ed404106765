package agents

import (
	"fmt"

	"github.com/WestonVincze/utility-ai/internal/utility"
)

// FallbackPolicy decides what happens to an agent when the reasoner has
// nothing eligible to offer.
type FallbackPolicy uint8

const (
	FallbackClear    FallbackPolicy = iota // Back to idle: CurrentAction cleared
	FallbackMarkIdle                       // CurrentAction set to the fallback's name
	FallbackKeep                           // Nothing changes
)

// String returns the policy name used in config files.
func (p FallbackPolicy) String() string {
	switch p {
	case FallbackMarkIdle:
		return "mark-idle"
	case FallbackKeep:
		return "keep"
	default:
		return "clear"
	}
}

// ParseFallbackPolicy parses "clear", "mark-idle" or "keep". The empty string
// is FallbackClear.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch s {
	case "", "clear":
		return FallbackClear, nil
	case "mark-idle":
		return FallbackMarkIdle, nil
	case "keep":
		return FallbackKeep, nil
	default:
		return FallbackClear, fmt.Errorf("unknown fallback policy %q", s)
	}
}

// Driver runs the decide/execute cycle for agents sharing one reasoner.
type Driver struct {
	Reasoner *utility.Reasoner
	Registry *Registry
	Fallback FallbackPolicy

	// Dynamic, when set, supplies per-agent considerations appended after
	// the reasoner's base list on every decision.
	Dynamic func(a *Agent) []*utility.Consideration
}

func (d *Driver) dynamic(a *Agent) []*utility.Consideration {
	if d.Dynamic == nil {
		return nil
	}
	return d.Dynamic(a)
}

// Decide selects an action without touching the agent. ok is false when the
// reasoner fell back. Decide only reads the agent, so it is safe to call for
// many agents concurrently.
func (d *Driver) Decide(a *Agent) (act utility.Action, ok bool) {
	if !a.Alive {
		return d.Reasoner.Fallback(), false
	}
	return d.Reasoner.Choose(a.Context, d.dynamic(a)...)
}

// Explain returns the full score breakdown for the agent's next decision.
// Dead agents are not scored; like Decide they report the fallback.
func (d *Driver) Explain(a *Agent) utility.Decision {
	if !a.Alive {
		return utility.Decision{Action: d.Reasoner.Fallback(), Fallback: true}
	}
	return d.Reasoner.Explain(a.Context, d.dynamic(a)...)
}

// Apply executes a decision previously returned by Decide. A selected action
// runs its handler and becomes CurrentAction. A fallback follows the
// driver's FallbackPolicy: FallbackKeep changes nothing and runs no handler;
// the other policies run a handler only if one is registered for the
// fallback's name.
func (d *Driver) Apply(a *Agent, act utility.Action, ok bool) ([]string, error) {
	if !a.Alive {
		return nil, nil
	}
	if !ok {
		return d.applyFallback(a, act)
	}
	events, err := d.Registry.Execute(a, act)
	if err != nil {
		return nil, fmt.Errorf("agent %d: %w", a.ID, err)
	}
	a.CurrentAction = act.Name
	return events, nil
}

func (d *Driver) applyFallback(a *Agent, act utility.Action) ([]string, error) {
	switch d.Fallback {
	case FallbackKeep:
		return nil, nil
	case FallbackMarkIdle:
		a.CurrentAction = act.Name
	default:
		a.CurrentAction = ""
	}
	if h, found := d.Registry.Lookup(act.Name); found {
		return h(a, act), nil
	}
	return nil, nil
}

// Tick decides and executes in one step.
func (d *Driver) Tick(a *Agent) (utility.Action, []string, error) {
	act, ok := d.Decide(a)
	events, err := d.Apply(a, act, ok)
	return act, events, err
}
