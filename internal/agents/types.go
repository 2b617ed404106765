// Package agents provides the agent data model and the driver that turns a
// reasoner's choice into an executed action.
package agents

import (
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// State is the agent's behavioural state.
type State uint8

const (
	StateIdle   State = iota // No current action
	StateActing              // CurrentAction holds the last selected action
)

// String returns "idle" or "acting".
func (s State) String() string {
	if s == StateActing {
		return "acting"
	}
	return "idle"
}

// Agent is an autonomous entity whose behaviour is chosen by a Reasoner.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	// Location
	Position world.HexCoord `json:"position"`

	// Context is the situational data the reasoner scores. Only action
	// handlers and the simulation's drift/perception steps write to it.
	Context       utility.Context    `json:"context"`
	CurrentAction utility.ActionName `json:"current_action,omitempty"`

	Health float64 `json:"health"` // 0.0–1.0; the agent dies at 0

	// Metadata
	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// New creates a living, idle agent with a copy of ctx.
func New(id AgentID, name string, ctx utility.Context) *Agent {
	return &Agent{
		ID:      id,
		Name:    name,
		Context: ctx.Clone(),
		Health:  1,
		Alive:   true,
	}
}

// State reports idle when no action is current.
func (a *Agent) State() State {
	if a.CurrentAction == "" {
		return StateIdle
	}
	return StateActing
}

// Snapshot returns a copy safe to hand to readers outside the tick loop.
func (a *Agent) Snapshot() Agent {
	cp := *a
	cp.Context = a.Context.Clone()
	return cp
}
