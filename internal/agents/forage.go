package agents

import (
	"fmt"

	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// Units of stock consumed by one Eat or Drink on the map.
const (
	mealSize = 1.0
	sipSize  = 1.0
)

// WorldHandlers returns survival handlers that act on a map: agents walk one
// hex per action toward the resource they chose, and only consume it when
// standing on it. The returned handlers mutate m, so they must be executed
// from one goroutine at a time.
func WorldHandlers(m *world.Map) map[utility.ActionName]Handler {
	return map[utility.ActionName]Handler{
		ActionEat: func(a *Agent, act utility.Action) []string {
			return consume(m, a, act, world.ResourceFood, mealSize, Eat, "eats")
		},
		ActionDrink: func(a *Agent, act utility.Action) []string {
			return consume(m, a, act, world.ResourceWater, sipSize, Drink, "drinks")
		},
		ActionSleep: func(a *Agent, act utility.Action) []string {
			if moveToward(m, a, world.ResourceShelter) {
				return nil
			}
			return Sleep(a, act)
		},
		ActionFlee: func(a *Agent, act utility.Action) []string {
			from := a.Position
			a.Position = world.SafestNeighbor(m, a.Position)
			events := Flee(a, act)
			if a.Position != from {
				events = append(events, fmt.Sprintf("%s flees from %s to %s", a.Name, from, a.Position))
			}
			return events
		},
	}
}

// RegisterWorld registers the map-aware survival handlers.
func RegisterWorld(reg *Registry, m *world.Map) error {
	for _, name := range []utility.ActionName{ActionEat, ActionDrink, ActionSleep, ActionFlee} {
		if err := reg.Register(name, WorldHandlers(m)[name]); err != nil {
			return fmt.Errorf("register world survival: %w", err)
		}
	}
	return nil
}

func consume(m *world.Map, a *Agent, act utility.Action, r world.Resource, amount float64, apply Handler, verb string) []string {
	hex := m.Get(a.Position)
	if hex == nil || !hex.Has(r) {
		if !moveToward(m, a, r) {
			return []string{fmt.Sprintf("%s finds no %s nearby", a.Name, r)}
		}
		return nil
	}
	hex.Take(r, amount)
	events := apply(a, act)
	if !hex.Has(r) {
		events = append(events, fmt.Sprintf("%s %s the last %s at %s", a.Name, verb, r, a.Position))
	}
	return events
}

// moveToward steps the agent toward the nearest r and reports whether it
// moved. It does not move when already standing on r or nothing is in range.
func moveToward(m *world.Map, a *Agent, r world.Resource) bool {
	target, dist, ok := world.Nearest(m, a.Position, r)
	if !ok || dist == 0 {
		return false
	}
	next := world.StepToward(m, a.Position, target)
	if next == a.Position {
		return false
	}
	a.Position = next
	return true
}
