package agents

import (
	"math"
	"math/rand"

	"github.com/WestonVincze/utility-ai/internal/world"
)

// Starvation thresholds. A need at or above critical hurts health every
// hour; a rested, fed agent slowly recovers.
const (
	criticalNeed   = 95.0
	starvationLoss = 0.05
	recoveryGain   = 0.02
)

// DriftNeeds advances the passage of time on the body: hunger and thirst
// rise by up to 5, energy falls by up to 5.
func DriftNeeds(a *Agent, rng *rand.Rand) {
	adjust(a, KeyHunger, rng.Float64()*5)
	adjust(a, KeyThirst, rng.Float64()*5)
	adjust(a, KeyEnergy, -rng.Float64()*5)
}

// DriftSurroundings wanders the sensed values when there is no map to sense:
// distances by ±5 and threats by ±2.5.
func DriftSurroundings(a *Agent, rng *rand.Rand) {
	adjust(a, KeyDistanceToFood, (rng.Float64()-0.5)*10)
	adjust(a, KeyDistanceToWater, (rng.Float64()-0.5)*10)
	adjust(a, KeyDistanceToBed, (rng.Float64()-0.5)*10)
	adjust(a, KeyThreatsNearby, (rng.Float64()-0.5)*5)
}

// Drift is DriftNeeds followed by DriftSurroundings.
func Drift(a *Agent, rng *rand.Rand) {
	DriftNeeds(a, rng)
	DriftSurroundings(a, rng)
}

// ClampContext clamps every survival key to 0–100 and rounds it to two
// decimals. Missing keys are left missing.
func ClampContext(a *Agent) {
	for _, k := range SurvivalKeys {
		if v, ok := a.Context.Float(k); ok {
			a.Context[k] = clampRound(v)
		}
	}
}

// Perceive writes what the agent senses from the map into its context.
func Perceive(a *Agent, p world.Perception) {
	a.Context[KeyDistanceToFood] = clampRound(p.DistanceToFood)
	a.Context[KeyDistanceToWater] = clampRound(p.DistanceToWater)
	a.Context[KeyDistanceToBed] = clampRound(p.DistanceToBed)
	a.Context[KeyThreatsNearby] = clampRound(p.ThreatsNearby)
}

// UpdateHealth applies an hour of starvation or recovery and reports whether
// the agent died.
func UpdateHealth(a *Agent) bool {
	if !a.Alive {
		return false
	}
	if f(a.Context, KeyHunger) >= criticalNeed || f(a.Context, KeyThirst) >= criticalNeed {
		a.Health -= starvationLoss
	} else if f(a.Context, KeyEnergy) > 20 {
		a.Health += recoveryGain
	}
	a.Health = math.Min(a.Health, 1)
	if a.Health <= 0 {
		a.Health = 0
		a.Alive = false
		a.CurrentAction = ""
		return true
	}
	return false
}

func clampRound(v float64) float64 {
	v = math.Max(0, math.Min(100, v))
	return math.Round(v*100) / 100
}
