package agents

import (
	"fmt"

	"github.com/WestonVincze/utility-ai/internal/utility"
)

// Context keys of the survival domain. All values live on a 0–100 scale.
const (
	KeyHunger          = "hunger"
	KeyThirst          = "thirst"
	KeyEnergy          = "energy"
	KeyDistanceToFood  = "distanceToFood"
	KeyDistanceToWater = "distanceToWater"
	KeyDistanceToBed   = "distanceToBed"
	KeyThreatsNearby   = "threatsNearby"
)

// SurvivalKeys lists the survival context keys in display order.
var SurvivalKeys = []string{
	KeyHunger, KeyThirst, KeyEnergy,
	KeyDistanceToFood, KeyDistanceToWater, KeyDistanceToBed,
	KeyThreatsNearby,
}

// Survival actions.
const (
	ActionEat   utility.ActionName = "Eat"
	ActionDrink utility.ActionName = "Drink"
	ActionSleep utility.ActionName = "Sleep"
	ActionFlee  utility.ActionName = "Flee"
)

// DefaultSurvivalContext returns the starting situation of a fresh agent.
func DefaultSurvivalContext() utility.Context {
	return utility.Context{
		KeyHunger:          70.0,
		KeyThirst:          60.0,
		KeyEnergy:          50.0,
		KeyDistanceToFood:  30.0,
		KeyDistanceToWater: 40.0,
		KeyDistanceToBed:   20.0,
		KeyThreatsNearby:   10.0,
	}
}

func f(ctx utility.Context, key string) float64 { return ctx.FloatOr(key, 0) }

// EatUtility: hungry, close to food, calm and not too thirsty.
func EatUtility(ctx utility.Context) float64 {
	return f(ctx, KeyHunger)*0.4 +
		(100-f(ctx, KeyDistanceToFood))*0.3 -
		f(ctx, KeyThreatsNearby)*0.2 -
		f(ctx, KeyThirst)*0.1
}

// DrinkUtility mirrors EatUtility for thirst and water.
func DrinkUtility(ctx utility.Context) float64 {
	return f(ctx, KeyThirst)*0.4 +
		(100-f(ctx, KeyDistanceToWater))*0.3 -
		f(ctx, KeyThreatsNearby)*0.2 -
		f(ctx, KeyHunger)*0.1
}

// SleepUtility: tired and close to a bed, suppressed by threats.
func SleepUtility(ctx utility.Context) float64 {
	return (100-f(ctx, KeyEnergy))*0.4 +
		(100-f(ctx, KeyDistanceToBed))*0.3 -
		f(ctx, KeyThreatsNearby)*0.3
}

// FleeUtility grows with threats and with fatigue.
func FleeUtility(ctx utility.Context) float64 {
	return f(ctx, KeyThreatsNearby)*0.8 + (100-f(ctx, KeyEnergy))*0.3
}

// SurvivalAppraisals returns the named appraisal functions of the survival
// domain, for registration in a declarative catalog. The *Utility entries are
// the composite formulas; the rest are single factors normalised to [0, 1].
func SurvivalAppraisals() map[string]utility.AppraisalFunc {
	return map[string]utility.AppraisalFunc{
		"eatUtility":   EatUtility,
		"drinkUtility": DrinkUtility,
		"sleepUtility": SleepUtility,
		"fleeUtility":  FleeUtility,

		"hunger":         func(ctx utility.Context) float64 { return f(ctx, KeyHunger) / 100 },
		"thirst":         func(ctx utility.Context) float64 { return f(ctx, KeyThirst) / 100 },
		"fatigue":        func(ctx utility.Context) float64 { return 1 - f(ctx, KeyEnergy)/100 },
		"satiety":        func(ctx utility.Context) float64 { return 1 - f(ctx, KeyHunger)/100 },
		"foodProximity":  func(ctx utility.Context) float64 { return 1 - f(ctx, KeyDistanceToFood)/100 },
		"waterProximity": func(ctx utility.Context) float64 { return 1 - f(ctx, KeyDistanceToWater)/100 },
		"bedProximity":   func(ctx utility.Context) float64 { return 1 - f(ctx, KeyDistanceToBed)/100 },
		"threat":         func(ctx utility.Context) float64 { return f(ctx, KeyThreatsNearby) / 100 },
		"safety":         func(ctx utility.Context) float64 { return 1 - f(ctx, KeyThreatsNearby)/100 },
	}
}

// SurvivalConsiderations builds Eat, Drink, Sleep and Flee in that order,
// each scored by its single composite formula.
func SurvivalConsiderations() []*utility.Consideration {
	one := func(name utility.ActionName, fn utility.AppraisalFunc) *utility.Consideration {
		return utility.MustConsideration(utility.Action{Name: name},
			[]utility.Appraisal{utility.NewAppraisal(string(name), fn, nil)}, utility.Average)
	}
	return []*utility.Consideration{
		one(ActionEat, EatUtility),
		one(ActionDrink, DrinkUtility),
		one(ActionSleep, SleepUtility),
		one(ActionFlee, FleeUtility),
	}
}

// SurvivalReasoner returns a reasoner over SurvivalConsiderations.
func SurvivalReasoner(opts ...utility.ReasonerOption) *utility.Reasoner {
	return utility.NewReasoner(SurvivalConsiderations(), opts...)
}

// adjust adds delta to a context value and clamps it to 0–100.
func adjust(a *Agent, key string, delta float64) {
	a.Context[key] = clampRound(f(a.Context, key) + delta)
}

// Eat reduces hunger by 10.
func Eat(a *Agent, _ utility.Action) []string {
	adjust(a, KeyHunger, -10)
	return nil
}

// Drink reduces thirst by 10.
func Drink(a *Agent, _ utility.Action) []string {
	adjust(a, KeyThirst, -10)
	return nil
}

// Sleep restores 25 energy.
func Sleep(a *Agent, _ utility.Action) []string {
	adjust(a, KeyEnergy, 25)
	return nil
}

// Flee puts one threat behind the agent.
func Flee(a *Agent, _ utility.Action) []string {
	adjust(a, KeyThreatsNearby, -1)
	return nil
}

// RegisterSurvival registers the context-only survival handlers.
func RegisterSurvival(reg *Registry) error {
	for name, h := range map[utility.ActionName]Handler{
		ActionEat:   Eat,
		ActionDrink: Drink,
		ActionSleep: Sleep,
		ActionFlee:  Flee,
	} {
		if err := reg.Register(name, h); err != nil {
			return fmt.Errorf("register survival: %w", err)
		}
	}
	return nil
}
