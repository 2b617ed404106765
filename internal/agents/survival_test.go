package agents

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

func TestEatUtilityArithmetic(t *testing.T) {
	ctx := utility.Context{
		KeyHunger:         70,
		KeyDistanceToFood: 30,
		KeyThreatsNearby:  10,
		KeyThirst:         60,
	}
	// 28 + 21 - 2 - 6
	assert.Equal(t, 41.0, EatUtility(ctx))
}

func TestSurvivalFormulas(t *testing.T) {
	ctx := DefaultSurvivalContext()
	assert.InDelta(t, 33, DrinkUtility(ctx), 1e-9)
	assert.InDelta(t, 41, SleepUtility(ctx), 1e-9)
	assert.InDelta(t, 23, FleeUtility(ctx), 1e-9)
}

func TestSurvivalReasonerReacts(t *testing.T) {
	r := SurvivalReasoner()

	thirsty := DefaultSurvivalContext().With(map[string]any{KeyThirst: 95.0, KeyDistanceToWater: 5.0})
	assert.Equal(t, ActionDrink, r.Evaluate(thirsty).Name)

	hunted := DefaultSurvivalContext().With(map[string]any{KeyThreatsNearby: 90.0})
	assert.Equal(t, ActionFlee, r.Evaluate(hunted).Name)

	exhausted := DefaultSurvivalContext().With(map[string]any{KeyEnergy: 0.0, KeyHunger: 10.0})
	assert.Equal(t, ActionSleep, r.Evaluate(exhausted).Name)
}

func TestSurvivalHandlers(t *testing.T) {
	a := New(1, "h", DefaultSurvivalContext())
	a.Context[KeyHunger] = 5.0
	a.Context[KeyEnergy] = 90.0

	Eat(a, utility.Action{})
	Drink(a, utility.Action{})
	Sleep(a, utility.Action{})
	Flee(a, utility.Action{})

	assert.Equal(t, 0.0, a.Context[KeyHunger], "clamped at 0")
	assert.Equal(t, 50.0, a.Context[KeyThirst])
	assert.Equal(t, 100.0, a.Context[KeyEnergy], "clamped at 100")
	assert.Equal(t, 9.0, a.Context[KeyThreatsNearby])
}

func TestRegisterSurvivalTwice(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterSurvival(reg))
	assert.ErrorIs(t, RegisterSurvival(reg), ErrDuplicateHandler)
	assert.Len(t, reg.Names(), 4)
}

func TestSurvivalAppraisalsCatalog(t *testing.T) {
	fns := SurvivalAppraisals()
	ctx := DefaultSurvivalContext()
	assert.Equal(t, 41.0, fns["eatUtility"](ctx))
	assert.InDelta(t, 0.7, fns["hunger"](ctx), 1e-12)
	assert.InDelta(t, 0.5, fns["fatigue"](ctx), 1e-12)
	assert.InDelta(t, 0.9, fns["safety"](ctx), 1e-12)
}

func TestDriftStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New(1, "i", DefaultSurvivalContext())
	a.Context[KeyThreatsNearby] = 0.0

	for range 500 {
		Drift(a, rng)
		for _, k := range SurvivalKeys {
			v, ok := a.Context.Float(k)
			require.True(t, ok)
			require.GreaterOrEqual(t, v, 0.0, k)
			require.LessOrEqual(t, v, 100.0, k)
			require.Equal(t, v, clampRound(v), "%s rounded to two decimals", k)
		}
	}
	// 500 hours of unmet needs saturate hunger and drain energy.
	assert.Equal(t, 100.0, a.Context[KeyHunger])
	assert.Equal(t, 0.0, a.Context[KeyEnergy])
}

func TestDriftNeedsOnlyTouchesBody(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := New(1, "j", DefaultSurvivalContext())
	DriftNeeds(a, rng)

	assert.GreaterOrEqual(t, a.Context[KeyHunger], 70.0)
	assert.LessOrEqual(t, a.Context[KeyEnergy], 50.0)
	assert.Equal(t, 30.0, a.Context[KeyDistanceToFood])
}

func TestClampContext(t *testing.T) {
	a := New(1, "k", utility.Context{KeyHunger: 123.456, KeyThirst: -4.0, KeyEnergy: 33.3333})
	ClampContext(a)
	assert.Equal(t, 100.0, a.Context[KeyHunger])
	assert.Equal(t, 0.0, a.Context[KeyThirst])
	assert.Equal(t, 33.33, a.Context[KeyEnergy])
	_, ok := a.Context[KeyThreatsNearby]
	assert.False(t, ok)
}

func TestUpdateHealth(t *testing.T) {
	a := New(1, "l", DefaultSurvivalContext())
	a.CurrentAction = ActionEat
	a.Context[KeyHunger] = 100.0

	died := false
	for i := 0; i < 40 && !died; i++ {
		died = UpdateHealth(a)
	}
	assert.True(t, died)
	assert.False(t, a.Alive)
	assert.Equal(t, StateIdle, a.State())
	assert.False(t, UpdateHealth(a), "the dead do not die twice")

	b := New(2, "m", DefaultSurvivalContext())
	b.Health = 0.5
	UpdateHealth(b)
	assert.InDelta(t, 0.52, b.Health, 1e-12)
}

func TestPerceive(t *testing.T) {
	a := New(1, "n", DefaultSurvivalContext())
	Perceive(a, world.Perception{DistanceToFood: 12.5, DistanceToWater: 100, DistanceToBed: 0, ThreatsNearby: 3.456})
	assert.Equal(t, 12.5, a.Context[KeyDistanceToFood])
	assert.Equal(t, 100.0, a.Context[KeyDistanceToWater])
	assert.Equal(t, 0.0, a.Context[KeyDistanceToBed])
	assert.Equal(t, 3.46, a.Context[KeyThreatsNearby])
}

func TestSpawnerDeterministic(t *testing.T) {
	land := []world.HexCoord{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: 0, R: 1}}
	a := NewSpawner(7).SpawnPopulation(10, land, 0)
	b := NewSpawner(7).SpawnPopulation(10, land, 0)

	require.Len(t, a, 10)
	for i := range a {
		assert.Equal(t, AgentID(i+1), a[i].ID)
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].Position, b[i].Position)
		assert.Equal(t, a[i].Context, b[i].Context)
		assert.Contains(t, land, a[i].Position)
		assert.True(t, a[i].Alive)
	}

	s := NewSpawner(7)
	s.SetNextID(100)
	assert.Equal(t, AgentID(100), s.Spawn(world.HexCoord{}, 5).ID)
	assert.Equal(t, AgentID(101), s.NextID())
}
