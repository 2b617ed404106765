package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Spring Day 1, 0:00 Year 1", SimTime(0))
	assert.Equal(t, "Spring Day 1, 1:01 Year 1", SimTime(61))
	assert.Equal(t, "Summer Day 1, 0:00 Year 1", SimTime(TicksPerSimSeason))
	assert.Equal(t, "Spring Day 1, 0:00 Year 2", SimTime(4*TicksPerSimSeason))
}

func TestStepsFiresLayers(t *testing.T) {
	e := NewEngine()
	var ticks, hours, days, weeks int
	e.OnTick = func(uint64) { ticks++ }
	e.OnHour = func(uint64) { hours++ }
	e.OnDay = func(uint64) { days++ }
	e.OnWeek = func(uint64) { weeks++ }

	e.Steps(TicksPerSimDay)
	assert.Equal(t, uint64(TicksPerSimDay), e.Tick())
	assert.Equal(t, TicksPerSimDay, ticks)
	assert.Equal(t, 24, hours)
	assert.Equal(t, 1, days)
	assert.Zero(t, weeks)
}

func TestSetTickResumes(t *testing.T) {
	e := NewEngine()
	e.SetTick(59)
	var hourAt uint64
	e.OnHour = func(tick uint64) { hourAt = tick }
	e.Steps(1)
	assert.Equal(t, uint64(60), hourAt)
}

func TestSetSpeed(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 1.0, e.Speed())
	require.NoError(t, e.SetSpeed(0))
	require.NoError(t, e.SetSpeed(10))
	assert.Equal(t, 10.0, e.Speed())

	assert.ErrorIs(t, e.SetSpeed(-1), ErrInvalidSpeed)
	assert.Equal(t, 10.0, e.Speed(), "rejected speeds leave the old one")
}

func TestRunUntilStop(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	require.NoError(t, e.SetSpeed(100))

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(context.Background())
	}()

	require.Eventually(t, func() bool { return e.Tick() >= 5 }, 2*time.Second, time.Millisecond)
	assert.True(t, e.Running())
	e.Stop()
	<-done
	assert.False(t, e.Running())
}

func TestRunPausedDoesNotTick(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	require.NoError(t, e.SetSpeed(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, e.Tick())
}

func TestEventLogRing(t *testing.T) {
	l := NewEventLog(3)
	for i := uint64(1); i <= 5; i++ {
		l.Add(Event{Tick: i, Category: CategoryAgent})
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, uint64(5), l.Total())

	ticks := func(es []Event) []uint64 {
		var out []uint64
		for _, e := range es {
			out = append(out, e.Tick)
		}
		return out
	}
	assert.Equal(t, []uint64{3, 4, 5}, ticks(l.Recent(0)))
	assert.Equal(t, []uint64{4, 5}, ticks(l.Recent(2)))
	assert.Equal(t, []uint64{3, 4, 5}, ticks(l.Recent(10)))
	assert.Equal(t, map[string]int{CategoryAgent: 3}, l.CountByCategory())

	assert.Empty(t, NewEventLog(0).Recent(0))
}

// ── Simulation ─────────────────────────────────────────────────────────

type fakeObserver struct {
	decisions map[utility.ActionName]int
	ticks     int
	alive     []int
}

func (o *fakeObserver) ObserveDecision(a utility.ActionName) {
	if o.decisions == nil {
		o.decisions = make(map[utility.ActionName]int)
	}
	o.decisions[a]++
}
func (o *fakeObserver) ObserveTick(time.Duration) { o.ticks++ }
func (o *fakeObserver) ObserveAlive(n int)        { o.alive = append(o.alive, n) }

// barren returns a plains map with nothing on it.
func barren(radius int) *world.Map {
	m := world.NewMap(radius)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			c := world.HexCoord{Q: q, R: r}
			if m.InBounds(c) {
				m.Set(&world.Hex{Coord: c, Terrain: world.TerrainPlains})
			}
		}
	}
	return m
}

func worldDriver(t *testing.T, m *world.Map) *agents.Driver {
	t.Helper()
	reg := agents.NewRegistry()
	require.NoError(t, agents.RegisterWorld(reg, m))
	return &agents.Driver{Reasoner: agents.SurvivalReasoner(), Registry: reg}
}

func TestTickMinuteDecidesForLivingAgents(t *testing.T) {
	m := barren(3)
	dead := agents.New(3, "Gone", agents.DefaultSurvivalContext())
	dead.Alive = false
	sim := NewSimulation(m, []*agents.Agent{
		agents.New(1, "Kira", agents.DefaultSurvivalContext()),
		agents.New(2, "Tomas", agents.DefaultSurvivalContext()),
		dead,
	}, worldDriver(t, m), 1)
	obs := &fakeObserver{}
	sim.Observer = obs

	sim.TickMinute(1)

	// Nothing in range: every distance reads 100 and Eat (22) beats
	// Drink (17), Sleep (20) and Flee (15).
	st := sim.Status()
	assert.Equal(t, uint64(1), st.Tick)
	assert.Equal(t, map[utility.ActionName]int{agents.ActionEat: 2}, st.Actions)
	assert.Equal(t, map[utility.ActionName]int{agents.ActionEat: 2}, obs.decisions)
	assert.Equal(t, 1, obs.ticks)

	a, ok := sim.Agent(1)
	require.True(t, ok)
	assert.Equal(t, agents.ActionEat, a.CurrentAction)
	assert.Equal(t, 100.0, a.Context[agents.KeyDistanceToFood])

	gone, _ := sim.Agent(3)
	assert.Empty(t, gone.CurrentAction)

	events := sim.RecentEvents(0)
	require.Len(t, events, 2)
	assert.Contains(t, events[0].Description, "finds no food")
}

func TestDecideEvery(t *testing.T) {
	m := barren(2)
	sim := NewSimulation(m, []*agents.Agent{agents.New(1, "a", agents.DefaultSurvivalContext())}, worldDriver(t, m), 1)
	sim.DecideEvery = 10

	sim.TickMinute(5)
	assert.Empty(t, sim.Status().Actions)
	assert.Equal(t, uint64(5), sim.CurrentTick())

	sim.TickMinute(10)
	assert.Equal(t, 1, sim.Status().Actions[agents.ActionEat])
}

func TestTickHourStarvation(t *testing.T) {
	ctx := agents.DefaultSurvivalContext()
	ctx[agents.KeyHunger] = 100.0
	starving := agents.New(1, "Ada", ctx)
	starving.Health = 0.04

	sim := NewSimulation(nil, []*agents.Agent{starving, agents.New(2, "Bo", agents.DefaultSurvivalContext())},
		&agents.Driver{Reasoner: agents.SurvivalReasoner(), Registry: agents.NewRegistry()}, 1)
	obs := &fakeObserver{}
	sim.Observer = obs

	sim.TickHour(60)

	st := sim.Status().Stats
	assert.Equal(t, 1, st.Deaths)
	assert.Equal(t, 1, st.Alive)
	assert.Equal(t, 2, st.Population)
	assert.Equal(t, []int{1}, obs.alive)

	events := sim.RecentEvents(0)
	require.Len(t, events, 1)
	assert.Equal(t, CategoryDeath, events[0].Category)
	assert.Equal(t, "Ada has died", events[0].Description)
}

func TestTickDayImmigration(t *testing.T) {
	m := barren(2)
	sim := NewSimulation(m, nil, worldDriver(t, m), 1)
	sim.Spawner = agents.NewSpawner(9)
	sim.MinPopulation = 3

	sim.TickDay(TicksPerSimDay)

	all := sim.Agents()
	require.Len(t, all, 3)
	assert.Equal(t, agents.AgentID(1), all[0].ID)
	for _, a := range all {
		assert.True(t, m.Passable(a.Position))
	}
	assert.Equal(t, 3, sim.Status().Stats.Alive)
	assert.Equal(t, map[string]int{CategoryWorld: 3}, sim.events.CountByCategory())

	sim.TickDay(2 * TicksPerSimDay)
	assert.Len(t, sim.Agents(), 3, "no arrivals while the population holds")
}

func TestExplainAndCopies(t *testing.T) {
	m := barren(2)
	sim := NewSimulation(m, []*agents.Agent{agents.New(1, "a", agents.DefaultSurvivalContext())}, worldDriver(t, m), 1)

	d, ok := sim.Explain(1)
	require.True(t, ok)
	assert.Len(t, d.Candidates, 4)
	assert.Equal(t, agents.ActionEat, d.Action.Name)

	_, ok = sim.Explain(42)
	assert.False(t, ok)

	cp, _ := sim.Agent(1)
	cp.Context[agents.KeyHunger] = 0.0
	again, _ := sim.Agent(1)
	assert.Equal(t, 70.0, again.Context[agents.KeyHunger])
}

func runWorld(t *testing.T, workers int) ([]agents.Agent, world.Stock) {
	t.Helper()
	m := world.Generate(world.SmallTestConfig())
	pop := agents.NewSpawner(7).SpawnPopulation(20, m.LandCoords(), 0)
	sim := NewSimulation(m, pop, worldDriver(t, m), 7)
	sim.Workers = workers
	sim.DecideEvery = 10

	e := NewEngine()
	sim.Attach(e)
	e.Steps(2 * TicksPerSimDay)
	assert.Equal(t, uint64(2*TicksPerSimDay), sim.CurrentTick())
	return sim.Agents(), m.Totals()
}

func TestParallelDecisionsMatchSerial(t *testing.T) {
	serialAgents, serialStock := runWorld(t, 1)
	parallelAgents, parallelStock := runWorld(t, 8)
	assert.Equal(t, serialAgents, parallelAgents)
	assert.Equal(t, serialStock, parallelStock)
}
