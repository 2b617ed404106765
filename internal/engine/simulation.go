// Simulation ties the world, the agents and their reasoner together and runs
// them each tick.
package engine

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// DefaultMaxEvents is the size of the recent-event ring.
const DefaultMaxEvents = 1000

// regrowPerDay is the share of capacity each hex recovers daily.
const regrowPerDay = 0.1

// Observer receives measurements from the tick loop. Implementations must be
// safe for use from the simulation goroutine.
type Observer interface {
	ObserveDecision(action utility.ActionName)
	ObserveTick(d time.Duration)
	ObserveAlive(n int)
}

// Simulation holds the complete world state and wires systems together.
//
// All tick methods take the write lock; the read accessors used by the API
// take the read lock, so observation never sees a half-applied tick.
type Simulation struct {
	// WorldMap is optional. Without it agents sense nothing and their
	// surroundings drift at random instead.
	WorldMap *world.Map
	Driver   *agents.Driver

	// Spawner, when set, tops the population back up to MinPopulation at
	// the start of each sim-day.
	Spawner       *agents.Spawner
	MinPopulation int

	// DecideEvery runs the decide/act phase on ticks divisible by it.
	// 0 or 1 decides every tick.
	DecideEvery uint64

	// Workers bounds the parallel decision phase. 0 uses GOMAXPROCS.
	Workers int

	Observer Observer
	Logger   *slog.Logger

	mu       sync.RWMutex
	agents   []*agents.Agent
	index    map[agents.AgentID]*agents.Agent
	events   *EventLog
	counts   map[utility.ActionName]int
	rng      *rand.Rand
	lastTick uint64
	stats    SimStats
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	Population int     `json:"population"`
	Alive      int     `json:"alive"`
	Deaths     int     `json:"deaths"`
	AvgHealth  float64 `json:"avg_health"`
	AvgHunger  float64 `json:"avg_hunger"`
	AvgThirst  float64 `json:"avg_thirst"`
	AvgEnergy  float64 `json:"avg_energy"`
}

// Status is a point-in-time summary for observers.
type Status struct {
	Tick    uint64                     `json:"tick"`
	SimTime string                     `json:"sim_time"`
	Stats   SimStats                   `json:"stats"`
	Actions map[utility.ActionName]int `json:"actions"`
	Events  uint64                     `json:"events_total"`
}

// NewSimulation creates a Simulation over the given agents. seed drives the
// hourly needs drift.
func NewSimulation(m *world.Map, ag []*agents.Agent, d *agents.Driver, seed int64) *Simulation {
	index := make(map[agents.AgentID]*agents.Agent, len(ag))
	for _, a := range ag {
		index[a.ID] = a
	}
	s := &Simulation{
		WorldMap: m,
		Driver:   d,
		Logger:   slog.Default(),
		agents:   ag,
		index:    index,
		events:   NewEventLog(DefaultMaxEvents),
		counts:   make(map[utility.ActionName]int),
		rng:      rand.New(rand.NewSource(seed + 500)),
	}
	s.updateStats()
	return s
}

// Attach wires the simulation's tick layers into e.
func (s *Simulation) Attach(e *Engine) {
	e.OnTick = s.TickMinute
	e.OnHour = s.TickHour
	e.OnDay = s.TickDay
	e.OnWeek = s.TickWeek
}

// SetLastTick records the tick a restored world was saved at.
func (s *Simulation) SetLastTick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTick = tick
}

// AddAgents joins new agents to the world.
func (s *Simulation) AddAgents(ag ...*agents.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range ag {
		s.agents = append(s.agents, a)
		s.index[a.ID] = a
	}
	s.updateStats()
}

type decision struct {
	act utility.Action
	ok  bool
}

// TickMinute runs every tick (1 sim-minute): agents sense, decide and act.
//
// Decisions only read agent state, so they are scored in parallel. Actions
// mutate the agent and the map, so they are applied one agent at a time in
// agent order, which keeps runs reproducible for a given seed.
func (s *Simulation) TickMinute(tick uint64) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTick = tick
	if s.DecideEvery > 1 && tick%s.DecideEvery != 0 {
		return
	}

	living := s.living()
	if s.WorldMap != nil {
		for _, a := range living {
			agents.Perceive(a, world.Sense(s.WorldMap, a.Position))
		}
	}

	decisions := make([]decision, len(living))
	var g errgroup.Group
	g.SetLimit(s.workers())
	for i, a := range living {
		g.Go(func() error {
			act, ok := s.Driver.Decide(a)
			decisions[i] = decision{act: act, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range living {
		d := decisions[i]
		events, err := s.Driver.Apply(a, d.act, d.ok)
		if err != nil {
			s.Logger.Warn("action failed", "tick", tick, "agent", a.ID, "action", d.act.String(), "error", err)
			s.events.Add(Event{Tick: tick, Description: err.Error(), Category: CategoryError})
			continue
		}
		s.counts[d.act.Name]++
		if s.Observer != nil {
			s.Observer.ObserveDecision(d.act.Name)
		}
		for _, desc := range events {
			s.events.Add(Event{Tick: tick, Description: desc, Category: CategoryAgent})
		}
	}

	if s.Observer != nil {
		s.Observer.ObserveTick(time.Since(start))
	}
}

// TickHour runs every sim-hour: needs drift and starvation.
func (s *Simulation) TickHour(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.living() {
		agents.DriftNeeds(a, s.rng)
		if s.WorldMap == nil {
			agents.DriftSurroundings(a, s.rng)
		}
		if agents.UpdateHealth(a) {
			s.stats.Deaths++
			s.events.Add(Event{
				Tick:        tick,
				Description: fmt.Sprintf("%s has died", a.Name),
				Category:    CategoryDeath,
			})
			s.Logger.Info("agent died", "tick", tick, "agent", a.ID, "name", a.Name, "time", SimTime(tick))
		}
	}
	s.updateStats()
	if s.Observer != nil {
		s.Observer.ObserveAlive(s.stats.Alive)
	}
}

// TickDay runs every sim-day: resources regrow and the daily report is logged.
func (s *Simulation) TickDay(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WorldMap != nil {
		s.WorldMap.Regrow(regrowPerDay)
	}
	s.updateStats()
	s.immigrate(tick)

	eventCounts := s.events.CountByCategory()
	s.Logger.Info("daily report",
		"tick", tick,
		"time", SimTime(tick),
		"alive", s.stats.Alive,
		"deaths", s.stats.Deaths,
		"avg_health", fmt.Sprintf("%.3f", s.stats.AvgHealth),
		"avg_hunger", fmt.Sprintf("%.1f", s.stats.AvgHunger),
		"avg_thirst", fmt.Sprintf("%.1f", s.stats.AvgThirst),
		"avg_energy", fmt.Sprintf("%.1f", s.stats.AvgEnergy),
		"events_agent", eventCounts[CategoryAgent],
		"events_death", eventCounts[CategoryDeath],
		"events_error", eventCounts[CategoryError],
	)
}

// TickWeek runs every sim-week: logs which actions have been winning.
func (s *Simulation) TickWeek(tick uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	args := []any{"tick", tick, "time", SimTime(tick), "events_total", s.events.Total()}
	for _, name := range slices.Sorted(maps.Keys(s.counts)) {
		args = append(args, "action_"+string(name), s.counts[name])
	}
	s.Logger.Info("weekly summary", args...)
}

// immigrate spawns newcomers while fewer than MinPopulation are alive.
func (s *Simulation) immigrate(tick uint64) {
	missing := s.MinPopulation - s.stats.Alive
	if s.Spawner == nil || missing <= 0 {
		return
	}
	var land []world.HexCoord
	if s.WorldMap != nil {
		land = s.WorldMap.LandCoords()
	}
	for _, a := range s.Spawner.SpawnPopulation(missing, land, tick) {
		s.agents = append(s.agents, a)
		s.index[a.ID] = a
		s.events.Add(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s arrives at %s", a.Name, a.Position),
			Category:    CategoryWorld,
		})
	}
	s.Logger.Info("immigration", "tick", tick, "arrivals", missing)
	s.updateStats()
}

func (s *Simulation) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (s *Simulation) living() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}

// updateStats recomputes aggregate statistics. Deaths is a running count and
// is left alone.
func (s *Simulation) updateStats() {
	st := SimStats{Population: len(s.agents), Deaths: s.stats.Deaths}
	for _, a := range s.agents {
		if !a.Alive {
			continue
		}
		st.Alive++
		st.AvgHealth += a.Health
		st.AvgHunger += a.Context.FloatOr(agents.KeyHunger, 0)
		st.AvgThirst += a.Context.FloatOr(agents.KeyThirst, 0)
		st.AvgEnergy += a.Context.FloatOr(agents.KeyEnergy, 0)
	}
	if st.Alive > 0 {
		n := float64(st.Alive)
		st.AvgHealth /= n
		st.AvgHunger /= n
		st.AvgThirst /= n
		st.AvgEnergy /= n
	}
	s.stats = st
}

// ── Read accessors ─────────────────────────────────────────────────────

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// Status summarises the world.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Tick:    s.lastTick,
		SimTime: SimTime(s.lastTick),
		Stats:   s.stats,
		Actions: maps.Clone(s.counts),
		Events:  s.events.Total(),
	}
}

// Agents returns copies of every agent, ordered by ID.
func (s *Simulation) Agents() []agents.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyAgents()
}

func (s *Simulation) copyAgents() []agents.Agent {
	out := make([]agents.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a.Snapshot())
	}
	slices.SortFunc(out, func(a, b agents.Agent) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Agent returns a copy of one agent.
func (s *Simulation) Agent(id agents.AgentID) (agents.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.index[id]
	if !ok {
		return agents.Agent{}, false
	}
	return a.Snapshot(), true
}

// Explain scores every option the agent would weigh right now.
func (s *Simulation) Explain(id agents.AgentID) (utility.Decision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.index[id]
	if !ok {
		return utility.Decision{}, false
	}
	return s.Driver.Explain(a), true
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.Recent(n)
}

// Snapshot is the persistable state of a simulation.
type Snapshot struct {
	Tick   uint64
	Agents []agents.Agent
	Stocks map[world.HexCoord]world.Stock // Nil without a map
}

// Snapshot copies everything worth saving, taken atomically.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Tick: s.lastTick, Agents: s.copyAgents()}
	if s.WorldMap != nil {
		snap.Stocks = make(map[world.HexCoord]world.Stock, len(s.WorldMap.Hexes))
		for c, h := range s.WorldMap.Hexes {
			snap.Stocks[c] = h.Resources
		}
	}
	return snap
}
