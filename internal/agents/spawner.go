// Agent spawning: creates the initial population with names, starting
// positions and a randomised survival context.
package agents

import (
	"math/rand"

	"github.com/WestonVincze/utility-ai/internal/utility"
	"github.com/WestonVincze/utility-ai/internal/world"
)

// Spawner creates agents for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// NextID returns the ID the next spawned agent will get.
func (s *Spawner) NextID() AgentID { return s.nextID }

// SpawnPopulation creates count agents scattered over the given land hexes.
func (s *Spawner) SpawnPopulation(count int, land []world.HexCoord, tick uint64) []*Agent {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		var pos world.HexCoord
		if len(land) > 0 {
			pos = land[s.rng.Intn(len(land))]
		}
		agents = append(agents, s.Spawn(pos, tick))
	}
	return agents
}

// Spawn creates one agent at pos. Needs start mostly met, with some spread
// so agents don't all make the same first decision.
func (s *Spawner) Spawn(pos world.HexCoord, tick uint64) *Agent {
	id := s.nextID
	s.nextID++

	ctx := utility.Context{
		KeyHunger:          clampRound(10 + s.rng.Float64()*40),
		KeyThirst:          clampRound(10 + s.rng.Float64()*40),
		KeyEnergy:          clampRound(60 + s.rng.Float64()*40),
		KeyDistanceToFood:  50.0,
		KeyDistanceToWater: 50.0,
		KeyDistanceToBed:   50.0,
		KeyThreatsNearby:   0.0,
	}
	a := New(id, s.generateName(), ctx)
	a.Position = pos
	a.BornTick = tick
	return a
}

func (s *Spawner) generateName() string {
	firsts := maleNames
	if s.rng.Float32() < 0.5 {
		firsts = femaleNames
	}
	first := firsts[s.rng.Intn(len(firsts))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Deepwell", "Brightwater", "Redforge", "Windholm", "Marshwood",
	"Riverstone", "Holloway", "Dawnridge", "Farrow", "Thatcher",
}
