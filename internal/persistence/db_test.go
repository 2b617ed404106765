package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/engine"
	"github.com/WestonVincze/utility-ai/internal/world"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmptyDatabase(t *testing.T) {
	db := openTemp(t)
	assert.False(t, db.HasWorldState())

	_, err := db.GetMeta(MetaLastTick)
	assert.ErrorIs(t, err, ErrNoMeta)

	list, err := db.LoadAgents()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveAndLoadWorldState(t *testing.T) {
	db := openTemp(t)

	kira := agents.New(1, "Kira Voss", agents.DefaultSurvivalContext())
	kira.Position = world.HexCoord{Q: 2, R: -1}
	kira.CurrentAction = agents.ActionEat
	kira.Health = 0.75
	kira.BornTick = 30
	dead := agents.New(2, "Tomas Reed", agents.DefaultSurvivalContext())
	dead.Alive = false
	dead.Health = 0

	snap := engine.Snapshot{
		Tick:   1440,
		Agents: []agents.Agent{kira.Snapshot(), dead.Snapshot()},
		Stocks: map[world.HexCoord]world.Stock{
			{Q: 0, R: 0}: {3, 1.5, 0},
			{Q: 1, R: 0}: {0, 0, 1},
		},
	}
	id, err := db.SaveWorldState(snap)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, db.HasWorldState())

	tick, err := db.LastTick()
	require.NoError(t, err)
	assert.Equal(t, uint64(1440), tick)

	got, err := db.GetMeta(MetaSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	loaded, err := db.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, *kira, *loaded[0])
	assert.False(t, loaded[1].Alive)
	assert.Equal(t, agents.StateIdle, loaded[1].State())

	m := world.NewMap(2)
	for _, c := range []world.HexCoord{{Q: 0, R: 0}, {Q: 1, R: 0}, {Q: -1, R: 0}} {
		m.Set(&world.Hex{Coord: c, Terrain: world.TerrainPlains})
	}
	require.NoError(t, db.LoadStocks(m))
	assert.Equal(t, world.Stock{3, 1.5, 0}, m.Get(world.HexCoord{}).Resources)
	assert.Equal(t, world.Stock{0, 0, 1}, m.Get(world.HexCoord{Q: 1}).Resources)
	assert.Equal(t, world.Stock{}, m.Get(world.HexCoord{Q: -1}).Resources)
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	db := openTemp(t)

	first := agents.New(1, "a", agents.DefaultSurvivalContext())
	second := agents.New(2, "b", agents.DefaultSurvivalContext())
	id1, err := db.SaveWorldState(engine.Snapshot{Tick: 10, Agents: []agents.Agent{first.Snapshot(), second.Snapshot()}})
	require.NoError(t, err)
	id2, err := db.SaveWorldState(engine.Snapshot{Tick: 20, Agents: []agents.Agent{second.Snapshot()}})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	loaded, err := db.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, agents.AgentID(2), loaded[0].ID)

	tick, err := db.LastTick()
	require.NoError(t, err)
	assert.Equal(t, uint64(20), tick)
}

func TestSaveMeta(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.SaveMeta(MetaSeed, "42"))
	require.NoError(t, db.SaveMeta(MetaSeed, "43"))
	v, err := db.GetMeta(MetaSeed)
	require.NoError(t, err)
	assert.Equal(t, "43", v)
}
