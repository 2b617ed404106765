package skirmish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/utility"
)

func demoBattle(t *testing.T) *Battle {
	t.Helper()
	bt, err := NewBattle(DemoBoard(), DefaultRules(), 1, nil)
	require.NoError(t, err)
	return bt
}

func TestNewBoardRejectsBadUnits(t *testing.T) {
	_, err := NewBoard(3, 3, &Unit{ID: 1}, &Unit{ID: 1})
	assert.Error(t, err)

	_, err = NewBoard(3, 3, &Unit{ID: 1, Position: Position{X: 3, Y: 0}})
	assert.Error(t, err)
}

func TestBoardQueries(t *testing.T) {
	b := DemoBoard()
	u1, ok := b.Unit(1)
	require.True(t, ok)

	assert.Len(t, b.Enemies(u1), 2)
	require.Len(t, b.Allies(u1), 1)
	assert.Equal(t, 2, b.Allies(u1)[0].ID)
	assert.True(t, b.Occupied(Position{X: 2, Y: 2}))
	assert.Equal(t, []Faction{FactionBlue, FactionRed}, b.Factions())

	u3, _ := b.Unit(3)
	u3.Health = 0
	assert.Len(t, b.Enemies(u1), 1)
	assert.False(t, b.Occupied(u3.Position), "the dead do not block")
}

func TestDynamicConsiderationsPerUnit(t *testing.T) {
	b := DemoBoard()
	ap := NewAppraisals(b)
	u1, _ := b.Unit(1)

	cs := ap.DynamicConsiderations(u1)
	require.Len(t, cs, 3)
	assert.Equal(t, ActionAttack, cs[0].Action().Name)
	assert.Equal(t, 3, cs[0].Action().Params[KeyTarget])
	assert.Equal(t, 3, cs[0].Parameters()[KeyTarget])
	assert.Equal(t, 4, cs[1].Action().Params[KeyTarget])
	assert.Equal(t, ActionHelp, cs[2].Action().Name)
	assert.False(t, cs[2].Eligible(), "healthy allies need no help")
}

func TestAppraisalsMissingTarget(t *testing.T) {
	b := DemoBoard()
	ap := NewAppraisals(b)
	u1, _ := b.Unit(1)
	ctx := Context(u1, DefaultRules())

	for _, a := range []utility.Appraisal{ap.TargetProximity(), ap.Offense(), ap.TargetThreat(), ap.TargetWounds()} {
		assert.Zero(t, a.Score(ctx), a.Name)
		assert.Zero(t, a.Score(ctx.With(map[string]any{KeyTarget: 99})), a.Name)
	}

	u4, _ := b.Unit(4)
	u4.Health = 0
	assert.Zero(t, ap.Offense().Score(ctx.With(map[string]any{KeyTarget: 4})), "dead targets are missing")
	assert.Zero(t, ap.TargetWounds().Score(ctx.With(map[string]any{KeyTarget: 4})), "dead targets are missing")

	assert.Zero(t, ap.Vulnerability().Score(ctx.With(map[string]any{KeyMaxHealth: 0})), "unknown max health")
	assert.Zero(t, ap.Vulnerability().Score(utility.Context{KeyCurrentHealth: 3}), "unknown max health")
	assert.InDelta(t, 0.75, ap.Vulnerability().Score(ctx.With(map[string]any{KeyCurrentHealth: 10})), 1e-9)
}

func TestAppraisalValues(t *testing.T) {
	b := DemoBoard()
	ap := NewAppraisals(b)
	u1, _ := b.Unit(1)
	ctx := Context(u1, DefaultRules()).With(map[string]any{KeyTarget: 4})

	assert.Equal(t, 1.0, ap.TargetProximity().Score(ctx), "in range")
	assert.InDelta(t, 0.86, ap.Offense().Score(ctx), 1e-9)
	assert.InDelta(t, 0.2, ap.TargetThreat().Score(ctx), 1e-9)
	assert.InDelta(t, 0.75, ap.TargetWounds().Score(ctx), 1e-9)
	assert.InDelta(t, 0.275, ap.Danger().Score(ctx), 1e-9)
	assert.Zero(t, ap.Vulnerability().Score(ctx))
}

func TestHealthyUnitAttacksWeakestEnemy(t *testing.T) {
	bt := demoBattle(t)
	d, err := bt.Explain(1)
	require.NoError(t, err)

	assert.Equal(t, ActionAttack, d.Action.Name)
	assert.Equal(t, 4, d.Action.Params[KeyTarget])
	assert.InDelta(t, (1+0.86+0.2)/3, d.Score, 1e-9)

	require.Len(t, d.Candidates, 4)
	assert.Equal(t, ActionFlee, d.Candidates[0].Action.Name)
	assert.InDelta(t, 0.33, d.Candidates[0].Score, 1e-9)
	assert.True(t, d.Candidates[3].Skipped)
}

func TestFragileUnitFlees(t *testing.T) {
	bt := demoBattle(t)
	d, err := bt.Explain(2)
	require.NoError(t, err)
	assert.Equal(t, ActionFlee, d.Action.Name)
	assert.InDelta(t, 0.75, d.Score, 1e-9)
}

func TestWoundedAllyGetsHelp(t *testing.T) {
	bt := demoBattle(t)
	u2, _ := bt.Board().Unit(2)
	u2.Health = 1

	d, err := bt.Explain(1)
	require.NoError(t, err)
	assert.Equal(t, ActionHelp, d.Action.Name)
	assert.Equal(t, 2, d.Action.Params[KeyTarget])
}

func TestRound(t *testing.T) {
	bt := demoBattle(t)
	turns, err := bt.Round()
	require.NoError(t, err)

	require.NotEmpty(t, turns)
	assert.Equal(t, 1, turns[0].Unit)
	assert.Equal(t, ActionAttack, turns[0].Action.Name)
	require.NotEmpty(t, turns[0].Events)
	assert.Equal(t, 2, turns[1].Unit)
	assert.Equal(t, ActionFlee, turns[1].Action.Name)
	assert.Equal(t, 1, bt.RoundsPlayed())

	for _, u := range bt.Board().Units() {
		assert.GreaterOrEqual(t, u.Health, 0)
		assert.LessOrEqual(t, u.Health, u.MaxHealth)
		assert.True(t, bt.Board().InBounds(u.Position))
	}
}

func TestRunStops(t *testing.T) {
	bt := demoBattle(t)
	_, err := bt.Run(50)
	require.NoError(t, err)
	assert.LessOrEqual(t, bt.RoundsPlayed(), 50)
	if f, over := bt.Winner(); over && f != "" {
		assert.Equal(t, []Faction{f}, bt.Board().Factions())
	}
}

func TestRunIsDeterministic(t *testing.T) {
	a, err := demoBattle(t).Run(20)
	require.NoError(t, err)
	b, err := demoBattle(t).Run(20)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func duel(t *testing.T, attacker, defender *Unit) *Battle {
	t.Helper()
	b, err := NewBoard(6, 6, attacker, defender)
	require.NoError(t, err)
	bt, err := NewBattle(b, Rules{Range: 1.5, FleeWeight: 1, Heal: 2}, 3, nil)
	require.NoError(t, err)
	return bt
}

func TestAttackHandler(t *testing.T) {
	hitter := &Unit{ID: 1, Faction: FactionBlue, Health: 10, MaxHealth: 10, Accuracy: 100, Damage: 4}
	far := &Unit{ID: 2, Faction: FactionRed, Health: 6, MaxHealth: 6, Position: Position{X: 4, Y: 0}}
	bt := duel(t, hitter, far)
	act := utility.NewAction(ActionAttack, map[string]any{KeyTarget: 2})
	mind := &agents.Agent{ID: 1}

	events := bt.attack(mind, act)
	assert.Equal(t, Position{X: 1, Y: 0}, hitter.Position)
	assert.Contains(t, events[0], "advances")

	hitter.Position = Position{X: 3, Y: 0}
	events = bt.attack(mind, act)
	assert.Equal(t, 2, far.Health)
	assert.Contains(t, events[0], "hits")

	events = bt.attack(mind, act)
	assert.Equal(t, 0, far.Health)
	assert.Contains(t, events[1], "falls")

	events = bt.attack(mind, act)
	assert.Contains(t, events[0], "no one to attack")
}

func TestAttackMisses(t *testing.T) {
	blind := &Unit{ID: 1, Faction: FactionBlue, Health: 10, MaxHealth: 10, Accuracy: 0, Damage: 4}
	next := &Unit{ID: 2, Faction: FactionRed, Health: 6, MaxHealth: 6, Position: Position{X: 1, Y: 0}}
	bt := duel(t, blind, next)

	events := bt.attack(&agents.Agent{ID: 1}, utility.NewAction(ActionAttack, map[string]any{KeyTarget: 2}))
	assert.Equal(t, 6, next.Health)
	assert.Contains(t, events[0], "misses")
}

func TestHelpHandler(t *testing.T) {
	medic := &Unit{ID: 1, Faction: FactionBlue, Health: 10, MaxHealth: 10}
	hurt := &Unit{ID: 2, Faction: FactionBlue, Health: 5, MaxHealth: 6, Position: Position{X: 1, Y: 1}}
	bt := duel(t, medic, hurt)

	events := bt.help(&agents.Agent{ID: 1}, utility.NewAction(ActionHelp, map[string]any{KeyTarget: 2}))
	assert.Equal(t, 6, hurt.Health, "healing is capped at max health")
	assert.Contains(t, events[0], "heals")
}

func TestFleeHandler(t *testing.T) {
	runner := &Unit{ID: 1, Faction: FactionBlue, Health: 1, MaxHealth: 10, Position: Position{X: 2, Y: 2}}
	chaser := &Unit{ID: 2, Faction: FactionRed, Health: 10, MaxHealth: 10, Position: Position{X: 1, Y: 1}}
	bt := duel(t, runner, chaser)

	before := runner.Position.DistanceTo(chaser.Position)
	bt.flee(&agents.Agent{ID: 1}, utility.Action{Name: ActionFlee})
	assert.Greater(t, runner.Position.DistanceTo(chaser.Position), before)
	assert.Equal(t, Position{X: 3, Y: 3}, runner.Position)
}
