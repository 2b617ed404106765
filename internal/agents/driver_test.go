package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestonVincze/utility-ai/internal/utility"
)

func constant(name utility.ActionName, v float64, opts ...utility.ConsiderationOption) *utility.Consideration {
	return utility.MustConsideration(utility.Action{Name: name},
		[]utility.Appraisal{utility.NewAppraisal(string(name), func(utility.Context) float64 { return v }, nil)},
		utility.Average, opts...)
}

func survivalDriver(t *testing.T) *Driver {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterSurvival(reg))
	return &Driver{Reasoner: SurvivalReasoner(), Registry: reg}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	noop := func(*Agent, utility.Action) []string { return nil }

	require.NoError(t, reg.Register("Eat", noop))
	assert.ErrorIs(t, reg.Register("Eat", noop), ErrDuplicateHandler)
	assert.ErrorIs(t, reg.Register("Drink", nil), ErrNilHandler)

	_, err := reg.Execute(New(1, "a", nil), utility.Action{Name: "Dance"})
	assert.ErrorIs(t, err, ErrNoHandler)

	reg.Replace("Eat", func(*Agent, utility.Action) []string { return []string{"replaced"} })
	events, err := reg.Execute(New(1, "a", nil), utility.Action{Name: "Eat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"replaced"}, events)
	assert.Equal(t, []utility.ActionName{"Eat"}, reg.Names())
}

func TestDriverTickRunsHandler(t *testing.T) {
	d := survivalDriver(t)
	a := New(1, "Thea Voss", DefaultSurvivalContext())
	assert.Equal(t, StateIdle, a.State())

	act, _, err := d.Tick(a)
	require.NoError(t, err)

	// Eat 41, Drink 33, Sleep 41, Flee 23: Eat wins the tie with Sleep.
	assert.Equal(t, ActionEat, act.Name)
	assert.Equal(t, ActionEat, a.CurrentAction)
	assert.Equal(t, StateActing, a.State())
	assert.Equal(t, 60.0, a.Context[KeyHunger])
}

func TestDriverMissingHandler(t *testing.T) {
	d := &Driver{
		Reasoner: utility.NewReasoner([]*utility.Consideration{constant("Dance", 1)}),
		Registry: NewRegistry(),
	}
	a := New(7, "b", nil)
	_, _, err := d.Tick(a)
	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Equal(t, StateIdle, a.State(), "state unchanged when execution fails")
}

func TestFallbackPolicies(t *testing.T) {
	reasoner := utility.NewReasoner([]*utility.Consideration{constant("Eat", 5, utility.WithWeight(0))})

	tests := []struct {
		policy FallbackPolicy
		want   utility.ActionName
	}{
		{FallbackClear, ""},
		{FallbackMarkIdle, utility.ActionIdle},
		{FallbackKeep, "Drink"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			d := &Driver{Reasoner: reasoner, Registry: NewRegistry(), Fallback: tt.policy}
			a := New(1, "c", nil)
			a.CurrentAction = "Drink"

			act, events, err := d.Tick(a)
			require.NoError(t, err)
			assert.True(t, act.IsIdle())
			assert.Empty(t, events)
			assert.Equal(t, tt.want, a.CurrentAction)
		})
	}
}

func TestFallbackHandlerRunsWhenRegistered(t *testing.T) {
	reg := NewRegistry()
	ran := false
	require.NoError(t, reg.Register("Wander", func(*Agent, utility.Action) []string {
		ran = true
		return nil
	}))
	d := &Driver{
		Reasoner: utility.NewReasoner(nil, utility.WithFallback(utility.Action{Name: "Wander"})),
		Registry: reg,
		Fallback: FallbackMarkIdle,
	}
	a := New(1, "d", nil)
	_, _, err := d.Tick(a)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, utility.ActionName("Wander"), a.CurrentAction)

	// Keep never runs the handler, registered or not.
	ran = false
	d.Fallback = FallbackKeep
	kept := New(2, "e", nil)
	kept.CurrentAction = "Eat"
	_, events, err := d.Tick(kept)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, events)
	assert.Equal(t, utility.ActionName("Eat"), kept.CurrentAction)
}

func TestDriverDynamicConsiderations(t *testing.T) {
	reg := NewRegistry()
	var gotTarget int
	require.NoError(t, reg.Register("Attack", func(_ *Agent, act utility.Action) []string {
		gotTarget, _ = act.IntParam("target")
		return nil
	}))
	d := &Driver{
		Reasoner: utility.NewReasoner([]*utility.Consideration{constant("Wait", 0.2)}),
		Registry: reg,
		Dynamic: func(a *Agent) []*utility.Consideration {
			return []*utility.Consideration{utility.MustConsideration(
				utility.NewAction("Attack", map[string]any{"target": int(a.ID) + 1}),
				[]utility.Appraisal{utility.NewAppraisal("x", func(utility.Context) float64 { return 0.5 }, nil)},
				utility.Average)}
		},
	}

	_, _, err := d.Tick(New(4, "e", nil))
	require.NoError(t, err)
	assert.Equal(t, 5, gotTarget)

	dec := d.Explain(New(4, "e", nil))
	require.Len(t, dec.Candidates, 2)
	assert.True(t, dec.Candidates[1].Dynamic)
}

func TestDeadAgentsDoNothing(t *testing.T) {
	d := survivalDriver(t)
	a := New(1, "f", DefaultSurvivalContext())
	a.Alive = false

	act, events, err := d.Tick(a)
	require.NoError(t, err)
	assert.True(t, act.IsIdle())
	assert.Nil(t, events)
	assert.Equal(t, 70.0, a.Context[KeyHunger])

	decided, ok := d.Decide(a)
	assert.False(t, ok)
	explained := d.Explain(a)
	assert.True(t, explained.Fallback)
	assert.Equal(t, decided, explained.Action)
	assert.Empty(t, explained.Candidates)
}

func TestParseFallbackPolicy(t *testing.T) {
	for _, p := range []FallbackPolicy{FallbackClear, FallbackMarkIdle, FallbackKeep} {
		got, err := ParseFallbackPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseFallbackPolicy("explode")
	assert.Error(t, err)
}

func TestSnapshotIsIndependent(t *testing.T) {
	a := New(1, "g", DefaultSurvivalContext())
	snap := a.Snapshot()
	a.Context[KeyHunger] = 1.0
	assert.Equal(t, 70.0, snap.Context[KeyHunger])
}
