package skirmish

import (
	"github.com/WestonVincze/utility-ai/internal/utility"
)

// Context keys written for the acting unit each turn.
const (
	KeySelf          = "self"
	KeyTarget        = "target"
	KeyCurrentHealth = "currentHealth"
	KeyMaxHealth     = "maxHealth"
	KeyAccuracy      = "accuracy"
	KeyDamage        = "damage"
	KeyDefense       = "defense"
	KeyX             = "x"
	KeyY             = "y"
	KeyRange         = "range"
)

// Actions a unit can take.
const (
	ActionAttack utility.ActionName = "Attack"
	ActionHelp   utility.ActionName = "Help"
	ActionFlee   utility.ActionName = "Flee"
)

// Context describes u from its own point of view.
func Context(u *Unit, rules Rules) utility.Context {
	return utility.Context{
		KeySelf:          u.ID,
		KeyCurrentHealth: u.Health,
		KeyMaxHealth:     u.MaxHealth,
		KeyAccuracy:      u.Accuracy,
		KeyDamage:        u.Damage,
		KeyDefense:       u.Defense,
		KeyX:             u.Position.X,
		KeyY:             u.Position.Y,
		KeyRange:         rules.Range,
	}
}

func position(ctx utility.Context) Position {
	x, _ := ctx.Int(KeyX)
	y, _ := ctx.Int(KeyY)
	return Position{X: x, Y: y}
}

// strike scores one blow: half hit chance, half the share of the defender's
// remaining health a hit would take.
func strike(accuracy, damage, defense, health int) float64 {
	hit := utility.Clamp01(float64(accuracy-defense) / 100)
	share := 1.0
	if health > 0 {
		share = min(1, float64(damage)/float64(health))
	}
	return hit*0.5 + share*0.5
}

// Appraisals builds the appraisals of one board. Target lookups happen at
// evaluation time, so a unit killed earlier in the round reads as missing.
type Appraisals struct {
	board *Board
}

// NewAppraisals binds appraisals to b.
func NewAppraisals(b *Board) Appraisals {
	return Appraisals{board: b}
}

// target resolves the "target" parameter to a living unit.
func (ap Appraisals) target(ctx utility.Context) (*Unit, bool) {
	id, ok := ctx.Int(KeyTarget)
	if !ok {
		return nil, false
	}
	u, ok := ap.board.Unit(id)
	if !ok || !u.Alive() {
		return nil, false
	}
	return u, true
}

// Vulnerability rises as own health falls: 1 - (health/max)². It is 0
// when max health is unknown.
func (ap Appraisals) Vulnerability() utility.Appraisal {
	return utility.NewAppraisal("vulnerability", func(ctx utility.Context) float64 {
		hp, _ := ctx.Float(KeyCurrentHealth)
		maxHP, ok := ctx.Float(KeyMaxHealth)
		if !ok || maxHP <= 0 {
			return 0
		}
		return utility.InverseQuadratic(hp / maxHP)
	}, nil)
}

// Danger is the strongest blow any living enemy could land on the unit.
func (ap Appraisals) Danger() utility.Appraisal {
	return utility.NewAppraisal("danger", func(ctx utility.Context) float64 {
		id, _ := ctx.Int(KeySelf)
		self, ok := ap.board.Unit(id)
		if !ok {
			return 0
		}
		defense, _ := ctx.Int(KeyDefense)
		health, _ := ctx.Int(KeyCurrentHealth)
		worst := 0.0
		for _, e := range ap.board.Enemies(self) {
			worst = max(worst, strike(e.Accuracy, e.Damage, defense, health))
		}
		return worst
	}, nil)
}

// TargetProximity is 1 within weapon range, falling to 0 at the far corner.
func (ap Appraisals) TargetProximity() utility.Appraisal {
	return utility.NewAppraisal("targetProximity", func(ctx utility.Context) float64 {
		t, ok := ap.target(ctx)
		if !ok {
			return 0
		}
		reach := ctx.FloatOr(KeyRange, 1)
		d := position(ctx).DistanceTo(t.Position)
		return 1 - utility.Normalize(d, reach, ap.board.Diagonal())
	}, nil)
}

// Offense scores the unit's blow against the target.
func (ap Appraisals) Offense() utility.Appraisal {
	return utility.NewAppraisal("attackThreat", func(ctx utility.Context) float64 {
		t, ok := ap.target(ctx)
		if !ok {
			return 0
		}
		acc, _ := ctx.Int(KeyAccuracy)
		dmg, _ := ctx.Int(KeyDamage)
		return strike(acc, dmg, t.Defense, t.Health)
	}, nil)
}

// TargetThreat scores the target's blow against the unit.
func (ap Appraisals) TargetThreat() utility.Appraisal {
	return utility.NewAppraisal("targetAttackThreat", func(ctx utility.Context) float64 {
		t, ok := ap.target(ctx)
		if !ok {
			return 0
		}
		def, _ := ctx.Int(KeyDefense)
		hp, _ := ctx.Int(KeyCurrentHealth)
		return strike(t.Accuracy, t.Damage, def, hp)
	}, nil)
}

// TargetWounds rises as the target's health falls: 1 - (health/max)². It is
// 0 when the target is missing.
func (ap Appraisals) TargetWounds() utility.Appraisal {
	return utility.NewAppraisal("targetHealth", func(ctx utility.Context) float64 {
		t, ok := ap.target(ctx)
		if !ok || t.MaxHealth <= 0 {
			return 0
		}
		return utility.InverseQuadratic(t.HealthRatio())
	}, nil)
}

// FleeConsideration is the only base consideration of a skirmish reasoner.
func (ap Appraisals) FleeConsideration(rules Rules) *utility.Consideration {
	return utility.MustConsideration(utility.Action{Name: ActionFlee},
		[]utility.Appraisal{ap.Vulnerability(), ap.Danger()},
		utility.Average, utility.WithWeight(rules.FleeWeight))
}

// DynamicConsiderations returns one Attack per living enemy and one Help per
// living ally of u, in board order. Help is gated off (weight 0) for allies
// at full health.
func (ap Appraisals) DynamicConsiderations(u *Unit) []*utility.Consideration {
	var out []*utility.Consideration
	for _, e := range ap.board.Enemies(u) {
		params := map[string]any{KeyTarget: e.ID}
		out = append(out, utility.MustConsideration(
			utility.NewAction(ActionAttack, params),
			[]utility.Appraisal{ap.TargetProximity(), ap.Offense(), ap.TargetThreat()},
			utility.Average, utility.WithParameters(params)))
	}
	for _, a := range ap.board.Allies(u) {
		params := map[string]any{KeyTarget: a.ID}
		weight := 1.0
		if a.Health >= a.MaxHealth {
			weight = 0
		}
		out = append(out, utility.MustConsideration(
			utility.NewAction(ActionHelp, params),
			[]utility.Appraisal{ap.TargetProximity(), ap.TargetWounds()},
			utility.Average, utility.WithParameters(params), utility.WithWeight(weight)))
	}
	return out
}
