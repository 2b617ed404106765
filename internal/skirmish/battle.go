package skirmish

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/utility"
)

// Rules are the tunables of a skirmish.
type Rules struct {
	Range      float64 `yaml:"range"`       // Attack and heal reach
	FleeWeight float64 `yaml:"flee_weight"` // Priority of fleeing over fighting
	Heal       int     `yaml:"heal"`        // Health restored by Help
}

// DefaultRules returns the rules of the demo skirmish.
func DefaultRules() Rules {
	return Rules{Range: 3, FleeWeight: 1.2, Heal: 2}
}

// Turn records what one unit did.
type Turn struct {
	Round  int            `json:"round"`
	Unit   int            `json:"unit"`
	Action utility.Action `json:"action"`
	Events []string       `json:"events,omitempty"`
}

// Battle runs a skirmish. Units act one at a time in ID order, each seeing
// the board as the previous unit left it.
type Battle struct {
	board  *Board
	rules  Rules
	rng    *rand.Rand
	ap     Appraisals
	driver *agents.Driver
	minds  map[int]*agents.Agent
	round  int
	logger *slog.Logger
}

// NewBattle prepares a battle on b. Hit rolls come from seed.
func NewBattle(b *Board, rules Rules, seed int64, logger *slog.Logger) (*Battle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bt := &Battle{
		board:  b,
		rules:  rules,
		rng:    rand.New(rand.NewSource(seed)),
		ap:     NewAppraisals(b),
		minds:  make(map[int]*agents.Agent),
		logger: logger,
	}

	reg := agents.NewRegistry()
	for name, h := range map[utility.ActionName]agents.Handler{
		ActionAttack: bt.attack,
		ActionHelp:   bt.help,
		ActionFlee:   bt.flee,
	} {
		if err := reg.Register(name, h); err != nil {
			return nil, fmt.Errorf("skirmish: %w", err)
		}
	}

	bt.driver = &agents.Driver{
		Reasoner: utility.NewReasoner([]*utility.Consideration{bt.ap.FleeConsideration(rules)}),
		Registry: reg,
		Fallback: agents.FallbackMarkIdle,
		Dynamic: func(a *agents.Agent) []*utility.Consideration {
			u, ok := b.Unit(int(a.ID))
			if !ok {
				return nil
			}
			return bt.ap.DynamicConsiderations(u)
		},
	}

	for _, u := range b.Units() {
		a := agents.New(agents.AgentID(u.ID), u.String(), Context(u, rules))
		a.Alive = u.Alive()
		bt.minds[u.ID] = a
	}
	return bt, nil
}

// Board returns the battle's board.
func (bt *Battle) Board() *Board { return bt.board }

// RoundsPlayed returns the number of completed rounds.
func (bt *Battle) RoundsPlayed() int { return bt.round }

// sync refreshes the agent behind u from the board.
func (bt *Battle) sync(u *Unit) *agents.Agent {
	a := bt.minds[u.ID]
	a.Context = Context(u, bt.rules)
	a.Alive = u.Alive()
	a.Health = u.HealthRatio()
	return a
}

// Explain returns the decision breakdown for a unit's next turn.
func (bt *Battle) Explain(id int) (utility.Decision, error) {
	u, ok := bt.board.Unit(id)
	if !ok {
		return utility.Decision{}, fmt.Errorf("unit %d not found", id)
	}
	return bt.driver.Explain(bt.sync(u)), nil
}

// Round lets every living unit act once.
func (bt *Battle) Round() ([]Turn, error) {
	bt.round++
	var turns []Turn
	for _, u := range bt.board.Units() {
		if !u.Alive() {
			continue
		}
		a := bt.sync(u)
		act, events, err := bt.driver.Tick(a)
		if err != nil {
			return turns, fmt.Errorf("round %d unit %d: %w", bt.round, u.ID, err)
		}
		bt.logger.Debug("unit acted", "round", bt.round, "unit", u.String(), "action", act.String())
		turns = append(turns, Turn{Round: bt.round, Unit: u.ID, Action: act, Events: events})
	}
	return turns, nil
}

// Winner returns the last faction standing. ok is false while more than one
// faction has living units; a battle where everyone died has no winner.
func (bt *Battle) Winner() (f Faction, ok bool) {
	factions := bt.board.Factions()
	switch len(factions) {
	case 0:
		return "", true
	case 1:
		return factions[0], true
	default:
		return "", false
	}
}

// Run plays rounds until one faction remains or maxRounds is reached.
func (bt *Battle) Run(maxRounds int) ([]Turn, error) {
	var all []Turn
	for bt.round < maxRounds {
		if _, over := bt.Winner(); over {
			break
		}
		turns, err := bt.Round()
		all = append(all, turns...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func (bt *Battle) targetOf(act utility.Action) (*Unit, bool) {
	id, ok := act.IntParam(KeyTarget)
	if !ok {
		return nil, false
	}
	t, ok := bt.board.Unit(id)
	if !ok || !t.Alive() {
		return nil, false
	}
	return t, true
}

func (bt *Battle) attack(a *agents.Agent, act utility.Action) []string {
	u, _ := bt.board.Unit(int(a.ID))
	t, ok := bt.targetOf(act)
	if !ok {
		return []string{fmt.Sprintf("%s has no one to attack", u)}
	}
	if u.Position.DistanceTo(t.Position) > bt.rules.Range {
		bt.stepToward(u, t.Position)
		return []string{fmt.Sprintf("%s advances on %s to %s", u, t, u.Position)}
	}
	roll := bt.rng.Intn(100)
	if roll >= u.Accuracy-t.Defense {
		return []string{fmt.Sprintf("%s misses %s", u, t)}
	}
	t.Health = max(0, t.Health-u.Damage)
	events := []string{fmt.Sprintf("%s hits %s for %d", u, t, u.Damage)}
	if !t.Alive() {
		events = append(events, fmt.Sprintf("%s falls", t))
	}
	return events
}

func (bt *Battle) help(a *agents.Agent, act utility.Action) []string {
	u, _ := bt.board.Unit(int(a.ID))
	t, ok := bt.targetOf(act)
	if !ok {
		return []string{fmt.Sprintf("%s has no one to help", u)}
	}
	if u.Position.DistanceTo(t.Position) > bt.rules.Range {
		bt.stepToward(u, t.Position)
		return []string{fmt.Sprintf("%s moves toward %s", u, t)}
	}
	healed := min(bt.rules.Heal, t.MaxHealth-t.Health)
	t.Health += healed
	return []string{fmt.Sprintf("%s heals %s for %d", u, t, healed)}
}

func (bt *Battle) flee(a *agents.Agent, _ utility.Action) []string {
	u, _ := bt.board.Unit(int(a.ID))
	enemies := bt.board.Enemies(u)
	if len(enemies) == 0 {
		return nil
	}
	nearest := func(p Position) float64 {
		d := p.DistanceTo(enemies[0].Position)
		for _, e := range enemies[1:] {
			d = min(d, p.DistanceTo(e.Position))
		}
		return d
	}

	best, bestDist := u.Position, nearest(u.Position)
	for _, p := range bt.moves(u) {
		if d := nearest(p); d > bestDist {
			best, bestDist = p, d
		}
	}
	if best == u.Position {
		return []string{fmt.Sprintf("%s is cornered", u)}
	}
	u.Position = best
	return []string{fmt.Sprintf("%s retreats to %s", u, best)}
}

// moves lists the free squares around u in a fixed order.
func (bt *Battle) moves(u *Unit) []Position {
	var out []Position
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := Position{X: u.Position.X + dx, Y: u.Position.Y + dy}
			if bt.board.InBounds(p) && !bt.board.Occupied(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (bt *Battle) stepToward(u *Unit, target Position) {
	best, bestDist := u.Position, u.Position.DistanceTo(target)
	for _, p := range bt.moves(u) {
		if d := p.DistanceTo(target); d < bestDist {
			best, bestDist = p, d
		}
	}
	u.Position = best
}
