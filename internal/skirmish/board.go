// Package skirmish is a small turn-based tactics game whose units decide with
// a utility reasoner. The reasoner's base list only knows how to flee; attack
// and help options are generated per turn for every enemy and ally in play.
package skirmish

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Faction is the side a unit fights for.
type Faction string

const (
	FactionRed  Faction = "Red"
	FactionBlue Faction = "Blue"
)

// Position is a square on the board.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// DistanceTo returns the Euclidean distance between two squares.
func (p Position) DistanceTo(q Position) float64 {
	dx := float64(q.X - p.X)
	dy := float64(q.Y - p.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// String renders the position as (x,y).
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Unit is one combatant. Accuracy and Defense are percentages: a hit lands
// when a d100 roll is below attacker accuracy minus defender defense.
type Unit struct {
	ID        int      `json:"id" yaml:"id"`
	Faction   Faction  `json:"faction" yaml:"faction"`
	Health    int      `json:"health" yaml:"health"`
	MaxHealth int      `json:"max_health" yaml:"max_health"`
	Accuracy  int      `json:"accuracy" yaml:"accuracy"`
	Damage    int      `json:"damage" yaml:"damage"`
	Defense   int      `json:"defense" yaml:"defense"`
	Position  Position `json:"position" yaml:"position"`
}

// Alive reports whether the unit can still act.
func (u *Unit) Alive() bool { return u.Health > 0 }

// HealthRatio returns current over max health.
func (u *Unit) HealthRatio() float64 {
	if u.MaxHealth <= 0 {
		return 0
	}
	return float64(u.Health) / float64(u.MaxHealth)
}

// String renders the unit as "Blue#1".
func (u *Unit) String() string {
	return fmt.Sprintf("%s#%d", u.Faction, u.ID)
}

// Board holds every unit, alive or dead, ordered by ID.
type Board struct {
	Width  int
	Height int
	units  []*Unit
	byID   map[int]*Unit
}

// NewBoard places units on a width × height board.
func NewBoard(width, height int, units ...*Unit) (*Board, error) {
	b := &Board{Width: width, Height: height, byID: make(map[int]*Unit, len(units))}
	for _, u := range units {
		if _, dup := b.byID[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %d", u.ID)
		}
		if !b.InBounds(u.Position) {
			return nil, fmt.Errorf("unit %d at %s is off the board", u.ID, u.Position)
		}
		b.byID[u.ID] = u
		b.units = append(b.units, u)
	}
	slices.SortFunc(b.units, func(a, c *Unit) int { return cmp.Compare(a.ID, c.ID) })
	return b, nil
}

// Unit returns the unit with the given id, dead or alive.
func (b *Board) Unit(id int) (*Unit, bool) {
	u, ok := b.byID[id]
	return u, ok
}

// Units returns every unit in ID order.
func (b *Board) Units() []*Unit { return slices.Clone(b.units) }

// Enemies returns the living units of other factions.
func (b *Board) Enemies(u *Unit) []*Unit {
	return b.filter(func(o *Unit) bool { return o.Faction != u.Faction })
}

// Allies returns the other living units of u's faction.
func (b *Board) Allies(u *Unit) []*Unit {
	return b.filter(func(o *Unit) bool { return o.ID != u.ID && o.Faction == u.Faction })
}

func (b *Board) filter(keep func(*Unit) bool) []*Unit {
	var out []*Unit
	for _, o := range b.units {
		if o.Alive() && keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// InBounds reports whether p is on the board.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Width && p.Y < b.Height
}

// Diagonal is the longest possible distance on the board.
func (b *Board) Diagonal() float64 {
	return Position{}.DistanceTo(Position{X: b.Width - 1, Y: b.Height - 1})
}

// Occupied reports whether a living unit stands on p.
func (b *Board) Occupied(p Position) bool {
	for _, u := range b.units {
		if u.Alive() && u.Position == p {
			return true
		}
	}
	return false
}

// Factions returns the factions that still have living units, sorted.
func (b *Board) Factions() []Faction {
	var out []Faction
	for _, u := range b.units {
		if u.Alive() && !slices.Contains(out, u.Faction) {
			out = append(out, u.Faction)
		}
	}
	slices.Sort(out)
	return out
}

// DemoBoard returns the 6×6 opening used by the skirmish command: two Blue
// units facing two Red ones.
//
//	  0   1   2   3   4   5
//	0 [ ] [R] [ ] [ ] [R] [ ]
//	1 [ ] [ ] [ ] [ ] [ ] [ ]
//	2 [ ] [ ] [B] [ ] [ ] [ ]
//	3 [ ] [ ] [ ] [ ] [ ] [B]
func DemoBoard() *Board {
	b, err := NewBoard(6, 6, DemoUnits()...)
	if err != nil {
		panic(err)
	}
	return b
}

// DemoUnits returns fresh copies of the demo units.
func DemoUnits() []*Unit {
	return []*Unit{
		{ID: 1, Faction: FactionBlue, Health: 20, MaxHealth: 20, Accuracy: 75, Damage: 5, Defense: 5, Position: Position{X: 2, Y: 2}},
		{ID: 2, Faction: FactionBlue, Health: 5, MaxHealth: 5, Accuracy: 50, Damage: 3, Defense: 5, Position: Position{X: 5, Y: 3}},
		{ID: 3, Faction: FactionRed, Health: 8, MaxHealth: 8, Accuracy: 30, Damage: 6, Defense: 3, Position: Position{X: 1, Y: 0}},
		{ID: 4, Faction: FactionRed, Health: 4, MaxHealth: 8, Accuracy: 35, Damage: 2, Defense: 3, Position: Position{X: 4, Y: 0}},
	}
}
