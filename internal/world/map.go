package world

import (
	"cmp"
	"fmt"
	"slices"
)

// Map holds the complete hex grid world state.
type Map struct {
	Hexes  map[HexCoord]*Hex `json:"-"` // All hexes keyed by coordinate
	Radius int               `json:"radius"`
	Seed   int64             `json:"seed"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Hexes:  make(map[HexCoord]*Hex),
		Radius: radius,
	}
}

// Get returns the hex at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Hex {
	return m.Hexes[coord]
}

// Set places a hex at the given coordinate.
func (m *Map) Set(hex *Hex) {
	m.Hexes[hex.Coord] = hex
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) <= m.Radius
}

// Passable reports whether coord is on the map and walkable.
func (m *Map) Passable(coord HexCoord) bool {
	h := m.Get(coord)
	return h != nil && h.Passable()
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Hexes)
}

// Coords returns every coordinate on the map in a stable (q, r) order.
// Anything that must be reproducible for a given seed iterates these
// instead of ranging over Hexes.
func (m *Map) Coords() []HexCoord {
	out := make([]HexCoord, 0, len(m.Hexes))
	for c := range m.Hexes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b HexCoord) int {
		if c := cmp.Compare(a.Q, b.Q); c != 0 {
			return c
		}
		return cmp.Compare(a.R, b.R)
	})
	return out
}

// LandCoords returns the passable coordinates in stable order.
func (m *Map) LandCoords() []HexCoord {
	return slices.DeleteFunc(m.Coords(), func(c HexCoord) bool { return !m.Passable(c) })
}

// Regrow moves food and water back toward capacity by fraction of the
// missing amount. Called once per sim-day.
func (m *Map) Regrow(fraction float64) {
	for _, h := range m.Hexes {
		for _, r := range []Resource{ResourceFood, ResourceWater} {
			missing := h.Capacity[r] - h.Resources[r]
			if missing > 0 {
				h.Resources[r] += missing * fraction
			}
		}
	}
}

// Totals sums the remaining stock of each resource across the map.
func (m *Map) Totals() Stock {
	var s Stock
	for _, h := range m.Hexes {
		for r := range s {
			s[r] += h.Resources[r]
		}
	}
	return s
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d)", m.Radius, m.HexCount())
}
