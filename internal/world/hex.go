// Package world provides the hex grid the survival simulation runs on.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "fmt"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// String renders the coordinate as (q,r).
func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainPlains   Terrain = iota // Grazing and wild grain
	TerrainForest                  // Game, berries, cover
	TerrainMountain                // Caves, little food
	TerrainCoast                   // Shellfish, brackish pools
	TerrainRiver                   // Fresh water and fish
	TerrainDesert                  // Nothing much
	TerrainSwamp                   // Stagnant water, some food
	TerrainTundra                  // Cold, sparse
	TerrainOcean                   // Impassable
)

var terrainNames = [...]string{
	TerrainPlains:   "Plains",
	TerrainForest:   "Forest",
	TerrainMountain: "Mountain",
	TerrainCoast:    "Coast",
	TerrainRiver:    "River",
	TerrainDesert:   "Desert",
	TerrainSwamp:    "Swamp",
	TerrainTundra:   "Tundra",
	TerrainOcean:    "Ocean",
}

// String returns a human-readable name for a terrain type.
func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "Unknown"
}

// Resource enumerates what an agent can find on a hex.
type Resource uint8

const (
	ResourceFood    Resource = iota // Eaten to reduce hunger
	ResourceWater                   // Drunk to reduce thirst
	ResourceShelter                 // Slept in to restore energy
)

// NumResources is the total number of resource types.
const NumResources = 3

// String returns the resource name.
func (r Resource) String() string {
	switch r {
	case ResourceFood:
		return "food"
	case ResourceWater:
		return "water"
	case ResourceShelter:
		return "shelter"
	default:
		return "unknown"
	}
}

// Stock is a fixed-size array of resource quantities, inline in Hex.
type Stock [NumResources]float64

// Hex represents a single tile on the world map.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	// Remaining and maximum quantity of each resource. Shelter is never
	// consumed; food and water deplete and regrow toward Capacity.
	Resources Stock `json:"resources"`
	Capacity  Stock `json:"capacity"`

	// Set during world generation.
	Elevation   float64 `json:"elevation"`   // 0.0 (sea level) to 1.0 (peak)
	Rainfall    float64 `json:"rainfall"`    // 0.0 (arid) to 1.0 (tropical)
	Temperature float64 `json:"temperature"` // 0.0 (frozen) to 1.0 (hot)
	Danger      float64 `json:"danger"`      // 0.0 (safe) to 1.0 (predators everywhere)
}

// Has reports whether at least one unit of r remains on the hex.
func (h *Hex) Has(r Resource) bool {
	return h.Resources[r] >= 1
}

// Take removes up to amount of r and returns what was actually taken.
// Shelter is a place, not a stock, so taking it never depletes it.
func (h *Hex) Take(r Resource, amount float64) float64 {
	if r == ResourceShelter {
		if h.Resources[r] > 0 {
			return amount
		}
		return 0
	}
	taken := min(amount, h.Resources[r])
	h.Resources[r] -= taken
	return taken
}

// Passable reports whether agents can stand on the hex.
func (h *Hex) Passable() bool {
	return h.Terrain != TerrainOcean
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	// Max of the three absolute differences in cube coordinates.
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// Ring returns every coordinate exactly radius steps from center, walking
// the ring in a fixed order. Ring(c, 0) is just c.
func Ring(center HexCoord, radius int) []HexCoord {
	if radius == 0 {
		return []HexCoord{center}
	}
	out := make([]HexCoord, 0, 6*radius)
	dir := HexNeighborDirections[4]
	cur := HexCoord{Q: center.Q + dir.Q*radius, R: center.R + dir.R*radius}
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			out = append(out, cur)
			d := HexNeighborDirections[side]
			cur = HexCoord{Q: cur.Q + d.Q, R: cur.R + d.R}
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
