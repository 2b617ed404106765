package world

import "math"

// SenseRange is how many rings an agent searches for resources. Anything
// farther away reads as distance 100.
const SenseRange = 8

// threatRadius is how far danger is felt from.
const threatRadius = 2

// Perception is what an agent knows about its surroundings, on the same
// 0–100 scales its needs use.
type Perception struct {
	DistanceToFood  float64 `json:"distance_to_food"`
	DistanceToWater float64 `json:"distance_to_water"`
	DistanceToBed   float64 `json:"distance_to_bed"`
	ThreatsNearby   float64 `json:"threats_nearby"`
}

// Sense scans the hexes around pos. Distances are scaled so that standing
// on the resource is 0 and SenseRange or beyond is 100.
func Sense(m *Map, pos HexCoord) Perception {
	return Perception{
		DistanceToFood:  scaledDistance(m, pos, ResourceFood),
		DistanceToWater: scaledDistance(m, pos, ResourceWater),
		DistanceToBed:   scaledDistance(m, pos, ResourceShelter),
		ThreatsNearby:   Threats(m, pos),
	}
}

func scaledDistance(m *Map, pos HexCoord, r Resource) float64 {
	_, d, ok := Nearest(m, pos, r)
	if !ok {
		return 100
	}
	return math.Min(100, float64(d)*100/SenseRange)
}

// Nearest finds the closest hex within SenseRange that has r, searching ring
// by ring so the first hit in ring order wins ties.
func Nearest(m *Map, pos HexCoord, r Resource) (HexCoord, int, bool) {
	for radius := 0; radius <= SenseRange; radius++ {
		for _, c := range Ring(pos, radius) {
			h := m.Get(c)
			if h != nil && h.Has(r) {
				return c, radius, true
			}
		}
	}
	return HexCoord{}, 0, false
}

// Threats returns the danger felt at pos on a 0–100 scale. Only hexes whose
// danger exceeds 0.5 contribute, weighted down with distance.
func Threats(m *Map, pos HexCoord) float64 {
	total, weight := 0.0, 0.0
	for radius := 0; radius <= threatRadius; radius++ {
		w := 1 / float64(radius+1)
		for _, c := range Ring(pos, radius) {
			h := m.Get(c)
			if h == nil {
				continue
			}
			weight += w
			if h.Danger > 0.5 {
				total += w * (h.Danger - 0.5) * 2
			}
		}
	}
	if weight == 0 {
		return 0
	}
	return math.Round(total/weight*10000) / 100
}

// StepToward returns the passable neighbor of from that is closest to to.
// It returns from unchanged when already there or boxed in.
func StepToward(m *Map, from, to HexCoord) HexCoord {
	best, bestDist := from, Distance(from, to)
	for _, n := range from.Neighbors() {
		if !m.Passable(n) {
			continue
		}
		if d := Distance(n, to); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// SafestNeighbor returns the passable hex among pos and its neighbors with
// the lowest local threat. pos wins ties, so a safe agent stays put.
func SafestNeighbor(m *Map, pos HexCoord) HexCoord {
	best, bestThreat := pos, Threats(m, pos)
	for _, n := range pos.Neighbors() {
		if !m.Passable(n) {
			continue
		}
		if t := Threats(m, n); t < bestThreat {
			best, bestThreat = n, t
		}
	}
	return best
}
