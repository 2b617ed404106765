// World generation using layered simplex noise.
// Elevation, rainfall, temperature and danger are sampled per hex; terrain and
// resource stocks are derived from them.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Radius      int     `yaml:"radius"`       // Hex grid radius
	Seed        int64   `yaml:"seed"`         // Random seed (0 = random)
	SeaLevel    float64 `yaml:"sea_level"`    // Elevation threshold for ocean (0.0–1.0)
	MountainLvl float64 `yaml:"mountain_lvl"` // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      16,
		Seed:        0,
		SeaLevel:    0.25,
		MountainLvl: 0.72,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      5,
		Seed:        42,
		SeaLevel:    0.30,
		MountainLvl: 0.75,
	}
}

// Generate creates a complete world map with terrain and resources.
// The same non-zero seed always yields the same map.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Independent noise generators per layer.
	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)
	dangerNoise := opensimplex.NewNormalized(seed + 3)

	m := NewMap(cfg.Radius)
	m.Seed = seed

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)
			temp := octaveNoise(tempNoise, x, y, 3, 0.05, 0.5)
			danger := octaveNoise(dangerNoise, x, y, 2, 0.12, 0.5)

			// Continental shaping: reduce elevation near edges to create ocean border.
			distFromCenter := math.Sqrt(x*x+y*y) / float64(cfg.Radius)
			edgeFalloff := max(1.0-math.Pow(distFromCenter, 3.5), 0)
			elev *= edgeFalloff

			// Temperature decreases with elevation and distance from equator.
			temp = temp*0.6 + (1.0-math.Abs(y)/float64(cfg.Radius))*0.3 + (1.0-elev)*0.1

			terrain := deriveTerrain(elev, rain, temp, cfg)

			hex := &Hex{
				Coord:       coord,
				Terrain:     terrain,
				Elevation:   elev,
				Rainfall:    rain,
				Temperature: temp,
				Danger:      terrainDanger(terrain, danger),
			}
			setStock(hex, makeResources(terrain, elev, rain))
			m.Set(hex)
		}
	}

	markCoastalHexes(m)
	placeRivers(m, seed)

	return m
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev > cfg.MountainLvl {
		return TerrainMountain
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain < 0.25 && temp > 0.5 {
		return TerrainDesert
	}
	if rain > 0.7 && elev < 0.45 {
		return TerrainSwamp
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	return TerrainPlains
}

// terrainDanger biases the raw danger noise by how much cover predators have.
func terrainDanger(t Terrain, noise float64) float64 {
	switch t {
	case TerrainOcean:
		return 0
	case TerrainForest, TerrainSwamp:
		noise += 0.15
	case TerrainMountain:
		noise += 0.1
	case TerrainPlains, TerrainRiver, TerrainCoast:
		noise -= 0.1
	}
	return math.Min(math.Max(noise, 0), 1)
}

// makeResources populates initial resource stocks based on terrain.
func makeResources(terrain Terrain, elev, rain float64) Stock {
	var s Stock
	switch terrain {
	case TerrainPlains:
		s[ResourceFood] = 20 + rain*20 // Rainfall boosts yield
	case TerrainForest:
		s[ResourceFood] = 15
		s[ResourceShelter] = 1
	case TerrainMountain:
		if elev < 0.85 {
			s[ResourceShelter] = 1 // Caves below the peaks
		}
	case TerrainCoast:
		s[ResourceFood] = 20
		s[ResourceWater] = 10
	case TerrainRiver:
		s[ResourceFood] = 10
		s[ResourceWater] = 60
	case TerrainSwamp:
		s[ResourceFood] = 5
		s[ResourceWater] = 20
	case TerrainTundra:
		s[ResourceFood] = 5
	}
	return s
}

func setStock(h *Hex, s Stock) {
	h.Resources = s
	h.Capacity = s
}

// markCoastalHexes converts low land hexes adjacent to ocean into coast terrain.
func markCoastalHexes(m *Map) {
	var toMark []HexCoord

	for _, coord := range m.Coords() {
		hex := m.Get(coord)
		if hex.Terrain == TerrainOcean {
			continue
		}
		for _, neighbor := range coord.Neighbors() {
			nh := m.Get(neighbor)
			if nh != nil && nh.Terrain == TerrainOcean {
				toMark = append(toMark, coord)
				break
			}
		}
	}

	for _, coord := range toMark {
		hex := m.Get(coord)
		if (hex.Terrain == TerrainPlains || hex.Terrain == TerrainForest) && hex.Elevation < 0.5 {
			hex.Terrain = TerrainCoast
			hex.Danger = terrainDanger(TerrainCoast, hex.Danger)
			setStock(hex, makeResources(TerrainCoast, hex.Elevation, hex.Rainfall))
		}
	}
}

// placeRivers traces paths from high elevation to the sea, marking hexes as river.
func placeRivers(m *Map, seed int64) {
	rng := rand.New(rand.NewSource(seed + 100))

	var sources []HexCoord
	for _, coord := range m.Coords() {
		hex := m.Get(coord)
		if hex.Elevation > 0.65 && hex.Terrain != TerrainOcean {
			sources = append(sources, coord)
		}
	}

	// Only a handful of rivers; not every highland hex needs one.
	numRivers := min(max(len(sources)/8, 2), 10)

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > numRivers {
		sources = sources[:numRivers]
	}

	for _, start := range sources {
		traceRiver(m, start)
	}
}

// traceRiver follows the steepest descent from a source hex until reaching
// ocean or running out of downhill path.
func traceRiver(m *Map, start HexCoord) {
	current := start
	visited := make(map[HexCoord]bool)
	const maxSteps = 50

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		hex := m.Get(current)
		if hex == nil || hex.Terrain == TerrainOcean {
			break
		}

		if hex.Terrain != TerrainMountain && hex.Terrain != TerrainCoast {
			hex.Terrain = TerrainRiver
			s := makeResources(TerrainRiver, hex.Elevation, hex.Rainfall)
			s[ResourceFood] += hex.Capacity[ResourceFood] / 2
			setStock(hex, s)
		}

		var next *HexCoord
		bestElev := hex.Elevation
		for _, nc := range current.Neighbors() {
			if visited[nc] {
				continue
			}
			nh := m.Get(nc)
			if nh == nil {
				continue
			}
			if nh.Elevation < bestElev {
				bestElev = nh.Elevation
				c := nc
				next = &c
			}
		}

		if next == nil {
			break // No downhill path; the river ends here.
		}
		current = *next
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}
