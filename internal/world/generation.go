// Procedural geography from layered simplex noise, used when no map file is
// configured. Elevation drives terrain cost, a second layer lays hedgerow
// walls, and roads are traced downhill from a few high points.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds geography generation parameters.
type GenConfig struct {
	Width     int     // Tiles across
	Height    int     // Tiles down
	Seed      int64   // Random seed (0 = random)
	MaxCost   uint16  // Costliest terrain (steepest ground)
	HedgeLvl  float64 // Hedge noise threshold above which a tile grows walls (0.0–1.0)
	RoadCount int     // Number of roads to trace
}

// DefaultGenConfig returns the default village-sized configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     40,
		Height:    30,
		Seed:      0,
		MaxCost:   9,
		HedgeLvl:  0.78,
		RoadCount: 4,
	}
}

// SmallTestConfig returns a tiny grid for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:     12,
		Height:    10,
		Seed:      42,
		MaxCost:   6,
		HedgeLvl:  0.85,
		RoadCount: 2,
	}
}

// Generate creates a geography from cfg. The same seed always yields the same grid.
func Generate(cfg GenConfig) *Geography {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.MaxCost < CostRoad {
		cfg.MaxCost = CostDefault
	}

	elevNoise := opensimplex.NewNormalized(seed)
	hedgeNoise := opensimplex.NewNormalized(seed + 1)

	g := Uniform(cfg.Width, cfg.Height, CostDefault)
	elevation := make([]float64, len(g.tiles))

	for x := 0; x < cfg.Width; x++ {
		for y := 0; y < cfg.Height; y++ {
			i := x*cfg.Height + y
			elev := octaveNoise(elevNoise, float64(x), float64(y), 4, 0.08, 0.5)
			elevation[i] = elev

			// Cost scales with elevation: valleys are cheap, ridges expensive.
			cost := CostRoad + 1 + uint16(elev*float64(cfg.MaxCost-CostRoad))
			if cost > cfg.MaxCost {
				cost = cfg.MaxCost
			}
			g.tiles[i].Cost = cost

			hedge := octaveNoise(hedgeNoise, float64(x), float64(y), 2, 0.2, 0.5)
			if hedge > cfg.HedgeLvl {
				// Hedges run along the south and east edges of a tile.
				g.tiles[i].Walls[DirDown] = y < cfg.Height-1
				g.tiles[i].Walls[DirRight] = x < cfg.Width-1
			}
		}
	}

	placeRoads(g, elevation, seed, cfg.RoadCount)
	return g
}

// placeRoads picks high points and traces a road from each down the slope.
func placeRoads(g *Geography, elevation []float64, seed int64, count int) {
	rng := rand.New(rand.NewSource(seed + 100))

	var sources []TilePoint
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if elevation[x*g.Height+y] > 0.6 {
				sources = append(sources, TilePoint{X: x, Y: y})
			}
		}
	}
	if len(sources) == 0 {
		sources = append(sources, TilePoint{X: g.Width / 2, Y: g.Height / 2})
	}

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > count {
		sources = sources[:count]
	}

	for _, start := range sources {
		traceRoad(g, elevation, start)
	}
}

// traceRoad follows the steepest descent from start, paving as it goes and
// clearing any hedge it crosses.
func traceRoad(g *Geography, elevation []float64, start TilePoint) {
	current := start
	visited := make(map[TilePoint]bool)
	maxSteps := g.Width + g.Height

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		i := current.X*g.Height + current.Y
		g.tiles[i].Cost = CostRoad

		var best *TilePoint
		var bestDir Direction
		bestElev := elevation[i]

		for d, n := range g.neighbors(current) {
			if n == nil || visited[*n] {
				continue
			}
			if e := elevation[n.X*g.Height+n.Y]; e < bestElev {
				bestElev = e
				best = n
				bestDir = Direction(d)
			}
		}
		if best == nil {
			return
		}

		g.tiles[i].Walls[bestDir] = false
		g.tiles[best.X*g.Height+best.Y].Walls[bestDir.Opposite()] = false
		current = *best
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

// CostCounts returns how many tiles carry each movement cost.
func CostCounts(g *Geography) map[uint16]int {
	counts := make(map[uint16]int)
	for _, t := range g.tiles {
		counts[t.Cost]++
	}
	return counts
}
