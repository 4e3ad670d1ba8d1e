// Farmstead placement: finds spread-out, reachable sites for a home, its
// food larder, and a field on a geography.
package world

import (
	"math"
	"math/rand"
	"sort"
)

// Farmstead is the layout for one household.
type Farmstead struct {
	Name   string
	Home   TilePoint
	Larder TilePoint // Container site, adjacent to home
	Field  TilePoint // Crop site, a short walk from home
	Score  float64
}

// PlaceFarmsteads picks up to n farmstead sites on g. Sites are ranked by
// cheap surrounding terrain and kept at least minDist apart; every returned
// larder and field is reachable from its home.
func PlaceFarmsteads(g *Geography, n int, seed int64) []Farmstead {
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		p     TilePoint
		score float64
	}
	var candidates []scored
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			p := TilePoint{X: x, Y: y}
			candidates = append(candidates, scored{p, homeScore(g, p)})
		}
	}

	// Sort by score descending; coordinates break ties so placement is stable.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.p.X != b.p.X {
			return a.p.X < b.p.X
		}
		return a.p.Y < b.p.Y
	})

	minDist := 4
	if g.Width*g.Height < 200 {
		minDist = 2
	}

	var out []Farmstead
	for _, c := range candidates {
		if len(out) >= n {
			break
		}
		if tooClose(c.p, out, minDist) {
			continue
		}
		larder, ok := pickLarder(g, c.p)
		if !ok {
			continue
		}
		field, ok := pickField(g, c.p, rng)
		if !ok {
			continue
		}
		out = append(out, Farmstead{Home: c.p, Larder: larder, Field: field, Score: c.score})
	}

	names := generateNames(rng, len(out))
	for i := range out {
		out[i].Name = names[i]
	}
	return out
}

// homeScore prefers cheap ground with cheap, open neighbours.
func homeScore(g *Geography, p TilePoint) float64 {
	score := 10.0 / float64(g.Tile(p).Cost)
	for d := DirUp; d <= DirLeft; d++ {
		cost := g.EdgeCost(p, d)
		if cost == math.MaxUint32 {
			score -= 1
			continue
		}
		score += 2.0 / float64(cost)
	}
	return score
}

// pickLarder returns the first open neighbour of home in direction order.
func pickLarder(g *Geography, home TilePoint) (TilePoint, bool) {
	for d := DirUp; d <= DirLeft; d++ {
		if g.EdgeCost(home, d) != math.MaxUint32 {
			return home.Step(d), true
		}
	}
	return TilePoint{}, false
}

// pickField tries a few random offsets 2–5 tiles away and keeps the first
// one with a path back home.
func pickField(g *Geography, home TilePoint, rng *rand.Rand) (TilePoint, bool) {
	for attempt := 0; attempt < 12; attempt++ {
		dx := 2 + rng.Intn(4)
		dy := rng.Intn(4)
		if rng.Intn(2) == 0 {
			dx = -dx
		}
		if rng.Intn(2) == 0 {
			dy = -dy
		}
		if rng.Intn(2) == 0 {
			dx, dy = dy, dx
		}
		field := g.Clamp(TilePoint{X: home.X + dx, Y: home.Y + dy})
		if Manhattan(field, home) < 2 {
			continue
		}
		if g.FindPath(home, field) != nil {
			return field, true
		}
	}
	return TilePoint{}, false
}

func tooClose(p TilePoint, existing []Farmstead, minDist int) bool {
	for _, f := range existing {
		if Manhattan(p, f.Home) < minDist || Manhattan(p, f.Field) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces household names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Ash", "Stone", "Mill", "Cross", "Green", "Thorn", "Elm", "Oak",
		"Barley", "Wheat", "Brook", "Hay", "Marsh", "Hollow", "Fern",
	}
	suffixes := []string{
		"well", "ford", "wick", "stead", "field", "dale", "croft",
		"acre", "leigh", "worth", "by", "ton", "hurst", "combe",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] || len(used) >= len(prefixes)*len(suffixes) {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}
