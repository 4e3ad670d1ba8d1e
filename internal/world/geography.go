package world

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyGrid is returned when a geography would have no tiles.
var ErrEmptyGrid = errors.New("geography must be at least 1x1")

// Geography is a width×height grid of tiles. Immutable after construction, so
// it is safe to share between goroutines.
type Geography struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	tiles []Tile // Column-major: tiles[x*Height+y]
}

// NewGeography builds a grid from columns of tiles (tiles[x][y]).
// Mismatched dimensions or non-positive costs are setup errors.
func NewGeography(width, height int, tiles [][]Tile) (*Geography, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(tiles) != width {
		return nil, fmt.Errorf("geography: got %d columns, want %d", len(tiles), width)
	}

	g := &Geography{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, 0, width*height),
	}
	for x, col := range tiles {
		if len(col) != height {
			return nil, fmt.Errorf("geography: column %d has %d tiles, want %d", x, len(col), height)
		}
		for y, t := range col {
			if t.Cost == 0 {
				return nil, fmt.Errorf("geography: tile (%d,%d) has zero cost", x, y)
			}
			g.tiles = append(g.tiles, t)
		}
	}
	return g, nil
}

// Uniform returns an open grid where every tile has the same cost.
func Uniform(width, height int, cost uint16) *Geography {
	if cost == 0 {
		cost = 1
	}
	g := &Geography{Width: width, Height: height, tiles: make([]Tile, width*height)}
	for i := range g.tiles {
		g.tiles[i].Cost = cost
	}
	return g
}

// InBounds reports whether p lies on the grid.
func (g *Geography) InBounds(p TilePoint) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// Tile returns the tile at p. p must be in bounds.
func (g *Geography) Tile(p TilePoint) Tile {
	return g.tiles[p.X*g.Height+p.Y]
}

// Clamp returns the nearest in-bounds point to p.
func (g *Geography) Clamp(p TilePoint) TilePoint {
	p.X = max(0, min(p.X, g.Width-1))
	p.Y = max(0, min(p.Y, g.Height-1))
	return p
}

// neighbors returns the in-bounds neighbours of p indexed by direction.
func (g *Geography) neighbors(p TilePoint) [4]*TilePoint {
	var out [4]*TilePoint
	for d := DirUp; d <= DirLeft; d++ {
		n := p.Step(d)
		if g.InBounds(n) {
			out[d] = &n
		}
	}
	return out
}

// EdgeCost returns the cost of stepping from p to its neighbour in direction d:
// the sum of both tiles' costs, or math.MaxUint32 when a wall on either side
// blocks the edge.
func (g *Geography) EdgeCost(p TilePoint, d Direction) uint32 {
	n := p.Step(d)
	if !g.InBounds(p) || !g.InBounds(n) {
		return math.MaxUint32
	}
	from, to := g.Tile(p), g.Tile(n)
	if from.WallTo(d) || to.WallFrom(d) {
		return math.MaxUint32
	}
	return uint32(from.Cost) + uint32(to.Cost)
}

// PathCost returns the total edge cost of walking a path in either order.
// Returns math.MaxUint32 if any step is not a passable 4-connected move.
func (g *Geography) PathCost(path []TilePoint) uint32 {
	var total uint32
	for i := 1; i < len(path); i++ {
		d, ok := directionBetween(path[i-1], path[i])
		if !ok {
			return math.MaxUint32
		}
		total = saturatingAdd(total, g.EdgeCost(path[i-1], d))
	}
	return total
}

// Tiles returns a copy of the grid in row-major order for observers.
func (g *Geography) Tiles() []Tile {
	out := make([]Tile, 0, len(g.tiles))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			out = append(out, g.Tile(TilePoint{X: x, Y: y}))
		}
	}
	return out
}

// String returns a summary of the grid.
func (g *Geography) String() string {
	return fmt.Sprintf("Geography(%dx%d)", g.Width, g.Height)
}

func directionBetween(a, b TilePoint) (Direction, bool) {
	for d := DirUp; d <= DirLeft; d++ {
		if a.Step(d) == b {
			return d, true
		}
	}
	return 0, false
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
