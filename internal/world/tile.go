// Package world provides the tile grid, pathfinding, simulated time, and the
// entity arenas that every agent reads during a tick.
package world

// TilePoint is an integer grid coordinate. Comparable, so it doubles as a map key.
type TilePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction indexes the four cardinal edges of a tile, clockwise from up.
type Direction uint8

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Opposite returns the direction facing back across the same edge.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Offset returns the coordinate step for d.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirRight:
		return 1, 0
	case DirDown:
		return 0, 1
	default:
		return -1, 0
	}
}

// Step returns the neighbouring point in direction d (unbounded).
func (p TilePoint) Step(d Direction) TilePoint {
	dx, dy := d.Offset()
	return TilePoint{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the 4-connected grid distance between two points.
func Manhattan(a, b TilePoint) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Adjacent reports whether b is a or one of its four neighbours.
func Adjacent(a, b TilePoint) bool {
	return Manhattan(a, b) <= 1
}

// Terrain costs produced by the map loader.
const (
	CostRoad    uint16 = 1
	CostDefault uint16 = 5
)

// Tile is one cell of the grid.
type Tile struct {
	Cost  uint16  `json:"cost"`  // Movement cost, always positive
	Walls [4]bool `json:"walls"` // Indexed by Direction
}

// WallTo reports whether the tile has a wall on its own d edge.
func (t Tile) WallTo(d Direction) bool {
	return t.Walls[d]
}

// WallFrom reports whether the tile blocks entry from a neighbour moving in d.
func (t Tile) WallFrom(d Direction) bool {
	return t.Walls[d.Opposite()]
}
