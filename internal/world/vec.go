package world

import "math"

// Vec2 is a continuous position or displacement measured in tiles.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Len returns the Euclidean length.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// WithLen returns v rescaled to length l. The zero vector stays zero.
func (v Vec2) WithLen(l float64) Vec2 {
	n := v.Len()
	if n == 0 {
		return Vec2{}
	}
	return v.Scale(l / n)
}

// Tile returns the grid cell containing v.
func (v Vec2) Tile() TilePoint {
	return TilePoint{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// Center returns the midpoint of tile p.
func Center(p TilePoint) Vec2 {
	return Vec2{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
}

// EdgeMidpoint returns the midpoint of the edge shared by two adjacent tiles.
func EdgeMidpoint(a, b TilePoint) Vec2 {
	return Vec2{
		X: float64(a.X+b.X)/2 + 0.5,
		Y: float64(a.Y+b.Y)/2 + 0.5,
	}
}

// Distance returns the straight-line distance between two positions.
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Len()
}
