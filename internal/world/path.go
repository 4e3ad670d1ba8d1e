package world

import (
	"container/heap"
	"math"
)

// pathState is an open-set entry: a point, the g it was pushed with, and
// its f = g + h priority.
type pathState struct {
	cost     uint32
	g        uint32
	position TilePoint
}

// openSet is a min-heap on cost. Equal costs pop lower x first, then lower y,
// which fixes expansion order and makes traces reproducible.
type openSet []pathState

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.position.X != b.position.X {
		return a.position.X < b.position.X
	}
	return a.position.Y < b.position.Y
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any) { *o = append(*o, x.(pathState)) }
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	*o = old[:n-1]
	return item
}

// FindPath runs A* from start to goal over the 4-connected grid.
//
// The heuristic is the squared Euclidean distance to the goal. It can
// overestimate, so a point is reopened whenever a cheaper route to it turns
// up, and the search keeps going after reaching the goal until no open entry
// could still beat the best goal cost found. The result is always a cheapest
// path; h only orders the work.
//
// The returned path runs from goal back to start (inclusive of both), so a
// walker consumes it from the end. A nil result means no path: the goal is
// walled off or a point is off the grid. Callers treat nil as "stay put".
func (g *Geography) FindPath(start, goal TilePoint) []TilePoint {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil
	}

	h := func(p TilePoint) uint32 {
		dx := p.X - goal.X
		dy := p.Y - goal.Y
		return uint32(dx*dx + dy*dy)
	}

	cameFrom := make(map[TilePoint]TilePoint)
	gScore := map[TilePoint]uint32{start: 0}
	best := uint32(math.MaxUint32) // Cheapest goal cost found so far

	open := &openSet{{cost: h(start), position: start}}

	for open.Len() > 0 {
		current := heap.Pop(open).(pathState)
		if current.g != gScore[current.position] {
			continue // Superseded by a cheaper route.
		}
		if current.g >= best {
			continue // Edge costs are positive; nothing from here can win.
		}
		if current.position == goal {
			best = current.g
			continue
		}

		for d, neighbor := range g.neighbors(current.position) {
			if neighbor == nil {
				continue
			}
			tentative := saturatingAdd(current.g, g.EdgeCost(current.position, Direction(d)))
			if tentative >= best {
				continue
			}
			if old, seen := gScore[*neighbor]; seen && tentative >= old {
				continue
			}
			heap.Push(open, pathState{
				cost:     saturatingAdd(tentative, h(*neighbor)),
				g:        tentative,
				position: *neighbor,
			})
			cameFrom[*neighbor] = current.position
			gScore[*neighbor] = tentative
		}
	}

	if best == math.MaxUint32 {
		return nil
	}
	return reconstructPath(cameFrom, goal)
}

func reconstructPath(cameFrom map[TilePoint]TilePoint, goal TilePoint) []TilePoint {
	path := []TilePoint{goal}
	current := goal
	for {
		prev, ok := cameFrom[current]
		if !ok {
			return path
		}
		path = append(path, prev)
		current = prev
	}
}
