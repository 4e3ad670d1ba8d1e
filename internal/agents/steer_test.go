package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/homestead/internal/world"
)

func TestSteerAimsAtSharedEdge(t *testing.T) {
	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Path = []world.TilePoint{{X: 2, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	intent := m.steer(world.Vec2{X: 0.5, Y: 0.5})

	assert.InDelta(t, 0.25, intent.X, 1e-9)
	assert.InDelta(t, 0, intent.Y, 1e-9)
	assert.Len(t, m.Path, 2, "current tile should be popped")
}

func TestSteerClipsAtGoal(t *testing.T) {
	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Path = []world.TilePoint{{X: 1, Y: 0}}

	intent := m.steer(world.Vec2{X: 1.4, Y: 0.5})
	assert.InDelta(t, 0.1, intent.X, 1e-9)
	assert.InDelta(t, 0, intent.Y, 1e-9)

	intent = m.steer(world.Vec2{X: 1.5, Y: 0.5})
	assert.Equal(t, world.Vec2{}, intent)
	assert.Empty(t, m.Path)
}

func TestSteerLeavesEdgeMidpoint(t *testing.T) {
	m := NewMind(world.Vec2{}, testParams(), 1)
	// Standing exactly on the left edge of tile (1,0), heading left.
	m.Path = []world.TilePoint{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}}

	intent := m.steer(world.Vec2{X: 1.0, Y: 0.5})
	assert.InDelta(t, -0.25, intent.X, 1e-9)
	assert.InDelta(t, 0, intent.Y, 1e-9)
}

func TestTravelSplitsIntent(t *testing.T) {
	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Intent = world.Vec2{X: 0.2, Y: -0.4}
	h := &world.Human{Location: world.Vec2{X: 1, Y: 1}}

	for i := 0; i < 4; i++ {
		m.Travel(h, 4)
	}
	assert.InDelta(t, 1.2, h.Location.X, 1e-9)
	assert.InDelta(t, 0.6, h.Location.Y, 1e-9)
}

func TestWalkFollowsPathToGoal(t *testing.T) {
	g := world.Uniform(6, 6, world.CostDefault)
	start, goal := world.TilePoint{X: 0, Y: 0}, world.TilePoint{X: 5, Y: 3}
	path := g.FindPath(start, goal)
	require.NotNil(t, path)

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Path = path
	h := &world.Human{Location: world.Center(start)}

	visited := map[world.TilePoint]bool{start: true}
	for i := 0; i < 200 && len(m.Path) > 0; i++ {
		m.Intent = m.steer(h.Location)
		m.Travel(h, 1)
		visited[h.Tile()] = true
	}

	assert.Empty(t, m.Path)
	assert.InDelta(t, 0, world.Distance(h.Location, world.Center(goal)), arriveRadius)
	for _, p := range path {
		assert.True(t, visited[p], "tile %v on the path was skipped", p)
	}
}

func TestActivityLabels(t *testing.T) {
	cases := map[Activity]string{
		Idle():                 "Idle",
		Eating(EatingFinding):  "Eating(Finding)",
		Eating(EatingEating):   "Eating(Eating)",
		Sleeping():             "Sleeping",
		Working(WorkCommuting): "Working(Commuting)",
		Working(WorkWorking):   "Working(Working)",
		Working(WorkStoring):   "Working(Storing)",
	}
	for a, want := range cases {
		assert.Equal(t, want, a.String())
	}
}
