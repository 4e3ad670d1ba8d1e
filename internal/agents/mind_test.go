package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

func testParams() Params {
	p := DefaultParams()
	p.WanderChance = 0
	return p
}

// newTestWorld returns a world on an open grid with one human standing at
// the centre of at.
func newTestWorld(t *testing.T, g *world.Geography, at world.TilePoint) (*world.World, world.HumanID) {
	t.Helper()
	w := world.New(g)
	id := w.AddHuman(&world.Human{
		Name:     "Test",
		Location: world.Center(at),
		Store:    w.Stores.Create(economy.Units(100)),
	})
	return w, id
}

func addLarder(w *world.World, id world.HumanID, at world.TilePoint, food uint32) world.ContainerID {
	c := w.AddContainer(world.Center(at), economy.Units(100))
	w.Store(w.Containers[c].Store).GiveUpTo(economy.Food, food)
	h := w.Humans[id]
	h.Containers = append(h.Containers, c)
	return c
}

// runTick performs one full logic tick for a single mind: think, act,
// deliver, drain, deliver, then a tick's worth of travel.
func runTick(w *world.World, m *Mind, id world.HumanID) {
	h := w.Humans[id]
	m.Think(w, id)
	acts := make([]economy.Outbox, 1)
	m.Act(h, &acts[0])
	w.Stores.Deliver(acts)

	replies := make([]economy.Outbox, w.Stores.Len())
	for i := range replies {
		w.Stores.Drain(economy.StoreID(i), &replies[i])
	}
	w.Stores.Deliver(replies)

	for i := 0; i < 4; i++ {
		m.Travel(h, 4)
	}
	w.Time.Advance()
}

func TestThinkHungryIdleStartsFindingFood(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 2, Y: 2})
	w.Time.Hour = 7
	w.Humans[id].Hunger = 85

	m := NewMind(world.Center(world.TilePoint{X: 2, Y: 2}), testParams(), 1)
	m.Think(w, id)

	assert.Equal(t, Eating(EatingFinding), m.Activity)
	assert.Equal(t, "Eating(Finding)", m.Activity.String())
	assert.Equal(t, uint32(5), m.MealSize)
}

func TestThinkIdleStaysIdleBeforeBreakfast(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 2, Y: 2})
	w.Time.Hour = 5
	w.Humans[id].Hunger = 10

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Think(w, id)

	assert.Equal(t, Idle(), m.Activity)
	assert.Empty(t, m.Planned())
}

func TestThinkWaitSkipsEvaluation(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 2, Y: 2})
	w.Time.Hour = 7
	w.Humans[id].Hunger = 85

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Wait = 2
	m.Think(w, id)
	assert.Equal(t, Idle(), m.Activity)
	assert.Equal(t, 1, m.Wait)

	m.Think(w, id)
	assert.Equal(t, Idle(), m.Activity)
	assert.Equal(t, 0, m.Wait)

	m.Think(w, id)
	assert.Equal(t, Eating(EatingFinding), m.Activity)
}

func TestFindingTakesFromAdjacentLarder(t *testing.T) {
	here := world.TilePoint{X: 1, Y: 1}
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), here)
	c := addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 10)

	m := NewMind(world.Center(here), testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 3
	m.Think(w, id)

	larder := w.Containers[c].Store
	require.Len(t, m.Planned(), 1)
	assert.Equal(t, economy.Envelope{
		To:  larder,
		Msg: economy.Take(economy.Food, 3, w.Humans[id].Store),
	}, m.Planned()[0])
	require.NotNil(t, m.Target)
	assert.Equal(t, larder, *m.Target)
	assert.Equal(t, m.Params().ReplyWait, m.Wait)
}

func TestFindingPathsToDistantLarder(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 0, Y: 0})
	addLarder(w, id, world.TilePoint{X: 4, Y: 4}, 10)

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 1
	m.Think(w, id)

	assert.Empty(t, m.Planned())
	goal, ok := m.Goal()
	require.True(t, ok)
	assert.Equal(t, world.TilePoint{X: 4, Y: 4}, goal)
	assert.Equal(t, world.TilePoint{X: 0, Y: 0}, m.Path[len(m.Path)-1])
}

func TestFindingSkipsUnreachableContainer(t *testing.T) {
	cols := make([][]world.Tile, 5)
	for x := range cols {
		cols[x] = make([]world.Tile, 5)
		for y := range cols[x] {
			cols[x][y] = world.Tile{Cost: world.CostDefault}
		}
	}
	cols[4][0].Walls = [4]bool{true, true, true, true}
	g, err := world.NewGeography(5, 5, cols)
	require.NoError(t, err)

	w, id := newTestWorld(t, g, world.TilePoint{X: 2, Y: 0})
	addLarder(w, id, world.TilePoint{X: 4, Y: 0}, 10) // Nearer, walled in
	addLarder(w, id, world.TilePoint{X: 0, Y: 4}, 10)

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 1
	m.Think(w, id)

	goal, ok := m.Goal()
	require.True(t, ok)
	assert.Equal(t, world.TilePoint{X: 0, Y: 4}, goal)
}

func TestFindingWithoutFoodGivesUp(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 1, Y: 1})
	addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 0)

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 2
	m.Think(w, id)

	assert.Equal(t, Idle(), m.Activity)
	assert.True(t, m.Foodless)
	assert.Equal(t, m.Params().RetryWait, m.Wait)

	// A new day lifts the flag.
	m.Wait = 0
	w.Time.Day = 1
	w.Time.Hour = 7
	w.Humans[id].Hunger = 50
	m.Think(w, id)
	assert.False(t, m.Foodless)
	assert.Equal(t, Eating(EatingFinding), m.Activity)
}

func TestFindingEatsWhatIsHeld(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 1, Y: 1})
	w.Store(w.Humans[id].Store).GiveUpTo(economy.Food, 2)

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 4
	m.Think(w, id)

	assert.Equal(t, Eating(EatingEating), m.Activity)
	assert.Equal(t, uint32(2), m.MealSize)
}

func TestBreakfastEndToEnd(t *testing.T) {
	here := world.TilePoint{X: 1, Y: 1}
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), here)
	c := addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 10)
	w.Time.Hour = 7
	h := w.Humans[id]
	h.Hunger = 85

	m := NewMind(world.Center(here), testParams(), 1)
	for i := 0; i < 30 && !m.HadBreakfast; i++ {
		runTick(w, m, id)
	}

	require.True(t, m.HadBreakfast)
	assert.False(t, m.HadDinner)
	assert.Equal(t, Idle(), m.Activity)
	assert.Equal(t, uint32(5), w.Store(w.Containers[c].Store).Count(economy.Food))
	assert.Zero(t, w.Store(h.Store).Count(economy.Food))
	assert.Less(t, h.Hunger, 5.0)
}

func TestSecondMealIsDinner(t *testing.T) {
	m := NewMind(world.Vec2{}, testParams(), 1)
	m.finishMeal()
	assert.True(t, m.HadBreakfast)
	assert.False(t, m.HadDinner)
	m.finishMeal()
	assert.True(t, m.HadDinner)
}

func TestExhaustionInterruptsWork(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 1, Y: 1})
	w.Humans[id].Fatigue = 131

	m := NewMind(world.Vec2{}, testParams(), 1)
	m.Activity = Working(WorkWorking)
	m.Think(w, id)

	assert.Equal(t, Sleeping(), m.Activity)
}

func TestSleepRecoversAtHome(t *testing.T) {
	home := world.TilePoint{X: 2, Y: 2}
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), home)
	h := w.Humans[id]
	h.Fatigue = 1

	m := NewMind(world.Center(home), testParams(), 1)
	m.Activity = Sleeping()
	for i := 0; i < 50 && m.Activity == Sleeping(); i++ {
		runTick(w, m, id)
	}

	assert.Equal(t, Idle(), m.Activity)
	// Clamped to zero while resting, then one tick of drift.
	assert.InDelta(t, m.Params().FatigueRate, h.Fatigue, 1e-9)
}

func TestSleepWalksHome(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(6, 6, world.CostDefault), world.TilePoint{X: 0, Y: 0})
	h := w.Humans[id]
	h.Fatigue = 120

	home := world.TilePoint{X: 4, Y: 3}
	m := NewMind(world.Center(home), testParams(), 1)
	m.Activity = Sleeping()
	m.Think(w, id)
	goal, ok := m.Goal()
	require.True(t, ok)
	assert.Equal(t, home, goal)

	for i := 0; i < 200 && h.Tile() != home; i++ {
		runTick(w, m, id)
	}
	assert.Equal(t, home, h.Tile())
}

func TestFarmerWorkCycle(t *testing.T) {
	home := world.TilePoint{X: 1, Y: 1}
	w, id := newTestWorld(t, world.Uniform(8, 8, world.CostDefault), home)
	larder := addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 0)
	crop := w.AddCrop(world.Center(world.TilePoint{X: 5, Y: 1}), economy.Units(100))
	w.Store(w.Crops[crop].Store).GiveUpTo(economy.Food, 30)
	h := w.Humans[id]
	h.Job = world.Job{Kind: world.JobFarmer, Crop: crop}
	w.Time.Hour = 8

	params := testParams()
	params.WorkDuration = 10
	m := NewMind(world.Center(home), params, 1)
	m.HadBreakfast, m.HadDinner = true, true

	seen := map[Activity]bool{}
	for i := 0; i < 500; i++ {
		runTick(w, m, id)
		seen[m.Activity] = true
		if seen[Working(WorkStoring)] && m.Activity == Idle() {
			break
		}
	}

	assert.True(t, seen[Working(WorkCommuting)])
	assert.True(t, seen[Working(WorkWorking)])
	assert.True(t, seen[Working(WorkStoring)])
	assert.Equal(t, Idle(), m.Activity)
	assert.Equal(t, uint32(10), m.WorkProgress)
	assert.Equal(t, uint32(20), w.Store(w.Containers[larder].Store).Count(economy.Food))
	assert.Equal(t, uint32(10), w.Store(w.Crops[crop].Store).Count(economy.Food))
	assert.Zero(t, w.Store(h.Store).Count(economy.Food))

	// Work happens once a day.
	for i := 0; i < 20; i++ {
		runTick(w, m, id)
	}
	assert.NotEqual(t, KindWorking, m.Activity.Kind)
}

func TestHarvestIntoSmallStoreKeepsFood(t *testing.T) {
	home := world.TilePoint{X: 1, Y: 1}
	w, id := newTestWorld(t, world.Uniform(8, 8, world.CostDefault), home)
	larder := addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 0)
	crop := w.AddCrop(world.Center(world.TilePoint{X: 5, Y: 1}), economy.Units(100))
	w.Store(w.Crops[crop].Store).GiveUpTo(economy.Food, 30)
	h := w.Humans[id]
	h.Store = w.Stores.Create(economy.Units(10))
	h.Job = world.Job{Kind: world.JobFarmer, Crop: crop}
	w.Time.Hour = 8

	params := testParams()
	params.WorkDuration = 10
	m := NewMind(world.Center(home), params, 1)
	m.HadBreakfast, m.HadDinner = true, true

	food := func() uint32 {
		return w.Store(w.Crops[crop].Store).Count(economy.Food) +
			w.Store(w.Containers[larder].Store).Count(economy.Food) +
			w.Store(h.Store).Count(economy.Food)
	}
	inFlight := func() int {
		return w.Store(w.Crops[crop].Store).Pending() +
			w.Store(w.Containers[larder].Store).Pending() +
			w.Store(h.Store).Pending()
	}

	stored := false
	for i := 0; i < 500; i++ {
		runTick(w, m, id)
		if inFlight() == 0 {
			require.Equal(t, uint32(30), food(), "tick %d", i)
		}
		if m.Activity == Working(WorkStoring) {
			stored = true
		}
		if stored && m.Activity == Idle() {
			break
		}
	}

	require.True(t, stored)
	assert.Zero(t, inFlight())
	assert.Equal(t, uint32(30), food())
	assert.Equal(t, uint32(10), w.Store(w.Containers[larder].Store).Count(economy.Food))
	assert.Equal(t, uint32(20), w.Store(w.Crops[crop].Store).Count(economy.Food))
	assert.Zero(t, w.Store(h.Store).Count(economy.Food))
}

func TestHarvestWithFullStoreTakesNothing(t *testing.T) {
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), world.TilePoint{X: 1, Y: 1})
	crop := w.AddCrop(world.Center(world.TilePoint{X: 1, Y: 2}), economy.Units(100))
	h := w.Humans[id]
	h.Store = w.Stores.Create(economy.Units(3))
	w.Store(h.Store).GiveUpTo(economy.Food, 3)
	h.Job = world.Job{Kind: world.JobFarmer, Crop: crop}

	params := testParams()
	params.WorkDuration = 1
	m := NewMind(world.Vec2{}, params, 1)
	m.Activity = Working(WorkWorking)
	m.WorkProgress = 1
	m.Think(w, id)

	assert.Empty(t, m.Planned())
	assert.Equal(t, Working(WorkStoring), m.Activity)
}

func TestMealIntoSmallStoreKeepsFood(t *testing.T) {
	here := world.TilePoint{X: 1, Y: 1}
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), here)
	c := addLarder(w, id, world.TilePoint{X: 1, Y: 2}, 10)
	h := w.Humans[id]
	h.Store = w.Stores.Create(economy.Units(2))

	m := NewMind(world.Center(here), testParams(), 1)
	m.Activity = Eating(EatingFinding)
	m.MealSize = 5
	m.Think(w, id)

	require.Len(t, m.Planned(), 1)
	assert.Equal(t, economy.Take(economy.Food, 2, h.Store), m.Planned()[0].Msg)

	for i := 0; i < 30 && !m.HadBreakfast; i++ {
		runTick(w, m, id)
	}
	require.True(t, m.HadBreakfast)
	assert.Equal(t, uint32(8), w.Store(w.Containers[c].Store).Count(economy.Food), "only what fit was taken")
	assert.Zero(t, w.Store(h.Store).Count(economy.Food))
}

func TestSleepRecoversOnlyOnceStill(t *testing.T) {
	home := world.TilePoint{X: 2, Y: 2}
	w, id := newTestWorld(t, world.Uniform(5, 5, world.CostDefault), home)
	h := w.Humans[id]
	h.Location = world.Vec2{X: 2.2, Y: 2.2} // On the home tile, off its centre
	h.Fatigue = 50

	m := NewMind(world.Center(home), testParams(), 1)
	m.Activity = Sleeping()
	runTick(w, m, id)

	assert.InDelta(t, 50+m.Params().FatigueRate, h.Fatigue, 1e-9, "no recovery while walking")
	assert.NotEmpty(t, m.Path)

	for i := 0; i < 10; i++ {
		runTick(w, m, id)
	}
	assert.Less(t, h.Fatigue, 50.0)
	assert.InDelta(t, 2.5, h.Location.X, 1e-9)
	assert.InDelta(t, 2.5, h.Location.Y, 1e-9)
}

func TestActDriftsNeeds(t *testing.T) {
	p := testParams()
	m := NewMind(world.Vec2{}, p, 1)
	h := &world.Human{Hunger: 100}
	var out economy.Outbox
	m.Act(h, &out)

	assert.InDelta(t, 100+p.HungerRate/2, h.Hunger, 1e-9)
	assert.InDelta(t, p.FatigueRate, h.Fatigue, 1e-9)
	assert.Zero(t, out.Len())
}
