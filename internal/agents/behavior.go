package agents

import (
	"math"
	"sort"

	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

// Think decides the mind's next state for human id. It reads w without
// modifying it and writes only to m, so thinks for different humans may run
// concurrently. Transfers and need changes are left for Act.
func (m *Mind) Think(w *world.World, id world.HumanID) {
	m.plan = m.plan[:0]
	m.bites = 0
	m.resting = false

	h := w.Humans[id]
	if day := w.Time.DayNumber(); day != m.Day {
		m.newDay(day)
	}

	if m.Wait > 0 {
		m.Wait--
		return
	}

	if h.Fatigue > m.params.ExhaustionThreshold && m.Activity.Kind != KindSleeping {
		m.Target = nil
		m.setActivity(Sleeping())
		return
	}

	switch m.Activity.Kind {
	case KindIdle:
		m.thinkIdle(w, h)
	case KindEating:
		switch m.Activity.Eating {
		case EatingFinding:
			m.thinkFinding(w, h)
		case EatingEating:
			m.thinkEating(w, h)
		}
	case KindSleeping:
		m.thinkSleeping(w, h)
	case KindWorking:
		switch m.Activity.Work {
		case WorkCommuting:
			m.thinkCommuting(w, h)
		case WorkWorking:
			m.thinkWorking(w, h)
		case WorkStoring:
			m.thinkStoring(w, h)
		}
	}
}

func (m *Mind) thinkIdle(w *world.World, h *world.Human) {
	hour := w.Time.Hour
	switch {
	case m.wantsMeal(hour, h.Hunger):
		m.MealSize = m.params.mealSize(h.Hunger)
		m.setActivity(Eating(EatingFinding))
	case h.Job.Kind == world.JobFarmer && hour >= m.params.WorkStartHour &&
		m.WorkProgress == 0 && w.Crop(h.Job.Crop) != nil:
		m.setActivity(Working(WorkCommuting))
	case h.Fatigue > m.params.FatigueThreshold:
		m.setActivity(Sleeping())
	case len(m.Path) == 0 && m.rng.Float64() < m.params.WanderChance:
		m.wander(w.Geography, h)
	}
}

// wander sets a path to a normally distributed offset from the human's tile.
func (m *Mind) wander(g *world.Geography, h *world.Human) {
	here := h.Tile()
	goal := g.Clamp(world.TilePoint{
		X: here.X + int(math.Round(m.rng.NormFloat64()*m.params.WanderSpread)),
		Y: here.Y + int(math.Round(m.rng.NormFloat64()*m.params.WanderSpread)),
	})
	m.Path = g.FindPath(here, goal)
}

func (m *Mind) thinkFinding(w *world.World, h *world.Human) {
	held := w.Store(h.Store).Count(economy.Food)
	if held >= m.MealSize {
		m.setActivity(Eating(EatingEating))
		return
	}

	// Never ask for more than the own store can hold; the overflow of a
	// Take reply would be dropped.
	room := w.Store(h.Store).Room(economy.Food)
	c, path, adjacent, ok := m.nearestContainer(w, h, func(s *economy.Store) bool {
		return s.Count(economy.Food) > 0
	})
	switch {
	case (!ok || room == 0) && held > 0:
		// Make do with what is in hand.
		m.MealSize = held
		m.setActivity(Eating(EatingEating))
	case !ok || room == 0:
		m.Foodless = true
		m.toIdle()
		m.Wait = m.params.RetryWait
	case adjacent:
		target := c.Store
		m.Target = &target
		m.Path = nil
		m.send(c.Store, economy.Take(economy.Food, min(m.MealSize-held, room), h.Store))
		m.Wait = m.params.ReplyWait
	default:
		m.Path = path
	}
}

func (m *Mind) thinkEating(w *world.World, h *world.Human) {
	held := w.Store(h.Store).Count(economy.Food)
	if held == 0 || m.MealSize == 0 {
		m.finishMeal()
		m.toIdle()
		return
	}
	m.send(h.Store, economy.Remove(economy.Food, 1))
	m.bites = 1
}

func (m *Mind) thinkSleeping(w *world.World, h *world.Human) {
	if h.Fatigue <= 0 {
		m.toIdle()
		return
	}

	home := m.Home.Tile()
	here := h.Tile()
	switch {
	case here == home && world.Distance(h.Location, m.Home) <= arriveRadius:
		m.Path = nil
		m.resting = true
	case m.headingTo(home):
		// Recovery waits until the walk, including the last steps to the
		// centre of the home tile, is over.
	default:
		m.Path = w.Geography.FindPath(here, home)
		if m.Path == nil {
			// Home is cut off; sleep rough.
			m.resting = true
		}
	}
}

func (m *Mind) thinkCommuting(w *world.World, h *world.Human) {
	crop := w.Crop(h.Job.Crop)
	if crop == nil {
		m.toIdle()
		return
	}

	site := crop.Location.Tile()
	here := h.Tile()
	switch {
	case world.Adjacent(here, site):
		target := crop.Store
		m.Target = &target
		m.setActivity(Working(WorkWorking))
	case m.headingTo(site):
	default:
		m.Path = w.Geography.FindPath(here, site)
		if m.Path == nil {
			m.toIdle()
			m.Wait = m.params.RetryWait
		}
	}
}

func (m *Mind) thinkWorking(w *world.World, h *world.Human) {
	if m.WorkProgress < m.params.WorkDuration {
		return
	}
	// Target is only a cache; the crop record is authoritative.
	crop := w.Crop(h.Job.Crop)
	if crop == nil {
		m.toIdle()
		return
	}
	// Harvest only what the own store can carry; the rest stays in the field.
	if qty := min(m.params.HarvestSize, w.Store(h.Store).Room(economy.Food)); qty > 0 {
		m.send(crop.Store, economy.Take(economy.Food, qty, h.Store))
	}
	m.Target = nil
	m.setActivity(Working(WorkStoring))
	m.Wait = m.params.ReplyWait
}

func (m *Mind) thinkStoring(w *world.World, h *world.Human) {
	held := w.Store(h.Store).Count(economy.Food)
	if held == 0 {
		m.toIdle()
		return
	}

	c, path, adjacent, ok := m.nearestContainer(w, h, func(s *economy.Store) bool {
		return s.Room(economy.Food) > 0
	})
	switch {
	case !ok:
		m.toIdle()
	case adjacent:
		target := c.Store
		m.Target = &target
		m.Path = nil
		m.send(c.Store, economy.Give(economy.Food, held, h.Store))
		m.send(h.Store, economy.Remove(economy.Food, held))
		m.Foodless = false
		m.Wait = m.params.ReplyWait
	default:
		m.Path = path
	}
}

// nearestContainer picks the closest owned container whose store satisfies
// accept. Candidates are ranked by straight-line distance, then container id.
// A candidate that is neither adjacent nor reachable is skipped so the mind
// never commits to a container it cannot walk to.
func (m *Mind) nearestContainer(w *world.World, h *world.Human, accept func(*economy.Store) bool) (c *world.Container, path []world.TilePoint, adjacent, ok bool) {
	type candidate struct {
		id   world.ContainerID
		c    *world.Container
		dist float64
	}
	var candidates []candidate
	for _, id := range h.Containers {
		c := w.Container(id)
		if c == nil {
			continue
		}
		s := w.Store(c.Store)
		if s == nil || !accept(s) {
			continue
		}
		candidates = append(candidates, candidate{id, c, world.Distance(h.Location, c.Location)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].id < candidates[j].id
	})

	here := h.Tile()
	for _, cand := range candidates {
		site := cand.c.Location.Tile()
		if world.Adjacent(here, site) {
			return cand.c, nil, true, true
		}
		if m.headingTo(site) {
			return cand.c, m.Path, false, true
		}
		if p := w.Geography.FindPath(here, site); p != nil {
			return cand.c, p, false, true
		}
	}
	return nil, nil, false, false
}

// headingTo reports whether the current path already ends at goal.
func (m *Mind) headingTo(goal world.TilePoint) bool {
	g, ok := m.Goal()
	return ok && g == goal
}

func (m *Mind) send(to economy.StoreID, msg economy.Message) {
	m.plan = append(m.plan, economy.Envelope{To: to, Msg: msg})
}

func (m *Mind) toIdle() {
	m.Target = nil
	m.setActivity(Idle())
}
