package agents

import (
	"math"

	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

// arriveRadius is how close to the goal centre counts as arrived.
const arriveRadius = 0.05

// Act carries out the last Think for human h: needs drift, planned transfers
// are written to out, and the travel intent is refreshed. It writes only to m
// and h.
func (m *Mind) Act(h *world.Human, out *economy.Outbox) {
	h.Hunger, h.Fatigue = m.params.drift(h.Hunger, h.Fatigue)

	for _, env := range m.plan {
		out.Send(env.To, env.Msg)
	}

	if m.bites > 0 {
		h.Hunger = math.Max(0, h.Hunger-m.params.Nourishment*float64(m.bites))
		if m.bites >= m.MealSize {
			m.MealSize = 0
		} else {
			m.MealSize -= m.bites
		}
	}

	if m.Activity == Working(WorkWorking) && m.WorkProgress < m.params.WorkDuration {
		m.WorkProgress++
	}

	if m.resting {
		h.Fatigue = math.Max(0, h.Fatigue-m.params.SleepRecovery)
	}

	m.Intent = m.steer(h.Location)
}

// steer returns the displacement for the next logic tick from loc along the
// path. Intermediate tiles are crossed through the midpoint of the shared edge
// at full speed; the final tile is approached at its centre and the step is
// clipped so the human stops there.
func (m *Mind) steer(loc world.Vec2) world.Vec2 {
	here := loc.Tile()
	for len(m.Path) > 1 && m.Path[len(m.Path)-1] == here {
		m.Path = m.Path[:len(m.Path)-1]
	}
	if len(m.Path) == 0 {
		return world.Vec2{}
	}

	speed := m.params.Speed
	next := m.Path[len(m.Path)-1]
	if len(m.Path) == 1 {
		d := world.Center(next).Sub(loc)
		if next == here && d.Len() <= arriveRadius {
			m.Path = nil
			return world.Vec2{}
		}
		if d.Len() > speed {
			d = d.WithLen(speed)
		}
		return d
	}

	if !world.Adjacent(here, next) {
		// Knocked off the path; head for the tile centre.
		return world.Center(next).Sub(loc).WithLen(speed)
	}
	d := world.EdgeMidpoint(here, next).Sub(loc)
	if d.Len() == 0 {
		d = world.Center(next).Sub(loc)
	}
	return d.WithLen(speed)
}

// Travel moves h one interpolation step along the mind's intent. Calling it
// updatesPerTick times covers one logic tick of movement.
func (m *Mind) Travel(h *world.Human, updatesPerTick int) {
	if updatesPerTick < 1 {
		updatesPerTick = 1
	}
	h.Location = h.Location.Add(m.Intent.Scale(1 / float64(updatesPerTick)))
}
