package engine

import (
	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/weather"
	"github.com/talgya/homestead/internal/world"
)

// Snapshot is a read-only copy of the observable world, built on the
// simulation goroutine and safe to hand to any reader.
type Snapshot struct {
	Tick    uint64          `json:"tick"`
	Date    string          `json:"date"`
	Time    world.Time      `json:"time"`
	Weather weather.Weather `json:"weather"`
	Humans  []HumanView     `json:"humans"`
	Stores  []StoreView     `json:"stores"`
	Stats   SimStats        `json:"stats"`
}

// HumanView is one human and the observable parts of its mind.
type HumanView struct {
	ID       world.HumanID    `json:"id"`
	Name     string           `json:"name"`
	Location world.Vec2       `json:"location"`
	Tile     world.TilePoint  `json:"tile"`
	Activity string           `json:"activity"`
	Job      string           `json:"job"`
	Hunger   float64          `json:"hunger"`
	Fatigue  float64          `json:"fatigue"`
	Store    economy.StoreID  `json:"store"`
	Goal     *world.TilePoint `json:"goal,omitempty"`
	PathLen  int              `json:"path_len"`
	PathCost uint32           `json:"path_cost"` // Edge cost left to walk
	Wait     int              `json:"wait"`
}

// StoreView is one store's contents.
type StoreView struct {
	ID       economy.StoreID   `json:"id"`
	Items    map[string]uint32 `json:"items"`
	Weight   float64           `json:"weight"`
	Capacity float64           `json:"capacity"`
	Pending  int               `json:"pending"`
}

// Snapshot returns the most recently published snapshot, or nil before the
// first publish.
func (s *Simulation) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Publish builds a snapshot of the current state and makes it visible to
// readers. It must be called from the goroutine that steps the simulation.
func (s *Simulation) Publish() *Snapshot {
	w := s.World
	snap := &Snapshot{
		Tick:    w.Time.Ticks,
		Date:    w.Time.String(),
		Time:    w.Time,
		Weather: w.Weather,
		Humans:  make([]HumanView, len(w.Humans)),
		Stores:  make([]StoreView, w.Stores.Len()),
		Stats:   s.stats,
	}
	for i, h := range w.Humans {
		m := s.Minds[i]
		v := HumanView{
			ID:       world.HumanID(i),
			Name:     h.Name,
			Location: h.Location,
			Tile:     h.Tile(),
			Activity: m.Activity.String(),
			Job:      h.Job.String(),
			Hunger:   h.Hunger,
			Fatigue:  h.Fatigue,
			Store:    h.Store,
			PathLen:  len(m.Path),
			PathCost: w.Geography.PathCost(m.Path),
			Wait:     m.Wait,
		}
		if goal, ok := m.Goal(); ok {
			v.Goal = &goal
		}
		snap.Humans[i] = v
	}
	for i, st := range w.Stores.All() {
		items := make(map[string]uint32, economy.NumItems)
		for _, item := range economy.Items() {
			if n := st.Count(item); n > 0 {
				items[item.String()] = n
			}
		}
		snap.Stores[i] = StoreView{
			ID:       economy.StoreID(i),
			Items:    items,
			Weight:   st.Weight().Float(),
			Capacity: st.Capacity().Float(),
			Pending:  st.Pending(),
		}
	}
	s.snapshot.Store(snap)
	return snap
}

// PublishPositions republishes the last snapshot with fresh human locations.
// Travel frames only move humans, so everything else, including path costs,
// is carried over from the snapshot built at the end of the logic tick.
func (s *Simulation) PublishPositions() *Snapshot {
	prev := s.snapshot.Load()
	if prev == nil || len(prev.Humans) != len(s.World.Humans) {
		return s.Publish()
	}
	snap := *prev
	snap.Humans = make([]HumanView, len(prev.Humans))
	copy(snap.Humans, prev.Humans)
	for i, h := range s.World.Humans {
		snap.Humans[i].Location = h.Location
		snap.Humans[i].Tile = h.Tile()
	}
	s.snapshot.Store(&snap)
	return &snap
}
