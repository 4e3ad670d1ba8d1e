package world

import (
	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/weather"
)

// Arena identifiers. Each indexes an append-only slice on World; they carry
// no ownership and are never reused.
type (
	HumanID     int
	ContainerID int
	CropID      int
)

// JobKind enumerates work assignments.
type JobKind uint8

const (
	JobNone JobKind = iota
	JobFarmer
)

// Job is a work assignment. Crop is meaningful only for farmers.
type Job struct {
	Kind JobKind `json:"kind"`
	Crop CropID  `json:"crop"`
}

// String returns the job label.
func (j Job) String() string {
	switch j.Kind {
	case JobFarmer:
		return "farmer"
	default:
		return "none"
	}
}

// Human is an agent's body: where it stands and what it feels. Hunger and
// fatigue are changed only by the paired mind's act phase.
type Human struct {
	Name       string          `json:"name"`
	Location   Vec2            `json:"location"`
	Store      economy.StoreID `json:"store"`
	Fatigue    float64         `json:"fatigue"`
	Hunger     float64         `json:"hunger"`
	Containers []ContainerID   `json:"containers"`
	Job        Job             `json:"job"`
}

// Tile returns the tile the human stands on.
func (h *Human) Tile() TilePoint {
	return h.Location.Tile()
}

// Container is a fixed store of goods, such as a household larder.
type Container struct {
	Location Vec2            `json:"location"`
	Store    economy.StoreID `json:"store"`
}

// Crop is a field whose store grows food from sun and rain.
type Crop struct {
	Location Vec2            `json:"location"`
	Store    economy.StoreID `json:"store"`
}

// World aggregates every entity the agents can perceive. During the think
// phase it is shared read-only between goroutines.
type World struct {
	Geography  *Geography
	Time       Time
	Weather    weather.Weather
	Humans     []*Human
	Containers []*Container
	Crops      []*Crop
	Stores     *economy.Stores
}

// New creates an empty world on g.
func New(g *Geography) *World {
	return &World{
		Geography: g,
		Stores:    economy.NewStores(),
	}
}

// AddHuman appends h and returns its id.
func (w *World) AddHuman(h *Human) HumanID {
	w.Humans = append(w.Humans, h)
	return HumanID(len(w.Humans) - 1)
}

// AddContainer creates a container with its own store at location.
func (w *World) AddContainer(location Vec2, capacity economy.Weight) ContainerID {
	w.Containers = append(w.Containers, &Container{
		Location: location,
		Store:    w.Stores.Create(capacity),
	})
	return ContainerID(len(w.Containers) - 1)
}

// AddCrop creates a crop with its own store at location.
func (w *World) AddCrop(location Vec2, capacity economy.Weight) CropID {
	w.Crops = append(w.Crops, &Crop{
		Location: location,
		Store:    w.Stores.Create(capacity),
	})
	return CropID(len(w.Crops) - 1)
}

// Store returns the store for id, or nil.
func (w *World) Store(id economy.StoreID) *economy.Store {
	return w.Stores.Get(id)
}

// Container returns the container for id, or nil.
func (w *World) Container(id ContainerID) *Container {
	if id < 0 || int(id) >= len(w.Containers) {
		return nil
	}
	return w.Containers[id]
}

// Crop returns the crop for id, or nil.
func (w *World) Crop(id CropID) *Crop {
	if id < 0 || int(id) >= len(w.Crops) {
		return nil
	}
	return w.Crops[id]
}
