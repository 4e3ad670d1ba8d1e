// Household spawning: creates the humans, minds, and stores of a farmstead.
package agents

import (
	"math/rand"

	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

// Household sizes the stores and occupants of a spawned farmstead.
type Household struct {
	PersonalCapacity economy.Weight // Each human's own store
	LarderCapacity   economy.Weight
	FieldCapacity    economy.Weight
	StartingFood     uint32 // Placed in the larder
	StartingWater    uint32 // Placed in the field
	Residents        int    // Jobless humans sharing the larder
}

// Spawned pairs a new human with its mind.
type Spawned struct {
	ID   world.HumanID
	Mind *Mind
}

// Spawner creates households for the simulation.
type Spawner struct {
	rng    *rand.Rand
	params Params
}

// NewSpawner creates a spawner with the given seed. Every mind it creates
// runs with params.
func NewSpawner(seed int64, params Params) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		params: params,
	}
}

// SpawnFarmstead adds f's larder, field, farmer, and residents to w. The
// farmer works the field; everyone in the household owns the larder. The
// farmer is always first in the result.
func (s *Spawner) SpawnFarmstead(w *world.World, f world.Farmstead, hh Household) []Spawned {
	larder := w.AddContainer(world.Center(f.Larder), hh.LarderCapacity)
	w.Store(w.Containers[larder].Store).GiveUpTo(economy.Food, hh.StartingFood)

	field := w.AddCrop(world.Center(f.Field), hh.FieldCapacity)
	w.Store(w.Crops[field].Store).GiveUpTo(economy.Water, hh.StartingWater)

	out := make([]Spawned, 0, 1+hh.Residents)
	out = append(out, s.spawnOne(w, f, larder, hh, world.Job{Kind: world.JobFarmer, Crop: field}))
	for i := 0; i < hh.Residents; i++ {
		out = append(out, s.spawnOne(w, f, larder, hh, world.Job{}))
	}
	return out
}

func (s *Spawner) spawnOne(w *world.World, f world.Farmstead, larder world.ContainerID, hh Household, job world.Job) Spawned {
	home := world.Center(f.Home)
	h := &world.Human{
		Name:       s.givenName() + " " + f.Name,
		Location:   home,
		Store:      w.Stores.Create(hh.PersonalCapacity),
		Hunger:     s.rng.Float64() * 20,
		Fatigue:    s.rng.Float64() * 20,
		Containers: []world.ContainerID{larder},
		Job:        job,
	}
	id := w.AddHuman(h)
	return Spawned{ID: id, Mind: NewMind(home, s.params, s.rng.Int63())}
}

func (s *Spawner) givenName() string {
	return givenNames[s.rng.Intn(len(givenNames))]
}

var givenNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Jasper", "Leif", "Magnus", "Oswin", "Rowan", "Ulric",
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Kira", "Lena", "Mira", "Olwen", "Petra", "Runa",
}
