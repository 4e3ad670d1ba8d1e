// World settlement: places farmsteads on a geography and spawns their
// households.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/homestead/internal/agents"
	"github.com/talgya/homestead/internal/world"
)

// PopulationConfig controls initial settlement.
type PopulationConfig struct {
	Farmsteads int
	Household  agents.Household
	Params     agents.Params
	Seed       int64
}

// Populate builds a world on g with up to cfg.Farmsteads households and
// returns it with the minds of its humans, minds[i] driving Humans[i].
func Populate(g *world.Geography, cfg PopulationConfig) (*world.World, []*agents.Mind, error) {
	sites := world.PlaceFarmsteads(g, cfg.Farmsteads, cfg.Seed)
	if len(sites) == 0 && cfg.Farmsteads > 0 {
		return nil, nil, fmt.Errorf("populate: no farmstead sites on %s", g)
	}
	if len(sites) < cfg.Farmsteads {
		slog.Warn("placed fewer farmsteads than requested", "placed", len(sites), "requested", cfg.Farmsteads)
	}

	w := world.New(g)
	spawner := agents.NewSpawner(cfg.Seed, cfg.Params)
	var minds []*agents.Mind
	for _, f := range sites {
		for _, sp := range spawner.SpawnFarmstead(w, f, cfg.Household) {
			if int(sp.ID) != len(minds) {
				return nil, nil, fmt.Errorf("populate: human %d spawned out of order", sp.ID)
			}
			minds = append(minds, sp.Mind)
		}
		slog.Debug("farmstead settled", "name", f.Name, "home", f.Home, "field", f.Field)
	}

	slog.Info("world populated",
		"farmsteads", len(sites),
		"humans", len(w.Humans),
		"stores", w.Stores.Len(),
	)
	return w, minds, nil
}
