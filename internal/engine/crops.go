// Daily weather and crop growth.
package engine

import (
	"fmt"

	"github.com/talgya/homestead/internal/economy"
)

// startDay rolls the weather and queues each crop's growth for the first
// drain of the day. Rain arrives as water; every point of sun converts one
// water into one food, so a dry spell stalls growth once the water runs out.
func (s *Simulation) startDay() {
	w := s.World
	w.Weather.Update(s.rng)
	sun, rain := w.Weather.Sun, w.Weather.Rain

	for _, c := range w.Crops {
		if rain > 0 {
			w.Stores.Enqueue(c.Store, economy.GiveOrDrop(economy.Water, rain))
		}
		for i := uint32(0); i < sun; i++ {
			w.Stores.Enqueue(c.Store, economy.Trade(economy.Food, 1, economy.Water, 1, economy.Nowhere))
		}
	}

	s.today = DailyReport{
		Day:     w.Time.DayNumber(),
		Date:    w.Time.String(),
		Weather: w.Weather.Description(),
		Sun:     sun,
		Rain:    rain,
	}
	s.emit([]Event{{
		Tick:        w.Time.Ticks,
		Date:        w.Time.String(),
		Description: fmt.Sprintf("%s (sun %d, rain %d)", w.Weather.Description(), sun, rain),
		Category:    "weather",
	}})
}
