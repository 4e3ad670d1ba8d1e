// Package weather provides the daily sun and rain that drive crop growth.
// The climate is a smoothed random walk: each day keeps two thirds of
// yesterday's value and mixes in a normally distributed shock.
package weather

import "math/rand"

const (
	// Shock is the standard deviation of the daily weather shock.
	Shock = 10.0
	// Unit is the climate value per point of sun or rain.
	Unit = 2.0
)

// Weather holds the current climate value and the derived daily inputs.
type Weather struct {
	Current float64 `json:"current"` // Positive = sunny, negative = wet
	Sun     uint32  `json:"sun"`
	Rain    uint32  `json:"rain"`
}

// Update advances the weather by one day using rng.
func (w *Weather) Update(rng *rand.Rand) {
	w.Set((w.Current*2 + rng.NormFloat64()*Shock) / 3)
}

// Set fixes the climate value and recomputes sun and rain from it.
func (w *Weather) Set(current float64) {
	w.Current = current
	if current > 0 {
		w.Sun = uint32(current / Unit)
		w.Rain = 0
	} else {
		w.Rain = uint32(-current / Unit)
		w.Sun = 0
	}
}

// Description returns a short label for observers.
func (w Weather) Description() string {
	switch {
	case w.Sun >= 2:
		return "blazing sun"
	case w.Sun == 1:
		return "sunny"
	case w.Rain >= 2:
		return "heavy rain"
	case w.Rain == 1:
		return "showers"
	case w.Current >= 0:
		return "fair"
	default:
		return "overcast"
	}
}
