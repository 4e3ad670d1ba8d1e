package agents

// Params holds the behaviour constants of a mind. Hours are simulated hours;
// rates are per logic tick.
type Params struct {
	BreakfastHour int `yaml:"breakfast_hour"`
	DinnerHour    int `yaml:"dinner_hour"`
	WorkStartHour int `yaml:"work_start_hour"`

	HungerThreshold     float64 `yaml:"hunger_threshold"`     // Eat regardless of the hour above this
	FatigueThreshold    float64 `yaml:"fatigue_threshold"`    // Go to bed from idle above this
	ExhaustionThreshold float64 `yaml:"exhaustion_threshold"` // Drop everything and sleep above this

	HungerRate    float64 `yaml:"hunger_rate"`     // Baseline hunger drift
	FatigueRate   float64 `yaml:"fatigue_rate"`    // Fatigue drift
	Nourishment   float64 `yaml:"nourishment"`     // Hunger removed per unit of food
	HungerPerMeal float64 `yaml:"hunger_per_meal"` // Hunger covered by each unit of a planned meal
	SleepRecovery float64 `yaml:"sleep_recovery"`  // Fatigue removed per tick asleep at home

	WanderChance float64 `yaml:"wander_chance"` // Per idle tick
	WanderSpread float64 `yaml:"wander_spread"` // Std dev of the wander offset, in tiles

	WorkDuration uint32  `yaml:"work_duration"` // Ticks of work before a harvest
	HarvestSize  uint32  `yaml:"harvest_size"`  // Food requested from the crop per harvest
	Speed        float64 `yaml:"speed"`         // Tiles per logic tick

	ReplyWait int `yaml:"reply_wait"` // Ticks to wait for a transfer reply
	RetryWait int `yaml:"retry_wait"` // Ticks to wait after a failed search
}

// DefaultParams returns the standard village tuning.
func DefaultParams() Params {
	return Params{
		BreakfastHour: 6,
		DinnerHour:    18,
		WorkStartHour: 8,

		HungerThreshold:     80,
		FatigueThreshold:    110,
		ExhaustionThreshold: 130,

		HungerRate:    0.05,
		FatigueRate:   0.04,
		Nourishment:   20,
		HungerPerMeal: 20,
		SleepRecovery: 0.12,

		WanderChance: 0.01,
		WanderSpread: 3,

		WorkDuration: 720,
		HarvestSize:  20,
		Speed:        0.25,

		ReplyWait: 1,
		RetryWait: 30,
	}
}

// drift applies the passive per-tick rise in hunger and fatigue. Hunger grows
// more slowly the hungrier the human already is.
func (p Params) drift(hunger, fatigue float64) (float64, float64) {
	hunger += p.HungerRate / (1 + hunger/100)
	fatigue += p.FatigueRate
	return hunger, fatigue
}

// mealSize returns how many units of food a meal at this hunger takes.
func (p Params) mealSize(hunger float64) uint32 {
	if p.HungerPerMeal <= 0 || hunger <= 0 {
		return 1
	}
	return 1 + uint32(hunger/p.HungerPerMeal)
}

// wantsMeal reports whether an idle mind should go looking for food.
func (m *Mind) wantsMeal(hour int, hunger float64) bool {
	if m.Foodless {
		return false
	}
	if hunger > m.params.HungerThreshold {
		return true
	}
	if hour >= m.params.BreakfastHour && !m.HadBreakfast {
		return true
	}
	return hour >= m.params.DinnerHour && !m.HadDinner
}

// finishMeal records a completed meal: the first of the day is breakfast,
// the second dinner.
func (m *Mind) finishMeal() {
	if !m.HadBreakfast {
		m.HadBreakfast = true
	} else {
		m.HadDinner = true
	}
	m.MealSize = 0
}

// newDay clears the per-day bookkeeping.
func (m *Mind) newDay(day int) {
	m.Day = day
	m.HadBreakfast = false
	m.HadDinner = false
	m.WorkProgress = 0
	m.Foodless = false
}
