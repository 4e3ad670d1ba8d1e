// Package agents provides the mind that drives each human: a finite-state
// controller split into a read-only think phase and a mutating act phase.
package agents

import (
	"math/rand"

	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/world"
)

// ActivityKind is the top-level behaviour state.
type ActivityKind uint8

const (
	KindIdle ActivityKind = iota
	KindEating
	KindSleeping
	KindWorking
)

// EatingState is the sub-state of KindEating.
type EatingState uint8

const (
	EatingFinding EatingState = iota // Looking for food to fetch
	EatingEating                     // Consuming from own store
)

// WorkState is the sub-state of KindWorking.
type WorkState uint8

const (
	WorkCommuting WorkState = iota // Walking to the job site
	WorkWorking                    // Accumulating work progress
	WorkStoring                    // Carrying the harvest to a container
)

// Activity is a closed tagged union: Kind selects which sub-state field, if
// any, is meaningful. Build values with the constructors so unused fields stay
// zero and activities compare with ==.
type Activity struct {
	Kind   ActivityKind `json:"kind"`
	Eating EatingState  `json:"eating,omitempty"`
	Work   WorkState    `json:"work,omitempty"`
}

func Idle() Activity { return Activity{Kind: KindIdle} }
func Eating(s EatingState) Activity { return Activity{Kind: KindEating, Eating: s} }
func Sleeping() Activity { return Activity{Kind: KindSleeping} }
func Working(s WorkState) Activity { return Activity{Kind: KindWorking, Work: s} }

// String returns the activity label shown to observers.
func (a Activity) String() string {
	switch a.Kind {
	case KindIdle:
		return "Idle"
	case KindEating:
		switch a.Eating {
		case EatingFinding:
			return "Eating(Finding)"
		case EatingEating:
			return "Eating(Eating)"
		}
	case KindSleeping:
		return "Sleeping"
	case KindWorking:
		switch a.Work {
		case WorkCommuting:
			return "Working(Commuting)"
		case WorkWorking:
			return "Working(Working)"
		case WorkStoring:
			return "Working(Storing)"
		}
	}
	return "Unknown"
}

// Mind is the controller paired with one Human (same index in the world).
//
// Target and Wait are a speculative cache of in-flight intents, not
// reservations: a store named by Target may have changed by the time a reply
// lands, and every think re-derives the real situation from the world.
type Mind struct {
	Path         []world.TilePoint `json:"path"` // Goal first; walked by popping from the end
	Activity     Activity          `json:"activity"`
	Home         world.Vec2        `json:"home"`
	HadBreakfast bool              `json:"had_breakfast"`
	HadDinner    bool              `json:"had_dinner"`
	MealSize     uint32            `json:"meal_size"`
	WorkProgress uint32            `json:"work_progress"`
	Target       *economy.StoreID  `json:"target,omitempty"`
	Wait         int               `json:"wait"`
	Intent       world.Vec2        `json:"intent"` // Displacement per logic tick

	// Foodless is set when a meal search found nothing and cleared once a
	// harvest is stored or a new day starts.
	Foodless bool `json:"foodless"`
	Day      int  `json:"day"` // Day number the meal and work flags belong to

	params Params
	rng    *rand.Rand

	// Decided in think, carried out in act.
	plan    []economy.Envelope
	bites   uint32
	resting bool
}

// NewMind creates an idle mind whose home is home.
func NewMind(home world.Vec2, params Params, seed int64) *Mind {
	return &Mind{
		Activity: Idle(),
		Home:     home,
		params:   params,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Params returns the behaviour constants the mind runs with.
func (m *Mind) Params() Params {
	return m.params
}

// Planned returns the transfers the next act will send.
func (m *Mind) Planned() []economy.Envelope {
	return m.plan
}

// Goal returns the final tile of the current path.
func (m *Mind) Goal() (world.TilePoint, bool) {
	if len(m.Path) == 0 {
		return world.TilePoint{}, false
	}
	return m.Path[0], true
}

func (m *Mind) setActivity(a Activity) {
	m.Activity = a
	m.Path = nil
}
