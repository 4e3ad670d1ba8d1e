// Package economy provides resource stores and the message protocol agents
// and stores use to move items between them.
package economy

import "fmt"

// Item enumerates resource kinds.
type Item uint8

const (
	Food Item = iota
	Water
	Money
)

// NumItems is the total number of item kinds.
const NumItems = 3

// Weight is fixed-point mass in tenths of a unit, so capacity sums stay exact.
type Weight int64

// WeightScale is the number of Weight steps in one unit.
const WeightScale = 10

// Units converts a unit count to Weight, rounding to the nearest tenth.
func Units(u float64) Weight {
	if u < 0 {
		return Weight(u*WeightScale - 0.5)
	}
	return Weight(u*WeightScale + 0.5)
}

// Float returns w in units.
func (w Weight) Float() float64 {
	return float64(w) / WeightScale
}

// unitWeights holds the per-unit weight of each item.
var unitWeights = [NumItems]Weight{
	Food:  10,
	Water: 10,
	Money: 1,
}

// Weight returns the mass of one unit of the item.
func (i Item) Weight() Weight {
	if int(i) >= NumItems {
		return 0
	}
	return unitWeights[i]
}

// String returns a lowercase item name.
func (i Item) String() string {
	switch i {
	case Food:
		return "food"
	case Water:
		return "water"
	case Money:
		return "money"
	default:
		return fmt.Sprintf("item(%d)", uint8(i))
	}
}

// Items lists every item kind in declaration order.
func Items() [NumItems]Item {
	return [NumItems]Item{Food, Water, Money}
}
