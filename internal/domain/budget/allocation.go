package budget

import (
	"maps"

	"github.com/ganot/wardbudget/internal/domain/proposal"
)

// Allocation is a what-if split of the ward budget by category, in percent.
type Allocation map[proposal.Category]int

// DefaultAllocation returns the simulator's starting split.
func DefaultAllocation() Allocation {
	return Allocation{
		proposal.CategoryRoads:    40,
		proposal.CategoryDrainage: 20,
		proposal.CategoryParks:    15,
		proposal.CategoryLighting: 15,
		proposal.CategorySafety:   10,
	}
}

// Set stores a category's share clamped to 0..100.
func (a Allocation) Set(category proposal.Category, percent int) error {
	if !category.Valid() {
		return proposal.ErrInvalidCategory
	}
	a[category] = min(max(percent, 0), 100)
	return nil
}

// Clone returns an independent copy.
func (a Allocation) Clone() Allocation {
	return maps.Clone(a)
}

// Amounts converts each share of total to crores.
func (a Allocation) Amounts(total float64) map[proposal.Category]float64 {
	out := make(map[proposal.Category]float64, len(a))
	for category, percent := range a {
		out[category] = total * float64(percent) / 100
	}
	return out
}
