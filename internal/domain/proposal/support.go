package proposal

// Support is the qualitative strength of community backing
type Support string

const (
	SupportNone    Support = "No Support"
	SupportGrowing Support = "Growing"
	SupportGood    Support = "Good Support"
	SupportHigh    Support = "High Support"
)

// Strength buckets a vote count.
func Strength(votes int) Support {
	switch {
	case votes > 150:
		return SupportHigh
	case votes > 100:
		return SupportGood
	case votes > 50:
		return SupportGrowing
	default:
		return SupportNone
	}
}

var estimates = map[Category]string{
	CategoryRoads:    "₹ 45 L",
	CategoryDrainage: "₹ 15 L",
	CategoryParks:    "₹ 22 L",
	CategoryLighting: "₹ 6.5 L",
	CategorySafety:   "₹ 12 L",
}

// Estimate returns the typical cost string for a category, or "" if unknown.
func Estimate(category Category) string {
	return estimates[category]
}

// Progress is the completion percentage shown for a status.
func Progress(status Status) int {
	switch status {
	case StatusCompleted:
		return 100
	case StatusFunded:
		return 75
	case StatusApproved:
		return 50
	default:
		return 33
	}
}
