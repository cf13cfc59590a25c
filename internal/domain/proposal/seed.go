package proposal

import "time"

const day = 24 * time.Hour

// Seed returns the demo collection every new ward starts with. Each call
// builds a fresh slice so wards never share backing storage.
func Seed(now time.Time) []Proposal {
	return []Proposal{
		{
			ID:          "dummy-1",
			Title:       "Repair Main Street Potholes",
			Category:    CategoryRoads,
			Description: "Fix dangerous potholes on Main Street causing accidents and damage to vehicles.",
			Cost:        "₹ 45 L",
			Votes:       234,
			Status:      StatusApproved,
			Author:      "Rajvardhan Patil",
			CreatedAt:   now.Add(-30 * day),
		},
		{
			ID:          "dummy-2",
			Title:       "New Community Park in Shahupuri",
			Category:    CategoryParks,
			Description: "Create a green space for children and families with playground equipment and benches.",
			Cost:        "₹ 22 L",
			Votes:       189,
			Status:      StatusFunded,
			Author:      "Meera Sharma",
			CreatedAt:   now.Add(-25 * day),
		},
		{
			ID:          "dummy-3",
			Title:       "Smart Street Lighting System",
			Category:    CategoryLighting,
			Description: "Install LED lights with motion sensors to save electricity and improve night safety.",
			Cost:        "₹ 6.5 L",
			Votes:       156,
			Status:      StatusPending,
			Author:      "Vikram Desai",
			CreatedAt:   now.Add(-20 * day),
		},
		{
			ID:          "dummy-4",
			Title:       "Drainage System Overhaul in Rajarampuri",
			Category:    CategoryDrainage,
			Description: "Upgrade outdated sewer lines causing waterlogging during monsoon season.",
			Cost:        "₹ 15 L",
			Votes:       142,
			Status:      StatusApproved,
			Author:      "Anjali Ghate",
			CreatedAt:   now.Add(-15 * day),
		},
		{
			ID:          "dummy-5",
			Title:       "Women Safety Patrol Initiative",
			Category:    CategorySafety,
			Description: "Increase police presence in market areas especially during evening hours.",
			Cost:        "₹ 12 L",
			Votes:       178,
			Status:      StatusPending,
			Author:      "Priya Kulkarni",
			CreatedAt:   now.Add(-10 * day),
		},
	}
}
