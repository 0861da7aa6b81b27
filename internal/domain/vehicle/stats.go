package vehicle

import "sort"

// Stats are the dashboard aggregates.
type Stats struct {
	Total          int            `json:"total_vehicles"`
	Active         int            `json:"active_vehicles"`
	TotalRemaining float64        `json:"total_remaining"`
	TotalAmount    float64        `json:"total_amount"`
	TotalPaid      float64        `json:"total_paid"`
	ByProvince     map[string]int `json:"by_province"`
	ByCategory     map[string]int `json:"by_category"`
}

// ComputeStats aggregates the full vehicle list for the dashboard.
func ComputeStats(vehicles []Vehicle) Stats {
	stats := Stats{
		ByProvince: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, v := range vehicles {
		stats.Total++
		if v.Active() {
			stats.Active++
		}
		stats.TotalRemaining += v.RemainingAmount()
		if v.Amount != nil {
			stats.TotalAmount += *v.Amount
		}
		if v.PaidAmount != nil {
			stats.TotalPaid += *v.PaidAmount
		}
		if v.Province != "" {
			stats.ByProvince[v.Province]++
		}
		if v.Category != "" {
			stats.ByCategory[v.Category]++
		}
	}
	return stats
}

// Recent returns the n newest vehicles, newest first. Vehicles without a
// created_at timestamp sort last; ties fall back to descending ID.
func Recent(vehicles []Vehicle, n int) []Vehicle {
	out := make([]Vehicle, len(vehicles))
	copy(out, vehicles)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt):
			return a.CreatedAt.After(*b.CreatedAt)
		case a.CreatedAt != nil && b.CreatedAt == nil:
			return true
		case a.CreatedAt == nil && b.CreatedAt != nil:
			return false
		default:
			return a.ID > b.ID
		}
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
