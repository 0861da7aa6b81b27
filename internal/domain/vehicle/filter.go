package vehicle

import "strings"

// DefaultPageSize is the list page size when the request does not set one.
const DefaultPageSize = 10

// Filter narrows a vehicle list. Search is a substring match over vehicle
// number, chassis number, importer name, and buyer name; Province and
// Category are exact matches when set.
type Filter struct {
	Search   string
	Province string
	Category string
}

// Zero reports whether the filter matches everything.
func (f Filter) Zero() bool {
	return f.Search == "" && f.Province == "" && f.Category == ""
}

// Apply returns the vehicles matching the filter, preserving order.
func (f Filter) Apply(vehicles []Vehicle) []Vehicle {
	if f.Zero() {
		return vehicles
	}
	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if f.matches(v) {
			out = append(out, v)
		}
	}
	return out
}

func (f Filter) matches(v Vehicle) bool {
	if f.Province != "" && v.Province != f.Province {
		return false
	}
	if f.Category != "" && v.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, hay := range []string{v.VehicleNumber, v.ChassisNumber, v.ImporterName, v.BuyerName} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Page is one page of a filtered list.
type Page struct {
	Items      []Vehicle
	Number     int
	TotalPages int
	TotalItems int
}

// Paginate slices the list into the requested page. Page numbers are
// 1-based; out-of-range pages clamp to the nearest valid page. An empty
// list yields a single empty page.
func Paginate(vehicles []Vehicle, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	total := len(vehicles)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      vehicles[start:end],
		Number:     page,
		TotalPages: totalPages,
		TotalItems: total,
	}
}
