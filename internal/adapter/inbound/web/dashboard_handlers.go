package web

import (
	"net/http"

	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// recentCount is how many of the newest vehicles the dashboard lists.
const recentCount = 5

// dashboardData feeds the dashboard template.
type dashboardData struct {
	Username string
	Stats    vehicle.Stats
	Recent   []vehicle.Vehicle
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	all, err := h.fetchAllVehicles(r)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.render(w, r, "dashboard.html", dashboardData{
		Username: h.sessions.Snapshot().Username,
		Stats:    vehicle.ComputeStats(all),
		Recent:   vehicle.Recent(all, recentCount),
	})
}

func (h *Handler) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	all, err := h.fetchAllVehicles(r)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"stats":  vehicle.ComputeStats(all),
		"recent": vehicle.Recent(all, recentCount),
	})
}
