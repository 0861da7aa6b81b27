package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// reportData feeds the reports template.
type reportData struct {
	Username string
	Stats    vehicle.Stats
	Query    listQuery
	Error    string
}

func (h *Handler) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)
	all, err := h.fetchAllVehicles(r)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}

	data := reportData{
		Username: h.sessions.Snapshot().Username,
		Query:    query,
	}
	matched, err := h.selectVehicles(all, query)
	if err != nil {
		data.Error = err.Error()
		matched = query.Filter.Apply(all)
	}
	data.Stats = vehicle.ComputeStats(matched)

	h.render(w, r, "reports.html", data)
}

// handleReportCSV streams the current selection as a CSV download. The
// same query parameters as the list page apply, so a filtered view
// exports exactly what it shows.
func (h *Handler) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)
	all, err := h.fetchAllVehicles(r)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	matched, err := h.selectVehicles(all, query)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename := fmt.Sprintf("fleet-report-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := vehicle.WriteCSV(w, matched); err != nil {
		h.loggerFrom(r.Context()).Error("write csv report", "error", err)
	}
}
