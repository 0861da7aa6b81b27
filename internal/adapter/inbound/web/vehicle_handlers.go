package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// listFetchSize is the page size used when draining the backend list.
// Filtering and pagination happen console-side over the full set, the
// same way the UI has always worked.
const listFetchSize = 200

// fetchAllVehicles drains the backend list endpoint.
func (h *Handler) fetchAllVehicles(r *http.Request) ([]vehicle.Vehicle, error) {
	var all []vehicle.Vehicle
	for skip := 0; ; skip += listFetchSize {
		batch, err := h.backend.ListVehicles(r.Context(), skip, listFetchSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listFetchSize {
			return all, nil
		}
	}
}

// listQuery is the vehicle list request: plain filters, an optional CEL
// expression, and the page number.
type listQuery struct {
	Filter     vehicle.Filter
	Expression string
	Page       int
}

func parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	return listQuery{
		Filter: vehicle.Filter{
			Search:   strings.TrimSpace(q.Get("q")),
			Province: q.Get("province"),
			Category: q.Get("category"),
		},
		Expression: strings.TrimSpace(q.Get("filter")),
		Page:       page,
	}
}

// selectVehicles applies the CEL expression (if any) and the plain
// filters to the full list.
func (h *Handler) selectVehicles(all []vehicle.Vehicle, query listQuery) ([]vehicle.Vehicle, error) {
	matched := all
	if query.Expression != "" {
		var err error
		matched, err = h.evaluator.Filter(query.Expression, matched)
		if err != nil {
			return nil, fmt.Errorf("filter expression: %w", err)
		}
	}
	return query.Filter.Apply(matched), nil
}

// distinctValues collects the sorted distinct non-empty values of one
// vehicle field, for the filter dropdowns.
func distinctValues(vehicles []vehicle.Vehicle, field func(vehicle.Vehicle) string) []string {
	seen := make(map[string]struct{})
	for _, v := range vehicles {
		if val := field(v); val != "" {
			seen[val] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for val := range seen {
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}

// vehicleListData feeds the vehicles template.
type vehicleListData struct {
	Username   string
	Page       vehicle.Page
	Query      listQuery
	Provinces  []string
	Categories []string
	Error      string
}

func (h *Handler) handleVehicleList(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)
	all, err := h.fetchAllVehicles(r)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}

	data := vehicleListData{
		Username:   h.sessions.Snapshot().Username,
		Query:      query,
		Provinces:  distinctValues(all, func(v vehicle.Vehicle) string { return v.Province }),
		Categories: distinctValues(all, func(v vehicle.Vehicle) string { return v.Category }),
	}

	matched, err := h.selectVehicles(all, query)
	if err != nil {
		// A bad expression renders the unfiltered list with the error
		// inline rather than a dead end.
		data.Error = err.Error()
		matched = query.Filter.Apply(all)
	}
	data.Page = vehicle.Paginate(matched, query.Page, h.pageSize)

	h.render(w, r, "vehicles.html", data)
}

// vehicleFormData feeds the create/edit template.
type vehicleFormData struct {
	Username string
	Title    string
	Action   string
	Vehicle  vehicle.Vehicle
	Error    string
}

func (h *Handler) handleVehicleNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "vehicle_form.html", vehicleFormData{
		Username: h.sessions.Snapshot().Username,
		Title:    "Add Vehicle",
		Action:   "/vehicles/new",
	})
}

func (h *Handler) handleVehicleCreate(w http.ResponseWriter, r *http.Request) {
	input, formErr := vehicleInputFromForm(r)
	if formErr != "" {
		h.render(w, r, "vehicle_form.html", vehicleFormData{
			Username: h.sessions.Snapshot().Username,
			Title:    "Add Vehicle",
			Action:   "/vehicles/new",
			Vehicle:  vehicleFromInput(input),
			Error:    formErr,
		})
		return
	}

	created, err := h.backend.CreateVehicle(r.Context(), input)
	if err != nil {
		h.render(w, r, "vehicle_form.html", vehicleFormData{
			Username: h.sessions.Snapshot().Username,
			Title:    "Add Vehicle",
			Action:   "/vehicles/new",
			Vehicle:  vehicleFromInput(input),
			Error:    backendErrorMessage(err),
		})
		return
	}
	h.recordVehicleEvent(r, "vehicle.create", created.ID, created.VehicleNumber)
	http.Redirect(w, r, fmt.Sprintf("/vehicles/%d", created.ID), http.StatusSeeOther)
}

func (h *Handler) handleVehicleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.backend.GetVehicle(r.Context(), id)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.render(w, r, "vehicle_form.html", vehicleFormData{
		Username: h.sessions.Snapshot().Username,
		Title:    "Edit Vehicle",
		Action:   fmt.Sprintf("/vehicles/edit/%d", id),
		Vehicle:  *v,
	})
}

func (h *Handler) handleVehicleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, formErr := vehicleInputFromForm(r)
	if formErr != "" {
		v := vehicleFromInput(input)
		v.ID = id
		h.render(w, r, "vehicle_form.html", vehicleFormData{
			Username: h.sessions.Snapshot().Username,
			Title:    "Edit Vehicle",
			Action:   fmt.Sprintf("/vehicles/edit/%d", id),
			Vehicle:  v,
			Error:    formErr,
		})
		return
	}

	if _, err := h.backend.UpdateVehicle(r.Context(), id, updateFromInput(input)); err != nil {
		v := vehicleFromInput(input)
		v.ID = id
		h.render(w, r, "vehicle_form.html", vehicleFormData{
			Username: h.sessions.Snapshot().Username,
			Title:    "Edit Vehicle",
			Action:   fmt.Sprintf("/vehicles/edit/%d", id),
			Vehicle:  v,
			Error:    backendErrorMessage(err),
		})
		return
	}
	h.recordVehicleEvent(r, "vehicle.update", id, input.VehicleNumber)
	http.Redirect(w, r, fmt.Sprintf("/vehicles/%d", id), http.StatusSeeOther)
}

// vehicleDetailData feeds the detail template.
type vehicleDetailData struct {
	Username string
	Vehicle  vehicle.Vehicle
}

func (h *Handler) handleVehicleDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.backend.GetVehicle(r.Context(), id)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.render(w, r, "vehicle_detail.html", vehicleDetailData{
		Username: h.sessions.Snapshot().Username,
		Vehicle:  *v,
	})
}

func (h *Handler) handleVehicleDeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.backend.DeleteVehicle(r.Context(), id); err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.recordVehicleEvent(r, "vehicle.delete", id, "")
	http.Redirect(w, r, "/vehicles", http.StatusSeeOther)
}

// JSON API

func (h *Handler) handleVehiclesAPI(w http.ResponseWriter, r *http.Request) {
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
	page := vehicle.Paginate(matched, query.Page, h.pageSize)
	h.respondJSON(w, http.StatusOK, map[string]any{
		"items":       page.Items,
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"total_items": page.TotalItems,
	})
}

func (h *Handler) handleVehicleGetAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.backend.GetVehicle(r.Context(), id)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleVehicleCreateAPI(w http.ResponseWriter, r *http.Request) {
	var input vehicle.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	created, err := h.backend.CreateVehicle(r.Context(), input)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.recordVehicleEvent(r, "vehicle.create", created.ID, created.VehicleNumber)
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleVehicleUpdateAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var update vehicle.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	updated, err := h.backend.UpdateVehicle(r.Context(), id, update)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.recordVehicleEvent(r, "vehicle.update", id, updated.VehicleNumber)
	h.respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleVehicleDeleteAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.backend.DeleteVehicle(r.Context(), id); err != nil {
		h.respondBackendError(w, err)
		return
	}
	h.recordVehicleEvent(r, "vehicle.delete", id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAuditAPI(w http.ResponseWriter, r *http.Request) {
	if h.auditLog == nil {
		h.respondError(w, http.StatusNotFound, "audit log disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	events, err := h.auditLog.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "audit log read failed")
		return
	}
	h.respondJSON(w, http.StatusOK, events)
}

// recordVehicleEvent appends a vehicle write to the audit trail, if one
// is configured.
func (h *Handler) recordVehicleEvent(r *http.Request, kind string, id int64, detail string) {
	if h.auditLog == nil {
		return
	}
	h.auditLog.Record(r.Context(), kind, strconv.FormatInt(id, 10), detail)
}

// Form helpers

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// vehicleInputFromForm parses the create/edit form. The second return is
// a human-readable validation message, empty on success.
func vehicleInputFromForm(r *http.Request) (vehicle.Input, string) {
	if err := r.ParseForm(); err != nil {
		return vehicle.Input{}, "malformed form"
	}
	input := vehicle.Input{
		VehicleNumber: strings.TrimSpace(r.PostFormValue("vehicle_number")),
		VehicleLetter: strings.TrimSpace(r.PostFormValue("vehicle_letter")),
		Province:      strings.TrimSpace(r.PostFormValue("province")),
		Category:      strings.TrimSpace(r.PostFormValue("category")),
		ChassisNumber: strings.TrimSpace(r.PostFormValue("chassis_number")),
		ImporterName:  strings.TrimSpace(r.PostFormValue("importer_name")),
		ImporterPhone: strings.TrimSpace(r.PostFormValue("importer_phone")),
		BuyerName:     strings.TrimSpace(r.PostFormValue("buyer_name")),
		BuyerPhone:    strings.TrimSpace(r.PostFormValue("buyer_phone")),
		WorkLocation:  strings.TrimSpace(r.PostFormValue("work_location")),
		Notes:         strings.TrimSpace(r.PostFormValue("notes")),
	}
	if input.VehicleNumber == "" || input.ChassisNumber == "" {
		return input, "vehicle number and chassis number are required"
	}

	var err error
	if input.Amount, err = formAmount(r, "amount"); err != nil {
		return input, "amount must be a number"
	}
	if input.PaidAmount, err = formAmount(r, "paid_amount"); err != nil {
		return input, "paid amount must be a number"
	}
	return input, ""
}

func formAmount(r *http.Request, field string) (*float64, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, fmt.Errorf("invalid %s", field)
	}
	return &f, nil
}

// vehicleFromInput rebuilds a Vehicle for re-rendering a failed form.
func vehicleFromInput(in vehicle.Input) vehicle.Vehicle {
	return vehicle.Vehicle{
		VehicleNumber: in.VehicleNumber,
		VehicleLetter: in.VehicleLetter,
		Province:      in.Province,
		Category:      in.Category,
		ChassisNumber: in.ChassisNumber,
		Amount:        in.Amount,
		PaidAmount:    in.PaidAmount,
		ImporterName:  in.ImporterName,
		ImporterPhone: in.ImporterPhone,
		BuyerName:     in.BuyerName,
		BuyerPhone:    in.BuyerPhone,
		WorkLocation:  in.WorkLocation,
		Notes:         in.Notes,
	}
}

// updateFromInput turns the full form payload into an update that sets
// every field. The HTML form always posts the complete record.
func updateFromInput(in vehicle.Input) vehicle.Update {
	return vehicle.Update{
		VehicleNumber: &in.VehicleNumber,
		VehicleLetter: &in.VehicleLetter,
		Province:      &in.Province,
		Category:      &in.Category,
		ChassisNumber: &in.ChassisNumber,
		Amount:        in.Amount,
		PaidAmount:    in.PaidAmount,
		ImporterName:  &in.ImporterName,
		ImporterPhone: &in.ImporterPhone,
		BuyerName:     &in.BuyerName,
		BuyerPhone:    &in.BuyerPhone,
		WorkLocation:  &in.WorkLocation,
		Notes:         &in.Notes,
	}
}
