package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/fleetapi"
)

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, detail string) {
	h.respondJSON(w, status, map[string]string{"detail": detail})
}

// backendErrorMessage is the inline-form variant of respondBackendError:
// a short message suitable for rendering next to the form.
func backendErrorMessage(err error) string {
	var apiErr *fleetapi.APIError
	switch {
	case errors.Is(err, fleetapi.ErrUnauthorized):
		return "session expired, log in again"
	case errors.Is(err, fleetapi.ErrUnreachable):
		return "backend unreachable, try again"
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	default:
		return "request failed"
	}
}

// respondBackendError maps a backend failure onto the console's own
// status. Unauthorized is 401 (the transport already forced the logout);
// an unreachable backend is 502; backend status codes pass through.
func (h *Handler) respondBackendError(w http.ResponseWriter, err error) {
	var apiErr *fleetapi.APIError
	switch {
	case errors.Is(err, fleetapi.ErrUnauthorized):
		h.metrics.BackendErrors.WithLabelValues("unauthorized").Inc()
		h.respondError(w, http.StatusUnauthorized, "session expired, log in again")
	case errors.Is(err, fleetapi.ErrUnreachable):
		h.metrics.BackendErrors.WithLabelValues("unreachable").Inc()
		h.respondError(w, http.StatusBadGateway, "backend unreachable")
	case errors.As(err, &apiErr):
		h.metrics.BackendErrors.WithLabelValues("api").Inc()
		h.respondError(w, apiErr.Status, apiErr.Detail)
	default:
		h.metrics.BackendErrors.WithLabelValues("internal").Inc()
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
