// Package web serves the fleetdesk console: the HTML pages, the JSON API
// under /api/, and the operational endpoints. Every protected route is
// re-checked against the session on each request.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/audit"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/cel"
	"github.com/fleetdesk/fleetdesk/internal/domain/session"
	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the slice of the fleet API client the console uses.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
	ListVehicles(ctx context.Context, skip, limit int) ([]vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*vehicle.Vehicle, error)
	CreateVehicle(ctx context.Context, input vehicle.Input) (*vehicle.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, update vehicle.Update) (*vehicle.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error
	InvalidateCache()
}

// AuditLog is the local audit trail: the console reads recent events and
// records vehicle writes. Nil when auditing is disabled.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
	Record(ctx context.Context, kind, subject, detail string)
}

// Handler serves the console HTTP surface.
type Handler struct {
	sessions  *session.Service
	backend   Backend
	evaluator *cel.Evaluator
	auditLog  AuditLog
	logger    *slog.Logger
	metrics   *Metrics
	registry  *prometheus.Registry
	templates *template.Template
	pageSize  int
}

// NewHandler builds the console handler. auditLog may be nil.
func NewHandler(sessions *session.Service, backend Backend, evaluator *cel.Evaluator, auditLog AuditLog, logger *slog.Logger, pageSize int) (*Handler, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = vehicle.DefaultPageSize
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry, func() bool {
		return sessions.Snapshot().Authenticated
	})
	return &Handler{
		sessions:  sessions,
		backend:   backend,
		evaluator: evaluator,
		auditLog:  auditLog,
		logger:    logger,
		metrics:   metrics,
		registry:  registry,
		templates: tmpl,
		pageSize:  pageSize,
	}, nil
}

// Routes builds the console mux. Login, register, health, and metrics
// are public; everything else goes through the session gate.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("POST /login", h.handleLoginSubmit)
	mux.HandleFunc("GET /register", h.handleRegisterPage)
	mux.HandleFunc("POST /register", h.handleRegisterSubmit)
	mux.HandleFunc("GET /logout", h.handleLogout)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/session", h.handleSessionInfo)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	protected.HandleFunc("GET /dashboard", h.handleDashboard)
	protected.HandleFunc("GET /vehicles", h.handleVehicleList)
	protected.HandleFunc("GET /vehicles/new", h.handleVehicleNew)
	protected.HandleFunc("POST /vehicles/new", h.handleVehicleCreate)
	protected.HandleFunc("GET /vehicles/edit/{id}", h.handleVehicleEdit)
	protected.HandleFunc("POST /vehicles/edit/{id}", h.handleVehicleUpdate)
	protected.HandleFunc("GET /vehicles/{id}", h.handleVehicleDetail)
	protected.HandleFunc("POST /vehicles/{id}/delete", h.handleVehicleDeleteForm)
	protected.HandleFunc("GET /reports", h.handleReportsPage)
	protected.HandleFunc("GET /reports.csv", h.handleReportCSV)

	protected.HandleFunc("GET /api/dashboard", h.handleDashboardAPI)
	protected.HandleFunc("GET /api/vehicles", h.handleVehiclesAPI)
	protected.HandleFunc("POST /api/vehicles", h.handleVehicleCreateAPI)
	protected.HandleFunc("GET /api/vehicles/{id}", h.handleVehicleGetAPI)
	protected.HandleFunc("PUT /api/vehicles/{id}", h.handleVehicleUpdateAPI)
	protected.HandleFunc("DELETE /api/vehicles/{id}", h.handleVehicleDeleteAPI)
	protected.HandleFunc("GET /api/audit", h.handleAuditAPI)

	mux.Handle("/", h.requireSession(protected))

	return h.instrument(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"session": h.sessions.Snapshot().State.String(),
	})
}

// handleSessionInfo reports the session state without token material.
// Public so the UI can poll it before the gate would let it anywhere.
func (h *Handler) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	info := map[string]any{
		"state":         snap.State.String(),
		"authenticated": snap.Authenticated,
	}
	if snap.Authenticated {
		info["username"] = snap.Username
		if snap.Claims != nil {
			info["expires_at"] = snap.Claims.ExpiresAt
		}
	}
	h.respondJSON(w, http.StatusOK, info)
}

// render writes an HTML page from the named template.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.loggerFrom(r.Context()).Error("render template", "template", name, "error", err)
	}
}
