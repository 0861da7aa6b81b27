package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdesk/fleetdesk/internal/ctxkey"
)

// statusRecorder wraps http.ResponseWriter to capture the status code for
// logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// instrument attaches a request ID, an enriched logger, request logging,
// and Prometheus instrumentation to every request. Scrape and health
// endpoints are logged at debug only to keep the log readable.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		logger := h.logger.With(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		ctx := context.WithValue(r.Context(), ctxkey.LoggerKey{}, logger)

		rec := &statusRecorder{ResponseWriter: w}
		rec.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := routeLabel(r)
		h.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			level = slog.LevelDebug
		}
		logger.Log(r.Context(), level, "request",
			slog.Int("status", rec.status),
			slog.Duration("duration", elapsed),
		)
	})
}

// routeLabel returns the matched route pattern for metrics labels,
// falling back to the raw path when the mux found no pattern. Using the
// pattern keeps label cardinality bounded: /vehicles/17 and /vehicles/42
// both count under "/vehicles/{id}".
func routeLabel(r *http.Request) string {
	p := r.Pattern
	if p == "" {
		return r.URL.Path
	}
	// Pattern carries the method prefix ("GET /vehicles/{id}"); the
	// method is already its own label.
	if _, path, ok := strings.Cut(p, " "); ok {
		return path
	}
	return p
}

// loggerFrom returns the request-scoped logger, or the handler's base
// logger when middleware did not run (tests calling handlers directly).
func (h *Handler) loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return h.logger
}
