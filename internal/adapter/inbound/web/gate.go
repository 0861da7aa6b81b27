package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

// Decision is the gate's verdict for a protected route.
type Decision int

const (
	// DecisionPending means the session has not resolved yet; render
	// nothing terminal. Redirecting here would bounce an operator with a
	// perfectly good stored token through the login page.
	DecisionPending Decision = iota
	// DecisionAllow lets the request through.
	DecisionAllow
	// DecisionRedirect sends the request to the login page, carrying the
	// attempted path so login can return there.
	DecisionRedirect
)

// String returns the decision name for logging and metrics labels.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// GateResult is a gate verdict plus the redirect target when applicable.
type GateResult struct {
	Decision Decision
	// RedirectTo is the login URL with the attempted path attached.
	// Only set for DecisionRedirect.
	RedirectTo string
	// From is the attempted path carried into the redirect.
	From string
}

// EvaluateGate decides whether a protected route may render given the
// current session. It is pure and re-evaluated on every request; the
// verdict is never cached.
func EvaluateGate(snap session.Snapshot, requested string) GateResult {
	if snap.State == session.StateLoading {
		return GateResult{Decision: DecisionPending}
	}
	if snap.Authenticated {
		return GateResult{Decision: DecisionAllow}
	}
	return GateResult{
		Decision:   DecisionRedirect,
		RedirectTo: "/login?from=" + url.QueryEscape(requested),
		From:       requested,
	}
}

// requireSession is the gate middleware for protected routes. API routes
// get a JSON 401 instead of a redirect; browsers follow the redirect to
// the login page.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := EvaluateGate(h.sessions.Snapshot(), r.URL.Path)
		h.metrics.GateDecisions.WithLabelValues(result.Decision.String()).Inc()
		switch result.Decision {
		case DecisionAllow:
			next.ServeHTTP(w, r)
		case DecisionPending:
			w.Header().Set("Retry-After", "1")
			h.respondError(w, http.StatusServiceUnavailable, "session is still loading")
		default:
			if isAPIPath(r.URL.Path) {
				h.respondError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			http.Redirect(w, r, result.RedirectTo, http.StatusSeeOther)
		}
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
