package web

import (
	"testing"

	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

func TestEvaluateGatePendingWhileLoading(t *testing.T) {
	// While the session is loading the gate never redirects, even
	// though the snapshot is not authenticated yet. A stored valid
	// token must not bounce through the login page.
	snap := session.Snapshot{State: session.StateLoading}

	result := EvaluateGate(snap, "/vehicles")
	if result.Decision != DecisionPending {
		t.Errorf("decision = %v, want pending", result.Decision)
	}
	if result.RedirectTo != "" {
		t.Errorf("RedirectTo = %q, want empty while pending", result.RedirectTo)
	}
}

func TestEvaluateGateAllowsAuthenticated(t *testing.T) {
	snap := session.Snapshot{State: session.StateResolved, Authenticated: true}

	result := EvaluateGate(snap, "/vehicles")
	if result.Decision != DecisionAllow {
		t.Errorf("decision = %v, want allow", result.Decision)
	}
}

func TestEvaluateGateRedirectCarriesFrom(t *testing.T) {
	snap := session.Snapshot{State: session.StateResolved}

	tests := []struct {
		path string
		want string
	}{
		{"/vehicles", "/login?from=%2Fvehicles"},
		{"/vehicles/edit/7", "/login?from=%2Fvehicles%2Fedit%2F7"},
		{"/dashboard", "/login?from=%2Fdashboard"},
	}
	for _, tt := range tests {
		result := EvaluateGate(snap, tt.path)
		if result.Decision != DecisionRedirect {
			t.Errorf("EvaluateGate(%q) decision = %v, want redirect", tt.path, result.Decision)
		}
		if result.RedirectTo != tt.want {
			t.Errorf("EvaluateGate(%q).RedirectTo = %q, want %q", tt.path, result.RedirectTo, tt.want)
		}
		if result.From != tt.path {
			t.Errorf("EvaluateGate(%q).From = %q", tt.path, result.From)
		}
	}
}

func TestEvaluateGateReEvaluatesPerCall(t *testing.T) {
	// The gate is pure: the same path gives different verdicts as the
	// session changes, with no caching in between.
	loading := session.Snapshot{State: session.StateLoading}
	authed := session.Snapshot{State: session.StateResolved, Authenticated: true}
	loggedOut := session.Snapshot{State: session.StateResolved}

	if EvaluateGate(loading, "/reports").Decision != DecisionPending {
		t.Error("loading snapshot should be pending")
	}
	if EvaluateGate(authed, "/reports").Decision != DecisionAllow {
		t.Error("authenticated snapshot should be allowed")
	}
	if EvaluateGate(loggedOut, "/reports").Decision != DecisionRedirect {
		t.Error("logged-out snapshot should redirect")
	}
}

func TestSafeReturnPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/vehicles", "/vehicles"},
		{"/vehicles/edit/7", "/vehicles/edit/7"},
		{"", "/dashboard"},
		{"https://evil.example", "/dashboard"},
		{"//evil.example", "/dashboard"},
		{"relative/path", "/dashboard"},
	}
	for _, tt := range tests {
		if got := safeReturnPath(tt.in); got != tt.want {
			t.Errorf("safeReturnPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
