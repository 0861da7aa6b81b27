package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/fleetapi"
)

// loginPageData feeds the login and register templates.
type loginPageData struct {
	From  string
	Error string
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// An authenticated operator has no business on the login page.
	if h.sessions.Snapshot().Authenticated {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, "login.html", loginPageData{From: r.URL.Query().Get("from")})
}

func (h *Handler) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, http.StatusBadRequest, "malformed form")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	from := r.PostFormValue("from")

	if username == "" || password == "" {
		h.render(w, r, "login.html", loginPageData{From: from, Error: "username and password are required"})
		return
	}

	token, err := h.backend.Login(r.Context(), username, password)
	if err != nil {
		h.metrics.AuthEvents.WithLabelValues("login_failed").Inc()
		h.loggerFrom(r.Context()).Warn("login failed", "username", username, "error", err)
		h.render(w, r, "login.html", loginPageData{From: from, Error: loginErrorMessage(err)})
		return
	}

	if err := h.sessions.Login(r.Context(), token, username); err != nil {
		h.loggerFrom(r.Context()).Error("persist session", "error", err)
		h.render(w, r, "login.html", loginPageData{From: from, Error: "could not save session"})
		return
	}

	h.metrics.AuthEvents.WithLabelValues("login").Inc()
	http.Redirect(w, r, safeReturnPath(from), http.StatusSeeOther)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.sessions.Snapshot().Authenticated {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, "register.html", loginPageData{})
}

func (h *Handler) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, http.StatusBadRequest, "malformed form")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		h.render(w, r, "register.html", loginPageData{Error: "username and password are required"})
		return
	}

	if err := h.backend.Register(r.Context(), username, password); err != nil {
		h.loggerFrom(r.Context()).Warn("register failed", "username", username, "error", err)
		h.render(w, r, "register.html", loginPageData{Error: loginErrorMessage(err)})
		return
	}

	h.metrics.AuthEvents.WithLabelValues("register").Inc()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLogout clears the session and sends the operator to the login
// page. Safe to call while logged out.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.loggerFrom(r.Context()).Warn("clear stored session", "error", err)
	}
	h.backend.InvalidateCache()
	h.metrics.AuthEvents.WithLabelValues("logout").Inc()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginErrorMessage prefers the backend's own detail message, falling
// back to something generic for transport failures.
func loginErrorMessage(err error) string {
	var apiErr *fleetapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, fleetapi.ErrUnreachable) {
		return "backend unreachable, try again"
	}
	return "login failed"
}

// safeReturnPath accepts only local absolute paths for the post-login
// redirect; anything else falls back to the dashboard. Rejecting "//"
// prefixes blocks protocol-relative redirects to other hosts.
func safeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return "/dashboard"
	}
	return from
}
