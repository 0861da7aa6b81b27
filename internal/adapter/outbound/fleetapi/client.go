// Package fleetapi is the HTTP client for the remote fleet tracking API.
//
// The client attaches the operator's bearer token to every request and
// reports 401 responses to the session layer through a callback supplied
// at construction time. It never retries a rejected request.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fleetdesk/fleetdesk/internal/domain/session"
	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource func() string

// Client talks to the fleet backend API.
type Client struct {
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	tokenSource TokenSource

	// onUnauthorized is invoked exactly once per 401 response, before the
	// error is returned to the caller. Supplied by the session service at
	// construction time; never nil after NewClient.
	onUnauthorized func()

	cache  *listCache
	logger *slog.Logger
	tracer trace.Tracer
}

// NewClient creates a backend client. tokens supplies the bearer token per
// request; onUnauthorized is the session service's forced-logout hook.
func NewClient(baseURL string, tokens TokenSource, onUnauthorized func(), opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		timeout:        10 * time.Second,
		tokenSource:    tokens,
		onUnauthorized: onUnauthorized,
		logger:         slog.Default(),
		tracer:         otel.Tracer("fleetapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokenSource == nil {
		c.tokenSource = func() string { return "" }
	}
	if c.onUnauthorized == nil {
		c.onUnauthorized = func() {}
	}
	if c.cache == nil {
		c.cache = newListCache(0)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// --- Auth operations ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The returned token is
// normalized (some backend builds have shipped it JSON-quoted).
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.doRequest(ctx, http.MethodPost, "/auth/login", credentialsRequest{username, password}, &resp)
	if err != nil {
		return "", err
	}
	token := session.NormalizeToken(resp.AccessToken)
	if token == "" {
		return "", fmt.Errorf("backend returned an empty access token")
	}
	// A fresh session must not see lists fetched under the previous one.
	c.cache.invalidate()
	return token, nil
}

// Register creates a new backend account. The success body is not
// specified beyond 2xx and is discarded.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/register", credentialsRequest{username, password}, nil)
}

// --- Vehicle operations ---

// ListVehicles fetches a window of the vehicle list. Results are served
// from a short-TTL cache so the dashboard, list, and report views don't
// hammer the backend with identical reads.
func (c *Client) ListVehicles(ctx context.Context, skip, limit int) ([]vehicle.Vehicle, error) {
	key := listCacheKey(skip, limit)
	if vehicles, ok := c.cache.get(key); ok {
		return vehicles, nil
	}

	path := fmt.Sprintf("/vehicles/?skip=%d&limit=%d", skip, limit)
	var vehicles []vehicle.Vehicle
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &vehicles); err != nil {
		return nil, err
	}
	c.cache.put(key, vehicles)
	return vehicles, nil
}

// GetVehicle fetches a single vehicle by ID.
func (c *Client) GetVehicle(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%d", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVehicle registers a new vehicle and invalidates the list cache.
func (c *Client) CreateVehicle(ctx context.Context, input vehicle.Input) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	if err := c.doRequest(ctx, http.MethodPost, "/vehicles/", input, &v); err != nil {
		return nil, err
	}
	c.cache.invalidate()
	return &v, nil
}

// UpdateVehicle applies a partial update and invalidates the list cache.
func (c *Client) UpdateVehicle(ctx context.Context, id int64, update vehicle.Update) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	if err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/vehicles/%d", id), update, &v); err != nil {
		return nil, err
	}
	c.cache.invalidate()
	return &v, nil
}

// DeleteVehicle removes a vehicle and invalidates the list cache.
func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/vehicles/%d", id), nil, nil); err != nil {
		return err
	}
	c.cache.invalidate()
	return nil
}

// InvalidateCache drops all cached list responses. The session layer
// calls this on logout so stale data never leaks across sessions.
func (c *Client) InvalidateCache() {
	c.cache.invalidate()
}

// doRequest performs one HTTP round trip to the backend.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	ctx, span := c.tracer.Start(ctx, "fleetapi "+method+" "+routeLabel(path),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	// Bearer header only when a token is present; an anonymous request
	// carries no Authorization header at all.
	if token := c.tokenSource(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, "transport failure")
		return &UnreachableError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode == http.StatusUnauthorized {
		// Raise the forced-logout signal once for this response, then
		// still hand the error to the caller so the immediate UI action
		// can report it. The list cache goes with the session: a revoked
		// token must not keep serving its cached reads.
		c.logger.Warn("backend rejected request as unauthorized", "path", path)
		c.cache.invalidate()
		c.onUnauthorized()
		span.SetStatus(codes.Error, "unauthorized")
		return newAPIError(httpResp.StatusCode, respBody)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		span.SetStatus(codes.Error, httpResp.Status)
		return newAPIError(httpResp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// routeLabel collapses a request path to a low-cardinality span name.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}
