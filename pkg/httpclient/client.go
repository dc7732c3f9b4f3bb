// Package httpclient is the single outbound path to the storefront backend.
// It attaches the session token, tags requests with an id, and turns an
// unauthorized response into a forced logout.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/metrics"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-Id"

	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 1 << 20
	defaultUserAgent      = "greencart-client"
	unknownStatusMessage  = "unexpected status"
)

var errBaseURLRequired = errors.New("backend base url is required")

// TokenSource returns the current session token, or "" when anonymous.
type TokenSource func(ctx context.Context) (string, error)

// UnauthorizedHandler runs once for every 401 the backend returns. sentToken
// is the bearer token the rejected request carried, empty when it went out
// anonymously.
type UnauthorizedHandler func(ctx context.Context, sentToken string)

// Client wraps net/http with the storefront's request conventions.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	tokens     TokenSource
	logg       *logger.Logger
	metrics    *metrics.ClientMetrics

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

type tokenOverrideKey struct{}

// WithToken makes requests issued with ctx carry token instead of asking the
// token source. Used when the stored token has already been cleared but one
// last authenticated call is still owed, as on logout.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenOverrideKey{}, token)
}

func (c *Client) token(ctx context.Context) (string, error) {
	if token, ok := ctx.Value(tokenOverrideKey{}).(string); ok {
		return token, nil
	}
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens(ctx)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// New builds a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// OnUnauthorized installs the forced-logout hook. It is set after
// construction because the session manager itself depends on this client.
func (c *Client) OnUnauthorized(fn UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) unauthorizedHandler() UnauthorizedHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onUnauthorized
}

// Get issues a GET and decodes a 2xx body into out.
func (c *Client) Get(ctx context.Context, path string, out any) (int, error) {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes a 2xx body into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) (int, error) {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do performs one request. It returns the HTTP status (0 when no response
// arrived) and a typed error for transport failures and non-2xx statuses.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}

	reqID := uuid.NewString()
	ctx = c.logg.WithFields(ctx, map[string]any{
		"request_id": reqID,
		"method":     method,
		"path":       path,
	})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.token(ctx)
	if err != nil {
		c.logg.Warn(ctx, fmt.Sprintf("token lookup failed, sending anonymously: %v", err))
		token = ""
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(path, method, 0, time.Since(started))
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request").
			WithDetails(map[string]any{"path": path})
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveRequest(path, method, resp.StatusCode, time.Since(started))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response body")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logg.Warn(ctx, "backend rejected session")
		if hook := c.unauthorizedHandler(); hook != nil {
			hook(ctx, token)
		}
		return resp.StatusCode, c.statusError(resp.StatusCode, path, raw)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logg.Debug(ctx, fmt.Sprintf("backend returned status %d", resp.StatusCode))
		return resp.StatusCode, c.statusError(resp.StatusCode, path, raw)
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response body")
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) statusError(status int, path string, raw []byte) *pkgerrors.Error {
	backendMsg := messageFromBody(raw)
	msg := backendMsg
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	if msg == "" {
		msg = unknownStatusMessage
	}
	return pkgerrors.New(pkgerrors.CodeForStatus(status), msg).
		WithDetails(map[string]any{"status": status, "path": path, "message": backendMsg})
}

// StatusOf extracts the HTTP status carried by an error returned from Do.
func StatusOf(err error) int {
	typed := pkgerrors.As(err)
	if typed == nil {
		return 0
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return 0
	}
	status, _ := details["status"].(int)
	return status
}

// BackendMessage returns the message field the backend put in an error body,
// or "" when the response carried none.
func BackendMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := details["message"].(string)
	return msg
}

func messageFromBody(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Message)
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
