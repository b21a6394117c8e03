// Package upstream is the HTTP client for the stock management REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

const (
	loginPath   = "/auth/token/"
	refreshPath = "/auth/token/refresh/"
	verifyPath  = "/auth/token/verify/"
)

// NewHTTPClient returns an http.Client with the given timeout, or
// DefaultTimeout when timeout is zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client calls the REST API on behalf of one session. A 401 triggers one
// token refresh and one retry of the request.
type Client struct {
	baseURL string
	hc      *http.Client
	tokens  TokenStore

	// refreshMu serializes refreshes so concurrent 401s refresh once.
	refreshMu sync.Mutex
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://stock.example.com/api/v1".
func New(baseURL string, hc *http.Client, tokens TokenStore) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must be absolute http(s)", baseURL)
	}
	if hc == nil {
		hc = NewHTTPClient(0)
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		hc:      hc,
		tokens:  tokens,
	}, nil
}

// request is a replayable upstream request.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	progress    func(percent int)
	// anonymous requests carry no bearer token and are never refreshed.
	anonymous bool
}

func jsonRequest(method, path string, body any) (request, error) {
	r := request{method: method, path: path}
	if body == nil {
		return r, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return r, fmt.Errorf("encoding request body: %w", err)
	}
	r.body = data
	r.contentType = "application/json"
	return r, nil
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

// GetRaw fetches path and returns the response body undecoded.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.send(ctx, request{method: http.MethodGet, path: path, query: query})
}

// Post sends body as JSON and decodes the response into out. Either may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

// Patch sends body as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out)
}

// Delete deletes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	r, err := jsonRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	data, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding upstream response: %w", err)
	}
	return nil
}

// send performs r, refreshing the token pair once on a 401.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	var access string
	if !r.anonymous {
		tokens, err := c.tokens.Tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading tokens: %w", err)
		}
		access = tokens.Access
	}

	status, body, err := c.roundTrip(ctx, r, access)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && !r.anonymous {
		access, err = c.refresh(ctx, access)
		if err != nil {
			return nil, err
		}
		status, body, err = c.roundTrip(ctx, r, access)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, responseError(status, body)
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, r request, access string) (int, []byte, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
		if r.progress != nil {
			body = newProgressReader(r.body, r.progress)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	if r.body != nil {
		req.ContentLength = int64(len(r.body))
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transportError(err)
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh token for a new access token. stale is the
// access token that was rejected; if another request already replaced it,
// the current token is returned without refreshing again.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tokens, err := c.tokens.Tokens(ctx)
	if err != nil {
		return "", fmt.Errorf("loading tokens: %w", err)
	}
	if tokens.Access != "" && tokens.Access != stale {
		return tokens.Access, nil
	}

	fresh, err := c.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return fresh.Access, nil
}

// Refresh exchanges the stored refresh token for a new pair. On failure the
// stored tokens are cleared and ErrSessionExpired is returned.
func (c *Client) Refresh(ctx context.Context) (model.TokenPair, error) {
	tokens, err := c.tokens.Tokens(ctx)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("loading tokens: %w", err)
	}
	if tokens.Refresh == "" {
		return model.TokenPair{}, c.expire(ctx, errors.New("no refresh token"))
	}

	r, err := jsonRequest(http.MethodPost, refreshPath, map[string]string{"refresh": tokens.Refresh})
	if err != nil {
		return model.TokenPair{}, err
	}
	r.anonymous = true

	data, err := c.send(ctx, r)
	if err != nil {
		return model.TokenPair{}, c.expire(ctx, err)
	}

	var fresh model.TokenPair
	if err := decode(data, &fresh); err != nil || fresh.Access == "" {
		return model.TokenPair{}, c.expire(ctx, errors.New("refresh response has no access token"))
	}
	if fresh.Refresh == "" {
		fresh.Refresh = tokens.Refresh
	}
	if err := c.tokens.SetTokens(ctx, fresh); err != nil {
		return model.TokenPair{}, fmt.Errorf("storing refreshed tokens: %w", err)
	}
	slog.Info("upstream token refreshed", "request_id", RequestID(ctx))
	return fresh, nil
}

func (c *Client) expire(ctx context.Context, cause error) error {
	slog.Warn("upstream token refresh failed", "error", cause, "request_id", RequestID(ctx))
	if err := c.tokens.ClearTokens(ctx); err != nil {
		slog.Error("failed to clear tokens", "error", err)
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

// Login exchanges credentials for a token pair and stores it. A 401 here
// means bad credentials and is never refreshed.
func (c *Client) Login(ctx context.Context, username, password string) (model.TokenPair, error) {
	r, err := jsonRequest(http.MethodPost, loginPath, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return model.TokenPair{}, err
	}
	r.anonymous = true

	data, err := c.send(ctx, r)
	if err != nil {
		return model.TokenPair{}, err
	}

	var tokens model.TokenPair
	if err := decode(data, &tokens); err != nil {
		return model.TokenPair{}, err
	}
	if tokens.Access == "" {
		return model.TokenPair{}, errors.New("login response has no access token")
	}
	if err := c.tokens.SetTokens(ctx, tokens); err != nil {
		return model.TokenPair{}, fmt.Errorf("storing tokens: %w", err)
	}
	return tokens, nil
}

// Verify asks the API whether token is still valid.
func (c *Client) Verify(ctx context.Context, token string) error {
	r, err := jsonRequest(http.MethodPost, verifyPath, map[string]string{"token": token})
	if err != nil {
		return err
	}
	r.anonymous = true
	_, err = c.send(ctx, r)
	return err
}

// Logout forgets the stored token pair.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.ClearTokens(ctx)
}

// IsAuthenticated reports whether an access token is stored.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	tokens, err := c.tokens.Tokens(ctx)
	return err == nil && tokens.Access != ""
}

type requestIDKey struct{}

// WithRequestID returns a context whose upstream requests carry id as
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
