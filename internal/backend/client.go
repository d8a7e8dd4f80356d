package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rentpro/portal/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Errors returned for well-known backend statuses
var (
	ErrUnauthorized = errors.New("backend rejected credentials")
	ErrForbidden    = errors.New("backend denied access")
	ErrNotFound     = errors.New("backend resource not found")
)

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap maps well-known statuses to sentinel errors
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client talks to the rental REST backend
type Client struct {
	baseURL     string
	authBaseURL string
	timeout     time.Duration
	transport   http.RoundTripper
	http        *http.Client
	logger      *zap.Logger
}

// NewClient creates a backend client. The transport is shared by every
// client derived with WithToken; nil means http.DefaultTransport.
func NewClient(cfg config.BackendConfig, transport http.RoundTripper, logger *zap.Logger) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authBaseURL: strings.TrimRight(cfg.AuthBaseURL, "/"),
		timeout:     cfg.Timeout,
		transport:   transport,
		http:        &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:      logger,
	}
}

// WithToken returns a client that sends the token as a bearer credential on
// every request except auth endpoints
func (c *Client) WithToken(accessToken string) *Client {
	authed := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
		Base:   c.transport,
	}

	clone := *c
	clone.http = &http.Client{
		Timeout:   c.timeout,
		Transport: &authRouter{authed: authed, anonymous: c.transport},
	}
	return &clone
}

// authRouter keeps credentials off auth endpoints
type authRouter struct {
	authed    http.RoundTripper
	anonymous http.RoundTripper
}

func (r *authRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthPath(req.URL.Path) {
		return r.anonymous.RoundTrip(req)
	}
	return r.authed.RoundTrip(req)
}

func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

// do sends a JSON request and decodes a JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       req.URL.Path,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, c.baseURL+path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, c.baseURL+path, body, out)
}
