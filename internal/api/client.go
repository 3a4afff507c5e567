package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ganot/lrms-client/internal/metrics"
	"github.com/google/uuid"
)

const defaultPreviewLength = 100

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, bool)
}

// SessionEnder is implemented by token sources that drop a session once the
// server answers 401 to a request carrying its token.
type SessionEnder interface {
	EndSession(ctx context.Context, token string)
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	PreviewLength int
	HTTPClient    *http.Client
	Tokens        TokenSource
	Logger        *slog.Logger
}

// Client issues JSON requests against the LRMS API.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenSource
	previewLength int
	logger        *slog.Logger
}

// NewClient creates a new API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	preview := cfg.PreviewLength
	if preview <= 0 {
		preview = defaultPreviewLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          httpClient,
		tokens:        cfg.Tokens,
		previewLength: preview,
		logger:        logger,
	}
}

// Options describes a single request.
type Options struct {
	// Name labels the request in logs and metrics; defaults to the path.
	Name    string
	Method  string
	Headers http.Header
	Body    any
	Auth    bool
}

// Response is a normalized successful response. Body is always JSON: either
// the parsed server payload or {"text": ...} for non-JSON content.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Request sends a request to BaseURL+path and normalizes the response.
func (c *Client) Request(ctx context.Context, path string, opts Options) (*Response, error) {
	resp, _, err := c.send(ctx, path, opts)
	return resp, err
}

// send is Request that also reports the bearer token it used.
func (c *Client) send(ctx context.Context, path string, opts Options) (*Response, string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, "", ErrEmptyPath
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	name := opts.Name
	if name == "" {
		name = path
	}

	var token string
	if opts.Auth {
		var ok bool
		if c.tokens != nil {
			token, ok = c.tokens.CurrentToken(ctx)
		}
		if !ok || token == "" {
			metrics.RequestTotal.WithLabelValues(method, name, KindAuthRequired.String()).Inc()
			return nil, "", &Error{Kind: KindAuthRequired}
		}
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range opts.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RequestDuration.WithLabelValues(method, name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, name, KindNetwork.String()).Inc()
		c.logger.Warn("api request failed", "method", method, "path", path, "error", err)
		return nil, "", &Error{Kind: KindNetwork, Message: "network connection failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, name, KindNetwork.String()).Inc()
		return nil, "", &Error{Kind: KindNetwork, Message: "reading response body", Err: err}
	}

	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.errorFromResponse(resp.StatusCode, raw, opts.Auth)
		metrics.RequestTotal.WithLabelValues(method, name, apiErr.Kind.String()).Inc()
		if apiErr.Kind == KindSessionExpired {
			c.endSession(ctx, token)
		}
		return nil, token, apiErr
	}

	normalized, err := c.normalizeBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, name, KindParse.String()).Inc()
		return nil, token, err
	}

	metrics.RequestTotal.WithLabelValues(method, name, "ok").Inc()
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: normalized}, token, nil
}

func (c *Client) endSession(ctx context.Context, token string) {
	if ender, ok := c.tokens.(SessionEnder); ok && token != "" {
		ender.EndSession(ctx, token)
	}
}

func (c *Client) errorFromResponse(status int, raw []byte, authenticated bool) *Error {
	kind := KindHTTP
	if status == http.StatusUnauthorized && authenticated {
		kind = KindSessionExpired
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return &Error{Kind: kind, Status: status, Message: payload.Message}
	}

	c.logger.Warn("api error response", "status", status, "body", c.preview(raw))
	return &Error{Kind: kind, Status: status}
}

func (c *Client) normalizeBody(contentType string, raw []byte) (json.RawMessage, error) {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		if !json.Valid(raw) {
			return nil, &Error{Kind: KindParse, Message: "failed to parse API response"}
		}
		return json.RawMessage(raw), nil
	}

	c.logger.Debug("api response is not JSON", "body", c.preview(raw))
	wrapped, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: string(raw)})
	if err != nil {
		return nil, &Error{Kind: KindParse, Err: err}
	}
	return wrapped, nil
}

// preview truncates raw to at most previewLength bytes without splitting a
// UTF-8 sequence.
func (c *Client) preview(raw []byte) string {
	if len(raw) <= c.previewLength {
		return string(raw)
	}
	cut := c.previewLength
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return string(raw[:cut])
}

// IsSessionEnd reports whether err means the user must sign in again.
func IsSessionEnd(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrAuthRequired)
}
