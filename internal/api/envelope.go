package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Envelope is the response wrapper used by every LRMS endpoint. A nil
// StatusCode means the field was missing.
type Envelope struct {
	StatusCode *int            `json:"statusCode"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Call describes one logical API operation.
type Call struct {
	Name    string
	Method  string
	Path    string
	Body    any
	Auth    bool
	Headers http.Header
}

// Execute sends call and unwraps the response envelope, returning its data.
func (c *Client) Execute(ctx context.Context, call Call) (json.RawMessage, error) {
	resp, token, err := c.send(ctx, call.Path, Options{
		Name:    call.Name,
		Method:  call.Method,
		Headers: call.Headers,
		Body:    call.Body,
		Auth:    call.Auth,
	})
	if err != nil {
		return nil, err
	}
	data, err := DecodeEnvelope(resp.Body, call.Auth)
	if KindOf(err) == KindSessionExpired {
		c.endSession(ctx, token)
	}
	return data, err
}

// DecodeEnvelope applies the envelope contract to a normalized body.
// authenticated controls whether a 401 maps to KindSessionExpired.
func DecodeEnvelope(body json.RawMessage, authenticated bool) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &Error{Kind: KindParse, Message: "response is not an envelope object"}
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to decode response envelope", Err: err}
	}
	if env.StatusCode == nil {
		return nil, &Error{Kind: KindParse, Message: "response envelope missing statusCode"}
	}

	switch status := *env.StatusCode; {
	case status == http.StatusOK:
		return env.Data, nil
	case status == http.StatusUnauthorized && authenticated:
		return nil, &Error{Kind: KindSessionExpired, Status: status, Message: env.Message}
	default:
		return nil, &Error{Kind: KindHTTP, Status: status, Message: env.Message}
	}
}
