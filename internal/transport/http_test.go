package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, auth func(http.Handler) http.Handler) (*httptest.Server, *RequestInfo) {
	t.Helper()
	var got RequestInfo
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = RequestInfoFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(NewRouter(RouterConfig{MCP: mcp, Auth: auth}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestRouter_MCPRequiresToken(t *testing.T) {
	server, got := newTestRouter(t, AuthMiddleware("secret"))

	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set(HeaderMCPSession, "sess1")
	req.Header.Set(HeaderRequestID, "req-1")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, RequestInfo{RequestID: "req-1", SessionID: "sess1"}, *got)
	require.Equal(t, "req-1", resp.Header.Get(HeaderRequestID))
}

func TestRouter_GeneratesRequestID(t *testing.T) {
	server, got := newTestRouter(t, nil)

	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, got.RequestID)
	require.Empty(t, got.SessionID)
	require.Equal(t, got.RequestID, resp.Header.Get(HeaderRequestID))
}

func TestRouter_HealthAndMetricsAreOpen(t *testing.T) {
	server, _ := newTestRouter(t, AuthMiddleware("secret"))

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "go_goroutines")
}
