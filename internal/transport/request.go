package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderRequestID  = "X-Request-Id"
	HeaderMCPSession = "Mcp-Session-Id"
)

// RequestInfo correlates one inbound HTTP request.
type RequestInfo struct {
	RequestID string
	SessionID string
}

type requestInfoKey struct{}

// RequestInfoFromContext returns the info stored by Correlate.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// Correlate assigns a request ID, keeping the caller's X-Request-Id when
// present, echoes it on the response and records the MCP session ID.
func Correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := RequestInfo{
			RequestID: r.Header.Get(HeaderRequestID),
			SessionID: r.Header.Get(HeaderMCPSession),
		}
		if info.RequestID == "" {
			info.RequestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, info.RequestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))
	})
}
