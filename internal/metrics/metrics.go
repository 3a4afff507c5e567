package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts outbound API requests by method, path and outcome.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_api_requests_total",
			Help: "Total number of requests sent to the LRMS API",
		},
		[]string{"method", "path", "outcome"},
	)
	// RequestDuration is the latency of outbound API requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lrms_api_request_duration_seconds",
			Help:    "LRMS API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// CacheFetches counts network fetches started by the query cache.
	CacheFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_cache_fetches_total",
			Help: "Total number of fetches started by the query cache",
		},
		[]string{"operation", "reason"},
	)
	// CacheJoins counts subscribers that attached to an in-flight fetch.
	CacheJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_cache_joins_total",
			Help: "Total number of callers that joined an in-flight fetch",
		},
		[]string{"operation"},
	)
	// CacheInvalidations counts entries touched by mutations.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_cache_invalidations_total",
			Help: "Total number of cache entries invalidated by mutations",
		},
		[]string{"operation", "action"},
	)
	// DiscardedResults counts fetch results dropped because they were superseded or orphaned.
	DiscardedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_cache_discarded_results_total",
			Help: "Total number of fetch results discarded by the query cache",
		},
		[]string{"operation", "reason"},
	)
	// RefreshTriggers counts refresh scheduler triggers by outcome.
	RefreshTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_refresh_triggers_total",
			Help: "Total number of refresh triggers by kind and outcome",
		},
		[]string{"trigger", "outcome"},
	)
	// ToolCalls counts MCP tool invocations by tool and outcome.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lrms_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
)
