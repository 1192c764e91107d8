// File: backend/services/auth-service/internal/utils/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by the status-keyed counters.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// RequestsTotal counts all HTTP requests.
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_requests_total",
		Help: "The total number of requests",
	})

	// ResponsesTotal counts responses by status code.
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_responses_total",
		Help: "The total number of responses by status code",
	}, []string{"status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// SessionRenewalsTotal counts silent-renewal attempts by outcome.
	SessionRenewalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_session_renewals_total",
		Help: "The total number of silent session renewals",
	}, []string{"status"})

	// ProfileFetchesTotal counts profile fetches by outcome.
	ProfileFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_profile_fetches_total",
		Help: "The total number of identity profile fetches",
	}, []string{"status"})

	// PermissionChecksTotal counts permission evaluations by decision.
	PermissionChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_permission_checks_total",
		Help: "The total number of permission checks",
	}, []string{"decision"})

	// LoginFlowEventsTotal counts widget lifecycle events by kind.
	LoginFlowEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_login_flow_events_total",
		Help: "The total number of login widget events",
	}, []string{"event"})

	// DatabaseOperationsTotal counts database operations.
	DatabaseOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_database_operations_total",
		Help: "The total number of database operations",
	}, []string{"operation", "status"})

	// CacheOperationsTotal counts Redis operations.
	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_cache_operations_total",
		Help: "The total number of cache operations",
	}, []string{"operation", "status"})

	// ActiveSessions tracks the number of live session managers.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auth_service_active_sessions",
		Help: "The number of active sessions",
	})
)
