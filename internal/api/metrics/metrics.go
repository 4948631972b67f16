// Package metrics defines and registers all custom Prometheus metrics for the
// volunteer hours API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry at package init through promauto;
// HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "volunteer"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthRequestsTotal counts guard decisions.
// Label:
//   - outcome: "ok", "unauthenticated", "conflict" or "error"
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of authenticated-route requests, by guard outcome.",
	},
	[]string{"outcome"},
)

// AuthDuration measures the full verify → profile → sync pipeline.
var AuthDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Duration of the request authentication pipeline.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Users ─────────────────────────────────────────────────────────────────────

// UsersCreatedTotal counts users created through the bootstrap endpoint.
var UsersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created through POST /users.",
	},
)

// ── Submissions ───────────────────────────────────────────────────────────────

// SubmissionsCreatedTotal counts newly created submissions.
// Label:
//   - status: "DRAFT" or "SUBMITTED"
var SubmissionsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_created_total",
		Help:      "Total number of submissions created, by initial status.",
	},
	[]string{"status"},
)

// SignatureURLsIssuedTotal counts pre-signed URLs handed to clients.
// Labels:
//   - kind: "student", "supervisor" or "pre_approved"
//   - operation: "upload" or "view"
var SignatureURLsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_urls_issued_total",
		Help:      "Total number of pre-signed signature URLs issued.",
	},
	[]string{"kind", "operation"},
)

// SignaturesSavedTotal counts confirmed signature references.
// Label:
//   - kind: "student", "supervisor" or "pre_approved"
var SignaturesSavedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signatures_saved_total",
		Help:      "Total number of signature references persisted.",
	},
	[]string{"kind"},
)
