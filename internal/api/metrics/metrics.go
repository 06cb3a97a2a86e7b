// Package metrics defines all custom Prometheus metrics for the ProVeloce
// Connect API. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "proveloce"

// AuthAttemptsTotal counts login and signup attempts.
// Labels:
//   - method: "login", "signup", "oauth", "refresh"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// ApplicationsReviewedTotal counts review decisions on expert applications.
// Label:
//   - decision: "approved", "rejected", or "revoked"
var ApplicationsReviewedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_reviewed_total",
		Help:      "Total number of expert application review decisions.",
	},
	[]string{"decision"},
)

// TicketResponsesTotal counts substantive ticket responses.
// Label:
//   - result: "created", "edited", or "rejected"
var TicketResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_responses_total",
		Help:      "Total number of ticket response attempts, by outcome.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks pending notifications per delivery worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each delivery worker channel.",
	},
	[]string{"worker_id"},
)

// ConfigUpdatesTotal counts configuration writes.
// Label:
//   - tier: "live" for hot keys, "standard" otherwise
var ConfigUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_updates_total",
		Help:      "Total number of configuration updates, by tier.",
	},
	[]string{"tier"},
)
