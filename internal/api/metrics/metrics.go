// Package metrics defines and registers all custom Prometheus metrics for the
// rewards API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "greenmiles"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP verb
//   - route: the matched route pattern (e.g. "/api/stations/:id/availability")
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures handler latency by route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from receipt to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// TokensEarnedTotal sums tokens credited through route selections.
var TokensEarnedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_earned_total",
		Help:      "Total tokens credited to users.",
	},
)

// TokensRedeemedTotal sums tokens debited through redemptions.
var TokensRedeemedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_redeemed_total",
		Help:      "Total tokens redeemed by users.",
	},
)

// RouteSelectionsTotal counts recorded route selections.
// Label:
//   - route_id: catalog route id
var RouteSelectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_selections_total",
		Help:      "Total number of route selections recorded.",
	},
	[]string{"route_id"},
)

// RedemptionsRejectedTotal counts refused redemptions.
// Label:
//   - reason: "insufficient_balance", "not_found" or "invalid"
var RedemptionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redemptions_rejected_total",
		Help:      "Total number of redemption requests rejected, by reason.",
	},
	[]string{"reason"},
)

// IdempotencyReplaysTotal counts requests refused because their Idempotency-Key
// was already used.
var IdempotencyReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_replays_total",
		Help:      "Total number of mutating requests refused as replays.",
	},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// WebsocketConnections tracks currently open websocket clients.
var WebsocketConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Number of websocket clients in the open state.",
	},
)

// BroadcastsTotal counts broadcast messages.
// Label:
//   - type: message tag (e.g. "STATION_AVAILABILITY_UPDATED")
var BroadcastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_total",
		Help:      "Total number of messages broadcast to websocket clients, by type.",
	},
	[]string{"type"},
)

// SlowClientsDroppedTotal counts clients closed because their send queue was full.
var SlowClientsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_slow_clients_dropped_total",
		Help:      "Total number of websocket clients closed for falling behind.",
	},
)

// ── Journal metrics ───────────────────────────────────────────────────────────

// JournalQueueDepth tracks pending entries per journal worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var JournalQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "journal_queue_depth",
		Help:      "Current number of journal entries pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// JournalWritesTotal counts journal writes.
// Label:
//   - result: "ok", "error" or "dropped"
var JournalWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_writes_total",
		Help:      "Total number of journal entries handled, by result.",
	},
	[]string{"result"},
)
