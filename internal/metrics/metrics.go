// Package metrics exposes Prometheus counters for the sync engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoadsTotal counts initial/explicit gallery loads by result
	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerysync_loads_total",
			Help: "Gallery load attempts by result",
		},
		[]string{"result"},
	)

	// LoadRetriesTotal counts retried load attempts after transport failures
	LoadRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallerysync_load_retries_total",
			Help: "Load attempts retried after a transport failure",
		},
	)

	// NotificationsTotal counts realtime change notifications observed
	NotificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallerysync_notifications_total",
			Help: "Realtime change notifications received",
		},
	)

	// ReconciliationsTotal counts reconciliation outcomes (run, skipped, failed)
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerysync_reconciliations_total",
			Help: "Reconciliation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// MutationFailuresTotal counts remote failures after an optimistic local
	// apply; the local state is kept either way
	MutationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerysync_mutation_failures_total",
			Help: "Remote mutation failures after optimistic local apply",
		},
		[]string{"op"},
	)

	// HTTPRequestsTotal counts requests against the local status server
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallerysync_http_requests_total",
			Help: "HTTP requests handled by path and status code",
		},
		[]string{"path", "status"},
	)

	// RecordsHeld tracks the number of records currently in the store
	RecordsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallerysync_records_held",
			Help: "Records currently held in the local store",
		},
	)
)
