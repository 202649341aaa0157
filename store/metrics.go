package store

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OperationCounter counts record store calls by outcome.
	OperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glasspro_store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"op", "collection", "result"},
	)

	// ActiveSubscriptions tracks open live subscriptions.
	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glasspro_store_active_subscriptions",
			Help: "Number of open record store subscriptions",
		},
	)

	// SnapshotsDelivered counts snapshots handed to subscribers.
	SnapshotsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glasspro_store_snapshots_delivered_total",
			Help: "Total number of snapshots delivered to subscribers",
		},
		[]string{"collection"},
	)
)

func init() {
	prometheus.MustRegister(OperationCounter, ActiveSubscriptions, SnapshotsDelivered)
}

func observe(op, collection string, err error) {
	OperationCounter.WithLabelValues(op, collection, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "exists"
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrNoTenant):
		return "denied"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
