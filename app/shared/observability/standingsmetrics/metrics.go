package standingsmetrics

import (
	"context"
	"time"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
	"github.com/prometheus/client_golang/prometheus"
)

// StandingsMetrics records engine telemetry. Implementations must be
// safe for concurrent use.
type StandingsMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string, slateID sharedtypes.SlateID)
	RecordOperationSuccess(ctx context.Context, operation string, slateID sharedtypes.SlateID)
	RecordOperationFailure(ctx context.Context, operation string, slateID sharedtypes.SlateID)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
	RecordRecomputeThrottled(ctx context.Context, slateID sharedtypes.SlateID)
	RecordLockContention(ctx context.Context, slateID sharedtypes.SlateID)
	RecordForwardPropagation(ctx context.Context, slateID sharedtypes.SlateID, usersTouched int)
	RecordDBQueryDuration(ctx context.Context, duration time.Duration)
}

// PrometheusMetrics implements StandingsMetrics on a prometheus registry.
type PrometheusMetrics struct {
	operationAttempts  *prometheus.CounterVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	recomputeThrottled prometheus.Counter
	lockContention     prometheus.Counter
	propagationUsers   prometheus.Histogram
	dbQueryDuration    prometheus.Histogram
}

// NewPrometheusMetrics registers the standings metric family on the
// given registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "standings",
			Name:      "operation_attempts_total",
			Help:      "Engine operations attempted, by operation name.",
		}, []string{"operation"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "standings",
			Name:      "operation_successes_total",
			Help:      "Engine operations completed successfully.",
		}, []string{"operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "standings",
			Name:      "operation_failures_total",
			Help:      "Engine operations that failed.",
		}, []string{"operation"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "standings",
			Name:      "operation_duration_seconds",
			Help:      "Wall time per engine operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		recomputeThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standings",
			Name:      "recompute_throttled_total",
			Help:      "Recompute requests absorbed by the debounce window.",
		}),
		lockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "standings",
			Name:      "recompute_lock_contention_total",
			Help:      "Recompute requests rejected because the slate lease was held.",
		}),
		propagationUsers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "standings",
			Name:      "forward_propagation_users",
			Help:      "Users whose later-slate cumulative totals were adjusted per recompute.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		dbQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "standings",
			Name:      "db_query_duration_seconds",
			Help:      "Duration of bulk standings queries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.operationAttempts,
		m.operationSuccesses,
		m.operationFailures,
		m.operationDuration,
		m.recomputeThrottled,
		m.lockContention,
		m.propagationUsers,
		m.dbQueryDuration,
	)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation string, _ sharedtypes.SlateID) {
	m.operationAttempts.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation string, _ sharedtypes.SlateID) {
	m.operationSuccesses.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation string, _ sharedtypes.SlateID) {
	m.operationFailures.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRecomputeThrottled(_ context.Context, _ sharedtypes.SlateID) {
	m.recomputeThrottled.Inc()
}

func (m *PrometheusMetrics) RecordLockContention(_ context.Context, _ sharedtypes.SlateID) {
	m.lockContention.Inc()
}

func (m *PrometheusMetrics) RecordForwardPropagation(_ context.Context, _ sharedtypes.SlateID, usersTouched int) {
	m.propagationUsers.Observe(float64(usersTouched))
}

func (m *PrometheusMetrics) RecordDBQueryDuration(_ context.Context, duration time.Duration) {
	m.dbQueryDuration.Observe(duration.Seconds())
}

// NoOpMetrics satisfies StandingsMetrics without recording anything.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, sharedtypes.SlateID)     {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, sharedtypes.SlateID)     {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, sharedtypes.SlateID)     {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration)          {}
func (NoOpMetrics) RecordRecomputeThrottled(context.Context, sharedtypes.SlateID)           {}
func (NoOpMetrics) RecordLockContention(context.Context, sharedtypes.SlateID)               {}
func (NoOpMetrics) RecordForwardPropagation(context.Context, sharedtypes.SlateID, int)      {}
func (NoOpMetrics) RecordDBQueryDuration(context.Context, time.Duration)                    {}
