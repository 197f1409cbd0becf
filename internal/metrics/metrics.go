// Package metrics provides the centralized Prometheus registry for the
// backtest engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kyotei_backtest",
		Name:      "races_evaluated_total",
		Help:      "Total number of race/model units settled and folded",
	})
	RacesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyotei_backtest",
		Name:      "races_skipped_total",
		Help:      "Total number of race/model units skipped, by reason",
	}, []string{"reason"})
	SettlementFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kyotei_backtest",
		Name:      "settlement_failures_total",
		Help:      "Total number of race/model units that failed to settle",
	})
	PredictionFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyotei_backtest",
		Name:      "prediction_fetches_total",
		Help:      "Total number of prediction fetches, by source",
	}, []string{"source"})
)

// Gauge metrics
var (
	LastRunRecoveryRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kyotei_backtest",
		Name:      "last_run_recovery_rate",
		Help:      "Recovery rate percentage per model from the latest run",
	}, []string{"model"})
	LastRunProfit = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kyotei_backtest",
		Name:      "last_run_profit",
		Help:      "Total profit per model from the latest run, in yen",
	}, []string{"model"})
	PredictionCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kyotei_backtest",
		Name:      "prediction_cache_hit_ratio",
		Help:      "Hit ratio of the prediction cache",
	})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kyotei_backtest",
		Name:      "run_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	PredictionFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kyotei_backtest",
		Name:      "prediction_fetch_latency_seconds",
		Help:      "Latency of prediction fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RacesEvaluatedTotal)
		registry.MustRegister(RacesSkippedTotal)
		registry.MustRegister(SettlementFailuresTotal)
		registry.MustRegister(PredictionFetchesTotal)

		registry.MustRegister(LastRunRecoveryRate)
		registry.MustRegister(LastRunProfit)
		registry.MustRegister(PredictionCacheHitRatio)

		registry.MustRegister(RunDuration)
		registry.MustRegister(PredictionFetchLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEvaluated records one settled race/model unit.
func RecordEvaluated() {
	RacesEvaluatedTotal.Inc()
}

// RecordSkipped records one skipped race/model unit with its reason.
func RecordSkipped(reason string) {
	RacesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordRunResult publishes per-model gauges for a finished run.
func RecordRunResult(model string, recoveryRate float64, profit int64) {
	LastRunRecoveryRate.WithLabelValues(model).Set(recoveryRate)
	LastRunProfit.WithLabelValues(model).Set(float64(profit))
}
