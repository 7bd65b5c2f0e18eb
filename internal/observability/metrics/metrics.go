package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "walletledger_"

	resultSuccess = "success"
	resultError   = "error"
)

// ResultSuccess and ResultError label metric outcomes.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

var (
	registerOnce sync.Once

	replayTotal   *prometheus.CounterVec
	replayLatency *prometheus.HistogramVec

	settlementProposeTotal   *prometheus.CounterVec
	settlementProposeLatency *prometheus.HistogramVec
	settlementCommitTotal    *prometheus.CounterVec
	settlementCommitLatency  *prometheus.HistogramVec

	accrualEvaluateTotal   *prometheus.CounterVec
	accrualEvaluateLatency *prometheus.HistogramVec

	agingExportTotal   *prometheus.CounterVec
	agingExportLatency *prometheus.HistogramVec

	unregisteredWallets prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		replayTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "replay_total",
				Help: "Total wallet replay operations by result",
			},
			[]string{"result"},
		)
		replayLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "replay_latency_seconds",
				Help:    "Wallet replay latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		settlementProposeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_propose_total",
				Help: "Total settlement proposals by result",
			},
			[]string{"result"},
		)
		settlementProposeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_propose_latency_seconds",
				Help:    "Settlement proposal latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settlementCommitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_commit_total",
				Help: "Total settlement commits by result",
			},
			[]string{"result"},
		)
		settlementCommitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_commit_latency_seconds",
				Help:    "Settlement commit latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		accrualEvaluateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "accrual_evaluate_total",
				Help: "Total accrual evaluations by result",
			},
			[]string{"result"},
		)
		accrualEvaluateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "accrual_evaluate_latency_seconds",
				Help:    "Accrual evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		agingExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aging_export_total",
				Help: "Total aging report exports by format and result",
			},
			[]string{"format", "result"},
		)
		agingExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aging_export_latency_seconds",
				Help:    "Aging report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		unregisteredWallets = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "unregistered_wallets",
				Help: "Wallet buckets with money attributed to no known party",
			},
		)

		prometheus.MustRegister(
			replayTotal,
			replayLatency,
			settlementProposeTotal,
			settlementProposeLatency,
			settlementCommitTotal,
			settlementCommitLatency,
			accrualEvaluateTotal,
			accrualEvaluateLatency,
			agingExportTotal,
			agingExportLatency,
			unregisteredWallets,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveReplay records replay duration and result.
func ObserveReplay(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if replayTotal != nil {
		replayTotal.WithLabelValues(result).Inc()
	}
	if replayLatency != nil {
		replayLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveSettlementPropose records proposal duration and result.
func ObserveSettlementPropose(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if settlementProposeTotal != nil {
		settlementProposeTotal.WithLabelValues(result).Inc()
	}
	if settlementProposeLatency != nil {
		settlementProposeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveSettlementCommit records commit duration and result.
func ObserveSettlementCommit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if settlementCommitTotal != nil {
		settlementCommitTotal.WithLabelValues(result).Inc()
	}
	if settlementCommitLatency != nil {
		settlementCommitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveAccrualEvaluate records accrual evaluation duration and result.
func ObserveAccrualEvaluate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if accrualEvaluateTotal != nil {
		accrualEvaluateTotal.WithLabelValues(result).Inc()
	}
	if accrualEvaluateLatency != nil {
		accrualEvaluateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveAgingExport records export duration by format and result.
func ObserveAgingExport(format, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if agingExportTotal != nil {
		agingExportTotal.WithLabelValues(format, result).Inc()
	}
	if agingExportLatency != nil {
		agingExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// SetUnregisteredWallets publishes the current count of synthetic wallet
// buckets holding money at risk.
func SetUnregisteredWallets(count int) {
	if unregisteredWallets != nil {
		unregisteredWallets.Set(float64(count))
	}
}
