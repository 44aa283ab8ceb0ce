package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apriori_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apriori_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Analysis
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apriori_analysis_duration_seconds",
			Help:    "Wall time of one two-dimension analysis run",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apriori_analysis_runs_total",
			Help: "Analysis runs by outcome (ok, insufficient_data, no_items, no_multi_item, timeout, error)",
		},
		[]string{"outcome"},
	)

	RulesFound = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "apriori_rules_found",
			Help: "Rules found by the latest analysis, before truncation",
		},
		[]string{"dimension"},
	)

	MultiItemTransactions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "apriori_multi_item_transactions",
			Help: "Transactions retained for mining by the latest analysis",
		},
		[]string{"dimension"},
	)

	// Store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apriori_store_query_duration_seconds",
			Help:    "Duration of transaction store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apriori_store_query_errors_total",
			Help: "Total number of failed transaction store queries",
		},
		[]string{"store", "operation"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreQuery records one store round trip.
func RecordStoreQuery(store, operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// RecordAnalysis records the shape of a finished analysis.
func RecordAnalysis(duration time.Duration, bookTx, categoryTx, bookRules, categoryRules int) {
	AnalysisDuration.Observe(duration.Seconds())
	AnalysisRuns.WithLabelValues("ok").Inc()
	MultiItemTransactions.WithLabelValues("book").Set(float64(bookTx))
	MultiItemTransactions.WithLabelValues("category").Set(float64(categoryTx))
	RulesFound.WithLabelValues("book").Set(float64(bookRules))
	RulesFound.WithLabelValues("category").Set(float64(categoryRules))
}

// RecordOutcome counts an analysis run that ended without a report.
func RecordOutcome(outcome string) {
	AnalysisRuns.WithLabelValues(outcome).Inc()
}
