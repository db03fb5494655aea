package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ValidationSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_sessions_total",
			Help: "Total number of validation sessions by overall status (count)",
		},
		[]string{"status"},
	)

	ValidationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_duration_ms",
			Help:    "End-to-end validation session duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"status"},
	)

	ValidationRulesEvaluated = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_rules_evaluated",
			Help:    "Number of rules evaluated per validation session (count)",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"status"},
	)

	RuleOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_outcomes_total",
			Help: "Total number of per-rule outcomes (count)",
		},
		[]string{"rule_id", "type", "status"},
	)

	JudgmentAssessments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgment_assessments_total",
			Help: "Total number of judgment assessments by status and origin (count)",
		},
		[]string{"status", "origin"},
	)

	JudgmentCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "judgment_cache_hits_total",
			Help: "Total number of judgment assessments served from cache (count)",
		},
	)

	JudgmentProviderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judgment_provider_duration_ms",
			Help:    "Duration of judgment provider requests in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)

	HistoryWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of session history writes (count)",
		},
		[]string{"status"},
	)

	CatalogActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_active_rules",
			Help: "Number of rules in the compliance catalog (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

func RegisterValidationMetrics() {
	prometheus.MustRegister(ValidationSessionsTotal)
	prometheus.MustRegister(ValidationDuration)
	prometheus.MustRegister(ValidationRulesEvaluated)
	prometheus.MustRegister(RuleOutcomesTotal)
	prometheus.MustRegister(HistoryWritesTotal)
	prometheus.MustRegister(CatalogActiveRules)
}

func RegisterJudgmentMetrics() {
	prometheus.MustRegister(JudgmentAssessments)
	prometheus.MustRegister(JudgmentCacheHits)
	prometheus.MustRegister(JudgmentProviderDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterDatabaseMetrics() {
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(DatabaseQueryDuration)
}

func ObserveValidationDuration(duration time.Duration, status string) {
	ValidationDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncRuleOutcome(ruleID, ruleType, status string) {
	RuleOutcomesTotal.WithLabelValues(ruleID, ruleType, status).Inc()
}

func ObserveJudgmentProviderDuration(duration time.Duration) {
	JudgmentProviderDuration.Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(service, database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(service, database, operation, status).Inc()
}

func ObserveDatabaseQueryDuration(service, database, operation string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(service, database, operation).Observe(float64(duration.Milliseconds()))
}

func SetCatalogActiveRules(count int) {
	CatalogActiveRules.Set(float64(count))
}
