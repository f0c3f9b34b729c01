package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline. Every absorbed
// failure (retrieval, reasoning, evidence write) is counted here so degraded
// operation stays observable.
type Metrics struct {
	TriagesTotal      *prometheus.CounterVec
	TriageDuration    *prometheus.HistogramVec
	ReasoningFailures *prometheus.CounterVec
	ReasoningDuration prometheus.Histogram
	RetrievalFailures *prometheus.CounterVec
	EvidenceWrites    *prometheus.CounterVec
	UrgencyAssigned   prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vital_triages_total",
			Help: "Total triage runs by result provenance.",
		}, []string{"provenance"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vital_triage_duration_seconds",
			Help:    "Duration of full triage pipelines in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"provenance"}),
		ReasoningFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vital_reasoning_failures_total",
			Help: "Reasoning-service failures by kind, each substituted by fallback.",
		}, []string{"kind"}),
		ReasoningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vital_reasoning_call_duration_seconds",
			Help:    "Duration of individual reasoning-service calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}),
		RetrievalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vital_retrieval_failures_total",
			Help: "Evidence retrieval failures absorbed during context assembly.",
		}, []string{"collection"}),
		EvidenceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vital_evidence_writes_total",
			Help: "Best-effort evidence write-backs by outcome.",
		}, []string{"outcome"}),
		UrgencyAssigned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vital_urgency_assigned",
			Help:    "Urgency values assigned to scans.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.ReasoningFailures,
		m.ReasoningDuration,
		m.RetrievalFailures,
		m.EvidenceWrites,
		m.UrgencyAssigned,
	)

	return m
}
