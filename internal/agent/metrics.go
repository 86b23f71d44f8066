package agent

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the issue pipeline. A nil *Metrics
// is valid and records nothing, so wiring stays optional in tests.
type Metrics struct {
	turnsTotal    *prometheus.CounterVec
	backendCalls  *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	turnLatency   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuebot",
			Subsystem: "agent",
			Name:      "turns_total",
			Help:      "Conversation turns processed, by resulting phase",
		}, []string{"phase"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuebot",
			Subsystem: "agent",
			Name:      "backend_calls_total",
			Help:      "Text-generation backend calls, by purpose and outcome",
		}, []string{"purpose", "outcome"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuebot",
			Subsystem: "agent",
			Name:      "parse_failures_total",
			Help:      "Backend replies that could not be parsed into the expected shape",
		}, []string{"purpose"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "issuebot",
			Subsystem: "agent",
			Name:      "turn_latency_seconds",
			Help:      "Wall time of a full pipeline run for one turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.backendCalls, m.parseFailures, m.turnLatency)
	return m
}

func (m *Metrics) ObserveTurn(phase Phase) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) ObserveBackendCall(purpose, outcome string) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(purpose, outcome).Inc()
}

func (m *Metrics) ObserveParseFailure(purpose string) {
	if m == nil {
		return
	}
	m.parseFailures.WithLabelValues(purpose).Inc()
}

func (m *Metrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
