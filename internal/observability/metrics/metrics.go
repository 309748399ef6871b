package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogueMetrics exposes counters/histograms for dialogue turns.
type DialogueMetrics struct {
	turnsTotal  *prometheus.CounterVec
	turnLatency prometheus.Histogram
}

func NewDialogueMetrics(reg prometheus.Registerer) *DialogueMetrics {
	m := &DialogueMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total dialogue turns by entry state and classified intent",
		}, []string{"state", "intent"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "receptionist",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of dialogue turn processing",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency)
	return m
}

func (m *DialogueMetrics) ObserveTurn(state, intent string, seconds float64) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.turnsTotal.WithLabelValues(state, intent).Inc()
	m.turnLatency.Observe(seconds)
}

// CalendarMetrics exposes counters/histograms for Google Calendar calls.
type CalendarMetrics struct {
	callsTotal  *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
}

func NewCalendarMetrics(reg prometheus.Registerer) *CalendarMetrics {
	m := &CalendarMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "calendar",
			Name:      "calls_total",
			Help:      "Total Google Calendar calls by operation and status",
		}, []string{"op", "status"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "receptionist",
			Subsystem: "calendar",
			Name:      "call_latency_seconds",
			Help:      "Latency of Google Calendar calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.callLatency)
	return m
}

func (m *CalendarMetrics) ObserveCall(op, status string, seconds float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(op, status).Inc()
	m.callLatency.WithLabelValues(op).Observe(seconds)
}
