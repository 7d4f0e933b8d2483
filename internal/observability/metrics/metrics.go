package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for availability and booking flows.
type BookingMetrics struct {
	availabilityTotal *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	storeLatency      *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "bookings",
			Name:      "availability_requests_total",
			Help:      "Total availability lookups by outcome",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "bookings",
			Name:      "attempts_total",
			Help:      "Total booking attempts by appointment type and outcome",
		}, []string{"appointment_type", "status"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "bookings",
			Name:      "store_latency_seconds",
			Help:      "Latency of booking store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.bookingsTotal, m.storeLatency)
	return m
}

func (m *BookingMetrics) ObserveAvailability(status string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveBooking(appointmentType, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(appointmentType, status).Inc()
}

func (m *BookingMetrics) ObserveStoreLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(seconds)
}

// ChatMetrics tracks conversation turns and LLM calls.
type ChatMetrics struct {
	turnsTotal   *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	faqHitsTotal prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by extracted intent and outcome",
		}, []string{"intent", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"call"}),
		faqHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "faq_context_hits_total",
			Help:      "Chat turns that carried FAQ context into the prompt",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.faqHitsTotal)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(call string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(call).Observe(seconds)
}

func (m *ChatMetrics) ObserveFAQHit() {
	if m == nil {
		return
	}
	m.faqHitsTotal.Inc()
}
