package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAvailability("ok")
	m.ObserveBooking("consultation", "confirmed")
	m.ObserveBooking("consultation", "confirmed")
	m.ObserveBooking("physical", "conflict")
	m.ObserveStoreLatency("add_booking", 0.01)
	m.ObserveStoreLatency("add_booking", 0.03)

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("consultation", "confirmed")); got != 2 {
		t.Fatalf("expected 2 confirmed consultations, got %v", got)
	}
	if got := testutil.ToFloat64(m.availabilityTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 availability lookup, got %v", got)
	}

	observer, err := m.storeLatency.GetMetricWithLabelValues("add_booking")
	if err != nil {
		t.Fatalf("latency metric: %v", err)
	}
	var out dto.Metric
	if err := observer.(prometheus.Metric).Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if got := out.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("expected 2 latency samples, got %d", got)
	}
}

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveTurn("book_appointment", "ok")
	m.ObserveLLMLatency("chat", 1.2)
	m.ObserveFAQHit()

	if got := testutil.ToFloat64(m.faqHitsTotal); got != 1 {
		t.Fatalf("expected 1 faq hit, got %v", got)
	}
	if n := testutil.CollectAndCount(m.llmLatency); n != 1 {
		t.Fatalf("expected 1 latency series, got %d", n)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveAvailability("ok")
	b.ObserveBooking("consultation", "confirmed")
	b.ObserveStoreLatency("add_booking", 0.1)

	var c *ChatMetrics
	c.ObserveTurn("other", "ok")
	c.ObserveLLMLatency("chat", 0.1)
	c.ObserveFAQHit()
}
