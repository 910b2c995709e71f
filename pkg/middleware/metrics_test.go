package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/dumbstore/pkg/store"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogram(t *testing.T, h prometheus.Histogram) *dto.Histogram {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram()
}

func TestMetricsObserveHydration(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.ObserveHydration(3, 120, nil)
	m.ObserveHydration(1, 0, fmt.Errorf("boom"))

	if got := metricCounterValue(t, m.hydrations.WithLabelValues("ok")); got != 1 {
		t.Errorf("hydrations_total(ok) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.hydrations.WithLabelValues("error")); got != 1 {
		t.Errorf("hydrations_total(error) = %v, want 1", got)
	}

	bytesHist := metricHistogram(t, m.payloadBytes)
	if bytesHist.GetSampleCount() != 1 || bytesHist.GetSampleSum() != 120 {
		t.Errorf("payload_bytes count=%d sum=%v", bytesHist.GetSampleCount(), bytesHist.GetSampleSum())
	}
	if got := metricHistogram(t, m.keys).GetSampleSum(); got != 3 {
		t.Errorf("keys sum = %v, want 3", got)
	}
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ssr"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{10, 100}),
	).ObserveHydration(1, 50, nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"app_ssr_hydrations_total",
		"app_ssr_hydration_payload_bytes",
		"app_ssr_hydration_keys",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered; have %v", want, names)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("ssr"))
}

func TestHydrateRecordsMetrics(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	h := Store()(Hydrate(WithRecorder(m), WithLogger(quietLogger()))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store.MustFromContext(r.Context()).Set(store.State{"a": 1, "b": 2})
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<body></body>")
		}),
	))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	if got := metricCounterValue(t, m.hydrations.WithLabelValues("ok")); got != 2 {
		t.Errorf("hydrations_total(ok) = %v, want 2", got)
	}
	if got := metricHistogram(t, m.keys).GetSampleSum(); got != 4 {
		t.Errorf("keys sum = %v, want 4", got)
	}
}
