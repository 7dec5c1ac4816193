package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveEnumeration(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPoolCollector(reg)
	if err != nil {
		t.Fatalf("NewPoolCollector: %v", err)
	}

	collector.ObserveEnumeration(0, 5, 3)
	collector.ObserveEnumeration(0, 5, 0)

	if got := testutil.ToFloat64(collector.Enumerations.WithLabelValues("0", "5")); got != 2 {
		t.Fatalf("sidelink_enumerations_total = %v, want 2", got)
	}

	if count := histogramSampleCount(t, reg, "sidelink_opportunities_per_window", map[string]string{
		"carrier": "0",
		"pool":    "5",
	}); count != 2 {
		t.Fatalf("sidelink_opportunities_per_window sample_count = %d, want 2", count)
	}
}

func TestObserveConfigErrorAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPoolCollector(reg)
	if err != nil {
		t.Fatalf("NewPoolCollector: %v", err)
	}

	collector.ObserveConfigError("opportunities")
	if got := testutil.ToFloat64(collector.ConfigErrors.WithLabelValues("opportunities")); got != 1 {
		t.Fatalf("sidelink_config_errors_total = %v, want 1", got)
	}

	collector.SetPoolCounts(2, 7)
	if got := testutil.ToFloat64(collector.ConfiguredCarriers); got != 2 {
		t.Fatalf("sidelink_configured_carriers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ConfiguredPools); got != 7 {
		t.Fatalf("sidelink_configured_pools = %v, want 7", got)
	}
}

func TestNewPoolCollectorIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPoolCollector(reg)
	if err != nil {
		t.Fatalf("first NewPoolCollector: %v", err)
	}
	second, err := NewPoolCollector(reg)
	if err != nil {
		t.Fatalf("second NewPoolCollector: %v", err)
	}

	// Both collectors share the already-registered metric vectors.
	first.ObserveEnumeration(1, 1, 4)
	if got := testutil.ToFloat64(second.Enumerations.WithLabelValues("1", "1")); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPoolCollector(reg)
	if err != nil {
		t.Fatalf("NewPoolCollector: %v", err)
	}
	collector.ObserveEnumeration(0, 0, 1)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(buf.String(), "sidelink_enumerations_total") {
		t.Fatal("metrics output missing sidelink_enumerations_total")
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			if h := metric.GetHistogram(); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	seen := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		seen[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if seen[k] != v {
			return false
		}
	}
	return true
}
