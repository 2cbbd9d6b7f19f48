package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestUpstreamMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewUpstreamMetrics(reg)
	metrics.ObserveDuration("viacep", 250*time.Millisecond)
	metrics.IncOutcome("viacep", OutcomeSuccess)
	metrics.IncOutcome("viacep", OutcomeFailure)
	metrics.IncOutcome("viacep", OutcomeFailure)
	metrics.SetBreakerOpen("viacep", true)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchValue(mfs, "vitrine_upstream_requests_total", map[string]string{"upstream": "viacep", "outcome": OutcomeSuccess}); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got, err := fetchValue(mfs, "vitrine_upstream_requests_total", map[string]string{"upstream": "viacep", "outcome": OutcomeFailure}); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 2 {
		t.Fatalf("expected failure=2, got %f", got)
	}
	if got, err := fetchValue(mfs, "vitrine_upstream_request_duration_seconds", map[string]string{"upstream": "viacep"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchValue(mfs, "vitrine_upstream_breaker_open", map[string]string{"upstream": "viacep"}); err != nil {
		t.Fatalf("fetch breaker: %v", err)
	} else if got != 1 {
		t.Fatalf("expected breaker gauge=1, got %f", got)
	}
}

func TestCheckoutMetricsCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.IncOrder("submitted")
	metrics.IncResolution("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchValue(mfs, "vitrine_orders_submitted_total", map[string]string{"result": "submitted"}); err != nil || got != 1 {
		t.Fatalf("expected submitted=1, got %f (%v)", got, err)
	}
	if got, err := fetchValue(mfs, "vitrine_postal_code_resolutions_total", map[string]string{"status": "unknown"}); err != nil || got != 1 {
		t.Fatalf("expected unknown=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var upstream *UpstreamMetrics
	upstream.ObserveDuration("x", time.Second)
	upstream.IncOutcome("x", OutcomeSuccess)
	upstream.SetBreakerOpen("x", false)

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncOrder("submitted")
}

func fetchValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if !matchesLabels(metric.GetLabel(), labels) {
			continue
		}
		switch {
		case metric.GetHistogram() != nil:
			return metric.GetHistogram().GetSampleSum(), nil
		case metric.GetGauge() != nil:
			return metric.GetGauge().GetValue(), nil
		default:
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
