package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.ObserveSubmission(OutcomeAccepted, 250*time.Millisecond)
	metrics.ObserveSubmission(OutcomeBlocked, time.Millisecond)
	metrics.ObserveSubmission(OutcomeBlocked, time.Millisecond)
	metrics.RecordSale("cash", 45000, 5000, 100)
	metrics.RecordSale("", 1000, 0, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pos_checkout_submissions_total", "outcome", OutcomeBlocked); err != nil {
		t.Fatalf("fetch blocked: %v", err)
	} else if got != 2 {
		t.Fatalf("expected blocked=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "pos_checkout_submit_duration_seconds", "outcome", OutcomeAccepted); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_sales_amount_total", "payment_method", "cash"); err != nil {
		t.Fatalf("fetch sales: %v", err)
	} else if got != 45000 {
		t.Fatalf("expected sales=45000, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_sales_amount_total", "payment_method", "unknown"); err != nil {
		t.Fatalf("fetch unknown sales: %v", err)
	} else if got != 1000 {
		t.Fatalf("expected unknown sales=1000, got %f", got)
	}

	if got, err := fetchPlainCounter(mfs, "pos_points_redeemed_total"); err != nil {
		t.Fatalf("fetch points: %v", err)
	} else if got != 100 {
		t.Fatalf("expected points=100, got %f", got)
	}
}

func TestHTTPAndCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := NewHTTPMetrics(reg)
	cacheMetrics := NewCacheMetrics(reg)

	httpMetrics.Observe("GET", "/api/v1/cart", 200, 10*time.Millisecond)
	cacheMetrics.Hit("product")
	cacheMetrics.Miss("product")
	cacheMetrics.Miss("product")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pos_http_requests_total", "route", "/api/v1/cart"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_cache_lookups_total", "result", "miss"); err != nil {
		t.Fatalf("fetch misses: %v", err)
	} else if got != 2 {
		t.Fatalf("expected misses=2, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var checkout *CheckoutMetrics
	checkout.ObserveSubmission(OutcomeFailed, time.Second)
	checkout.RecordSale("cash", 1, 1, 1)

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Second)

	unregistered := NewCacheMetrics(nil)
	unregistered.Hit("product")
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
