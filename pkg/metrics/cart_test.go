package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	shop := "botiga-nord"
	metrics.IncItemAdded(shop)
	metrics.IncItemAdded(shop)
	metrics.IncCheckout("success")
	metrics.ObserveSettlement(shop, 99.17)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_items_added", "shop", shop); err != nil {
		t.Fatalf("fetch items added: %v", err)
	} else if got != 2 {
		t.Fatalf("expected items_added=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_checkouts", "outcome", "success"); err != nil {
		t.Fatalf("fetch checkouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkouts=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_settled_total", "shop", shop); err != nil {
		t.Fatalf("fetch settlement: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected settlement sum > 0, got %f", got)
	}
}

func TestCartMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *CartMetrics
	metrics.IncItemAdded("any")
	metrics.IncCheckout("success")
	metrics.ObserveSettlement("any", 1)
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
