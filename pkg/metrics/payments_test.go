package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPaymentMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)

	metrics.IncInitiation("pro", "monthly")
	metrics.IncWebhookEvent("charge.success", "reconciled")
	metrics.IncWebhookEvent("charge.success", "replay")
	metrics.ObserveReconcile("charge.success", 40*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payment_initiations_total", "plan", "pro"); err != nil {
		t.Fatalf("fetch initiations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected initiations=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_webhook_events_total", "outcome", "replay"); err != nil {
		t.Fatalf("fetch webhook events: %v", err)
	} else if got != 1 {
		t.Fatalf("expected replay=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "payment_reconcile_duration_seconds", "event", "charge.success"); err != nil {
		t.Fatalf("fetch reconcile duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPaymentMetricsNilReceiverIsNoop(t *testing.T) {
	var metrics *PaymentMetrics
	metrics.IncInitiation("pro", "monthly")
	metrics.IncWebhookEvent("charge.success", "reconciled")
	metrics.ObserveReconcile("charge.success", time.Second)

	unregistered := NewPaymentMetrics(nil)
	unregistered.IncInitiation("", "")
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
