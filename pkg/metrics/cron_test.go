package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("fulfillment-sync", JobOutcomeSuccess, 250*time.Millisecond)
	m.ObserveRun("fulfillment-sync", JobOutcomeTimeout, time.Second)
	m.ObserveRun("fulfillment-sync", "", time.Second)
	m.IncSkipped()

	if got := testutil.ToFloat64(m.runs.WithLabelValues("fulfillment-sync", JobOutcomeSuccess)); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("fulfillment-sync", JobOutcomeTimeout)); got != 1 {
		t.Fatalf("expected timeout=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("fulfillment-sync", JobOutcomeFailure)); got != 1 {
		t.Fatalf("expected blank outcome counted as failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.skipped); got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	h, err := findHistogram(mfs, "hz_cron_job_duration_seconds", "job", "fulfillment-sync")
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	if h.GetSampleCount() != 3 {
		t.Fatalf("expected 3 duration samples, got %d", h.GetSampleCount())
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", JobOutcomeSuccess, time.Second)
	m.IncSkipped()

	unregistered := NewCronJobMetrics(nil)
	unregistered.ObserveRun("job", JobOutcomeSuccess, time.Second)
	unregistered.IncSkipped()
}

func findHistogram(mfs []*dto.MetricFamily, name, label, value string) (*dto.Histogram, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetHistogram(), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("histogram %q missing %s=%s", name, label, value)
}
