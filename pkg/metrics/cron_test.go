package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSweepMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSweepMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_790_000_000, 0) }

	m.ObserveRun("outbox-retention", 250*time.Millisecond, nil)
	m.ObserveRun("outbox-retention", 10*time.Millisecond, errors.New("timeout"))
	m.ObserveRun("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, result := range []string{"ok", "error"} {
		got, err := fetchCounterValue(mfs, "hatchery_sweep_runs_total", "result", result)
		if err != nil {
			t.Fatalf("fetch %s: %v", result, err)
		}
		if got != 1 {
			t.Fatalf("expected one %s run, got %f", result, got)
		}
	}
	if _, err := fetchCounterValue(mfs, "hatchery_sweep_runs_total", "job", "unknown"); err != nil {
		t.Fatalf("expected blank job name to be labelled unknown: %v", err)
	}

	sum, err := fetchHistogramSum(mfs, "hatchery_sweep_duration_seconds", "job", "outbox-retention")
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum < 0.26 || sum > 0.2601 {
		t.Fatalf("expected duration sum 0.26, got %f", sum)
	}

	gauge := findMetricFamily(mfs, "hatchery_sweep_last_success_timestamp_seconds")
	if gauge == nil {
		t.Fatal("last success gauge missing")
	}
	for _, metric := range gauge.GetMetric() {
		if matchesLabel(metric.GetLabel(), "job", "outbox-retention") && metric.GetGauge().GetValue() != 1_790_000_000 {
			t.Fatalf("unexpected last success %f", metric.GetGauge().GetValue())
		}
	}
}

func TestSweepMetricsNilSafe(t *testing.T) {
	var m *SweepMetrics
	m.ObserveRun("job", time.Second, nil)
	NewSweepMetrics(nil).ObserveRun("job", time.Second, errors.New("x"))
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
