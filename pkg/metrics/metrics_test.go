package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("POST", "/api/assignments", 201, 120*time.Millisecond)
	metrics.Observe("POST", "/api/assignments", 400, 10*time.Millisecond)
	metrics.Observe("POST", "/api/assignments", 201, 30*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "/api/assignments", "status": "201"}); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 created requests, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", map[string]string{"route": "/api/assignments"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0.15 {
		t.Fatalf("expected duration sum > 0.15, got %f", got)
	}
}

func TestHTTPMetricsUnknownRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if _, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "unknown"}); err != nil {
		t.Fatalf("expected unknown route label: %v", err)
	}
}

func TestSessionMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSessionMetrics(reg)
	metrics.IncIssued(IssueLogin)
	metrics.IncIssued(IssueRefresh)
	metrics.IncIssued(IssueRefresh)
	metrics.IncRefreshRejected(RejectVersion)
	metrics.IncContextSwitch("FRANCHISE")
	metrics.IncGateDenied("require_context")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"session_tokens_issued_total", map[string]string{"reason": IssueRefresh}, 2},
		{"session_tokens_issued_total", map[string]string{"reason": IssueLogin}, 1},
		{"session_refresh_rejected_total", map[string]string{"reason": RejectVersion}, 1},
		{"session_context_switches_total", map[string]string{"scope": "FRANCHISE"}, 1},
		{"authz_gate_denied_total", map[string]string{"gate": "require_context"}, 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.labels)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s%v: expected %f, got %f", c.name, c.labels, c.want, got)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var session *SessionMetrics
	session.IncIssued(IssueLogin)
	session.IncGateDenied("x")

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Millisecond)

	NewSessionMetrics(nil).IncContextSwitch("GLOBAL")
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
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
	for _, label := range pairs {
		if v, ok := want[label.GetName()]; ok && v == label.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
