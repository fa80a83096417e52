package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestNopSatisfiesInterface(t *testing.T) {
	var c MetricsCollector = Nop{}
	c.RecordCommit(time.Millisecond)
	c.RecordDropped(ReasonMalformed)
	c.RecordSubscriptionClosed()
}

func TestRecordCommit(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommit(10 * time.Millisecond)
	c.RecordCommit(20 * time.Millisecond)
	c.RecordCommitFailure()

	assert.Equal(t, 2.0, gather(t, reg, "readlater_commits_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, gather(t, reg, "readlater_commit_failures_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, uint64(2), gather(t, reg, "readlater_commit_latency_seconds").GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestRecordDropped_ByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDropped(ReasonMalformed)
	c.RecordDropped(ReasonTombstone)
	c.RecordDropped(ReasonTombstone)

	values := map[string]float64{}
	for _, m := range gather(t, reg, "readlater_records_dropped_total").GetMetric() {
		values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{ReasonMalformed: 1, ReasonTombstone: 2}, values)
}

func TestSubscriptionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubscriptionOpened()
	c.RecordSubscriptionOpened()
	c.RecordSubscriptionClosed()

	assert.Equal(t, 1.0, gather(t, reg, "readlater_subscriptions").GetMetric()[0].GetGauge().GetValue())
}

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUpserted(3)
	c.RecordDeltas("insert", 2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	SetupMetricsRoute(reg).ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "readlater_records_upserted_total 3")
	assert.Contains(t, string(body), `readlater_deltas_total{type="insert"} 2`)
}
