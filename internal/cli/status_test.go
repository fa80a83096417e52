package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/readlater/internal/metrics"
)

type fakeStatus struct {
	seq  int64
	path string
}

func (f fakeStatus) Seq() int64   { return f.seq }
func (f fakeStatus) Path() string { return f.path }

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	collector.RecordUpserted(3)

	srv := httptest.NewServer(newStatusRouter(fakeStatus{seq: 7, path: "/tmp/x.sqlite"}, registry))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusRouter_Healthz(t *testing.T) {
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, HealthResponse{Status: "ok", Seq: 7, Store: "/tmp/x.sqlite"}, health)
}

func TestStatusRouter_Metrics(t *testing.T) {
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "readlater_records_upserted_total 3")
}

func TestStatusRouter_UnknownRoute(t *testing.T) {
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}
