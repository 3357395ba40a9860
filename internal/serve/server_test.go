package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	"github.com/KRR-Oxford/docnav/internal/metrics"
)

func testProjection(t *testing.T) *eventstore.RunHistoryProjection {
	t.Helper()
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	projection := eventstore.NewRunHistoryProjection(store, 10)
	started, err := eventstore.NewCheckStarted("run-1", eventstore.CheckStartedMeta{Trigger: "cli"})
	require.NoError(t, err)
	require.NoError(t, eventstore.Record(context.Background(), store, started))
	projection.Apply(started)
	return projection
}

func newTestServer(t *testing.T, projection *eventstore.RunHistoryProjection, registry *prom.Registry, withMetrics bool) *httptest.Server {
	t.Helper()
	siteDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"), []byte("<html>home</html>"), 0o644))

	s := NewServer(config.ServeConfig{Listen: ":0", Metrics: withMetrics}, siteDir, projection, registry)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, nil, nil, false)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_ServesSiteFiles(t *testing.T) {
	srv := newTestServer(t, nil, nil, false)

	resp, err := http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Status_ListsRuns(t *testing.T) {
	srv := newTestServer(t, testProjection(t), nil, false)

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Runs []eventstore.RunSummary `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Runs, 1)
	require.Equal(t, "run-1", payload.Runs[0].RunID)
}

func TestHandler_Run_ByID(t *testing.T) {
	srv := newTestServer(t, testProjection(t), nil, false)

	resp, err := http.Get(srv.URL + "/api/runs/run-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary eventstore.RunSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Equal(t, "cli", summary.Trigger)

	resp, err = http.Get(srv.URL + "/api/runs/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Metrics_OnlyWhenEnabled(t *testing.T) {
	registry := prom.NewRegistry()
	metrics.NewPrometheusRecorder(registry).IncRebuild("watch")

	srv := newTestServer(t, nil, registry, true)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	disabled := newTestServer(t, nil, nil, false)
	resp, err = http.Get(disabled.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
