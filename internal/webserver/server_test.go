package webserver

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spboyer/evaldash/internal/chart"
	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/poller"
	"github.com/spboyer/evaldash/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestDoc = `{
  "run_id": "run-1",
  "model": "Random Forest Classifier v2.1",
  "precision": 0.91,
  "recall": 0.84,
  "accuracy": 0.88,
  "f1_score": 0.87,
  "Curvas": {
    "roc": {"labels": [0, 0.5, 1], "values": [0, 0.9, 1]},
    "pr": {"labels": [0, 0.5, 1], "values": [1, 0.9, 0.6]}
  }
}`

type testEnv struct {
	handler http.Handler
	charts  *chart.Board
	live    *dashboard.Live
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/metrics/latest", "/api/metrics/run-1":
			io.WriteString(w, latestDoc) //nolint:errcheck
		case "/api/metrics":
			io.WriteString(w, `{"items": [`+latestDoc+`], "total": 1}`) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	reg := prometheus.NewRegistry()
	tel := telemetry.New(reg)
	client := metricsapi.New(metricsapi.Options{BaseURL: backend.URL, Telemetry: tel})
	p := poller.New(func(ctx context.Context) (*metrics.Evaluation, error) {
		body, err := client.GetLatestMetrics(ctx, metricsapi.LatestOptions{IncludeCurves: true})
		if err != nil {
			return nil, err
		}
		return metrics.Parse(metrics.Unwrap(body.Value))
	}, poller.Options[*metrics.Evaluation]{Telemetry: tel})
	live := dashboard.NewLive(dashboard.New(), p)

	charts := chart.NewBoard(pageTitle)
	charts.Draw(chart.CanvasROC, chart.ROC(nil))
	charts.Draw(chart.CanvasPR, chart.PR(nil))

	srv, err := New(Config{
		NoBrowser: true,
		Backend:   client,
		Dashboard: live,
		Charts:    charts,
		BaseURL:   client.BaseURL(),
		Gatherer:  reg,
		Out:       io.Discard,
	})
	require.NoError(t, err)
	return &testEnv{handler: srv.Handler(), charts: charts, live: live}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresDashboard(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := env.get(t, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestDashboardPageShowsPlaceholdersBeforeData(t *testing.T) {
	env := newTestServer(t)

	rec := env.get(t, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "--%")
	assert.Contains(t, body, `id="roc"`)
	assert.Contains(t, body, `id="pr"`)
	assert.Contains(t, body, "Random classifier")
}

func TestRefreshUpdatesPageAndReport(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	view := env.live.View()
	assert.Equal(t, "run-1", view.RunID)

	page := env.get(t, "/").Body.String()
	assert.Contains(t, page, "91.00%")
	assert.Contains(t, page, "Random Forest Classifier v2.1")

	report := env.get(t, "/report")
	assert.Equal(t, http.StatusOK, report.Code)
	assert.Contains(t, report.Body.String(), "<table>")
	// Values are right-aligned, so the cell carries an alignment attribute.
	assert.Contains(t, report.Body.String(), `>91.00%</td>`)
	assert.Contains(t, report.Body.String(), "text-align:right")
}

func TestRunsProxy(t *testing.T) {
	env := newTestServer(t)

	rec := env.get(t, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 5, body["limit"])
}

func TestRunDetailUpstream404Is502(t *testing.T) {
	env := newTestServer(t)

	rec := env.get(t, "/api/runs/missing")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "HTTP 404 - Not Found")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t)
	env.get(t, "/api/runs")

	rec := env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `evaldash_api_requests_total{code="200",endpoint="list"} 1`)
}

func TestUnknownPathIs404(t *testing.T) {
	env := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/dashboard").Code)
}

func TestResponsesAreGzipped(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(plain), `id="roc"`))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	live := dashboard.NewLive(dashboard.New(), poller.New(func(context.Context) (*metrics.Evaluation, error) {
		return &metrics.Evaluation{}, nil
	}, poller.Options[*metrics.Evaluation]{}))
	srv, err := New(Config{NoBrowser: true, Dashboard: live, Gatherer: prometheus.NewRegistry(), Out: io.Discard})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close() //nolint:errcheck
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
