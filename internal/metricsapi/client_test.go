package metricsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spboyer/evaldash/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	rawURL string
	query  string
	header http.Header
	body   string
}

type backend struct {
	*httptest.Server
	mu   sync.Mutex
	reqs []recordedRequest
}

func (b *backend) requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.reqs...)
}

func newBackend(t *testing.T, status int, body string) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.reqs = append(b.reqs, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			rawURL: r.RequestURI,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(data),
		})
		b.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func TestGetLatestMetrics(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"precision": 0.9}`)
	c := New(Options{BaseURL: srv.URL + "/"})

	body, err := c.GetLatestMetrics(context.Background(), LatestOptions{IncludeCurves: false})
	require.NoError(t, err)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/metrics/latest", got.path)
	assert.Equal(t, 1, strings.Count(got.query, "include_curves=false"))
	assert.Equal(t, "include_curves=false", got.query)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.NotEmpty(t, got.header.Get("X-Request-ID"))

	assert.True(t, body.IsJSON)
	assert.Equal(t, map[string]any{"precision": 0.9}, body.Value)
}

func TestListMetricsQuery(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want map[string]string
	}{
		{"defaults", ListOptions{}, map[string]string{"limit": "10", "page": "1", "include_curves": "false"}},
		{"explicit", ListOptions{Limit: 25, Page: 3, IncludeCurves: true}, map[string]string{"limit": "25", "page": "3", "include_curves": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, `{"items": [], "total": 0}`)
			c := New(Options{BaseURL: srv.URL})

			_, err := c.ListMetrics(context.Background(), tt.opts)
			require.NoError(t, err)

			got := srv.requests()[0]
			assert.Equal(t, "/api/metrics", got.path)
			for k, v := range tt.want {
				assert.Equal(t, 1, strings.Count(got.query, k+"="), "param %s", k)
				assert.Contains(t, got.query, k+"="+v)
			}
		})
	}
}

func TestGetMetricByIDEscapesRunID(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"run_id": "a/b c"}`)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.GetMetricByID(context.Background(), "a/b c", LatestOptions{IncludeCurves: true})
	require.NoError(t, err)

	got := srv.requests()[0]
	assert.Equal(t, "/api/metrics/a%2Fb%20c?include_curves=true", got.rawURL)
}

func TestGetMetricByIDRequiresID(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{}`)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.GetMetricByID(context.Background(), "", LatestOptions{})
	assert.ErrorIs(t, err, ErrEmptyRunID)
	assert.Empty(t, srv.requests())
}

func TestPredictPostsJSON(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"prediction": 1, "probability": 0.87}`)
	c := New(Options{BaseURL: srv.URL})

	body, err := c.Predict(context.Background(), map[string]any{"age": 42, "income": 1000.5})
	require.NoError(t, err)

	got := srv.requests()[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/predict", got.path)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.body), &sent))
	assert.Equal(t, 42.0, sent["age"])

	assert.Equal(t, 0.87, body.Value.(map[string]any)["probability"])
}

func TestPredictEncodingFailure(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{}`)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Predict(context.Background(), map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "encoding predict payload")
	assert.Empty(t, srv.requests())
}

func TestStatusErrors(t *testing.T) {
	for _, status := range []int{300, 400, 404, 500, 503} {
		srv := newBackend(t, status, `{"detail": "nope"}`)
		c := New(Options{BaseURL: srv.URL})

		_, err := c.GetLatestMetrics(context.Background(), LatestOptions{IncludeCurves: true})
		require.Error(t, err)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, status, se.StatusCode)
		assert.Contains(t, err.Error(), http.StatusText(status))
		assert.True(t, strings.HasPrefix(err.Error(), "HTTP "+itoa(status)+" - "), err.Error())
		assert.NotContains(t, err.Error(), "nope", "body is only reported for predict")
		assert.True(t, IsStatus(err, status))
	}
}

func TestPredictStatusErrorIncludesBody(t *testing.T) {
	srv := newBackend(t, http.StatusUnprocessableEntity, `{"detail": "age is required"}`)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Predict(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, `HTTP 422 - Unprocessable Entity: {"detail": "age is required"}`, err.Error())
}

func TestNonJSONBodyReturnedAsText(t *testing.T) {
	const text = "  metrics are warming up, try again\n"
	srv := newBackend(t, http.StatusOK, text)
	c := New(Options{BaseURL: srv.URL})

	body, err := c.GetLatestMetrics(context.Background(), LatestOptions{})
	require.NoError(t, err)
	assert.False(t, body.IsJSON)
	assert.Equal(t, text, body.Value)
	assert.Equal(t, text, body.Text())
}

func TestTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	tel := telemetry.New(nil)
	c := New(Options{BaseURL: srv.URL, Telemetry: tel})

	_, err := c.ListMetrics(context.Background(), ListOptions{})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.Requests().WithLabelValues(EndpointList, "error")))
}

func TestContextCancellation(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{}`)
	c := New(Options{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetLatestMetrics(ctx, LatestOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New(Options{}).BaseURL())
	assert.Equal(t, "http://metrics.internal:9000", New(Options{BaseURL: "http://metrics.internal:9000///"}).BaseURL())
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
