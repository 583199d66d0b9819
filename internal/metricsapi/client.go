// Package metricsapi is a client for the model evaluation metrics REST API.
//
// Endpoints:
//
//	GET  /api/metrics/latest?include_curves=true
//	GET  /api/metrics?limit=10&page=1&include_curves=false
//	GET  /api/metrics/{run_id}?include_curves=true
//	POST /api/predict
package metricsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/evaldash/internal/telemetry"
)

// DefaultBaseURL is the address of a locally running metrics backend.
const DefaultBaseURL = "http://localhost:8000"

// ErrEmptyRunID is returned by GetMetricByID when no run id is given.
var ErrEmptyRunID = errors.New("run id is required")

// Endpoint names used for logging and telemetry.
const (
	EndpointLatest  = "latest"
	EndpointList    = "list"
	EndpointByID    = "by_id"
	EndpointPredict = "predict"
)

// Options configures a Client.
type Options struct {
	// BaseURL of the backend. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient used for requests. Defaults to a client without a timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Telemetry  *telemetry.Recorder
}

// Client performs single round trips against the metrics API. It does not
// retry; any timeout comes from the HTTP client or the request context.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	tel     *telemetry.Recorder
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		logger:  opts.Logger,
		tel:     opts.Telemetry,
	}
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LatestOptions controls the single-run endpoints.
type LatestOptions struct {
	IncludeCurves bool
}

// ListOptions controls the paginated list endpoint. Zero Limit and Page
// select the backend defaults of 10 and 1.
type ListOptions struct {
	Limit         int
	Page          int
	IncludeCurves bool
}

// GetLatestMetrics fetches the most recent evaluation run.
func (c *Client) GetLatestMetrics(ctx context.Context, opts LatestOptions) (*Body, error) {
	q := url.Values{}
	q.Set("include_curves", strconv.FormatBool(opts.IncludeCurves))
	return c.do(ctx, EndpointLatest, http.MethodGet, "/api/metrics/latest", q, nil)
}

// ListMetrics fetches one page of evaluation runs.
func (c *Client) ListMetrics(ctx context.Context, opts ListOptions) (*Body, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(opts.Limit))
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("include_curves", strconv.FormatBool(opts.IncludeCurves))
	return c.do(ctx, EndpointList, http.MethodGet, "/api/metrics", q, nil)
}

// GetMetricByID fetches one evaluation run by its identifier.
func (c *Client) GetMetricByID(ctx context.Context, runID string, opts LatestOptions) (*Body, error) {
	if runID == "" {
		return nil, ErrEmptyRunID
	}
	q := url.Values{}
	q.Set("include_curves", strconv.FormatBool(opts.IncludeCurves))
	return c.do(ctx, EndpointByID, http.MethodGet, "/api/metrics/"+url.PathEscape(runID), q, nil)
}

// Predict posts payload, encoded as JSON, to the prediction endpoint.
func (c *Client) Predict(ctx context.Context, payload any) (*Body, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding predict payload: %w", err)
	}
	return c.do(ctx, EndpointPredict, http.MethodPost, "/api/predict", nil, data)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, payload []byte) (*Body, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.tel.ObserveRequest(endpoint, 0, time.Since(start))
		c.logger.Debug("metrics API request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	c.tel.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("metrics API response",
		"endpoint", endpoint,
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
		if endpoint == EndpointPredict {
			se.Body = string(raw)
			se.IncludeBody = true
		}
		return nil, se
	}
	return parseBody(raw), nil
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
