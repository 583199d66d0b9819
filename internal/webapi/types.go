package webapi

import (
	"time"

	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metrics"
)

// RunsResponse is one page of runs with aggregate statistics over it.
type RunsResponse struct {
	metrics.Page
	Aggregate map[metrics.Field]metrics.Stats `json:"aggregate"`
}

// RefreshResponse is returned by a manual refresh.
type RefreshResponse struct {
	View dashboard.View `json:"view"`
	// Error is set when the refresh failed; View then still holds the
	// previous values.
	Error string `json:"error,omitempty"`
}

// IntervalRequest changes the polling interval.
type IntervalRequest struct {
	Interval string `json:"interval"`
}

// IntervalResponse reports the polling interval.
type IntervalResponse struct {
	Interval string  `json:"interval"`
	Seconds  float64 `json:"seconds"`
	Polling  bool    `json:"polling"`
}

func newIntervalResponse(d time.Duration) IntervalResponse {
	return IntervalResponse{Interval: d.String(), Seconds: d.Seconds(), Polling: d > 0}
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    int      `json:"code"`
	Details []string `json:"details,omitempty"`
}
