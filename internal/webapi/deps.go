package webapi

//go:generate go tool mockgen -source=deps.go -destination=mock_deps_test.go -package=webapi

import (
	"context"
	"time"

	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metricsapi"
)

// Backend is the part of the metrics API the handlers proxy to.
type Backend interface {
	ListMetrics(ctx context.Context, opts metricsapi.ListOptions) (*metricsapi.Body, error)
	GetMetricByID(ctx context.Context, runID string, opts metricsapi.LatestOptions) (*metricsapi.Body, error)
	Predict(ctx context.Context, payload any) (*metricsapi.Body, error)
}

// Dashboard exposes the live view of the latest run.
type Dashboard interface {
	// View returns the current view.
	View() dashboard.View
	// Refresh fetches the latest run now and waits for it.
	Refresh(ctx context.Context) error
	// Interval is the current polling interval, zero when polling is off.
	Interval() time.Duration
	// SetInterval replaces the polling timer. d <= 0 stops polling.
	SetInterval(d time.Duration)
}

// Validator checks prediction payloads. Violations are reported as
// *validation.PayloadError.
type Validator interface {
	Validate(payload any) error
}
