package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/validation"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// maxPayloadBytes caps the size of a prediction request body.
const maxPayloadBytes = 1 << 20

// Config wires the handlers to their collaborators.
type Config struct {
	Backend   Backend
	Dashboard Dashboard
	// Validator is optional; nil skips payload validation.
	Validator Validator
	// BaseURL of the metrics API, reported by the health check.
	BaseURL string
	Logger  *slog.Logger
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	backend   Backend
	dash      Dashboard
	validator Validator
	baseURL   string
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers from cfg.
func NewHandlers(cfg Config) *Handlers {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handlers{
		backend:   cfg.Backend,
		dash:      cfg.Dashboard,
		validator: cfg.Validator,
		baseURL:   cfg.BaseURL,
		logger:    cfg.Logger,
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		BaseURL: h.baseURL,
	})
}

// HandleView returns the current dashboard view.
func (h *Handlers) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dash.View())
}

// HandleRefresh refetches the latest run and returns the resulting view.
// A failed refresh answers 502 with the previous values still in the view.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	err := h.dash.Refresh(r.Context())
	resp := RefreshResponse{View: h.dash.View()}
	if err != nil {
		h.logger.Debug("manual refresh failed", "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleInterval reports the polling interval of the latest run.
func (h *Handlers) HandleInterval(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newIntervalResponse(h.dash.Interval()))
}

// HandleSetInterval changes the polling interval. The body is
// {"interval": "10s"}; "0s" stops polling until a positive value is set.
func (h *Handlers) HandleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req IntervalRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(req.Interval))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interval: "+err.Error())
		return
	}
	if d < 0 {
		writeError(w, http.StatusBadRequest, "interval must not be negative")
		return
	}

	h.dash.SetInterval(d)
	h.logger.Info("poll interval changed", "interval", d)
	writeJSON(w, http.StatusOK, newIntervalResponse(h.dash.Interval()))
}

// HandleRuns proxies one page of the run list, with optional
// limit/page/include_curves query params.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), metrics.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
		return
	}
	page, err := intParam(q.Get("page"), metrics.DefaultPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page: "+err.Error())
		return
	}
	includeCurves, err := boolParam(q.Get("include_curves"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid include_curves: "+err.Error())
		return
	}

	body, err := h.backend.ListMetrics(r.Context(), metricsapi.ListOptions{
		Limit:         limit,
		Page:          page,
		IncludeCurves: includeCurves,
	})
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	decoded, err := metrics.DecodePage(body.Value, metrics.EmptyPage(page, limit))
	if err != nil {
		writeError(w, http.StatusBadGateway, "unexpected list response: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{
		Page:      *decoded,
		Aggregate: metrics.Aggregate(decoded.Evaluations()),
	})
}

// HandleRunDetail returns one parsed run.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		// Fallback: extract from URL path for compatibility.
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
		if len(parts) > 0 {
			id = parts[0]
		}
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, metricsapi.ErrEmptyRunID.Error())
		return
	}
	includeCurves, err := boolParam(r.URL.Query().Get("include_curves"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid include_curves: "+err.Error())
		return
	}

	body, err := h.backend.GetMetricByID(r.Context(), id, metricsapi.LatestOptions{IncludeCurves: includeCurves})
	if err != nil {
		if errors.Is(err, metricsapi.ErrEmptyRunID) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, metrics.ParseRun(metrics.Unwrap(body.Value)))
}

// HandlePredict validates the request payload and forwards it to the
// prediction endpoint. The upstream answer is returned as JSON when it
// parses, and as plain text otherwise.
func (h *Handlers) HandlePredict(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "reading payload: "+err.Error())
		return
	}

	payload, err := validation.DecodePayload(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if h.validator != nil {
		if err := h.validator.Validate(payload); err != nil {
			var pe *validation.PayloadError
			if errors.As(err, &pe) {
				writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
					Error:   "payload does not match schema",
					Code:    http.StatusUnprocessableEntity,
					Details: pe.Violations,
				})
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	body, err := h.backend.Predict(r.Context(), payload)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	if body.IsJSON {
		writeJSON(w, http.StatusOK, body.Value)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body.Raw) //nolint:errcheck
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, cfg Config) {
	h := NewHandlers(cfg)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/view", h.HandleView)
	mux.HandleFunc("POST /api/refresh", h.HandleRefresh)
	mux.HandleFunc("GET /api/interval", h.HandleInterval)
	mux.HandleFunc("PUT /api/interval", h.HandleSetInterval)
	mux.HandleFunc("GET /api/runs", h.HandleRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleRunDetail)
	mux.HandleFunc("POST /api/predict", h.HandlePredict)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeUpstreamError reports a failed metrics API call as 502. A non-2xx
// answer keeps its "HTTP <code> - <text>" message.
func (h *Handlers) writeUpstreamError(w http.ResponseWriter, err error) {
	var se *metricsapi.StatusError
	if errors.As(err, &se) {
		h.logger.Debug("metrics API returned an error", "status", se.StatusCode, "url", se.URL)
		writeError(w, http.StatusBadGateway, se.Error())
		return
	}
	h.logger.Debug("metrics API unreachable", "error", err)
	writeError(w, http.StatusBadGateway, fmt.Sprintf("metrics API request failed: %v", err))
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1, got %d", n)
	}
	return n, nil
}

func boolParam(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

// writeJSON encodes v before writing the header, so a value that cannot be
// encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding response", "error", err)
		data, _ = json.Marshal(ErrorResponse{Error: "encoding response: " + err.Error(), Code: http.StatusInternalServerError})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
