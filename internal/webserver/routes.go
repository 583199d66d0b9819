package webserver

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spboyer/evaldash/internal/chart"
	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/webapi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const pageTitle = "Model evaluation"

// registerRoutes sets up the API, page, and metrics routes on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	webapi.RegisterRoutes(mux, webapi.Config{
		Backend:   cfg.Backend,
		Dashboard: cfg.Dashboard,
		Validator: cfg.Validator,
		BaseURL:   cfg.BaseURL,
		Logger:    cfg.Logger,
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /report", reportHandler(cfg.Dashboard))
	mux.HandleFunc("GET /{$}", pageHandler(cfg.Dashboard, cfg.Charts))
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<header class="evaldash-header">
  <h1>{{ .Title }}</h1>
  {{- if .View.Model }}<p>Model: <strong>{{ .View.Model }}</strong></p>{{ end }}
  {{- if .View.RunID }}<p>Run: <code>{{ .View.RunID }}</code></p>{{ end }}
  <p><a href="/report">Report</a> · <a href="/api/view">JSON</a></p>
</header>
{{- if .View.Error }}
<div class="evaldash-error" role="alert">{{ .View.Error }}</div>
{{- end }}
{{- if .View.Loading }}
<div class="evaldash-loading">Loading…</div>
{{- end }}
<section class="evaldash-cards">
{{- range .View.Cards }}
  <div class="evaldash-card" id="card-{{ .Field }}">
    <h3>{{ .Label }}</h3>
    <p class="evaldash-value">{{ .Value }}</p>
    <small>{{ .Description }}</small>
  </div>
{{- end }}
</section>
{{- with .View.Confusion }}
<section class="evaldash-confusion">
  <h2>Confusion matrix</h2>
  <table>
    <tr><th></th><th>Predicted positive</th><th>Predicted negative</th></tr>
    <tr><th>Actual positive</th><td>TP {{ .TP }}</td><td>FN {{ .FN }}</td></tr>
    <tr><th>Actual negative</th><td>FP {{ .FP }}</td><td>TN {{ .TN }}</td></tr>
  </table>
</section>
{{- end }}
<style>
  .evaldash-cards { display: flex; flex-wrap: wrap; gap: 12px; justify-content: center; }
  .evaldash-card { border: 1px solid #ddd; border-radius: 6px; padding: 12px 18px; min-width: 160px; }
  .evaldash-value { font-size: 1.6em; margin: 4px 0; }
  .evaldash-error { background: #fdecea; color: #b71c1c; padding: 8px 12px; margin: 8px 0; }
  .evaldash-header, .evaldash-confusion { text-align: center; font-family: sans-serif; }
  .evaldash-confusion table { margin: auto; }
</style>
`))

// pageHandler renders the dashboard: summary cards followed by the live
// ROC and PR charts.
func pageHandler(dash webapi.Dashboard, charts *chart.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var summary bytes.Buffer
		err := summaryTemplate.Execute(&summary, struct {
			Title string
			View  dashboard.View
		}{pageTitle, dash.View()})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var page bytes.Buffer
		if err := charts.RenderPage(&page, summary.String()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page.Bytes()) //nolint:errcheck
	}
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// reportHandler renders the markdown summary of the view as HTML.
func reportHandler(dash webapi.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var body bytes.Buffer
		if err := markdown.Convert([]byte(dash.View().Markdown()), &body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>" + pageTitle + " report</title></head><body>\n")) //nolint:errcheck
		w.Write(body.Bytes())                                                                                                          //nolint:errcheck
		w.Write([]byte("</body></html>\n"))                                                                                            //nolint:errcheck
	}
}
