package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/webapi"
)

// Output formats accepted by the --format flags.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// viewOf renders ev through a fresh board so one-shot commands format
// values exactly like the dashboard.
func viewOf(ev *metrics.Evaluation) dashboard.View {
	b := dashboard.New()
	b.Apply(ev)
	return b.View()
}

// writeEvaluation prints a single run in the requested format.
func writeEvaluation(w io.Writer, ev *metrics.Evaluation, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, ev)
	case formatMarkdown:
		_, err := io.WriteString(w, viewOf(ev).Markdown())
		return err
	default:
		writeViewText(w, viewOf(ev))
		return nil
	}
}

// writeViewText prints v as aligned plain text.
func writeViewText(w io.Writer, v dashboard.View) {
	if v.Model != "" {
		fmt.Fprintf(w, "Model: %s\n", v.Model) //nolint:errcheck
	}
	if v.RunID != "" {
		fmt.Fprintf(w, "Run:   %s\n", v.RunID) //nolint:errcheck
	}
	if v.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", v.Error) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck

	width := labelWidth(v.Cards)
	for _, c := range v.Cards {
		value := c.Value
		if c.Derived {
			value += " (derived)"
		}
		fmt.Fprintf(w, "  %s  %s\n", padRight(c.Label, width), value) //nolint:errcheck
	}

	if cm := v.Confusion; cm != nil {
		fmt.Fprintf(w, "\nConfusion matrix: TP %s  FP %s  TN %s  FN %s\n", //nolint:errcheck
			metrics.FormatCount(float64(cm.TP)),
			metrics.FormatCount(float64(cm.FP)),
			metrics.FormatCount(float64(cm.TN)),
			metrics.FormatCount(float64(cm.FN)))
	}
	fmt.Fprintf(w, "\nROC curve: %s\n", curveSummary(v.ROC))           //nolint:errcheck
	fmt.Fprintf(w, "Precision-Recall curve: %s\n", curveSummary(v.PR)) //nolint:errcheck

	for _, warn := range v.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn) //nolint:errcheck
	}
}

func curveSummary(c *metrics.Curve) string {
	if c == nil {
		return "not available"
	}
	return fmt.Sprintf("%d points", c.Len())
}

func labelWidth(cards []dashboard.Card) int {
	width := 0
	for _, c := range cards {
		width = max(width, runewidth.StringWidth(c.Label))
	}
	return width
}

// Panel colors of the watch view.
const (
	colorTeal  = "#26a69a"
	colorGray  = "#9e9e9e"
	colorWhite = "#ffffff"
	colorRed   = "#e53935"
)

const panelWidth = 44

// renderPanel draws v as a bordered terminal panel.
func renderPanel(v dashboard.View) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTeal))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite)).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)).Bold(true)

	title := "Model evaluation"
	if v.Model != "" {
		title = v.Model
	}
	lines := []string{titleStyle.Render(title)}
	if v.RunID != "" {
		lines = append(lines, labelStyle.Render("run "+v.RunID))
	}
	lines = append(lines, "")

	width := labelWidth(v.Cards)
	for _, c := range v.Cards {
		lines = append(lines, fmt.Sprintf("%s %s",
			labelStyle.Render(padRight(c.Label, width)),
			valueStyle.Render(c.Value)))
	}

	lines = append(lines, "",
		labelStyle.Render("ROC: "+curveSummary(v.ROC)+"  PR: "+curveSummary(v.PR)))

	status := "idle"
	if v.Loading {
		status = "refreshing..."
	}
	if !v.UpdatedAt.IsZero() {
		status += "  updated " + v.UpdatedAt.Format("15:04:05")
	}
	lines = append(lines, labelStyle.Render(status))
	if v.Error != "" {
		lines = append(lines, errorStyle.Render("error: "+v.Error))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorTeal)).
		Padding(1, 2).
		Width(panelWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// writePage prints one page of the run list.
func writePage(w io.Writer, page *metrics.Page, format string) error {
	agg := metrics.Aggregate(page.Evaluations())
	if format == formatJSON {
		return writeJSON(w, webapi.RunsResponse{Page: *page, Aggregate: agg})
	}

	headers := []string{"RUN", "MODEL"}
	for _, f := range listColumns {
		headers = append(headers, strings.ToUpper(dashboard.Label(f)))
	}
	rows := [][]string{headers}
	for _, it := range page.Items {
		if it.Evaluation == nil {
			rows = append(rows, []string{"?", "unparseable: " + it.ParseError})
			continue
		}
		row := []string{orDash(it.Evaluation.RunID), orDash(it.Evaluation.Model)}
		for _, f := range listColumns {
			row = append(row, metrics.Display(it.Evaluation, f))
		}
		rows = append(rows, row)
	}
	writeTable(w, rows)

	fmt.Fprintf(w, "\nPage %d, %d of %d runs\n", page.Page, len(page.Items), page.Total) //nolint:errcheck
	for _, f := range listColumns {
		s, ok := agg[f]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  mean %s %s (sd %s, n=%d)\n", //nolint:errcheck
			dashboard.Label(f), metrics.Format(f, s.Mean), metrics.Format(f, s.StdDev), s.Count)
	}
	return nil
}

// listColumns are the scalar fields shown in the run table.
var listColumns = []metrics.Field{
	metrics.FieldPrecision,
	metrics.FieldRecall,
	metrics.FieldAccuracy,
	metrics.FieldF1,
	metrics.FieldAUC,
}

// writeTable prints rows with columns padded to their widest cell.
func writeTable(w io.Writer, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = padRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.Join(cells, "  ")) //nolint:errcheck
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeBody prints an API response: JSON pretty-printed, anything else as
// received.
func writeBody(w io.Writer, body *metricsapi.Body) error {
	if body.IsJSON {
		return writeJSON(w, body.Value)
	}
	text := body.Text()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
