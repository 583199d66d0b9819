package dashboard

import (
	"fmt"
	"strings"

	"github.com/spboyer/evaldash/internal/metrics"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

// cell makes s safe inside a table cell.
func cell(s string) string { return cellEscaper.Replace(s) }

// Markdown renders the current view as a summary report.
func (b *Board) Markdown() string {
	return b.View().Markdown()
}

// Markdown renders v as a summary report.
func (v View) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Model evaluation\n\n")
	if v.Model != "" {
		fmt.Fprintf(&sb, "**Model:** %s  \n", v.Model)
	}
	if v.RunID != "" {
		fmt.Fprintf(&sb, "**Run:** `%s`  \n", v.RunID)
	}
	if !v.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "**Updated:** %s\n", v.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	sb.WriteString("\n")

	if v.Error != "" {
		fmt.Fprintf(&sb, "> **Error:** %s\n\n", v.Error)
	}

	sb.WriteString("| Metric | Value |\n|---|---:|\n")
	for _, c := range v.Cards {
		value := cell(c.Value)
		if c.Derived {
			value += " (derived)"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", cell(c.Label), value)
	}
	sb.WriteString("\n")

	sb.WriteString("## Confusion matrix\n\n")
	if cm := v.Confusion; cm != nil {
		sb.WriteString("| | Predicted positive | Predicted negative |\n|---|---:|---:|\n")
		fmt.Fprintf(&sb, "| Actual positive | %s (TP) | %s (FN) |\n", metrics.FormatCount(float64(cm.TP)), metrics.FormatCount(float64(cm.FN)))
		fmt.Fprintf(&sb, "| Actual negative | %s (FP) | %s (TN) |\n\n", metrics.FormatCount(float64(cm.FP)), metrics.FormatCount(float64(cm.TN)))
	} else {
		sb.WriteString("Not available.\n\n")
	}

	sb.WriteString("## Curves\n\n")
	writeCurve(&sb, "ROC", v.ROC)
	writeCurve(&sb, "Precision-Recall", v.PR)

	if len(v.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}
	return sb.String()
}

func writeCurve(sb *strings.Builder, name string, c *metrics.Curve) {
	if c == nil {
		fmt.Fprintf(sb, "- %s: not available\n", name)
		return
	}
	fmt.Fprintf(sb, "- %s: %d points from `%s`\n", name, c.Len(), c.Layout)
}
