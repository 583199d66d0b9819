package metrics

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholders shown before a value has ever been received.
const (
	PlaceholderPercent = "--%"
	Placeholder        = "--"
)

var countPrinter = message.NewPrinter(language.English)

// FormatPercent renders a ratio in [0,1] as a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatRatio renders a ratio with two decimals (used for F1).
func FormatRatio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatArea renders an area-under-curve value with three decimals.
func FormatArea(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// FormatCount renders a whole count with thousands separators.
func FormatCount(v float64) string {
	return countPrinter.Sprintf("%d", int64(v))
}

// Format renders the value of f using that field's display convention.
func Format(f Field, v float64) string {
	switch f {
	case FieldPrecision, FieldRecall, FieldAccuracy:
		return FormatPercent(v)
	case FieldF1:
		return FormatRatio(v)
	case FieldAUC, FieldAveragePrecision:
		return FormatArea(v)
	case FieldCorrectPredictions:
		return FormatCount(v)
	}
	return fmt.Sprint(v)
}

// PlaceholderFor returns the text displayed for f when no value is known.
func PlaceholderFor(f Field) string {
	switch f {
	case FieldPrecision, FieldRecall, FieldAccuracy:
		return PlaceholderPercent
	}
	return Placeholder
}

// Display formats the value of f in ev, or returns the placeholder when ev
// is nil or lacks the field.
func Display(ev *Evaluation, f Field) string {
	if ev == nil {
		return PlaceholderFor(f)
	}
	v, ok := ev.Scalar(f)
	if !ok {
		return PlaceholderFor(f)
	}
	return Format(f, v)
}
