// Package metrics parses evaluation documents returned by the metrics API into
// a single canonical shape and formats their values for display.
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrNotDocument is returned when a response body is not a JSON object and
// therefore cannot describe an evaluation run.
var ErrNotDocument = errors.New("response is not a metrics document")

// Field identifies one scalar value of an evaluation run.
type Field int

const (
	FieldPrecision Field = iota
	FieldRecall
	FieldAccuracy
	FieldF1
	FieldAUC
	FieldAveragePrecision
	FieldCorrectPredictions
)

// ScalarFields lists every scalar field in display order.
var ScalarFields = []Field{
	FieldPrecision,
	FieldRecall,
	FieldAccuracy,
	FieldF1,
	FieldAUC,
	FieldAveragePrecision,
	FieldCorrectPredictions,
}

var fieldNames = map[Field]string{
	FieldPrecision:          "precision",
	FieldRecall:             "recall",
	FieldAccuracy:           "accuracy",
	FieldF1:                 "f1",
	FieldAUC:                "auc",
	FieldAveragePrecision:   "average_precision",
	FieldCorrectPredictions: "correct_predictions",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// MarshalText lets Field be used as a JSON object key.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (f *Field) UnmarshalText(text []byte) error {
	for field, name := range fieldNames {
		if name == string(text) {
			*f = field
			return nil
		}
	}
	return fmt.Errorf("unknown metric field %q", text)
}

// Series is a pair of equal-length coordinate sequences ready for charting.
type Series struct {
	Labels []float64 `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return len(s.Labels)
}

// Point is one (x, y) coordinate of a series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Points zips labels and values into coordinates.
func (s Series) Points() []Point {
	pts := make([]Point, 0, s.Len())
	for i := range s.Labels {
		pts = append(pts, Point{X: s.Labels[i], Y: s.Values[i]})
	}
	return pts
}

// Curve is a parsed ROC or PR curve together with the layout it was found in.
type Curve struct {
	Series
	// Layout names the matched candidate, e.g. "Curvas.roc_curve{fpr,tpr}".
	Layout string `json:"layout"`
}

// Evaluation is the canonical form of one model evaluation run. A nil
// pointer means the value was not present under any known spelling.
type Evaluation struct {
	RunID string `json:"run_id,omitempty"`
	Model string `json:"model,omitempty"`

	Precision          *float64 `json:"precision,omitempty"`
	Recall             *float64 `json:"recall,omitempty"`
	Accuracy           *float64 `json:"accuracy,omitempty"`
	F1                 *float64 `json:"f1,omitempty"`
	AUC                *float64 `json:"auc,omitempty"`
	AveragePrecision   *float64 `json:"average_precision,omitempty"`
	CorrectPredictions *float64 `json:"correct_predictions,omitempty"`

	ROC       *Curve           `json:"roc,omitempty"`
	PR        *Curve           `json:"pr,omitempty"`
	Confusion *ConfusionMatrix `json:"confusion,omitempty"`
	// Derived lists the scalars computed from Confusion because the
	// document did not carry them.
	Derived []Field `json:"derived,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// IsDerived reports whether f was computed from the confusion matrix.
func (e *Evaluation) IsDerived(f Field) bool {
	return slices.Contains(e.Derived, f)
}

// Scalar returns the value of f and whether it was present.
func (e *Evaluation) Scalar(f Field) (float64, bool) {
	p := e.scalarPtr(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

func (e *Evaluation) scalarPtr(f Field) **float64 {
	switch f {
	case FieldPrecision:
		return &e.Precision
	case FieldRecall:
		return &e.Recall
	case FieldAccuracy:
		return &e.Accuracy
	case FieldF1:
		return &e.F1
	case FieldAUC:
		return &e.AUC
	case FieldAveragePrecision:
		return &e.AveragePrecision
	case FieldCorrectPredictions:
		return &e.CorrectPredictions
	}
	return nil
}

// Unwrap returns the value of the "data" key when v is an object that has
// one, and v unchanged otherwise.
func Unwrap(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["data"]; ok {
			return inner
		}
	}
	return v
}

// Parse converts a decoded JSON value into an Evaluation. Unknown or
// malformed fields are treated as absent; only a non-object input fails.
func Parse(v any) (*Evaluation, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotDocument, kindOf(v))
	}

	ev := &Evaluation{
		RunID: lookupString(doc, identityCandidates["run_id"]),
		Model: lookupString(doc, identityCandidates["model"]),
	}

	for _, f := range ScalarFields {
		if n, ok := lookupNumber(doc, scalarCandidates[f]); ok {
			*ev.scalarPtr(f) = &n
		}
	}

	var warn []string
	ev.ROC, warn = parseCurve(doc, "roc", rocLayouts)
	ev.Warnings = append(ev.Warnings, warn...)
	ev.PR, warn = parseCurve(doc, "pr", prLayouts)
	ev.Warnings = append(ev.Warnings, warn...)

	ev.Confusion = parseConfusion(doc)
	if ev.Confusion != nil {
		ev.deriveFromConfusion()
	}
	return ev, nil
}

// ParseRun is Parse for single-run responses. A body that is not a document
// (raw text, null, an array) is not a failed fetch: it yields an empty
// Evaluation carrying a warning, so whatever is displayed stays as it is.
func ParseRun(v any) *Evaluation {
	ev, err := Parse(v)
	if err != nil {
		return &Evaluation{Warnings: []string{err.Error()}}
	}
	return ev
}

// deriveFromConfusion fills the scalars the document left out with values
// computed from the matrix. Ratios whose denominator is zero stay absent.
func (e *Evaluation) deriveFromConfusion() {
	cm := *e.Confusion
	d := cm.Derive()
	fill := func(f Field, v float64, ok bool) {
		p := e.scalarPtr(f)
		if *p != nil || !ok {
			return
		}
		*p = &v
		e.Derived = append(e.Derived, f)
	}
	fill(FieldPrecision, d.Precision, cm.TP+cm.FP > 0)
	fill(FieldRecall, d.Recall, cm.TP+cm.FN > 0)
	fill(FieldAccuracy, d.Accuracy, cm.Total() > 0)
	fill(FieldF1, d.F1, cm.TP+cm.FP > 0 && cm.TP+cm.FN > 0)
	fill(FieldCorrectPredictions, float64(cm.TP+cm.TN), true)
}

func parseCurve(doc map[string]any, name string, layouts []curveLayout) (*Curve, []string) {
	var warnings []string
	for _, l := range layouts {
		container, ok := lookup(doc, l.container)
		if !ok {
			continue
		}
		obj, ok := container.(map[string]any)
		if !ok {
			continue
		}
		for _, keys := range l.keys {
			rawX, okX := obj[keys[0]]
			rawY, okY := obj[keys[1]]
			if !okX || !okY || rawX == nil || rawY == nil {
				continue
			}
			layout := fmt.Sprintf("%s{%s,%s}", strings.Join(l.container, "."), keys[0], keys[1])
			xs, errX := toNumbers(rawX)
			ys, errY := toNumbers(rawY)
			if err := errors.Join(errX, errY); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s curve at %s ignored: %v", name, layout, err))
				continue
			}
			if len(xs) != len(ys) {
				warnings = append(warnings, fmt.Sprintf("%s curve at %s ignored: %d labels but %d values", name, layout, len(xs), len(ys)))
				continue
			}
			return &Curve{Series: Series{Labels: xs, Values: ys}, Layout: layout}, warnings
		}
	}
	return nil, warnings
}

func lookup(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func lookupNumber(doc map[string]any, candidates [][]string) (float64, bool) {
	for _, path := range candidates {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func lookupString(doc map[string]any, candidates [][]string) string {
	for _, path := range candidates {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64, json.Number, int, int64:
			return fmt.Sprint(s)
		}
	}
	return ""
}

// toNumber accepts finite JSON numbers and numeric strings. NaN and the
// infinities are rejected: they cannot be encoded back to JSON.
func toNumber(v any) (float64, bool) {
	n, ok := rawNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func rawNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toNumbers(v any) ([]float64, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %s", kindOf(v))
	}
	out := make([]float64, len(items))
	for i, item := range items {
		n, ok := toNumber(item)
		if !ok {
			if _, numeric := rawNumber(item); numeric {
				return nil, fmt.Errorf("element %d is not a finite number", i)
			}
			return nil, fmt.Errorf("element %d is %s, not a number", i, kindOf(item))
		}
		out[i] = n
	}
	return out, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
