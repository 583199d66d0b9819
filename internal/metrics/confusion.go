package metrics

import "math"

// ConfusionMatrix holds the binary classification counts of a run.
type ConfusionMatrix struct {
	TP int `json:"true_positives"`
	FP int `json:"false_positives"`
	TN int `json:"true_negatives"`
	FN int `json:"false_negatives"`
}

// Total returns the number of classified samples.
func (c ConfusionMatrix) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// DerivedMetrics are the classification scores recomputed from a matrix.
type DerivedMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

// Derive calculates precision, recall, F1, and accuracy from the counts.
// Ratios with a zero denominator are reported as 0.
func (c ConfusionMatrix) Derive() DerivedMetrics {
	precision := safeDivide(float64(c.TP), float64(c.TP+c.FP))
	recall := safeDivide(float64(c.TP), float64(c.TP+c.FN))

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return DerivedMetrics{
		Precision: roundTo4(precision),
		Recall:    roundTo4(recall),
		F1:        roundTo4(f1),
		Accuracy:  roundTo4(safeDivide(float64(c.TP+c.TN), float64(c.Total()))),
	}
}

// parseConfusion accepts either a keyed object ({"tp":..,"fp":..}) or the
// 2x2 row-major layout produced by scikit-learn: [[TN, FP], [FN, TP]].
func parseConfusion(doc map[string]any) *ConfusionMatrix {
	for _, path := range confusionContainers {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		switch m := v.(type) {
		case map[string]any:
			if cm, ok := confusionFromObject(m); ok {
				return cm
			}
		case []any:
			if cm, ok := confusionFromRows(m); ok {
				return cm
			}
		}
	}
	return nil
}

func confusionFromObject(m map[string]any) (*ConfusionMatrix, bool) {
	counts := make([]int, 4)
	for i, names := range [][]string{
		{"tp", "TP", "true_positives", "VP"},
		{"fp", "FP", "false_positives"},
		{"tn", "TN", "true_negatives", "VN"},
		{"fn", "FN", "false_negatives"},
	} {
		found := false
		for _, name := range names {
			if n, ok := toNumber(m[name]); ok {
				counts[i] = int(math.Round(n))
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return &ConfusionMatrix{TP: counts[0], FP: counts[1], TN: counts[2], FN: counts[3]}, true
}

func confusionFromRows(rows []any) (*ConfusionMatrix, bool) {
	if len(rows) != 2 {
		return nil, false
	}
	cells := make([]float64, 0, 4)
	for _, r := range rows {
		row, err := toNumbers(r)
		if err != nil || len(row) != 2 {
			return nil, false
		}
		cells = append(cells, row...)
	}
	return &ConfusionMatrix{
		TN: int(math.Round(cells[0])),
		FP: int(math.Round(cells[1])),
		FN: int(math.Round(cells[2])),
		TP: int(math.Round(cells[3])),
	}, true
}

func safeDivide(num, den float64) float64 {
	if den == 0 {
		return 0.0
	}
	return num / den
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
