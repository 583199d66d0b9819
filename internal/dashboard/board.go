// Package dashboard holds the view model behind every dashboard surface.
//
// A Board keeps the last known display text of each metric. New data only
// replaces what it actually contains, so a partial document never blanks a
// card that already showed a value, and a failed refresh leaves the previous
// values on screen next to the error.
package dashboard

import (
	"slices"
	"sync"
	"time"

	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/poller"
)

// Card is one metric tile.
type Card struct {
	Field       metrics.Field `json:"field"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Value       string        `json:"value"`
	// Known is false while Value is still the placeholder.
	Known bool `json:"known"`
	// Derived is set when Value was computed from the confusion matrix
	// rather than reported by the backend.
	Derived bool `json:"derived,omitempty"`
}

var cardInfo = map[metrics.Field]struct{ label, description string }{
	metrics.FieldPrecision:          {"Precision", "Share of positive predictions that were correct"},
	metrics.FieldRecall:             {"Recall", "Share of positive cases that were identified"},
	metrics.FieldAccuracy:           {"Accuracy", "Share of all predictions that were correct"},
	metrics.FieldF1:                 {"F1-Score", "Harmonic mean of precision and recall"},
	metrics.FieldAUC:                {"AUC-ROC", "Area under the ROC curve"},
	metrics.FieldAveragePrecision:   {"Average Precision", "Area under the PR curve"},
	metrics.FieldCorrectPredictions: {"Correct Predictions", "Total correct predictions"},
}

// Label returns the card title of f.
func Label(f metrics.Field) string {
	if info, ok := cardInfo[f]; ok {
		return info.label
	}
	return f.String()
}

// View is a snapshot of everything the dashboard displays.
type View struct {
	Cards     []Card                   `json:"cards"`
	ROC       *metrics.Curve           `json:"roc,omitempty"`
	PR        *metrics.Curve           `json:"pr,omitempty"`
	Confusion *metrics.ConfusionMatrix `json:"confusion,omitempty"`
	RunID     string                   `json:"run_id,omitempty"`
	Model     string                   `json:"model,omitempty"`
	Loading   bool                     `json:"loading"`
	Error     string                   `json:"error,omitempty"`
	UpdatedAt time.Time                `json:"updated_at,omitzero"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// Card returns the card for f.
func (v View) Card(f metrics.Field) (Card, bool) {
	for _, c := range v.Cards {
		if c.Field == f {
			return c, true
		}
	}
	return Card{}, false
}

// Board is safe for concurrent use: the poller writes while HTTP handlers
// and terminal renderers read.
type Board struct {
	mu   sync.RWMutex
	view View
}

// New returns a Board showing placeholders for every metric.
func New() *Board {
	cards := make([]Card, 0, len(metrics.ScalarFields))
	for _, f := range metrics.ScalarFields {
		cards = append(cards, Card{
			Field:       f,
			Label:       Label(f),
			Description: cardInfo[f].description,
			Value:       metrics.PlaceholderFor(f),
		})
	}
	return &Board{view: View{Cards: cards}}
}

// Apply merges ev into the view. Values missing from ev keep their
// previous text.
func (b *Board) Apply(ev *metrics.Evaluation) {
	if ev == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyLocked(ev)
	b.view.UpdatedAt = time.Now()
}

func (b *Board) applyLocked(ev *metrics.Evaluation) {
	for i, c := range b.view.Cards {
		if v, ok := ev.Scalar(c.Field); ok {
			b.view.Cards[i].Value = metrics.Format(c.Field, v)
			b.view.Cards[i].Known = true
			b.view.Cards[i].Derived = ev.IsDerived(c.Field)
		}
	}
	if ev.ROC != nil {
		b.view.ROC = ev.ROC
	}
	if ev.PR != nil {
		b.view.PR = ev.PR
	}
	if ev.Confusion != nil {
		b.view.Confusion = ev.Confusion
	}
	if ev.RunID != "" {
		b.view.RunID = ev.RunID
	}
	if ev.Model != "" {
		b.view.Model = ev.Model
	}
	b.view.Warnings = slices.Clone(ev.Warnings)
}

// SetStatus records the request state. A nil err clears the error.
func (b *Board) SetStatus(loading bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setStatusLocked(loading, err)
}

func (b *Board) setStatusLocked(loading bool, err error) {
	b.view.Loading = loading
	b.view.Error = ""
	if err != nil {
		b.view.Error = err.Error()
	}
}

// Bind applies a poller state: its data when present, then its status.
func (b *Board) Bind(s poller.State[*metrics.Evaluation]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.HasData && s.Data != nil {
		b.applyLocked(s.Data)
	}
	if !s.UpdatedAt.IsZero() {
		b.view.UpdatedAt = s.UpdatedAt
	}
	b.setStatusLocked(s.Loading, s.Err)
}

// View returns a copy of the current view.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v := b.view
	v.Cards = slices.Clone(b.view.Cards)
	v.Warnings = slices.Clone(b.view.Warnings)
	return v
}
