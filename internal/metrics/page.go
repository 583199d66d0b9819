package metrics

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Default paging parameters of the list endpoint.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// Item is one entry of a paged list. Evaluation is nil when the entry could
// not be parsed; ParseError then says why and Raw keeps the original value.
type Item struct {
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	ParseError string      `json:"parse_error,omitempty"`
	Raw        any         `json:"-"`
}

// Page is a decoded response of the paginated list endpoint.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// EmptyPage is the state shown before the first list response arrives.
func EmptyPage(page, limit int) Page {
	return Page{Items: []Item{}, Total: 0, Page: page, Limit: limit}
}

// Evaluations returns the successfully parsed items.
func (p Page) Evaluations() []*Evaluation {
	out := make([]*Evaluation, 0, len(p.Items))
	for _, it := range p.Items {
		if it.Evaluation != nil {
			out = append(out, it.Evaluation)
		}
	}
	return out
}

type rawPage struct {
	Items []any `mapstructure:"items"`
	Total int   `mapstructure:"total"`
	Page  int   `mapstructure:"page"`
	Limit int   `mapstructure:"limit"`
}

// DecodePage decodes a list response. Counters may arrive as numbers or
// numeric strings; fields missing from the response keep the values of
// fallback. A bare array is accepted as the item list.
func DecodePage(v any, fallback Page) (*Page, error) {
	raw := rawPage{Total: fallback.Total, Page: fallback.Page, Limit: fallback.Limit}

	unwrapped := Unwrap(v)
	switch doc := unwrapped.(type) {
	case []any:
		raw.Items = doc
		raw.Total = len(doc)
	case map[string]any:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &raw,
		})
		if err != nil {
			return nil, fmt.Errorf("creating page decoder: %w", err)
		}
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("decoding metrics page: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: got %s", ErrNotDocument, kindOf(unwrapped))
	}

	page := &Page{Total: raw.Total, Page: raw.Page, Limit: raw.Limit}
	if raw.Items == nil {
		page.Items = append([]Item{}, fallback.Items...)
		return page, nil
	}
	page.Items = make([]Item, 0, len(raw.Items))
	for _, it := range raw.Items {
		ev, err := Parse(Unwrap(it))
		if err != nil {
			page.Items = append(page.Items, Item{ParseError: err.Error(), Raw: it})
			continue
		}
		page.Items = append(page.Items, Item{Evaluation: ev, Raw: it})
	}
	return page, nil
}
