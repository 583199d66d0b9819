package metricsapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Body is a successful response. Value holds the decoded JSON when the body
// parsed as JSON, and the raw text otherwise.
type Body struct {
	Raw    []byte
	Value  any
	IsJSON bool
}

func parseBody(raw []byte) *Body {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &Body{Raw: raw, Value: string(raw)}
	}
	return &Body{Raw: raw, Value: v, IsJSON: true}
}

// Text returns the body exactly as received.
func (b *Body) Text() string {
	return string(b.Raw)
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	// Body is the response text, kept for prediction requests.
	Body        string
	IncludeBody bool
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d - %s", e.StatusCode, e.Status)
	if e.IncludeBody {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
