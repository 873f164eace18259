package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// APIError is the typed failure returned by [Client] and the resource services.
//
// Kind is one of the shared sentinels ([shared.ErrUnauthenticated], [shared.ErrSessionExpired],
// [shared.ErrValidation], [shared.ErrNetwork], [shared.ErrServer], [shared.ErrDecode]) so callers can branch with errors.Is.
type APIError struct {
	Kind      error
	Status    int
	Message   string
	Method    string
	Path      string
	Resource  string
	RequestID string
	Trace     []AttemptState
	Err       error
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil && e.Kind != shared.ErrSessionExpired {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if e.Status > 0 {
		fmt.Fprintf(&b, " (%s %s, status %d)", e.Method, e.Path, e.Status)
	} else if e.Method != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Method, e.Path)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// serverMessage extracts "message" or "error" from a JSON error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}

	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

// statusError classifies a non-2xx, non-401 response.
func statusError(req *Request, resp *Response) *APIError {
	e := &APIError{
		Kind:      shared.ErrServer,
		Status:    resp.StatusCode,
		Method:    req.Method,
		Path:      req.Path,
		Resource:  req.Resource,
		RequestID: resp.RequestID,
		Trace:     resp.Trace,
	}

	msg := serverMessage(resp.Body)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && msg != "" {
		e.Kind = shared.ErrValidation
		e.Message = msg
		return e
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	e.Message = msg
	return e
}
