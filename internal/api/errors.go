package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNotAuthenticated is returned before any request is issued when the
// session lacks a token or user id.
var ErrNotAuthenticated = errors.New("authentication token not found")

const connectivityMessage = "Check your connection to the server"

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response. Detail carries the body's error, detail
// or message field; Fields carries per-field validation messages.
type StatusError struct {
	Status int
	Detail string
	Fields map[string][]string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		return e.FieldSummary()
	}
	return fmt.Sprintf("request failed: %d %s", e.Status, http.StatusText(e.Status))
}

// FieldSummary renders field errors one per line as "field: msg, msg".
func (e *StatusError) FieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return strings.Join(lines, "\n")
}

func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func parseStatusError(status int, body []byte) *StatusError {
	se := &StatusError{Status: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return se
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			se.Detail = s
			return se
		}
	}

	for key, val := range payload {
		switch v := val.(type) {
		case string:
			se.addField(key, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					se.addField(key, s)
				}
			}
		}
	}
	return se
}

func (e *StatusError) addField(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msg)
}

// UserMessage turns any error from this package into the notice shown to
// the user. fallback is used when the server gave no reason.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		te *TransportError
		se *StatusError
	)
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Authentication token not found"
	case errors.As(err, &te):
		return connectivityMessage
	case errors.As(err, &se):
		if se.Detail != "" {
			return se.Detail
		}
		if len(se.Fields) > 0 {
			return fallback + ":\n" + se.FieldSummary()
		}
		return fallback
	default:
		return fallback + ": " + err.Error()
	}
}
