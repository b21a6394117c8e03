package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrSessionExpired is returned when a 401 could not be recovered by
// refreshing the token pair. The stored tokens have been cleared.
var ErrSessionExpired = errors.New("session expired")

// Kind classifies an upstream failure.
type Kind int

const (
	KindTransport Kind = iota
	KindUnauthorized
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is a failed upstream call. Status is 0 for transport failures.
type Error struct {
	Message string
	Status  int
	Data    json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "upstream: " + e.Message
	}
	return fmt.Sprintf("upstream: %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind classifies the failure by status.
func (e *Error) Kind() Kind {
	switch {
	case e.Status == 0:
		return KindTransport
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case e.Status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// StatusOf returns the upstream HTTP status in err's chain, or 0.
func StatusOf(err error) int {
	if ue, ok := AsError(err); ok {
		return ue.Status
	}
	return 0
}

func transportError(err error) *Error {
	return &Error{Message: err.Error(), Err: err}
}

func responseError(status int, body []byte) *Error {
	e := &Error{Status: status, Message: errorMessage(status, body)}
	if json.Valid(body) {
		e.Data = json.RawMessage(body)
	}
	return e
}

// errorMessage picks the most specific message in a response body: detail,
// message, error, then the first field error, then the status text.
func errorMessage(status int, body []byte) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = fmt.Sprintf("HTTP %d", status)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fallback
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s := firstString(doc[key]); s != "" {
			return s
		}
	}

	fields := make([]string, 0, len(doc))
	for k := range doc {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	// non_field_errors sorts after most fields but describes the whole request.
	for _, f := range append([]string{"non_field_errors"}, fields...) {
		msg := firstString(doc[f])
		if msg == "" {
			continue
		}
		if f == "non_field_errors" {
			return msg
		}
		return f + ": " + msg
	}
	return fallback
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, e := range t {
			if s := firstString(e); s != "" {
				return s
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := firstString(t[k]); s != "" {
				return s
			}
		}
	}
	return ""
}
