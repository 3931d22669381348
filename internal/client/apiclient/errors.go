package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindOther Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "other"
	}
}

// FieldError is a per-field validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned for every non-2xx response and every transport failure.
type Error struct {
	Kind      Kind
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   []FieldError
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// KindForStatus maps an HTTP status code to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindOther
	}
}

// Notice texts shown to the user for each failure kind.
const (
	NoticeSessionExpired = "session expired, please log in again"
	NoticeForbidden      = "you do not have permission to do that"
	NoticeNotFound       = "the requested resource was not found"
	NoticeServer         = "server error, please try again later"
	NoticeNetwork        = "network error, check your connection"
)

// notice returns the message surfaced for err. authenticated tells whether
// the failed request carried a token.
func notice(err *Error, authenticated bool) string {
	switch err.Kind {
	case KindUnauthorized:
		if authenticated {
			return NoticeSessionExpired
		}
		return fallback(err.Message, http.StatusText(err.Status))
	case KindForbidden:
		return NoticeForbidden
	case KindNotFound:
		return NoticeNotFound
	case KindServer:
		return NoticeServer
	case KindNetwork:
		return NoticeNetwork
	default:
		return fallback(err.Message, http.StatusText(err.Status))
	}
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
