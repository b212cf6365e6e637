package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericFailureMessage is shown when the server sends no usable message
const GenericFailureMessage = "Request failed. Please try again."

// RequestError is an HTTP or transport failure talking to the school API.
// Status is 0 when no response was received.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether no HTTP response was received
func (e *RequestError) IsNetwork() bool {
	return e.Status == 0
}

// NotFoundError is a 404 for a referenced voucher, student, class or staff member
type NotFoundError struct {
	RequestError
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.RequestError.Error()
}

func (e *NotFoundError) Unwrap() error {
	return &e.RequestError
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// UserMessage returns the server-provided message of a request error when
// present and the generic fallback otherwise
func UserMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) && strings.TrimSpace(re.Message) != "" {
		return re.Message
	}
	return GenericFailureMessage
}

// errorFromResponse maps a non-2xx response to a typed error
func errorFromResponse(method, path string, status int, body []byte) error {
	re := RequestError{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: serverMessage(body),
	}
	if status == http.StatusNotFound {
		return &NotFoundError{RequestError: re}
	}
	return &re
}

// serverMessage extracts {"message": "..."} or {"error": "..."} from an error body
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
