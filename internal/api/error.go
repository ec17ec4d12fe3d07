package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the remote API. It keeps the status
// code and the server's detail message so callers can branch on status
// (404 vs 401) and surface the server's own wording to the analyst.
type Error struct {
	Status int
	Detail string
	Body   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// detailPayload matches the backend's error envelope {"detail": "..."}.
type detailPayload struct {
	Detail string `json:"detail"`
}

// newError builds an Error from a response body. The detail message is
// taken from the JSON envelope when present, else the raw body, else
// the status text.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: string(body)}
	var p detailPayload
	if err := json.Unmarshal(body, &p); err == nil && p.Detail != "" {
		e.Detail = p.Detail
	} else if len(body) > 0 {
		e.Detail = string(body)
	} else {
		e.Detail = http.StatusText(status)
	}
	return e
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// Detail returns the server-provided detail message from err, or the
// fallback when err carries none.
func Detail(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}
