package utils

import (
	"fmt"
	"net/http"
	"time"
)

// PageError is the error a page shows in its banner. RedirectTo, when set,
// sends the browser on after RedirectAfter.
type PageError struct {
	Status        int
	Message       string
	RedirectTo    string
	RedirectAfter time.Duration
}

func (e *PageError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Status, e.Message)
}

// New returns a PageError without a redirect.
func New(status int, message string) *PageError {
	return &PageError{Status: status, Message: message}
}

// WithRedirect sets the page the browser moves to after delay.
func (e *PageError) WithRedirect(to string, delay time.Duration) *PageError {
	e.RedirectTo = to
	e.RedirectAfter = delay
	return e
}

// RedirectSeconds is RedirectAfter rounded to whole seconds, for meta refresh.
func (e *PageError) RedirectSeconds() int {
	return int(e.RedirectAfter.Round(time.Second) / time.Second)
}

// ===== Taxonomy =====

// MissingToken is shown when a page that needs a session got none.
func MissingToken() *PageError {
	return New(http.StatusUnauthorized, "Your session link is missing. Please sign in again.")
}

// DecryptionFailed is shown when the session token could not be opened.
func DecryptionFailed() *PageError {
	return New(http.StatusUnauthorized, "Your session link is invalid or has expired. Please sign in again.")
}

// BackendFailed is shown when the backend could not be reached or refused the request.
func BackendFailed(what string) *PageError {
	return New(http.StatusBadGateway, "Failed to "+what+". Please try again later.")
}

// InvalidInput is shown when the submitted form cannot be used.
func InvalidInput(message string) *PageError {
	return New(http.StatusUnprocessableEntity, message)
}

// StaleState is shown when a wizard form was tampered with or expired.
func StaleState() *PageError {
	return New(http.StatusBadRequest, "This form has expired. Please start again.")
}
