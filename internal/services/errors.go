package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-facing error bodies. The upstream's own error text never leaves the
// server; it is logged instead.
const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgMessageRequired  = "Message is required"
	MsgNotConfigured    = "API key is not configured"
	MsgUpstreamFailed   = "Failed to get a response from the AI API."
	MsgInternal         = "Internal Server Error"

	// FallbackReply stands in when the upstream answers without content.
	FallbackReply = "The AI did not return a reply."
)

// ErrNotConfigured is returned when no upstream credential is configured.
var ErrNotConfigured = errors.New("API key is not configured")

// UpstreamError is a non-success answer from the completion API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API returned %d: %s", e.StatusCode, e.Body)
}

// StatusOf maps a relay error to the status code and body text the client sees.
func StatusOf(err error) (int, string) {
	if errors.Is(err, ErrNotConfigured) {
		return http.StatusInternalServerError, MsgNotConfigured
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode >= 400 && upErr.StatusCode <= 599 {
		return upErr.StatusCode, MsgUpstreamFailed
	}

	return http.StatusInternalServerError, MsgInternal
}
