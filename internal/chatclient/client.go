// Package chatclient is the terminal chat front end for the relay: an HTTP
// client, the submission session, and the TUI that drives it.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"charachat/internal/models"
)

// UnknownErrorMessage is shown when a failed relay response carries no error text.
const UnknownErrorMessage = "An unknown error occurred."

// RelayError is a non-2xx answer from the relay.
type RelayError struct {
	StatusCode int
	Message    string
}

func (e *RelayError) Error() string {
	return e.Message
}

// Client posts messages to the relay's /api/chat endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the relay at baseURL. A nil httpClient gets
// one without a timeout; the relay call is allowed to take as long as it takes.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/chat",
		token:      token,
		httpClient: httpClient,
	}
}

// Send relays one message and returns the reply.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body models.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&body)

		msg := body.Error
		if msg == "" {
			msg = UnknownErrorMessage
		}
		return "", &RelayError{StatusCode: resp.StatusCode, Message: msg}
	}

	var body models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding reply: %w", err)
	}
	return body.Reply, nil
}
