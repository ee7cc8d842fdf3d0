package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

// Exchange records one relay call. It is only ever written, never read back
// on the request path.
type Exchange struct {
	ID             uuid.UUID `json:"id"`
	RequestID      string    `json:"request_id"`
	Transport      string    `json:"transport"`
	Message        string    `json:"message"`
	Reply          string    `json:"reply,omitempty"`
	Status         int       `json:"status"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	Error          string    `json:"error,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
