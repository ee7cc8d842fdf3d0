package models

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "ai"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the relay endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the relay's success body.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the relay's failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	FrameReply = "reply"
	FrameError = "error"
)

// SocketFrame is what the WebSocket transport sends back for each inbound
// ChatRequest frame.
type SocketFrame struct {
	Type   string `json:"type"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}
