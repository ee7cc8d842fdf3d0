package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"charachat/internal/middleware"
	"charachat/internal/models"
	"charachat/internal/services"
)

// maxBodyBytes caps the relay request body.
const maxBodyBytes = 64 << 10

type relayService interface {
	Send(ctx context.Context, call services.Call) (string, error)
}

type RelayHandler struct {
	relay  relayService
	logger *slog.Logger
}

func NewRelayHandler(relay relayService, logger *slog.Logger) *RelayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayHandler{relay: relay, logger: logger}
}

// Chat relays one {message} to the completion API and answers {reply} or {error}.
func (h *RelayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("relay handler panic", "request_id", requestID, "panic", rec)
			writeError(w, http.StatusInternalServerError, services.MsgInternal)
		}
	}()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, services.MsgMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Debug("invalid relay body", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, services.MsgMessageRequired)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, services.MsgMessageRequired)
		return
	}

	reply, err := h.relay.Send(r.Context(), services.Call{
		RequestID: requestID,
		Transport: models.TransportHTTP,
		Message:   req.Message,
	})
	if err != nil {
		status, msg := services.StatusOf(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}
