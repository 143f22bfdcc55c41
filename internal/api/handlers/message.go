package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/maestro/internal/service"
)

type MessageHandler struct {
	svc *service.ExecutionService
}

func NewMessageHandler(svc *service.ExecutionService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type messageRequest struct {
	InstanceID     string `json:"instance_id"`
	OrganizationID string `json:"organization_id"`
	Message        string `json:"message"`
	Sender         string `json:"sender"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

// Handle routes one inbound user message through the agent hierarchy and
// returns the final reply.
func (h *MessageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	scope, err := parseScope(req.InstanceID, req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	reply, err := h.svc.HandleMessage(r.Context(), scope, req.Message, req.Sender)
	if err != nil {
		if errors.Is(err, service.ErrNoParentAgent) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Reply: reply})
}
