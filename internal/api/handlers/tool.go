package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/maestro/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ToolHandler struct {
	svc *service.ToolService
}

func NewToolHandler(svc *service.ToolService) *ToolHandler {
	return &ToolHandler{svc: svc}
}

type createToolRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Config      json.RawMessage `json:"config"`
}

func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tool, err := h.svc.CreateTool(r.Context(), req.Name, req.Description, req.Type, req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tool)
}

func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	tools, err := h.svc.ListTools(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tools")
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (h *ToolHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	tool, err := h.svc.GetTool(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get tool")
		return
	}
	writeJSON(w, http.StatusOK, tool)
}
