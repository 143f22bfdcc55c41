package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/maestro/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AgentHandler struct {
	svc *service.HierarchyService
}

func NewAgentHandler(svc *service.HierarchyService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type createParentRequest struct {
	Name           string `json:"name"`
	Persona        string `json:"persona"`
	InstanceID     string `json:"instance_id"`
	OrganizationID string `json:"organization_id"`
}

func (h *AgentHandler) CreateParent(w http.ResponseWriter, r *http.Request) {
	var req createParentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	scope, err := parseScope(req.InstanceID, req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	agent, err := h.svc.CreateParentAgent(r.Context(), req.Name, req.Persona, scope)
	if err != nil {
		if errors.Is(err, service.ErrScopeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create parent agent")
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

type createChildRequest struct {
	Name           string   `json:"name"`
	Persona        string   `json:"persona"`
	InstanceID     string   `json:"instance_id"`
	OrganizationID string   `json:"organization_id"`
	ParentID       string   `json:"parent_id"`
	TemplateID     string   `json:"template_id"`
	ToolIDs        []string `json:"tool_ids"`
}

// CreateChild creates a child agent either from a template (template_id set)
// or as a custom agent with an explicit tool list.
func (h *AgentHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req createChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	scope, err := parseScope(req.InstanceID, req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}
	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parent_id")
		return
	}

	if req.TemplateID != "" {
		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid template_id")
			return
		}
		var personaOverride *string
		if req.Persona != "" {
			personaOverride = &req.Persona
		}
		agent, err := h.svc.CreateChildFromTemplate(r.Context(), req.Name, templateID, scope, parentID, personaOverride)
		if err != nil {
			if errors.Is(err, service.ErrTemplateNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to create child agent")
			return
		}
		writeJSON(w, http.StatusCreated, agent)
		return
	}

	toolIDs := make([]uuid.UUID, 0, len(req.ToolIDs))
	for _, raw := range req.ToolIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tool id")
			return
		}
		toolIDs = append(toolIDs, id)
	}
	agent, err := h.svc.CreateCustomChild(r.Context(), req.Name, req.Persona, scope, parentID, toolIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create child agent")
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	agent, err := h.svc.GetAgent(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	children, err := h.svc.ListChildren(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	writeJSON(w, http.StatusOK, children)
}

type updatePriorityRequest struct {
	Priority int `json:"priority"`
}

func (h *AgentHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}
	var req updatePriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetPriority(r.Context(), id, req.Priority); err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update priority")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type updatePersonaRequest struct {
	Persona string `json:"persona"`
}

func (h *AgentHandler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}
	var req updatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Persona == "" {
		writeError(w, http.StatusBadRequest, "persona is required")
		return
	}

	if err := h.svc.UpdatePersona(r.Context(), id, req.Persona); err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update persona")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AgentHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate agent")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
