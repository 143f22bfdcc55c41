package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/maestro/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type templateToolSpec struct {
	ToolID string          `json:"tool_id"`
	Config json.RawMessage `json:"config"`
}

type templateRequest struct {
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Category       string             `json:"category"`
	DefaultPersona string             `json:"default_persona"`
	UserID         string             `json:"user_id"`
	Tools          []templateToolSpec `json:"tools"`
}

func decodeToolSpecs(specs []templateToolSpec) ([]service.TemplateToolSpec, error) {
	if specs == nil {
		return nil, nil
	}
	out := make([]service.TemplateToolSpec, 0, len(specs))
	for _, spec := range specs {
		id, err := uuid.Parse(spec.ToolID)
		if err != nil {
			return nil, err
		}
		out = append(out, service.TemplateToolSpec{ToolID: id, Config: spec.Config})
	}
	return out, nil
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	var userID *uuid.UUID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = &id
	}
	specs, err := decodeToolSpecs(req.Tools)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	template, err := h.svc.Create(r.Context(), req.Name, req.Description, req.Category, req.DefaultPersona, userID, specs)
	if err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = &id
	}

	templates, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	template, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	specs, err := decodeToolSpecs(req.Tools)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	template, err := h.svc.Update(r.Context(), id, req.Name, req.Description, req.Category, req.DefaultPersona, specs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTemplateImmutable):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update template")
		}
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTemplateImmutable):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrTemplateInUse):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete template")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
