package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgentTemplate is a reusable persona blueprint. System templates are owned by
// the platform and immutable through the user API.
type AgentTemplate struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	DefaultPersona string         `json:"default_persona"`
	System         bool           `json:"system"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	DefaultTools   []TemplateTool `json:"default_tools,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TemplateTool is a tool bound to a template, with an optional default config
// copied onto agents created from the template.
type TemplateTool struct {
	TemplateID uuid.UUID `json:"template_id"`
	ToolID     uuid.UUID `json:"tool_id"`
	Tool       *Tool     `json:"tool,omitempty"`
	Config     []byte    `json:"config,omitempty"`
}
