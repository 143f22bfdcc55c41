package domain

import (
	"time"

	"github.com/google/uuid"
)

type AgentKind string

const (
	AgentKindParent AgentKind = "PARENT"
	AgentKindChild  AgentKind = "CHILD"
)

// Scope partitions agent hierarchies between tenants. A nil organization is a
// distinct scope from any non-nil one.
type Scope struct {
	InstanceID     uuid.UUID  `json:"instance_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
}

// GenerationConfig holds the per-agent model parameters used for every
// completion call made on the agent's behalf.
type GenerationConfig struct {
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float32 `json:"temperature"`
	Model           string  `json:"model"`
	SystemPrompt    string  `json:"system_prompt"`
	FallbackMessage string  `json:"fallback_message"`
}

type Agent struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Kind       AgentKind        `json:"kind"`
	Persona    string           `json:"persona"`
	Config     GenerationConfig `json:"config"`
	Scope      Scope            `json:"scope"`
	ParentID   *uuid.UUID       `json:"parent_id,omitempty"`
	TemplateID *uuid.UUID       `json:"template_id,omitempty"`
	Category   string           `json:"category,omitempty"`
	Priority   int              `json:"priority"`
	Active     bool             `json:"active"`
	Tools      []AgentTool      `json:"tools,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// AgentTool attaches a tool to an agent. Config, when set, overrides matching
// fields of the tool's own configuration for calls made by this agent. The
// active flag disables the attachment without detaching it.
type AgentTool struct {
	AgentID uuid.UUID `json:"agent_id"`
	ToolID  uuid.UUID `json:"tool_id"`
	Tool    *Tool     `json:"tool,omitempty"`
	Config  []byte    `json:"config,omitempty"`
	Active  bool      `json:"active"`
}
