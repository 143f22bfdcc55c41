package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgentExecution is one immutable log record of a single agent invocation.
// AgentID is nil only when the run failed before any agent was determined.
// Duration and ToolsUsed cover only the stage being logged, not the whole
// pipeline run.
type AgentExecution struct {
	ID             uuid.UUID   `json:"id"`
	AgentID        *uuid.UUID  `json:"agent_id,omitempty"`
	AgentName      string      `json:"agent_name,omitempty"`
	InstanceID     uuid.UUID   `json:"instance_id"`
	OrganizationID *uuid.UUID  `json:"organization_id,omitempty"`
	UserMessage    string      `json:"user_message"`
	Response       *string     `json:"response,omitempty"`
	DurationMs     int64       `json:"duration_ms"`
	Success        bool        `json:"success"`
	ToolsUsed      []uuid.UUID `json:"tools_used,omitempty"`
	ErrorMessage   *string     `json:"error_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
