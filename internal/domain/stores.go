package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AgentStore interface {
	Create(ctx context.Context, a *Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	// GetParentByScope returns the unique active PARENT agent for the scope.
	GetParentByScope(ctx context.Context, scope Scope) (*Agent, error)
	// ListChildren returns active children ordered by (priority ASC, id ASC),
	// with their attached tools loaded.
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]Agent, error)
	UpdatePriority(ctx context.Context, id uuid.UUID, priority int) error
	UpdatePersona(ctx context.Context, id uuid.UUID, persona string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	AttachTool(ctx context.Context, at *AgentTool) error
}

type TemplateStore interface {
	Create(ctx context.Context, t *AgentTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*AgentTemplate, error)
	// List returns system templates plus those owned by userID (when non-nil).
	List(ctx context.Context, userID *uuid.UUID) ([]AgentTemplate, error)
	Update(ctx context.Context, t *AgentTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddTool(ctx context.Context, tt *TemplateTool) error
	ClearTools(ctx context.Context, templateID uuid.UUID) error
	CountAgents(ctx context.Context, templateID uuid.UUID) (int, error)
}

type ToolStore interface {
	Create(ctx context.Context, t *Tool) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tool, error)
	GetByName(ctx context.Context, name string) (*Tool, error)
	List(ctx context.Context) ([]Tool, error)
}

// ExecutionStore is append-only; records are never updated after creation.
type ExecutionStore interface {
	Create(ctx context.Context, e *AgentExecution) error
	ListByScopeSince(ctx context.Context, scope Scope, since time.Time) ([]AgentExecution, error)
}

type InstanceStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ToolDataStore backs DATABASE tools with best-effort reads and writes against
// operational tables.
type ToolDataStore interface {
	Search(ctx context.Context, table string, searchFields, returnFields []string, term string, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, values map[string]string) error
	Update(ctx context.Context, table, keyField, keyValue string, values map[string]string) (int64, error)
}

type GenerationParams struct {
	MaxTokens   int
	Temperature float32
	Model       string
}

// CompletionClient is the single model-inference capability the pipeline
// consumes: one prompt in, one text completion out. No streaming.
type CompletionClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// FlowRunner invokes a named external generation flow for MODEL_FLOW tools.
type FlowRunner interface {
	RunFlow(ctx context.Context, name, input string) (string, error)
}
