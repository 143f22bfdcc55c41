package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentStore struct {
	db *pgxpool.Pool
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{db: db}
}

const agentColumns = `id, name, kind, persona, max_tokens, temperature, model, system_prompt,
	 fallback_message, instance_id, organization_id, parent_id, template_id, category,
	 priority, active, created_at, updated_at`

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := row.Scan(
		&a.ID, &a.Name, &a.Kind, &a.Persona,
		&a.Config.MaxTokens, &a.Config.Temperature, &a.Config.Model,
		&a.Config.SystemPrompt, &a.Config.FallbackMessage,
		&a.Scope.InstanceID, &a.Scope.OrganizationID,
		&a.ParentID, &a.TemplateID, &a.Category,
		&a.Priority, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO agents (name, kind, persona, max_tokens, temperature, model, system_prompt,
		   fallback_message, instance_id, organization_id, parent_id, template_id, category,
		   priority, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at`,
		a.Name, a.Kind, a.Persona,
		a.Config.MaxTokens, a.Config.Temperature, a.Config.Model,
		a.Config.SystemPrompt, a.Config.FallbackMessage,
		a.Scope.InstanceID, a.Scope.OrganizationID,
		a.ParentID, a.TemplateID, a.Category,
		a.Priority, a.Active,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *AgentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, err := scanAgent(s.db.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	tools, err := s.loadTools(ctx, []uuid.UUID{a.ID})
	if err != nil {
		return nil, err
	}
	a.Tools = tools[a.ID]
	return a, nil
}

func (s *AgentStore) GetParentByScope(ctx context.Context, scope domain.Scope) (*domain.Agent, error) {
	return scanAgent(s.db.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE instance_id = $1
		   AND organization_id IS NOT DISTINCT FROM $2
		   AND kind = 'PARENT' AND active
		 ORDER BY created_at
		 LIMIT 1`,
		scope.InstanceID, scope.OrganizationID))
}

func (s *AgentStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]domain.Agent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE parent_id = $1 AND active
		 ORDER BY priority ASC, id ASC`,
		parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	var ids []uuid.UUID
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return agents, nil
	}

	tools, err := s.loadTools(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range agents {
		agents[i].Tools = tools[agents[i].ID]
	}
	return agents, nil
}

// loadTools fetches agent-tool attachments (with the tool record) for a set of agents.
func (s *AgentStore) loadTools(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID][]domain.AgentTool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT at.agent_id, at.tool_id, at.config, at.active,
		        t.id, t.name, t.description, t.type, t.config, t.system, t.created_at, t.updated_at
		 FROM agent_tools at
		 JOIN tools t ON t.id = at.tool_id
		 WHERE at.agent_id = ANY($1)
		 ORDER BY t.name`,
		agentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.AgentTool)
	for rows.Next() {
		var at domain.AgentTool
		tool := &domain.Tool{}
		if err := rows.Scan(
			&at.AgentID, &at.ToolID, &at.Config, &at.Active,
			&tool.ID, &tool.Name, &tool.Description, &tool.Type, &tool.Config,
			&tool.System, &tool.CreatedAt, &tool.UpdatedAt,
		); err != nil {
			return nil, err
		}
		at.Tool = tool
		result[at.AgentID] = append(result[at.AgentID], at)
	}
	return result, rows.Err()
}

func (s *AgentStore) UpdatePriority(ctx context.Context, id uuid.UUID, priority int) error {
	return s.exec(ctx,
		`UPDATE agents SET priority = $2, updated_at = now() WHERE id = $1`, id, priority)
}

func (s *AgentStore) UpdatePersona(ctx context.Context, id uuid.UUID, persona string) error {
	return s.exec(ctx,
		`UPDATE agents SET persona = $2, updated_at = now() WHERE id = $1`, id, persona)
}

// Deactivate soft-deletes the agent. Execution history keeps referencing it,
// so rows are never physically removed.
func (s *AgentStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx,
		`UPDATE agents SET active = false, updated_at = now() WHERE id = $1`, id)
}

func (s *AgentStore) AttachTool(ctx context.Context, at *domain.AgentTool) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO agent_tools (agent_id, tool_id, config, active)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (agent_id, tool_id) DO UPDATE SET config = $3, active = $4`,
		at.AgentID, at.ToolID, at.Config, at.Active)
	return err
}

func (s *AgentStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
