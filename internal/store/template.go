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

type TemplateStore struct {
	db *pgxpool.Pool
}

func NewTemplateStore(db *pgxpool.Pool) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) Create(ctx context.Context, t *domain.AgentTemplate) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO agent_templates (name, description, category, default_persona, system, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Description, t.Category, t.DefaultPersona, t.System, t.UserID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *TemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AgentTemplate, error) {
	t := &domain.AgentTemplate{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, category, default_persona, system, user_id, created_at, updated_at
		 FROM agent_templates WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.DefaultPersona, &t.System, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tools, err := s.loadTools(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.DefaultTools = tools
	return t, nil
}

func (s *TemplateStore) List(ctx context.Context, userID *uuid.UUID) ([]domain.AgentTemplate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, category, default_persona, system, user_id, created_at, updated_at
		 FROM agent_templates
		 WHERE system OR user_id IS NOT DISTINCT FROM $1
		 ORDER BY system DESC, category ASC, name ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.AgentTemplate
	for rows.Next() {
		var t domain.AgentTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.DefaultPersona,
			&t.System, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Update(ctx context.Context, t *domain.AgentTemplate) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE agent_templates
		 SET name = $2, description = $3, category = $4, default_persona = $5, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Category, t.DefaultPersona)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agent_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TemplateStore) AddTool(ctx context.Context, tt *domain.TemplateTool) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO template_tools (template_id, tool_id, config)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (template_id, tool_id) DO UPDATE SET config = $3`,
		tt.TemplateID, tt.ToolID, tt.Config)
	return err
}

func (s *TemplateStore) ClearTools(ctx context.Context, templateID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM template_tools WHERE template_id = $1`, templateID)
	return err
}

// CountAgents reports how many agents reference the template; used to block
// deletion of templates in use.
func (s *TemplateStore) CountAgents(ctx context.Context, templateID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM agents WHERE template_id = $1`, templateID,
	).Scan(&count)
	return count, err
}

func (s *TemplateStore) loadTools(ctx context.Context, templateID uuid.UUID) ([]domain.TemplateTool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT tt.template_id, tt.tool_id, tt.config,
		        t.id, t.name, t.description, t.type, t.config, t.system, t.created_at, t.updated_at
		 FROM template_tools tt
		 JOIN tools t ON t.id = tt.tool_id
		 WHERE tt.template_id = $1
		 ORDER BY t.name`,
		templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []domain.TemplateTool
	for rows.Next() {
		var tt domain.TemplateTool
		tool := &domain.Tool{}
		if err := rows.Scan(
			&tt.TemplateID, &tt.ToolID, &tt.Config,
			&tool.ID, &tool.Name, &tool.Description, &tool.Type, &tool.Config,
			&tool.System, &tool.CreatedAt, &tool.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tt.Tool = tool
		tools = append(tools, tt)
	}
	return tools, rows.Err()
}
