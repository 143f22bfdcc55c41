package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrTemplateImmutable = errors.New("system templates cannot be modified")
	ErrTemplateInUse     = errors.New("template is referenced by existing agents")
	ErrToolNotFound      = errors.New("tool not found")
)

// TemplateService manages reusable agent blueprints. System templates are
// seeded at startup and immutable; user templates are owned by their creator.
type TemplateService struct {
	templates domain.TemplateStore
	tools     domain.ToolStore
	logger    *zap.Logger
}

func NewTemplateService(ts domain.TemplateStore, tls domain.ToolStore, logger *zap.Logger) *TemplateService {
	return &TemplateService{templates: ts, tools: tls, logger: logger}
}

// TemplateToolSpec names a tool to bind to a template, with an optional
// config override layered over the tool's own config at dispatch time.
type TemplateToolSpec struct {
	ToolID uuid.UUID
	Config []byte
}

func (s *TemplateService) Create(ctx context.Context, name, description, category, persona string, userID *uuid.UUID, toolSpecs []TemplateToolSpec) (*domain.AgentTemplate, error) {
	template := &domain.AgentTemplate{
		Name:           name,
		Description:    description,
		Category:       category,
		DefaultPersona: persona,
		System:         false,
		UserID:         userID,
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, err
	}

	for _, spec := range toolSpecs {
		if _, err := s.tools.GetByID(ctx, spec.ToolID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrToolNotFound, spec.ToolID)
			}
			return nil, err
		}
		tt := &domain.TemplateTool{
			TemplateID: template.ID,
			ToolID:     spec.ToolID,
			Config:     spec.Config,
		}
		if err := s.templates.AddTool(ctx, tt); err != nil {
			return nil, fmt.Errorf("add template tool: %w", err)
		}
		template.DefaultTools = append(template.DefaultTools, *tt)
	}

	s.logger.Info("template created",
		zap.String("template_id", template.ID.String()),
		zap.String("category", category))
	return template, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*domain.AgentTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns all system templates plus the given user's own templates.
func (s *TemplateService) List(ctx context.Context, userID *uuid.UUID) ([]domain.AgentTemplate, error) {
	return s.templates.List(ctx, userID)
}

// Update replaces the template's descriptive fields and, when toolSpecs is
// non-nil, its entire tool set. System templates are rejected.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, name, description, category, persona string, toolSpecs []TemplateToolSpec) (*domain.AgentTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.System {
		return nil, ErrTemplateImmutable
	}

	template.Name = name
	template.Description = description
	template.Category = category
	template.DefaultPersona = persona
	if err := s.templates.Update(ctx, template); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	if toolSpecs != nil {
		if err := s.templates.ClearTools(ctx, id); err != nil {
			return nil, err
		}
		template.DefaultTools = nil
		for _, spec := range toolSpecs {
			tt := &domain.TemplateTool{TemplateID: id, ToolID: spec.ToolID, Config: spec.Config}
			if err := s.templates.AddTool(ctx, tt); err != nil {
				return nil, fmt.Errorf("add template tool: %w", err)
			}
			template.DefaultTools = append(template.DefaultTools, *tt)
		}
	}
	return template, nil
}

// Delete removes a user template. Templates still referenced by agents and
// system templates are refused.
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	template, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if template.System {
		return ErrTemplateImmutable
	}

	count, err := s.templates.CountAgents(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTemplateInUse
	}

	if err := s.templates.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	s.logger.Info("template deleted", zap.String("template_id", id.String()))
	return nil
}
