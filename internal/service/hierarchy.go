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
	ErrAgentNotFound  = errors.New("agent not found")
	ErrScopeNotFound  = errors.New("instance not found for scope")
	ErrNoParentAgent  = errors.New("no parent agent configured for scope")
	ErrParentRequired = errors.New("parent agent id is required for child agents")
)

// Fixed generation defaults per agent role. Only persona and priority vary at
// creation time; everything else is replaced through full agent updates.
const (
	parentMaxTokens   = 2000
	parentTemperature = 0.7

	templateChildMaxTokens   = 1500
	templateChildTemperature = 0.8

	customChildMaxTokens   = 1200
	customChildTemperature = 0.9

	parentSystemPrompt    = "You are an orchestrator agent that delegates tasks to specialist agents."
	parentFallbackMessage = "Sorry, I was unable to process your request right now."
	childFallbackMessage  = "I was unable to process your request in this specialty."
)

// HierarchyService owns the agent/template/tool graph: parent and child
// creation, ordered child listing, and the targeted mutations the pipeline
// relies on. Every other component reads the graph through it.
type HierarchyService struct {
	agents    domain.AgentStore
	templates domain.TemplateStore
	tools     domain.ToolStore
	instances domain.InstanceStore
	model     string
	logger    *zap.Logger
}

func NewHierarchyService(as domain.AgentStore, ts domain.TemplateStore, tls domain.ToolStore, is domain.InstanceStore, defaultModel string, logger *zap.Logger) *HierarchyService {
	return &HierarchyService{
		agents:    as,
		templates: ts,
		tools:     tls,
		instances: is,
		model:     defaultModel,
		logger:    logger,
	}
}

func (s *HierarchyService) CreateParentAgent(ctx context.Context, name, persona string, scope domain.Scope) (*domain.Agent, error) {
	exists, err := s.instances.Exists(ctx, scope.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("check instance: %w", err)
	}
	if !exists {
		return nil, ErrScopeNotFound
	}

	agent := &domain.Agent{
		Name:    name,
		Kind:    domain.AgentKindParent,
		Persona: persona,
		Config: domain.GenerationConfig{
			MaxTokens:       parentMaxTokens,
			Temperature:     parentTemperature,
			Model:           s.model,
			SystemPrompt:    parentSystemPrompt,
			FallbackMessage: parentFallbackMessage,
		},
		Scope:    scope,
		Priority: 0,
		Active:   true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	s.logger.Info("parent agent created",
		zap.String("agent_id", agent.ID.String()),
		zap.String("instance_id", scope.InstanceID.String()))
	return agent, nil
}

// CreateChildFromTemplate builds a child from a template blueprint. The
// template's default tool set is copied onto the agent, carrying each tool's
// default config as the agent-tool override. Persona falls back to the
// template default when no override is given.
func (s *HierarchyService) CreateChildFromTemplate(ctx context.Context, name string, templateID uuid.UUID, scope domain.Scope, parentID uuid.UUID, personaOverride *string) (*domain.Agent, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	persona := template.DefaultPersona
	if personaOverride != nil && *personaOverride != "" {
		persona = *personaOverride
	}

	agent := &domain.Agent{
		Name:    name,
		Kind:    domain.AgentKindChild,
		Persona: persona,
		Config: domain.GenerationConfig{
			MaxTokens:       templateChildMaxTokens,
			Temperature:     templateChildTemperature,
			Model:           s.model,
			SystemPrompt:    fmt.Sprintf("You are a specialist agent in %s.", template.Category),
			FallbackMessage: childFallbackMessage,
		},
		Scope:      scope,
		ParentID:   &parentID,
		TemplateID: &templateID,
		Category:   template.Category,
		Priority:   1,
		Active:     true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}

	for _, tt := range template.DefaultTools {
		at := &domain.AgentTool{
			AgentID: agent.ID,
			ToolID:  tt.ToolID,
			Config:  tt.Config,
			Active:  true,
		}
		if err := s.agents.AttachTool(ctx, at); err != nil {
			return nil, fmt.Errorf("attach template tool: %w", err)
		}
		agent.Tools = append(agent.Tools, *at)
	}

	s.logger.Info("child agent created from template",
		zap.String("agent_id", agent.ID.String()),
		zap.String("template_id", templateID.String()),
		zap.Int("tools", len(agent.Tools)))
	return agent, nil
}

func (s *HierarchyService) CreateCustomChild(ctx context.Context, name, persona string, scope domain.Scope, parentID uuid.UUID, toolIDs []uuid.UUID) (*domain.Agent, error) {
	agent := &domain.Agent{
		Name:    name,
		Kind:    domain.AgentKindChild,
		Persona: persona,
		Config: domain.GenerationConfig{
			MaxTokens:       customChildMaxTokens,
			Temperature:     customChildTemperature,
			Model:           s.model,
			SystemPrompt:    "You are a custom specialist agent.",
			FallbackMessage: childFallbackMessage,
		},
		Scope:    scope,
		ParentID: &parentID,
		Category: "custom",
		Priority: 2,
		Active:   true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}

	for _, toolID := range toolIDs {
		at := &domain.AgentTool{
			AgentID: agent.ID,
			ToolID:  toolID,
			Active:  true,
		}
		if err := s.agents.AttachTool(ctx, at); err != nil {
			return nil, fmt.Errorf("attach tool: %w", err)
		}
		agent.Tools = append(agent.Tools, *at)
	}
	return agent, nil
}

func (s *HierarchyService) GetAgent(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, err := s.agents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetParentAgent resolves the unique active PARENT for an (instance,
// organization) pair. A nil organization is its own scope.
func (s *HierarchyService) GetParentAgent(ctx context.Context, scope domain.Scope) (*domain.Agent, error) {
	a, err := s.agents.GetParentByScope(ctx, scope)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoParentAgent
		}
		return nil, err
	}
	return a, nil
}

// ListChildren returns the parent's active children ordered by priority
// ascending, ties broken by id, so fallback selection is deterministic.
func (s *HierarchyService) ListChildren(ctx context.Context, parentID uuid.UUID) ([]domain.Agent, error) {
	return s.agents.ListChildren(ctx, parentID)
}

func (s *HierarchyService) SetPriority(ctx context.Context, id uuid.UUID, priority int) error {
	if err := s.agents.UpdatePriority(ctx, id, priority); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return err
	}
	return nil
}

func (s *HierarchyService) UpdatePersona(ctx context.Context, id uuid.UUID, persona string) error {
	if err := s.agents.UpdatePersona(ctx, id, persona); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return err
	}
	return nil
}

// Deactivate soft-deletes an agent. Children of a deactivated parent are not
// cascaded; the pipeline only reaches children through their parent, so they
// become unreachable until reparented.
func (s *HierarchyService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.agents.Deactivate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return err
	}
	return nil
}
