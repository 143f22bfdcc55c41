package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionService runs the message pipeline: resolve the scope's parent,
// route to a child when one fits, dispatch any tool the child asks for, then
// let the parent refine the child's draft. Every stage that produces or fails
// to produce text writes one execution record; telemetry failures never block
// the reply.
type ExecutionService struct {
	hierarchy  *HierarchyService
	selection  *SelectionService
	tools      *ToolService
	executions domain.ExecutionStore
	completion domain.CompletionClient

	completionTimeout time.Duration
	logger            *zap.Logger
}

func NewExecutionService(
	hierarchy *HierarchyService,
	selection *SelectionService,
	tools *ToolService,
	executions domain.ExecutionStore,
	completion domain.CompletionClient,
	completionTimeout time.Duration,
	logger *zap.Logger,
) *ExecutionService {
	return &ExecutionService{
		hierarchy:         hierarchy,
		selection:         selection,
		tools:             tools,
		executions:        executions,
		completion:        completion,
		completionTimeout: completionTimeout,
		logger:            logger,
	}
}

// HandleMessage processes one inbound user message for a scope and returns
// the final reply text. Missing parent is the only error surfaced to the
// caller; generation failures degrade to fallback messages and tool failures
// feed their error back into a regeneration.
func (s *ExecutionService) HandleMessage(ctx context.Context, scope domain.Scope, message, sender string) (string, error) {
	parent, err := s.hierarchy.GetParentAgent(ctx, scope)
	if err != nil {
		return "", err
	}

	child, err := s.selection.SelectChild(ctx, parent, message)
	if err != nil {
		return "", err
	}

	if child == nil {
		return s.respondDirect(ctx, parent, message)
	}
	return s.respondDelegated(ctx, parent, child, message)
}

// respondDirect has the parent answer without delegation.
func (s *ExecutionService) respondDirect(ctx context.Context, parent *domain.Agent, message string) (string, error) {
	started := time.Now()
	reply, err := s.generate(ctx, parent, directPrompt(parent, message))
	if err != nil {
		s.record(ctx, parent, message, nil, started, false, nil, err)
		return parent.Config.FallbackMessage, nil
	}
	s.record(ctx, parent, message, &reply, started, true, nil, nil)
	return reply, nil
}

// respondDelegated runs the child draft, optional tool dispatch, and parent
// refinement stages. The child stage and the refinement stage each log their
// own execution record. A tool dispatch failure does not abort the child
// stage: the error description flows back into a regeneration, and only a
// failed generation falls back.
func (s *ExecutionService) respondDelegated(ctx context.Context, parent, child *domain.Agent, message string) (string, error) {
	childStart := time.Now()
	base := childPrompt(child, message)
	draft, err := s.generate(ctx, child, base)
	if err != nil {
		s.record(ctx, child, message, nil, childStart, false, nil, err)
		return child.Config.FallbackMessage, nil
	}

	var toolsUsed []uuid.UUID
	if reference, ok := detectToolIntent(draft); ok {
		at := resolveTool(reference, draft, child.Tools)
		if at == nil {
			s.logger.Warn("tool intent matched no attached tool",
				zap.String("agent_id", child.ID.String()),
				zap.String("reference", reference))
		} else {
			var toolContext string
			result, terr := s.tools.Dispatch(ctx, at, message)
			if terr != nil {
				s.logger.Warn("tool dispatch failed",
					zap.String("agent_id", child.ID.String()),
					zap.String("tool", at.Tool.Name),
					zap.Error(terr))
				toolContext = fmt.Sprintf("Tool %s failed: %v", at.Tool.Name, terr)
			} else {
				toolsUsed = append(toolsUsed, at.ToolID)
				toolContext = fmt.Sprintf("Result from tool %s: %s", at.Tool.Name, result)
			}

			draft, err = s.generate(ctx, child, toolResultPrompt(base, toolContext))
			if err != nil {
				s.record(ctx, child, message, nil, childStart, false, toolsUsed, err)
				return child.Config.FallbackMessage, nil
			}
		}
	}
	s.record(ctx, child, message, &draft, childStart, true, toolsUsed, nil)

	refineStart := time.Now()
	refined, err := s.generate(ctx, parent, refinementPrompt(parent, message, draft))
	if err != nil {
		s.record(ctx, parent, message, nil, refineStart, false, nil, err)
		return draft, nil
	}
	s.record(ctx, parent, message, &refined, refineStart, true, nil, nil)
	return refined, nil
}

func (s *ExecutionService) generate(ctx context.Context, agent *domain.Agent, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.completionTimeout)
	defer cancel()

	return s.completion.Generate(cctx, prompt, domain.GenerationParams{
		MaxTokens:   agent.Config.MaxTokens,
		Temperature: agent.Config.Temperature,
		Model:       agent.Config.Model,
	})
}

// record writes one execution record. Failures are logged and swallowed so
// telemetry never breaks the reply path.
func (s *ExecutionService) record(ctx context.Context, agent *domain.Agent, message string, response *string, started time.Time, success bool, toolsUsed []uuid.UUID, cause error) {
	exec := &domain.AgentExecution{
		AgentID:        &agent.ID,
		AgentName:      agent.Name,
		InstanceID:     agent.Scope.InstanceID,
		OrganizationID: agent.Scope.OrganizationID,
		UserMessage:    message,
		Response:       response,
		DurationMs:     time.Since(started).Milliseconds(),
		Success:        success,
		ToolsUsed:      toolsUsed,
	}
	if cause != nil {
		msg := cause.Error()
		exec.ErrorMessage = &msg
	}
	if err := s.executions.Create(ctx, exec); err != nil {
		s.logger.Error("failed to record execution",
			zap.String("agent_id", agent.ID.String()),
			zap.Error(err))
	}
}

func directPrompt(agent *domain.Agent, message string) string {
	var b strings.Builder
	b.WriteString(agent.Config.SystemPrompt)
	b.WriteString("\n\n")
	if agent.Persona != "" {
		b.WriteString("Persona: ")
		b.WriteString(agent.Persona)
		b.WriteString("\n\n")
	}
	b.WriteString("User message: ")
	b.WriteString(message)
	return b.String()
}

// childPrompt extends the direct prompt with the roster of active tools so
// the model knows what it can ask for.
func childPrompt(child *domain.Agent, message string) string {
	var b strings.Builder
	b.WriteString(child.Config.SystemPrompt)
	b.WriteString("\n\n")
	if child.Persona != "" {
		b.WriteString("Persona: ")
		b.WriteString(child.Persona)
		b.WriteString("\n\n")
	}

	var active []domain.AgentTool
	for _, at := range child.Tools {
		if at.Active && at.Tool != nil {
			active = append(active, at)
		}
	}
	if len(active) > 0 {
		b.WriteString("Available tools:\n")
		for _, at := range active {
			fmt.Fprintf(&b, "- %s: %s\n", at.Tool.Name, at.Tool.Description)
		}
		b.WriteString("\nIf you need a tool, state clearly which tool to use and the parameters it needs.\n\n")
	}

	b.WriteString("User message: ")
	b.WriteString(message)
	return b.String()
}

func toolResultPrompt(base, toolContext string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nData obtained from the tool:\n")
	b.WriteString(toolContext)
	b.WriteString("\n\nNow answer the user's message using this information. Do not mention the tool.")
	return b.String()
}

func refinementPrompt(parent *domain.Agent, message, draft string) string {
	var b strings.Builder
	b.WriteString(parent.Config.SystemPrompt)
	b.WriteString("\n\nA specialist drafted the following reply:\n")
	b.WriteString(draft)
	b.WriteString("\n\nRefine the draft so it is clear, complete, and consistent in tone. ")
	b.WriteString("Keep all factual content. Reply with the refined text only.\n\n")
	b.WriteString("Original user message: ")
	b.WriteString(message)
	return b.String()
}
