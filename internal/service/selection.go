package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Selection generation is deliberately cold and short: the model only has to
// echo back one of the listed ids, or NONE.
const (
	selectionMaxTokens   = 100
	selectionTemperature = 0.1
)

// SelectionService picks which child agent, if any, should handle a message.
// The decision is delegated to the completion model; on completion failure it
// falls back to the first child in (priority, id) order so routing degrades
// instead of breaking.
type SelectionService struct {
	agents     domain.AgentStore
	completion domain.CompletionClient
	logger     *zap.Logger
}

func NewSelectionService(agents domain.AgentStore, completion domain.CompletionClient, logger *zap.Logger) *SelectionService {
	return &SelectionService{agents: agents, completion: completion, logger: logger}
}

// SelectChild returns the chosen child agent, or nil when the parent should
// answer itself. Store errors propagate; only completion failures trigger the
// priority fallback.
func (s *SelectionService) SelectChild(ctx context.Context, parent *domain.Agent, message string) (*domain.Agent, error) {
	children, err := s.agents.ListChildren(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	if len(children) == 0 {
		return nil, nil
	}

	prompt := buildSelectionPrompt(children, message)
	raw, err := s.completion.Generate(ctx, prompt, domain.GenerationParams{
		MaxTokens:   selectionMaxTokens,
		Temperature: selectionTemperature,
		Model:       parent.Config.Model,
	})
	if err != nil {
		s.logger.Warn("selection completion failed, falling back to first child",
			zap.String("parent_id", parent.ID.String()),
			zap.Error(err))
		return &children[0], nil
	}

	answer := strings.TrimSpace(raw)
	if strings.EqualFold(answer, "NONE") {
		return nil, nil
	}

	id, perr := uuid.Parse(answer)
	if perr != nil {
		// Some models wrap the id in prose. Scan for any listed id before
		// giving up and keeping the message with the parent.
		for i := range children {
			if strings.Contains(answer, children[i].ID.String()) {
				return &children[i], nil
			}
		}
		s.logger.Warn("selection returned unparseable answer",
			zap.String("parent_id", parent.ID.String()),
			zap.String("answer", answer))
		return nil, nil
	}

	for i := range children {
		if children[i].ID == id {
			return &children[i], nil
		}
	}
	s.logger.Warn("selection returned unknown child id",
		zap.String("parent_id", parent.ID.String()),
		zap.String("child_id", id.String()))
	return nil, nil
}

func buildSelectionPrompt(children []domain.Agent, message string) string {
	var b strings.Builder
	b.WriteString("You route user messages to specialist agents.\n")
	b.WriteString("Available specialists:\n")
	for _, c := range children {
		names := make([]string, 0, len(c.Tools))
		for _, at := range c.Tools {
			if at.Active && at.Tool != nil {
				names = append(names, at.Tool.Name)
			}
		}
		fmt.Fprintf(&b, "- id: %s | name: %s | category: %s | persona: %s | tools: %s\n",
			c.ID, c.Name, c.Category, c.Persona, strings.Join(names, ", "))
	}
	b.WriteString("\nUser message: ")
	b.WriteString(message)
	b.WriteString("\n\nReply with exactly one specialist id from the list above, or NONE if no specialist fits.")
	return b.String()
}
