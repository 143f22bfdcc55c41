package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pipelineFixture struct {
	agents     *mockAgentStore
	executions *mockExecutionStore
	data       *mockDataStore
	client     *llm.MockClient
	service    *ExecutionService

	scope  domain.Scope
	parent *domain.Agent
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	logger := zap.NewNop()

	agents := newMockAgentStore()
	executions := newMockExecutionStore()
	data := &mockDataStore{}
	client := llm.NewMockClient()

	instanceID := uuid.New()
	scope := domain.Scope{InstanceID: instanceID}

	hierarchy := NewHierarchyService(agents, newMockTemplateStore(), newMockToolStore(), newMockInstanceStore(instanceID), "gemini-2.0-flash", logger)
	selection := NewSelectionService(agents, client, logger)
	tools := NewToolService(newMockToolStore(), data, &llm.MockFlowRunner{}, 5*time.Second, logger)
	service := NewExecutionService(hierarchy, selection, tools, executions, client, 10*time.Second, logger)

	parent, err := hierarchy.CreateParentAgent(context.Background(), "Orchestrator", "You coordinate.", scope)
	require.NoError(t, err)

	return &pipelineFixture{
		agents:     agents,
		executions: executions,
		data:       data,
		client:     client,
		service:    service,
		scope:      scope,
		parent:     parent,
	}
}

func (f *pipelineFixture) addChild(t *testing.T, name string, tools ...domain.AgentTool) *domain.Agent {
	t.Helper()
	child := &domain.Agent{
		Name:     name,
		Kind:     domain.AgentKindChild,
		Persona:  "You are a specialist.",
		Scope:    f.scope,
		ParentID: &f.parent.ID,
		Category: "support",
		Priority: 1,
		Active:   true,
		Config: domain.GenerationConfig{
			MaxTokens:       1500,
			Temperature:     0.8,
			Model:           "gemini-2.0-flash",
			SystemPrompt:    "You are a specialist agent in support.",
			FallbackMessage: "child fallback",
		},
	}
	require.NoError(t, f.agents.Create(context.Background(), child))
	for i := range tools {
		tools[i].AgentID = child.ID
		require.NoError(t, f.agents.AttachTool(context.Background(), &tools[i]))
	}
	child.Tools = tools
	return child
}

// script routes prompts by stage: the selection prompt asks for a specialist
// id, the refinement prompt carries the draft marker.
func (f *pipelineFixture) script(selection, draft, refined string, draftErr, refineErr error) {
	f.client.GenerateFunc = func(prompt string, params domain.GenerationParams) (string, error) {
		switch {
		case strings.Contains(prompt, "Reply with exactly one specialist id"):
			return selection, nil
		case strings.Contains(prompt, "A specialist drafted the following reply"):
			if refineErr != nil {
				return "", refineErr
			}
			return refined, nil
		default:
			if draftErr != nil {
				return "", draftErr
			}
			return draft, nil
		}
	}
}

func TestExecutionService_NoParent(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.service.HandleMessage(context.Background(), domain.Scope{InstanceID: uuid.New()}, "hi", "user-1")
	require.ErrorIs(t, err, ErrNoParentAgent)
}

func TestExecutionService_DirectReply(t *testing.T) {
	f := newPipelineFixture(t)
	// No children, so the selection stage never runs a completion and the
	// parent answers directly.
	f.client.GenerateResponse = "Hello from the orchestrator."

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "hi there", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello from the orchestrator.", reply)

	require.Len(t, f.executions.records, 1)
	rec := f.executions.records[0]
	assert.Equal(t, f.parent.ID, *rec.AgentID)
	assert.True(t, rec.Success)
	require.NotNil(t, rec.Response)
	assert.Equal(t, "Hello from the orchestrator.", *rec.Response)

	// Exactly one completion call: the parent's own generation.
	assert.Len(t, f.client.GenerateCalls, 1)
	assert.Equal(t, 2000, f.client.GenerateParams[0].MaxTokens)
}

func TestExecutionService_DirectReply_CompletionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.client.GenerateError = fmt.Errorf("%w: upstream 500", llm.ErrCompletion)

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "hi", "user-1")
	require.NoError(t, err)
	assert.Equal(t, f.parent.Config.FallbackMessage, reply)

	require.Len(t, f.executions.records, 1)
	rec := f.executions.records[0]
	assert.False(t, rec.Success)
	assert.Nil(t, rec.Response)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "completion failed")
}

func TestExecutionService_DelegatedReply(t *testing.T) {
	f := newPipelineFixture(t)
	child := f.addChild(t, "Support")
	f.script(child.ID.String(), "Draft answer.", "Polished answer.", nil, nil)

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "my order is late", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Polished answer.", reply)

	require.Len(t, f.executions.records, 2)
	childRec, parentRec := f.executions.records[0], f.executions.records[1]
	assert.Equal(t, child.ID, *childRec.AgentID)
	assert.True(t, childRec.Success)
	assert.Equal(t, "Draft answer.", *childRec.Response)
	assert.Equal(t, f.parent.ID, *parentRec.AgentID)
	assert.True(t, parentRec.Success)
	assert.Equal(t, "Polished answer.", *parentRec.Response)
}

func TestExecutionService_ChildFailure(t *testing.T) {
	f := newPipelineFixture(t)
	child := f.addChild(t, "Support")
	f.script(child.ID.String(), "", "", fmt.Errorf("%w: timeout", llm.ErrCompletion), nil)

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "help", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "child fallback", reply)

	// Exactly one record: the failed child stage. No refinement record.
	require.Len(t, f.executions.records, 1)
	rec := f.executions.records[0]
	assert.Equal(t, child.ID, *rec.AgentID)
	assert.False(t, rec.Success)
}

func TestExecutionService_RefinementFailureReturnsDraft(t *testing.T) {
	f := newPipelineFixture(t)
	child := f.addChild(t, "Support")
	f.script(child.ID.String(), "Unrefined draft.", "", nil, fmt.Errorf("%w: overloaded", llm.ErrCompletion))

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "help", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Unrefined draft.", reply)

	require.Len(t, f.executions.records, 2)
	assert.True(t, f.executions.records[0].Success)
	assert.False(t, f.executions.records[1].Success)
	assert.Equal(t, f.parent.ID, *f.executions.records[1].AgentID)
}

func TestExecutionService_ToolDispatch(t *testing.T) {
	f := newPipelineFixture(t)
	f.data.searchRows = []map[string]any{{"name": "Monitor X"}}

	cfg, err := json.Marshal(domain.DatabaseToolConfig{
		Table:        "products",
		Action:       domain.DatabaseActionSearch,
		SearchFields: []string{"name"},
	})
	require.NoError(t, err)
	toolID := uuid.New()
	at := domain.AgentTool{
		ToolID: toolID,
		Tool:   &domain.Tool{ID: toolID, Name: "getProductInfo", Type: domain.ToolTypeDatabase, Config: cfg},
		Active: true,
	}
	child := f.addChild(t, "Sales", at)

	calls := 0
	f.client.GenerateFunc = func(prompt string, params domain.GenerationParams) (string, error) {
		switch {
		case strings.Contains(prompt, "Reply with exactly one specialist id"):
			return child.ID.String(), nil
		case strings.Contains(prompt, "A specialist drafted the following reply"):
			return "Final refined answer.", nil
		default:
			calls++
			if calls == 1 {
				// The child prompt lists the attached tools.
				require.Contains(t, prompt, "Available tools:")
				require.Contains(t, prompt, "getProductInfo")
				return "USE_TOOL: getProductInfo", nil
			}
			require.Contains(t, prompt, "Monitor X")
			return "We have Monitor X in stock.", nil
		}
	}

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "do you have monitors", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Final refined answer.", reply)

	require.Len(t, f.executions.records, 2)
	childRec := f.executions.records[0]
	require.Len(t, childRec.ToolsUsed, 1)
	assert.Equal(t, toolID, childRec.ToolsUsed[0])
	assert.Equal(t, "We have Monitor X in stock.", *childRec.Response)
}

func TestExecutionService_ToolFailureRegeneratesWithErrorContext(t *testing.T) {
	f := newPipelineFixture(t)
	f.data.searchErr = errors.New("table missing")

	cfg, err := json.Marshal(domain.DatabaseToolConfig{Table: "products", Action: domain.DatabaseActionSearch})
	require.NoError(t, err)
	toolID := uuid.New()
	at := domain.AgentTool{
		ToolID: toolID,
		Tool:   &domain.Tool{ID: toolID, Name: "getProductInfo", Type: domain.ToolTypeDatabase, Config: cfg},
		Active: true,
	}
	child := f.addChild(t, "Sales", at)

	childCalls := 0
	f.client.GenerateFunc = func(prompt string, params domain.GenerationParams) (string, error) {
		switch {
		case strings.Contains(prompt, "Reply with exactly one specialist id"):
			return child.ID.String(), nil
		case strings.Contains(prompt, "A specialist drafted the following reply"):
			return "Refined without the catalog.", nil
		default:
			childCalls++
			if childCalls == 1 {
				return "USE_TOOL: getProductInfo", nil
			}
			// The regeneration carries the tool's error description.
			require.Contains(t, prompt, "getProductInfo")
			require.Contains(t, prompt, "failed")
			return "I could not reach the catalog right now.", nil
		}
	}

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "do you have monitors", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Refined without the catalog.", reply)
	assert.Equal(t, 2, childCalls)

	require.Len(t, f.executions.records, 2)
	childRec := f.executions.records[0]
	assert.True(t, childRec.Success)
	assert.Empty(t, childRec.ToolsUsed, "a failed dispatch must not count as tool use")
}

func TestExecutionService_ToolFailureThenRegenerationFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.data.searchErr = errors.New("table missing")

	cfg, err := json.Marshal(domain.DatabaseToolConfig{Table: "products", Action: domain.DatabaseActionSearch})
	require.NoError(t, err)
	toolID := uuid.New()
	at := domain.AgentTool{
		ToolID: toolID,
		Tool:   &domain.Tool{ID: toolID, Name: "getProductInfo", Type: domain.ToolTypeDatabase, Config: cfg},
		Active: true,
	}
	child := f.addChild(t, "Sales", at)

	childCalls := 0
	f.client.GenerateFunc = func(prompt string, params domain.GenerationParams) (string, error) {
		if strings.Contains(prompt, "Reply with exactly one specialist id") {
			return child.ID.String(), nil
		}
		childCalls++
		if childCalls == 1 {
			return "USE_TOOL: getProductInfo", nil
		}
		return "", fmt.Errorf("%w: overloaded", llm.ErrCompletion)
	}

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "do you have monitors", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "child fallback", reply)

	require.Len(t, f.executions.records, 1)
	assert.False(t, f.executions.records[0].Success)
}

func TestExecutionService_UnmatchedToolIntent(t *testing.T) {
	f := newPipelineFixture(t)
	child := f.addChild(t, "Support")

	f.client.GenerateFunc = func(prompt string, params domain.GenerationParams) (string, error) {
		switch {
		case strings.Contains(prompt, "Reply with exactly one specialist id"):
			return child.ID.String(), nil
		case strings.Contains(prompt, "A specialist drafted the following reply"):
			return "Refined.", nil
		default:
			return "USE_TOOL: somethingUnknown", nil
		}
	}

	// An intent that matches no attached tool is ignored; the draft goes
	// straight to refinement.
	reply, err := f.service.HandleMessage(context.Background(), f.scope, "help", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Refined.", reply)

	require.Len(t, f.executions.records, 2)
	assert.Empty(t, f.executions.records[0].ToolsUsed)
}

func TestExecutionService_TelemetryFailureDoesNotBlockReply(t *testing.T) {
	f := newPipelineFixture(t)
	f.executions.createErr = errors.New("executions table full")
	f.client.GenerateResponse = "Still replying."

	reply, err := f.service.HandleMessage(context.Background(), f.scope, "hi", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Still replying.", reply)
	assert.Empty(t, f.executions.records)
}
