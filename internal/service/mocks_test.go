package service

import (
	"context"
	"sort"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/store"
	"github.com/google/uuid"
)

// mockAgentStore implements domain.AgentStore for testing. Attachments live
// in their own map, like the agent_tools table, and reads return copies.
type mockAgentStore struct {
	agents      map[uuid.UUID]*domain.Agent
	attachments map[uuid.UUID][]domain.AgentTool
}

func newMockAgentStore() *mockAgentStore {
	return &mockAgentStore{
		agents:      make(map[uuid.UUID]*domain.Agent),
		attachments: make(map[uuid.UUID][]domain.AgentTool),
	}
}

func (m *mockAgentStore) Create(ctx context.Context, a *domain.Agent) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	cp.Tools = nil
	m.agents[a.ID] = &cp
	return nil
}

func (m *mockAgentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	cp.Tools = append([]domain.AgentTool(nil), m.attachments[id]...)
	return &cp, nil
}

func (m *mockAgentStore) GetParentByScope(ctx context.Context, scope domain.Scope) (*domain.Agent, error) {
	for _, a := range m.agents {
		if a.Kind == domain.AgentKindParent && a.Active && sameScope(a.Scope, scope) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockAgentStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]domain.Agent, error) {
	var out []domain.Agent
	for _, a := range m.agents {
		if a.ParentID != nil && *a.ParentID == parentID && a.Active {
			cp := *a
			cp.Tools = append([]domain.AgentTool(nil), m.attachments[a.ID]...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *mockAgentStore) UpdatePriority(ctx context.Context, id uuid.UUID, priority int) error {
	a, ok := m.agents[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Priority = priority
	return nil
}

func (m *mockAgentStore) UpdatePersona(ctx context.Context, id uuid.UUID, persona string) error {
	a, ok := m.agents[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Persona = persona
	return nil
}

func (m *mockAgentStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, ok := m.agents[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Active = false
	return nil
}

func (m *mockAgentStore) AttachTool(ctx context.Context, at *domain.AgentTool) error {
	if _, ok := m.agents[at.AgentID]; !ok {
		return store.ErrNotFound
	}
	m.attachments[at.AgentID] = append(m.attachments[at.AgentID], *at)
	return nil
}

func sameScope(a, b domain.Scope) bool {
	if a.InstanceID != b.InstanceID {
		return false
	}
	if (a.OrganizationID == nil) != (b.OrganizationID == nil) {
		return false
	}
	return a.OrganizationID == nil || *a.OrganizationID == *b.OrganizationID
}

// mockTemplateStore implements domain.TemplateStore for testing. Tool sets
// live in their own map, like the template_tools table.
type mockTemplateStore struct {
	templates  map[uuid.UUID]*domain.AgentTemplate
	tools      map[uuid.UUID][]domain.TemplateTool
	agentCount map[uuid.UUID]int
}

func newMockTemplateStore() *mockTemplateStore {
	return &mockTemplateStore{
		templates:  make(map[uuid.UUID]*domain.AgentTemplate),
		tools:      make(map[uuid.UUID][]domain.TemplateTool),
		agentCount: make(map[uuid.UUID]int),
	}
}

func (m *mockTemplateStore) Create(ctx context.Context, t *domain.AgentTemplate) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	cp.DefaultTools = nil
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AgentTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	cp.DefaultTools = append([]domain.TemplateTool(nil), m.tools[id]...)
	return &cp, nil
}

func (m *mockTemplateStore) List(ctx context.Context, userID *uuid.UUID) ([]domain.AgentTemplate, error) {
	var out []domain.AgentTemplate
	for _, t := range m.templates {
		if t.System || (userID != nil && t.UserID != nil && *t.UserID == *userID) {
			cp := *t
			cp.DefaultTools = append([]domain.TemplateTool(nil), m.tools[t.ID]...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockTemplateStore) Update(ctx context.Context, t *domain.AgentTemplate) error {
	if _, ok := m.templates[t.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *t
	cp.DefaultTools = nil
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.templates[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.templates, id)
	delete(m.tools, id)
	return nil
}

func (m *mockTemplateStore) AddTool(ctx context.Context, tt *domain.TemplateTool) error {
	if _, ok := m.templates[tt.TemplateID]; !ok {
		return store.ErrNotFound
	}
	m.tools[tt.TemplateID] = append(m.tools[tt.TemplateID], *tt)
	return nil
}

func (m *mockTemplateStore) ClearTools(ctx context.Context, templateID uuid.UUID) error {
	if _, ok := m.templates[templateID]; !ok {
		return store.ErrNotFound
	}
	delete(m.tools, templateID)
	return nil
}

func (m *mockTemplateStore) CountAgents(ctx context.Context, templateID uuid.UUID) (int, error) {
	return m.agentCount[templateID], nil
}

// mockToolStore implements domain.ToolStore for testing.
type mockToolStore struct {
	tools map[uuid.UUID]*domain.Tool
}

func newMockToolStore() *mockToolStore {
	return &mockToolStore{tools: make(map[uuid.UUID]*domain.Tool)}
}

func (m *mockToolStore) Create(ctx context.Context, t *domain.Tool) error {
	for _, existing := range m.tools {
		if existing.Name == t.Name {
			return store.ErrConflict
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tools[t.ID] = t
	return nil
}

func (m *mockToolStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	t, ok := m.tools[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *mockToolStore) GetByName(ctx context.Context, name string) (*domain.Tool, error) {
	for _, t := range m.tools {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockToolStore) List(ctx context.Context) ([]domain.Tool, error) {
	out := make([]domain.Tool, 0, len(m.tools))
	for _, t := range m.tools {
		out = append(out, *t)
	}
	return out, nil
}

// mockExecutionStore implements domain.ExecutionStore for testing.
type mockExecutionStore struct {
	records   []domain.AgentExecution
	createErr error
}

func newMockExecutionStore() *mockExecutionStore {
	return &mockExecutionStore{}
}

func (m *mockExecutionStore) Create(ctx context.Context, e *domain.AgentExecution) error {
	if m.createErr != nil {
		return m.createErr
	}
	e.ID = uuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.records = append(m.records, *e)
	return nil
}

func (m *mockExecutionStore) ListByScopeSince(ctx context.Context, scope domain.Scope, since time.Time) ([]domain.AgentExecution, error) {
	var out []domain.AgentExecution
	for _, e := range m.records {
		execScope := domain.Scope{InstanceID: e.InstanceID, OrganizationID: e.OrganizationID}
		if sameScope(execScope, scope) && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// mockInstanceStore implements domain.InstanceStore for testing.
type mockInstanceStore struct {
	ids map[uuid.UUID]bool
}

func newMockInstanceStore(ids ...uuid.UUID) *mockInstanceStore {
	m := &mockInstanceStore{ids: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *mockInstanceStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.ids[id], nil
}

// mockDataStore implements domain.ToolDataStore for testing.
type mockDataStore struct {
	searchRows []map[string]any
	searchErr  error

	inserted       []map[string]string
	insertErr      error
	updateAffected int64
	updateErr      error

	lastTable string
	lastTerm  string
	lastKey   string
	lastValue string
}

func (m *mockDataStore) Search(ctx context.Context, table string, searchFields, returnFields []string, term string, limit int) ([]map[string]any, error) {
	m.lastTable = table
	m.lastTerm = term
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRows, nil
}

func (m *mockDataStore) Insert(ctx context.Context, table string, values map[string]string) error {
	m.lastTable = table
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, values)
	return nil
}

func (m *mockDataStore) Update(ctx context.Context, table, keyField, keyValue string, values map[string]string) (int64, error) {
	m.lastTable = table
	m.lastKey = keyField
	m.lastValue = keyValue
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	return m.updateAffected, nil
}
