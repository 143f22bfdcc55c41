package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/store"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToolExecutionError wraps any failure inside a tool dispatch so the pipeline
// can degrade to the agent's fallback message instead of surfacing transport
// details to the user.
type ToolExecutionError struct {
	ToolName string
	Reason   string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.ToolName, e.Reason)
}

// MissingRequiredFieldError reports a required field that could not be
// extracted from the user message.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// CustomExecutor handles CUSTOM-typed tools. Registered at wiring time; a
// CUSTOM dispatch with no executor registered is a ToolExecutionError.
type CustomExecutor func(ctx context.Context, tool *domain.Tool, config []byte, message string) (string, error)

// ToolService owns the tool catalog and executes tool dispatches for the
// pipeline. Each tool type resolves through its own transport: DATABASE
// against the data store, API and WEBHOOK over HTTP, MODEL_FLOW through the
// flow runner.
type ToolService struct {
	tools  domain.ToolStore
	data   domain.ToolDataStore
	flows  domain.FlowRunner
	http   *resty.Client
	custom CustomExecutor
	logger *zap.Logger
}

func NewToolService(tools domain.ToolStore, data domain.ToolDataStore, flows domain.FlowRunner, timeout time.Duration, logger *zap.Logger) *ToolService {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &ToolService{
		tools:  tools,
		data:   data,
		flows:  flows,
		http:   client,
		logger: logger,
	}
}

// SetCustomExecutor registers the handler for CUSTOM tools.
func (s *ToolService) SetCustomExecutor(fn CustomExecutor) {
	s.custom = fn
}

func (s *ToolService) CreateTool(ctx context.Context, name, description, toolType string, config json.RawMessage) (*domain.Tool, error) {
	if !domain.ValidToolType(toolType) {
		return nil, fmt.Errorf("invalid tool type: %s", toolType)
	}
	tool := &domain.Tool{
		Name:        name,
		Description: description,
		Type:        domain.ToolType(toolType),
		Config:      config,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

func (s *ToolService) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	t, err := s.tools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *ToolService) ListTools(ctx context.Context) ([]domain.Tool, error) {
	return s.tools.List(ctx)
}

// Dispatch executes an agent tool against the user message and returns the
// tool's textual result. The agent-tool config is layered over the tool's own
// config before decoding.
func (s *ToolService) Dispatch(ctx context.Context, at *domain.AgentTool, message string) (string, error) {
	if at.Tool == nil {
		return "", &ToolExecutionError{ToolName: at.ToolID.String(), Reason: "tool not loaded"}
	}
	tool := at.Tool

	s.logger.Debug("dispatching tool",
		zap.String("tool", tool.Name),
		zap.String("type", string(tool.Type)))

	switch tool.Type {
	case domain.ToolTypeDatabase:
		return s.dispatchDatabase(ctx, tool, at.Config, message)
	case domain.ToolTypeAPI:
		return s.dispatchAPI(ctx, tool, at.Config, message)
	case domain.ToolTypeWebhook:
		return s.dispatchWebhook(ctx, tool, at.Config, message)
	case domain.ToolTypeModelFlow:
		return s.dispatchFlow(ctx, tool, at.Config, message)
	case domain.ToolTypeCustom:
		if s.custom == nil {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: "no custom executor registered"}
		}
		out, err := s.custom(ctx, tool, at.Config, message)
		if err != nil {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
		}
		return out, nil
	default:
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("unsupported tool type %s", tool.Type)}
	}
}

func (s *ToolService) dispatchDatabase(ctx context.Context, tool *domain.Tool, override []byte, message string) (string, error) {
	var cfg domain.DatabaseToolConfig
	if err := domain.DecodeToolConfig(&cfg, tool.Config, override); err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("bad config: %v", err)}
	}

	switch cfg.Action {
	case domain.DatabaseActionSearch:
		term := extractSearchTerm(message)
		if term == "" {
			return "No results found.", nil
		}
		rows, err := s.data.Search(ctx, cfg.Table, cfg.SearchFields, cfg.ReturnFields, term, 0)
		if err != nil {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
		}
		if len(rows) == 0 {
			return "No results found.", nil
		}
		return formatRows(rows), nil

	case domain.DatabaseActionCreate:
		values, err := requiredValues(message, cfg.RequiredFields)
		if err != nil {
			return "", err
		}
		if err := s.data.Insert(ctx, cfg.Table, values); err != nil {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
		}
		return fmt.Sprintf("Record created in %s.", cfg.Table), nil

	case domain.DatabaseActionUpdate:
		if len(cfg.RequiredFields) == 0 {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: "update requires at least one required field as match key"}
		}
		values, err := requiredValues(message, cfg.RequiredFields)
		if err != nil {
			return "", err
		}
		keyField := cfg.RequiredFields[0]
		keyValue := values[keyField]
		delete(values, keyField)
		affected, err := s.data.Update(ctx, cfg.Table, keyField, keyValue, values)
		if err != nil {
			return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
		}
		if affected == 0 {
			return "No matching record found to update.", nil
		}
		return fmt.Sprintf("Updated %d record(s) in %s.", affected, cfg.Table), nil

	default:
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("unknown database action %q", cfg.Action)}
	}
}

func (s *ToolService) dispatchAPI(ctx context.Context, tool *domain.Tool, override []byte, message string) (string, error) {
	var cfg domain.APIToolConfig
	if err := domain.DecodeToolConfig(&cfg, tool.Config, override); err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("bad config: %v", err)}
	}

	body, err := requiredValues(message, cfg.RequiredFields)
	if err != nil {
		return "", err
	}

	req := s.http.R().SetContext(ctx).SetHeaders(cfg.Headers)
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = "POST"
	}
	if method != "GET" {
		req.SetBody(body)
	} else if len(body) > 0 {
		req.SetQueryParams(body)
	}

	resp, err := req.Execute(method, cfg.Endpoint)
	if err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
	}
	if resp.IsError() {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("status %d: %s", resp.StatusCode(), resp.String())}
	}
	return resp.String(), nil
}

func (s *ToolService) dispatchWebhook(ctx context.Context, tool *domain.Tool, override []byte, message string) (string, error) {
	var cfg domain.WebhookToolConfig
	if err := domain.DecodeToolConfig(&cfg, tool.Config, override); err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("bad config: %v", err)}
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = "POST"
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeaders(cfg.Headers).
		SetBody(map[string]string{
			"input":     message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}).
		Execute(method, cfg.URL)
	if err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
	}
	if resp.IsError() {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("status %d", resp.StatusCode())}
	}
	return "Notification delivered.", nil
}

func (s *ToolService) dispatchFlow(ctx context.Context, tool *domain.Tool, override []byte, message string) (string, error) {
	if s.flows == nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: "no flow runner configured"}
	}
	var cfg domain.FlowToolConfig
	if err := domain.DecodeToolConfig(&cfg, tool.Config, override); err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: fmt.Sprintf("bad config: %v", err)}
	}
	out, err := s.flows.RunFlow(ctx, cfg.FlowName, message)
	if err != nil {
		return "", &ToolExecutionError{ToolName: tool.Name, Reason: err.Error()}
	}
	return out, nil
}

// requiredValues extracts each required field from the message, failing on
// the first field that yields nothing.
func requiredValues(message string, required []string) (map[string]string, error) {
	values := extractFields(message, required)
	for _, name := range required {
		if values[name] == "" {
			return nil, &MissingRequiredFieldError{Field: name}
		}
	}
	return values, nil
}

func formatRows(rows []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n", len(rows))
	for i, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, encoded)
	}
	return strings.TrimRight(b.String(), "\n")
}
