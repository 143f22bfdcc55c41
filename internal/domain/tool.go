package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ToolType string

const (
	ToolTypeDatabase  ToolType = "DATABASE"
	ToolTypeAPI       ToolType = "API"
	ToolTypeWebhook   ToolType = "WEBHOOK"
	ToolTypeModelFlow ToolType = "MODEL_FLOW"
	ToolTypeCustom    ToolType = "CUSTOM"
)

func ValidToolType(t string) bool {
	switch ToolType(t) {
	case ToolTypeDatabase, ToolTypeAPI, ToolTypeWebhook, ToolTypeModelFlow, ToolTypeCustom:
		return true
	}
	return false
}

// Tool is a capability descriptor. Config is a JSON document whose shape is
// fixed by Type; decode it with the typed accessors below.
type Tool struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        ToolType        `json:"type"`
	Config      json.RawMessage `json:"config,omitempty"`
	System      bool            `json:"system"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

const (
	DatabaseActionSearch = "search"
	DatabaseActionCreate = "create"
	DatabaseActionUpdate = "update"
)

// DatabaseToolConfig targets a table in the operational store. Action defaults
// to "search" when empty.
type DatabaseToolConfig struct {
	Table          string   `json:"table"`
	Action         string   `json:"action,omitempty"`
	SearchFields   []string `json:"search_fields,omitempty"`
	ReturnFields   []string `json:"return_fields,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
}

type APIToolConfig struct {
	Endpoint       string            `json:"endpoint"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	RequiredFields []string          `json:"required_fields,omitempty"`
}

type WebhookToolConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type FlowToolConfig struct {
	FlowName string `json:"flow_name"`
}

// DecodeToolConfig unmarshals the tool's base config into dst, then the
// per-agent override on top. Fields present in the override win; fields it
// omits keep the base value.
func DecodeToolConfig(dst any, base, override []byte) error {
	if len(base) > 0 {
		if err := json.Unmarshal(base, dst); err != nil {
			return fmt.Errorf("decode tool config: %w", err)
		}
	}
	if len(override) > 0 {
		if err := json.Unmarshal(override, dst); err != nil {
			return fmt.Errorf("decode tool config override: %w", err)
		}
	}
	return nil
}
