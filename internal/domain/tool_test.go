package domain

import (
	"encoding/json"
	"testing"
)

func TestDecodeToolConfig_OverrideWins(t *testing.T) {
	base, _ := json.Marshal(DatabaseToolConfig{
		Table:        "products",
		Action:       DatabaseActionSearch,
		SearchFields: []string{"name", "category"},
		ReturnFields: []string{"id", "name"},
	})
	override := []byte(`{"table":"archived_products"}`)

	var cfg DatabaseToolConfig
	if err := DecodeToolConfig(&cfg, base, override); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Table != "archived_products" {
		t.Errorf("override table lost: %q", cfg.Table)
	}
	// Fields the override omits keep their base values.
	if cfg.Action != DatabaseActionSearch {
		t.Errorf("base action lost: %q", cfg.Action)
	}
	if len(cfg.SearchFields) != 2 {
		t.Errorf("base search fields lost: %v", cfg.SearchFields)
	}
}

func TestDecodeToolConfig_EmptyInputs(t *testing.T) {
	var cfg APIToolConfig
	if err := DecodeToolConfig(&cfg, nil, nil); err != nil {
		t.Fatalf("nil configs must decode cleanly: %v", err)
	}
	if cfg.Endpoint != "" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
}

func TestDecodeToolConfig_BadJSON(t *testing.T) {
	var cfg WebhookToolConfig
	if err := DecodeToolConfig(&cfg, []byte(`{not json`), nil); err == nil {
		t.Fatal("expected error for malformed base config")
	}
	if err := DecodeToolConfig(&cfg, nil, []byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed override")
	}
}

func TestValidToolType(t *testing.T) {
	for _, valid := range []string{"DATABASE", "API", "WEBHOOK", "MODEL_FLOW", "CUSTOM"} {
		if !ValidToolType(valid) {
			t.Errorf("%s should be valid", valid)
		}
	}
	if ValidToolType("TELEPATHY") {
		t.Error("unknown type should be invalid")
	}
	if ValidToolType("database") {
		t.Error("tool types are case sensitive")
	}
}
