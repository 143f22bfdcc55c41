package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/store"
	"go.uber.org/zap"
)

type systemToolDef struct {
	name        string
	description string
	toolType    domain.ToolType
	config      any
}

type systemTemplateDef struct {
	name        string
	description string
	category    string
	persona     string
	tools       []string
}

var systemTools = []systemToolDef{
	{
		name:        "getProductInfo",
		description: "Searches detailed product information",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "products",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"name", "description", "category"},
			ReturnFields: []string{"id", "name", "description", "price", "category", "stock"},
		},
	},
	{
		name:        "getSalesData",
		description: "Queries sales data and transaction history",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "sales",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"product_id", "date", "customer_id"},
			ReturnFields: []string{"id", "product_id", "quantity", "total", "date", "status"},
		},
	},
	{
		name:        "checkPromotion",
		description: "Checks active promotions for products",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "promotions",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"product_id", "active"},
			ReturnFields: []string{"id", "product_id", "discount_percent", "start_date", "end_date"},
		},
	},
	{
		name:        "searchKnowledgeBase",
		description: "Searches the knowledge base",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "knowledge_base",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"title", "content", "category"},
			ReturnFields: []string{"id", "title", "content", "category", "tags"},
		},
	},
	{
		name:        "createTicket",
		description: "Creates a technical support ticket",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:          "support_tickets",
			Action:         domain.DatabaseActionCreate,
			RequiredFields: []string{"customer_phone", "subject", "description", "priority"},
		},
	},
	{
		name:        "checkOrderStatus",
		description: "Checks the status of an order",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "orders",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"id", "customer_phone", "tracking_code"},
			ReturnFields: []string{"id", "status", "tracking_code", "estimated_delivery", "items"},
		},
	},
	{
		name:        "getCompanyInfo",
		description: "Looks up company information",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "company_info",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"category", "active"},
			ReturnFields: []string{"id", "category", "title", "content", "contact_info"},
		},
	},
	{
		name:        "getProductCatalog",
		description: "Fetches the full product catalog",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "products",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"active", "category"},
			ReturnFields: []string{"id", "name", "description", "price", "category", "image_url"},
		},
	},
	{
		name:        "getPolicies",
		description: "Looks up company policies such as returns and privacy",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "policies",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"type", "active"},
			ReturnFields: []string{"id", "type", "title", "content", "last_updated"},
		},
	},
	{
		name:        "checkAvailability",
		description: "Checks available scheduling slots",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "availability_slots",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"date", "available"},
			ReturnFields: []string{"id", "date", "start_time", "end_time", "available"},
		},
	},
	{
		name:        "scheduleAppointment",
		description: "Books an appointment",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:          "appointments",
			Action:         domain.DatabaseActionCreate,
			RequiredFields: []string{"customer_phone", "date", "time", "service_type"},
		},
	},
	{
		name:        "sendReminder",
		description: "Sends appointment reminders",
		toolType:    domain.ToolTypeWebhook,
		config: domain.WebhookToolConfig{
			URL:     "/api/webhooks/send-reminder",
			Method:  "POST",
			Headers: map[string]string{"Content-Type": "application/json"},
		},
	},
	{
		name:        "checkPaymentStatus",
		description: "Checks payment status",
		toolType:    domain.ToolTypeDatabase,
		config: domain.DatabaseToolConfig{
			Table:        "payments",
			Action:       domain.DatabaseActionSearch,
			SearchFields: []string{"order_id", "customer_phone", "payment_id"},
			ReturnFields: []string{"id", "order_id", "status", "amount", "payment_method", "date"},
		},
	},
	{
		name:        "generateInvoice",
		description: "Generates an invoice",
		toolType:    domain.ToolTypeAPI,
		config: domain.APIToolConfig{
			Endpoint:       "/api/financial/generate-invoice",
			Method:         "POST",
			RequiredFields: []string{"customer_id", "items", "total"},
		},
	},
	{
		name:        "processPayment",
		description: "Processes a payment",
		toolType:    domain.ToolTypeAPI,
		config: domain.APIToolConfig{
			Endpoint:       "/api/financial/process-payment",
			Method:         "POST",
			RequiredFields: []string{"payment_method", "amount", "order_id"},
		},
	},
}

var systemTemplates = []systemTemplateDef{
	{
		name:        "Sales Agent",
		description: "Specialist in sales, products and promotions",
		category:    "sales",
		persona:     "You are a sales specialist. Help customers find products, inform them about promotions, and close sales. Be persuasive but always honest about the products.",
		tools:       []string{"getProductInfo", "getSalesData", "checkPromotion"},
	},
	{
		name:        "Support Agent",
		description: "Specialist in technical support and customer service",
		category:    "support",
		persona:     "You are a technical support specialist. Help customers solve problems, answer questions, and provide information about products and services. Be patient and thorough.",
		tools:       []string{"searchKnowledgeBase", "createTicket", "checkOrderStatus"},
	},
	{
		name:        "Information Agent",
		description: "Provides general information about the company and products",
		category:    "information",
		persona:     "You are an information assistant. Provide clear and accurate information about the company, products, services, and policies. Be informative and helpful.",
		tools:       []string{"getCompanyInfo", "getProductCatalog", "getPolicies"},
	},
	{
		name:        "Scheduling Agent",
		description: "Specialist in appointments and calendar management",
		category:    "scheduling",
		persona:     "You are a scheduling specialist. Help customers book consultations, meetings, or services. Manage calendars and confirm availability.",
		tools:       []string{"checkAvailability", "scheduleAppointment", "sendReminder"},
	},
	{
		name:        "Finance Agent",
		description: "Specialist in financial matters and payments",
		category:    "finance",
		persona:     "You are a finance specialist. Help with payments, invoices, and financial information. Be precise and careful when handling financial data.",
		tools:       []string{"checkPaymentStatus", "generateInvoice", "processPayment"},
	},
}

// BootstrapService seeds the built-in tool catalog and system templates at
// startup. Seeding is idempotent: existing tools and templates are left as
// they are, so operator edits to non-system rows survive restarts.
type BootstrapService struct {
	tools     domain.ToolStore
	templates domain.TemplateStore
	logger    *zap.Logger
}

func NewBootstrapService(tools domain.ToolStore, templates domain.TemplateStore, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{tools: tools, templates: templates, logger: logger}
}

// Seed creates any missing system tools and system templates.
func (s *BootstrapService) Seed(ctx context.Context) error {
	created, err := s.seedTools(ctx)
	if err != nil {
		return fmt.Errorf("seed system tools: %w", err)
	}
	createdTemplates, err := s.seedTemplates(ctx)
	if err != nil {
		return fmt.Errorf("seed system templates: %w", err)
	}
	s.logger.Info("bootstrap seeding complete",
		zap.Int("tools_created", created),
		zap.Int("templates_created", createdTemplates))
	return nil
}

func (s *BootstrapService) seedTools(ctx context.Context) (int, error) {
	created := 0
	for _, def := range systemTools {
		_, err := s.tools.GetByName(ctx, def.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}

		config, err := json.Marshal(def.config)
		if err != nil {
			return created, fmt.Errorf("marshal config for %s: %w", def.name, err)
		}
		tool := &domain.Tool{
			Name:        def.name,
			Description: def.description,
			Type:        def.toolType,
			Config:      config,
			System:      true,
		}
		if err := s.tools.Create(ctx, tool); err != nil {
			return created, fmt.Errorf("create tool %s: %w", def.name, err)
		}
		created++
	}
	return created, nil
}

func (s *BootstrapService) seedTemplates(ctx context.Context) (int, error) {
	existing, err := s.templates.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]bool, len(existing))
	for _, t := range existing {
		if t.System {
			byName[t.Name] = true
		}
	}

	created := 0
	for _, def := range systemTemplates {
		if byName[def.name] {
			continue
		}

		template := &domain.AgentTemplate{
			Name:           def.name,
			Description:    def.description,
			Category:       def.category,
			DefaultPersona: def.persona,
			System:         true,
		}
		if err := s.templates.Create(ctx, template); err != nil {
			return created, fmt.Errorf("create template %s: %w", def.name, err)
		}

		for _, toolName := range def.tools {
			tool, err := s.tools.GetByName(ctx, toolName)
			if err != nil {
				return created, fmt.Errorf("resolve tool %s for template %s: %w", toolName, def.name, err)
			}
			tt := &domain.TemplateTool{TemplateID: template.ID, ToolID: tool.ID}
			if err := s.templates.AddTool(ctx, tt); err != nil {
				return created, fmt.Errorf("bind tool %s to template %s: %w", toolName, def.name, err)
			}
		}
		created++
	}
	return created, nil
}
