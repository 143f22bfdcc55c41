package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/maestro/internal/api/handlers"
	mw "github.com/Harshitk-cp/maestro/internal/api/middleware"
	"github.com/Harshitk-cp/maestro/internal/config"
	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/llm"
	"github.com/Harshitk-cp/maestro/internal/service"
	"github.com/Harshitk-cp/maestro/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the bootstrap service for lifecycle management.
type App struct {
	Router    *chi.Mux
	Bootstrap *service.BootstrapService

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	agentStore := store.NewAgentStore(db)
	templateStore := store.NewTemplateStore(db)
	toolStore := store.NewToolStore(db)
	executionStore := store.NewExecutionStore(db)
	instanceStore := store.NewInstanceStore(db)
	dataStore := store.NewDataStore(db)

	// Completion client via provider factory
	provider := config.CompletionProvider()
	completionClient, err := llm.NewClient(provider, config.CompletionAPIKey())
	if err != nil {
		logger.Warn("completion client initialization failed", zap.String("provider", provider), zap.Error(err))
		completionClient = llm.NewMockClient()
	} else {
		logger.Info("completion client initialized", zap.String("provider", provider))
	}

	// Flow runner is optional; MODEL_FLOW tools fail cleanly without it.
	var flowRunner domain.FlowRunner
	if url := config.FlowServerURL(); url != "" {
		flowRunner = llm.NewHTTPFlowRunner(url, config.ToolTimeout())
		logger.Info("flow runner initialized", zap.String("url", url))
	}

	// Services
	hierarchySvc := service.NewHierarchyService(agentStore, templateStore, toolStore, instanceStore, config.DefaultModel(), logger)
	templateSvc := service.NewTemplateService(templateStore, toolStore, logger)
	selectionSvc := service.NewSelectionService(agentStore, completionClient, logger)
	toolSvc := service.NewToolService(toolStore, dataStore, flowRunner, config.ToolTimeout(), logger)
	executionSvc := service.NewExecutionService(hierarchySvc, selectionSvc, toolSvc, executionStore, completionClient, config.CompletionTimeout(), logger)
	analyticsSvc := service.NewAnalyticsService(executionStore, logger)
	bootstrapSvc := service.NewBootstrapService(toolStore, templateStore, logger)

	// Handlers
	agentHandler := handlers.NewAgentHandler(hierarchySvc)
	templateHandler := handlers.NewTemplateHandler(templateSvc)
	toolHandler := handlers.NewToolHandler(toolSvc)
	messageHandler := handlers.NewMessageHandler(executionSvc)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Bootstrap: bootstrapSvc,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                 // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Agents
		r.Route("/agents", func(r chi.Router) {
			r.Post("/parent", agentHandler.CreateParent)
			r.Post("/children", agentHandler.CreateChild)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", agentHandler.GetByID)
				r.Get("/children", agentHandler.ListChildren)
				r.Put("/priority", agentHandler.UpdatePriority)
				r.Put("/persona", agentHandler.UpdatePersona)
				r.Delete("/", agentHandler.Deactivate)
			})
		})

		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Post("/", templateHandler.Create)
			r.Get("/", templateHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", templateHandler.GetByID)
				r.Put("/", templateHandler.Update)
				r.Delete("/", templateHandler.Delete)
			})
		})

		// Tools
		r.Route("/tools", func(r chi.Router) {
			r.Post("/", toolHandler.Create)
			r.Get("/", toolHandler.List)
			r.Get("/{id}", toolHandler.GetByID)
		})

		// Message pipeline
		r.Post("/messages", messageHandler.Handle)

		// Analytics
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/performance", analyticsHandler.Performance)
			r.Get("/trends", analyticsHandler.Trends)
			r.Get("/bottlenecks", analyticsHandler.Bottlenecks)
			r.Get("/report", analyticsHandler.Report)
			r.Get("/export", analyticsHandler.Export)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage seeding themselves.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.AgentStore       = (*store.AgentStore)(nil)
	_ domain.TemplateStore    = (*store.TemplateStore)(nil)
	_ domain.ToolStore        = (*store.ToolStore)(nil)
	_ domain.ExecutionStore   = (*store.ExecutionStore)(nil)
	_ domain.InstanceStore    = (*store.InstanceStore)(nil)
	_ domain.ToolDataStore    = (*store.DataStore)(nil)
	_ domain.CompletionClient = (*llm.GeminiClient)(nil)
	_ domain.CompletionClient = (*llm.OpenAIClient)(nil)
	_ domain.CompletionClient = (*llm.MockClient)(nil)
	_ domain.FlowRunner       = (*llm.HTTPFlowRunner)(nil)
	_ domain.FlowRunner       = (*llm.MockFlowRunner)(nil)
)
