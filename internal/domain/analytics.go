package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	BottleneckHighFailureRate = "HIGH_FAILURE_RATE"
	BottleneckSlowExecution   = "SLOW_EXECUTION"

	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"

	RecommendationImproveReliability  = "IMPROVE_RELIABILITY"
	RecommendationOptimizePerformance = "OPTIMIZE_PERFORMANCE"

	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
)

// AgentPerformance aggregates execution records for one agent over a window.
// SuccessRate is successes/total rounded to two decimals and is nil when no
// executions were recorded. Errors keeps at most the 50 most recent captured
// error messages.
type AgentPerformance struct {
	AgentID       uuid.UUID         `json:"agent_id"`
	AgentName     string            `json:"agent_name"`
	Total         int               `json:"total_executions"`
	Successes     int               `json:"successful_executions"`
	Failures      int               `json:"failed_executions"`
	SuccessRate   *float64          `json:"success_rate,omitempty"`
	AvgDurationMs int64             `json:"average_duration_ms"`
	ToolUsage     map[uuid.UUID]int `json:"tool_usage,omitempty"`
	Errors        []string          `json:"errors,omitempty"`
}

// DailyTrend carries the same success/duration metrics grouped by UTC day.
type DailyTrend struct {
	Date          string   `json:"date"`
	Total         int      `json:"total_executions"`
	Successes     int      `json:"successful_executions"`
	Failures      int      `json:"failed_executions"`
	SuccessRate   *float64 `json:"success_rate,omitempty"`
	AvgDurationMs int64    `json:"average_duration_ms"`
}

type Bottleneck struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	AgentID   uuid.UUID `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Message   string    `json:"message"`
}

type Recommendation struct {
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	AgentID     uuid.UUID `json:"agent_id"`
	AgentName   string    `json:"agent_name"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
}

type OptimizationReport struct {
	Performance     []AgentPerformance `json:"performance"`
	Trends          []DailyTrend       `json:"trends"`
	Bottlenecks     []Bottleneck       `json:"bottlenecks"`
	Recommendations []Recommendation   `json:"recommendations"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
