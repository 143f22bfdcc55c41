package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Health thresholds over the analysis window.
const (
	failureRateWarning  = 0.20
	failureRateCritical = 0.50

	slowExecutionMs    = 10_000
	slowAvgCriticalMs  = 30_000
	reliabilityFloor   = 0.80
	slowRecommendAvgMs = 5_000
	maxRecordedErrors  = 50
)

// Default analysis windows per report. Bottleneck detection looks at the
// recent week; performance and trend views take the wider month.
const (
	performanceWindowDays = 30
	trendWindowDays       = 30
	bottleneckWindowDays  = 7
	exportWindowDays      = 7
)

// AnalyticsService derives per-agent performance, daily trends, bottleneck
// detection, and tuning recommendations from execution records.
type AnalyticsService struct {
	executions domain.ExecutionStore
	logger     *zap.Logger
}

func NewAnalyticsService(executions domain.ExecutionStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{executions: executions, logger: logger}
}

func roundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}

func roundAvg(total int64, count int) int64 {
	return int64(math.Round(float64(total) / float64(count)))
}

func (s *AnalyticsService) load(ctx context.Context, scope domain.Scope, days, defaultDays int) ([]domain.AgentExecution, error) {
	if days <= 0 {
		days = defaultDays
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.executions.ListByScopeSince(ctx, scope, since)
}

// PerformanceByAgent aggregates execution records per agent. Agents appear in
// stable order by name then id. Error samples are capped per agent.
func (s *AnalyticsService) PerformanceByAgent(ctx context.Context, scope domain.Scope, days int) ([]domain.AgentPerformance, error) {
	execs, err := s.load(ctx, scope, days, performanceWindowDays)
	if err != nil {
		return nil, err
	}
	return aggregatePerformance(execs), nil
}

func aggregatePerformance(execs []domain.AgentExecution) []domain.AgentPerformance {
	byAgent := make(map[uuid.UUID]*domain.AgentPerformance)
	var totalDuration = make(map[uuid.UUID]int64)

	for _, e := range execs {
		if e.AgentID == nil {
			continue
		}
		perf, ok := byAgent[*e.AgentID]
		if !ok {
			perf = &domain.AgentPerformance{
				AgentID:   *e.AgentID,
				AgentName: e.AgentName,
				ToolUsage: make(map[uuid.UUID]int),
			}
			byAgent[*e.AgentID] = perf
		}
		perf.Total++
		totalDuration[*e.AgentID] += e.DurationMs
		if e.Success {
			perf.Successes++
		} else {
			perf.Failures++
			if e.ErrorMessage != nil && len(perf.Errors) < maxRecordedErrors {
				perf.Errors = append(perf.Errors, *e.ErrorMessage)
			}
		}
		for _, toolID := range e.ToolsUsed {
			perf.ToolUsage[toolID]++
		}
	}

	out := make([]domain.AgentPerformance, 0, len(byAgent))
	for id, perf := range byAgent {
		if perf.Total > 0 {
			rate := roundRate(float64(perf.Successes) / float64(perf.Total))
			perf.SuccessRate = &rate
			perf.AvgDurationMs = roundAvg(totalDuration[id], perf.Total)
		}
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgentName != out[j].AgentName {
			return out[i].AgentName < out[j].AgentName
		}
		return out[i].AgentID.String() < out[j].AgentID.String()
	})
	return out
}

// DailyTrends buckets executions by calendar day, oldest first.
func (s *AnalyticsService) DailyTrends(ctx context.Context, scope domain.Scope, days int) ([]domain.DailyTrend, error) {
	execs, err := s.load(ctx, scope, days, trendWindowDays)
	if err != nil {
		return nil, err
	}
	return aggregateTrends(execs), nil
}

func aggregateTrends(execs []domain.AgentExecution) []domain.DailyTrend {
	type bucket struct {
		trend    domain.DailyTrend
		duration int64
	}
	byDay := make(map[string]*bucket)
	for _, e := range execs {
		day := e.CreatedAt.UTC().Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{trend: domain.DailyTrend{Date: day}}
			byDay[day] = b
		}
		b.trend.Total++
		b.duration += e.DurationMs
		if e.Success {
			b.trend.Successes++
		} else {
			b.trend.Failures++
		}
	}

	out := make([]domain.DailyTrend, 0, len(byDay))
	for _, b := range byDay {
		if b.trend.Total > 0 {
			rate := roundRate(float64(b.trend.Successes) / float64(b.trend.Total))
			b.trend.SuccessRate = &rate
			b.trend.AvgDurationMs = roundAvg(b.duration, b.trend.Total)
		}
		out = append(out, b.trend)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Bottlenecks flags agents with high failure rates and slow execution
// clusters. Failure rate above 20% is a WARNING, above 50% CRITICAL. For
// executions slower than 10s, the slow subset's own average decides severity:
// above 30s it is CRITICAL.
func (s *AnalyticsService) Bottlenecks(ctx context.Context, scope domain.Scope, days int) ([]domain.Bottleneck, error) {
	execs, err := s.load(ctx, scope, days, bottleneckWindowDays)
	if err != nil {
		return nil, err
	}
	return detectBottlenecks(execs), nil
}

func detectBottlenecks(execs []domain.AgentExecution) []domain.Bottleneck {
	var out []domain.Bottleneck

	for _, perf := range aggregatePerformance(execs) {
		if perf.Total == 0 {
			continue
		}
		failureRate := float64(perf.Failures) / float64(perf.Total)
		if failureRate > failureRateWarning {
			severity := domain.SeverityWarning
			if failureRate > failureRateCritical {
				severity = domain.SeverityCritical
			}
			out = append(out, domain.Bottleneck{
				Type:      domain.BottleneckHighFailureRate,
				Severity:  severity,
				AgentID:   perf.AgentID,
				AgentName: perf.AgentName,
				Message:   fmt.Sprintf("%.0f%% of executions failed (%d of %d)", failureRate*100, perf.Failures, perf.Total),
			})
		}
	}

	slowByAgent := make(map[uuid.UUID]*struct {
		name     string
		count    int
		duration int64
	})
	for _, e := range execs {
		if e.AgentID == nil || e.DurationMs <= slowExecutionMs {
			continue
		}
		sb, ok := slowByAgent[*e.AgentID]
		if !ok {
			sb = &struct {
				name     string
				count    int
				duration int64
			}{name: e.AgentName}
			slowByAgent[*e.AgentID] = sb
		}
		sb.count++
		sb.duration += e.DurationMs
	}

	slowIDs := make([]uuid.UUID, 0, len(slowByAgent))
	for id := range slowByAgent {
		slowIDs = append(slowIDs, id)
	}
	sort.Slice(slowIDs, func(i, j int) bool { return slowIDs[i].String() < slowIDs[j].String() })

	for _, id := range slowIDs {
		sb := slowByAgent[id]
		avg := sb.duration / int64(sb.count)
		severity := domain.SeverityWarning
		if avg > slowAvgCriticalMs {
			severity = domain.SeverityCritical
		}
		out = append(out, domain.Bottleneck{
			Type:      domain.BottleneckSlowExecution,
			Severity:  severity,
			AgentID:   id,
			AgentName: sb.name,
			Message:   fmt.Sprintf("%d slow executions averaging %dms", sb.count, avg),
		})
	}
	return out
}

// OptimizationReport bundles performance, trends, bottlenecks, and
// recommendations for a scope. Each sub-report uses its own window:
// performance and trends over the month, bottlenecks over the recent week.
func (s *AnalyticsService) OptimizationReport(ctx context.Context, scope domain.Scope) (*domain.OptimizationReport, error) {
	performance, err := s.PerformanceByAgent(ctx, scope, performanceWindowDays)
	if err != nil {
		return nil, err
	}
	trends, err := s.DailyTrends(ctx, scope, trendWindowDays)
	if err != nil {
		return nil, err
	}
	bottlenecks, err := s.Bottlenecks(ctx, scope, bottleneckWindowDays)
	if err != nil {
		return nil, err
	}

	return &domain.OptimizationReport{
		Performance:     performance,
		Trends:          trends,
		Bottlenecks:     bottlenecks,
		Recommendations: buildRecommendations(performance),
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func buildRecommendations(performance []domain.AgentPerformance) []domain.Recommendation {
	var out []domain.Recommendation
	for _, perf := range performance {
		if perf.SuccessRate != nil && *perf.SuccessRate < reliabilityFloor {
			out = append(out, domain.Recommendation{
				Type:      domain.RecommendationImproveReliability,
				Priority:  domain.PriorityHigh,
				AgentID:   perf.AgentID,
				AgentName: perf.AgentName,
				Message:   fmt.Sprintf("success rate %.0f%% is below 80%%", *perf.SuccessRate*100),
				Suggestions: []string{
					"Review recent error samples for recurring failure causes",
					"Tighten the agent persona so the model stays on task",
					"Verify attached tool configs against their targets",
				},
			})
		}
		if perf.AvgDurationMs > slowRecommendAvgMs {
			out = append(out, domain.Recommendation{
				Type:      domain.RecommendationOptimizePerformance,
				Priority:  domain.PriorityMedium,
				AgentID:   perf.AgentID,
				AgentName: perf.AgentName,
				Message:   fmt.Sprintf("average execution time %dms exceeds 5s", perf.AvgDurationMs),
				Suggestions: []string{
					"Reduce max tokens for this agent's generation config",
					"Cache or narrow tool queries invoked by this agent",
				},
			})
		}
	}
	return out
}

// ExportCSV streams the scope's execution records as CSV, one row per record.
func (s *AnalyticsService) ExportCSV(ctx context.Context, w io.Writer, scope domain.Scope, days int) error {
	execs, err := s.load(ctx, scope, days, exportWindowDays)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"execution_id", "agent_id", "agent_name", "created_at", "duration_ms", "success", "tools_used", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range execs {
		agentID := ""
		if e.AgentID != nil {
			agentID = e.AgentID.String()
		}
		tools := ""
		for i, t := range e.ToolsUsed {
			if i > 0 {
				tools += ";"
			}
			tools += t.String()
		}
		errMsg := ""
		if e.ErrorMessage != nil {
			errMsg = *e.ErrorMessage
		}
		row := []string{
			e.ID.String(),
			agentID,
			e.AgentName,
			e.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.DurationMs, 10),
			strconv.FormatBool(e.Success),
			tools,
			errMsg,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
