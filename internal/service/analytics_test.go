package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedExecutions(t *testing.T, store *mockExecutionStore, scope domain.Scope, agentID uuid.UUID, name string, successes, failures int, durationMs int64) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < successes+failures; i++ {
		response := "ok"
		exec := &domain.AgentExecution{
			AgentID:        &agentID,
			AgentName:      name,
			InstanceID:     scope.InstanceID,
			OrganizationID: scope.OrganizationID,
			UserMessage:    "msg",
			DurationMs:     durationMs,
			Success:        i < successes,
			Response:       &response,
		}
		if !exec.Success {
			errMsg := fmt.Sprintf("failure %d", i)
			exec.ErrorMessage = &errMsg
			exec.Response = nil
		}
		require.NoError(t, store.Create(ctx, exec))
	}
}

func TestAnalyticsService_PerformanceByAgent(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()
	seedExecutions(t, store, scope, agentID, "Support", 3, 1, 1200)

	s := NewAnalyticsService(store, zap.NewNop())
	perf, err := s.PerformanceByAgent(context.Background(), scope, 7)
	require.NoError(t, err)
	require.Len(t, perf, 1)

	p := perf[0]
	assert.Equal(t, agentID, p.AgentID)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 3, p.Successes)
	assert.Equal(t, 1, p.Failures)
	require.NotNil(t, p.SuccessRate)
	assert.Equal(t, 0.75, *p.SuccessRate)
	assert.Equal(t, int64(1200), p.AvgDurationMs)
	assert.Len(t, p.Errors, 1)
}

func TestAnalyticsService_EmptyWindow(t *testing.T) {
	s := NewAnalyticsService(newMockExecutionStore(), zap.NewNop())
	scope := domain.Scope{InstanceID: uuid.New()}

	perf, err := s.PerformanceByAgent(context.Background(), scope, 7)
	require.NoError(t, err)
	assert.Empty(t, perf)

	report, err := s.OptimizationReport(context.Background(), scope)
	require.NoError(t, err)
	assert.Empty(t, report.Performance)
	assert.Empty(t, report.Bottlenecks)
	assert.Empty(t, report.Recommendations)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestAnalyticsService_AvgDurationRoundsToNearest(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()
	// Average of 1, 2, 2 is 1.67ms and rounds to 2, not down to 1.
	for _, d := range []int64{1, 2, 2} {
		seedExecutions(t, store, scope, agentID, "Support", 1, 0, d)
	}

	s := NewAnalyticsService(store, zap.NewNop())
	perf, err := s.PerformanceByAgent(context.Background(), scope, 7)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, int64(2), perf[0].AvgDurationMs)
}

func TestAnalyticsService_ReportWindows(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()

	// All failures, but ten days old: inside the 30-day performance and trend
	// windows, outside the 7-day bottleneck window.
	errMsg := "stale failure"
	for i := 0; i < 4; i++ {
		exec := &domain.AgentExecution{
			AgentID:      &agentID,
			AgentName:    "Stale",
			InstanceID:   scope.InstanceID,
			UserMessage:  "msg",
			DurationMs:   100,
			Success:      false,
			ErrorMessage: &errMsg,
			CreatedAt:    time.Now().AddDate(0, 0, -10),
		}
		require.NoError(t, store.Create(context.Background(), exec))
	}

	s := NewAnalyticsService(store, zap.NewNop())
	report, err := s.OptimizationReport(context.Background(), scope)
	require.NoError(t, err)

	require.Len(t, report.Performance, 1)
	assert.Equal(t, 4, report.Performance[0].Failures)
	assert.NotEmpty(t, report.Trends)
	assert.Empty(t, report.Bottlenecks, "week-old window must exclude stale failures")
	assert.NotEmpty(t, report.Recommendations)
}

func TestAnalyticsService_ErrorCap(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()
	seedExecutions(t, store, scope, agentID, "Flaky", 0, 75, 100)

	s := NewAnalyticsService(store, zap.NewNop())
	perf, err := s.PerformanceByAgent(context.Background(), scope, 7)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Len(t, perf[0].Errors, maxRecordedErrors)
}

func TestAnalyticsService_ScopeIsolation(t *testing.T) {
	store := newMockExecutionStore()
	scopeA := domain.Scope{InstanceID: uuid.New()}
	scopeB := domain.Scope{InstanceID: uuid.New()}
	seedExecutions(t, store, scopeA, uuid.New(), "A", 2, 0, 100)
	seedExecutions(t, store, scopeB, uuid.New(), "B", 5, 0, 100)

	s := NewAnalyticsService(store, zap.NewNop())
	perf, err := s.PerformanceByAgent(context.Background(), scopeA, 7)
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, "A", perf[0].AgentName)
	assert.Equal(t, 2, perf[0].Total)
}

func TestAnalyticsService_Bottlenecks_FailureRate(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	warnID := uuid.New()
	critID := uuid.New()
	okID := uuid.New()
	seedExecutions(t, store, scope, warnID, "Warn", 7, 3, 100)  // 30% failure
	seedExecutions(t, store, scope, critID, "Crit", 4, 6, 100)  // 60% failure
	seedExecutions(t, store, scope, okID, "Fine", 9, 1, 100)    // 10% failure

	s := NewAnalyticsService(store, zap.NewNop())
	bottlenecks, err := s.Bottlenecks(context.Background(), scope, 7)
	require.NoError(t, err)

	bySeverity := make(map[uuid.UUID]string)
	for _, b := range bottlenecks {
		require.Equal(t, domain.BottleneckHighFailureRate, b.Type)
		bySeverity[b.AgentID] = b.Severity
	}
	assert.Equal(t, domain.SeverityWarning, bySeverity[warnID])
	assert.Equal(t, domain.SeverityCritical, bySeverity[critID])
	_, flagged := bySeverity[okID]
	assert.False(t, flagged, "low failure rate must not be flagged")
}

func TestAnalyticsService_Bottlenecks_SlowExecutions(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	warnID := uuid.New()
	critID := uuid.New()
	// Slow subset averages: 15s for one agent, 40s for the other. Fast records
	// are excluded from the slow average.
	seedExecutions(t, store, scope, warnID, "SlowWarn", 5, 0, 15_000)
	seedExecutions(t, store, scope, warnID, "SlowWarn", 5, 0, 100)
	seedExecutions(t, store, scope, critID, "SlowCrit", 5, 0, 40_000)

	s := NewAnalyticsService(store, zap.NewNop())
	bottlenecks, err := s.Bottlenecks(context.Background(), scope, 7)
	require.NoError(t, err)

	bySeverity := make(map[uuid.UUID]string)
	for _, b := range bottlenecks {
		require.Equal(t, domain.BottleneckSlowExecution, b.Type)
		bySeverity[b.AgentID] = b.Severity
	}
	assert.Equal(t, domain.SeverityWarning, bySeverity[warnID])
	assert.Equal(t, domain.SeverityCritical, bySeverity[critID])
}

func TestAnalyticsService_Recommendations(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	unreliableID := uuid.New()
	slowID := uuid.New()
	seedExecutions(t, store, scope, unreliableID, "Unreliable", 7, 3, 100) // 70% success
	seedExecutions(t, store, scope, slowID, "Slow", 10, 0, 6_000)          // avg 6s

	s := NewAnalyticsService(store, zap.NewNop())
	report, err := s.OptimizationReport(context.Background(), scope)
	require.NoError(t, err)

	byAgent := make(map[uuid.UUID]domain.Recommendation)
	for _, r := range report.Recommendations {
		byAgent[r.AgentID] = r
	}

	unreliable, ok := byAgent[unreliableID]
	require.True(t, ok, "expected reliability recommendation")
	assert.Equal(t, domain.RecommendationImproveReliability, unreliable.Type)
	assert.Equal(t, domain.PriorityHigh, unreliable.Priority)
	assert.NotEmpty(t, unreliable.Suggestions)

	slow, ok := byAgent[slowID]
	require.True(t, ok, "expected performance recommendation")
	assert.Equal(t, domain.RecommendationOptimizePerformance, slow.Type)
	assert.Equal(t, domain.PriorityMedium, slow.Priority)
}

func TestAnalyticsService_DailyTrends(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	for i, created := range []time.Time{yesterday, yesterday, now} {
		exec := &domain.AgentExecution{
			AgentID:    &agentID,
			AgentName:  "Support",
			InstanceID: scope.InstanceID,
			DurationMs: 500,
			Success:    i != 0,
			CreatedAt:  created,
		}
		require.NoError(t, store.Create(context.Background(), exec))
	}

	s := NewAnalyticsService(store, zap.NewNop())
	trends, err := s.DailyTrends(context.Background(), scope, 7)
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, yesterday.Format("2006-01-02"), trends[0].Date)
	assert.Equal(t, 2, trends[0].Total)
	assert.Equal(t, 1, trends[0].Failures)
	require.NotNil(t, trends[0].SuccessRate)
	assert.Equal(t, 0.5, *trends[0].SuccessRate)

	assert.Equal(t, now.Format("2006-01-02"), trends[1].Date)
	assert.Equal(t, 1, trends[1].Total)
}

func TestAnalyticsService_ExportCSV(t *testing.T) {
	store := newMockExecutionStore()
	scope := domain.Scope{InstanceID: uuid.New()}
	agentID := uuid.New()
	seedExecutions(t, store, scope, agentID, "Support", 2, 1, 800)

	s := NewAnalyticsService(store, zap.NewNop())
	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(context.Background(), &buf, scope, 7))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "execution_id,agent_id,agent_name,created_at,duration_ms,success,tools_used,error", lines[0])
	assert.Contains(t, lines[1], agentID.String())
	assert.Contains(t, lines[1], "800")
}
