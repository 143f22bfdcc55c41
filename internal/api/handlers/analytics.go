package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/maestro/internal/domain"
	"github.com/Harshitk-cp/maestro/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func analyticsQuery(r *http.Request) (domain.Scope, int, error) {
	scope, err := parseScope(r.URL.Query().Get("instance_id"), r.URL.Query().Get("organization_id"))
	if err != nil {
		return domain.Scope{}, 0, err
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	return scope, days, nil
}

func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	scope, days, err := analyticsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	perf, err := h.svc.PerformanceByAgent(r.Context(), scope, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute performance")
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	scope, days, err := analyticsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	trends, err := h.svc.DailyTrends(r.Context(), scope, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute trends")
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (h *AnalyticsHandler) Bottlenecks(w http.ResponseWriter, r *http.Request) {
	scope, days, err := analyticsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	bottlenecks, err := h.svc.Bottlenecks(r.Context(), scope, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to detect bottlenecks")
		return
	}
	writeJSON(w, http.StatusOK, bottlenecks)
}

// Report ignores the days parameter; each sub-report carries its own window.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r.URL.Query().Get("instance_id"), r.URL.Query().Get("organization_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	report, err := h.svc.OptimizationReport(r.Context(), scope)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	scope, days, err := analyticsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="executions.csv"`)
	if err := h.svc.ExportCSV(r.Context(), w, scope, days); err != nil {
		// Headers are already out; the truncated body is the best we can do.
		return
	}
}
