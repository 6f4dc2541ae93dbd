package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rendiconto/internal/core"
	applog "rendiconto/internal/log"
	"rendiconto/internal/report"
	"rendiconto/internal/services"
)

// queryTimeout bounds aggregation work per request so a slow query cannot
// hold a connection open indefinitely. Exports get a larger budget because
// document rendering runs inside the same request.
const (
	queryTimeout  = 15 * time.Second
	exportTimeout = 60 * time.Second
)

// handleExport serves POST /api/reports/export: runs the full pipeline and
// streams the rendered payload as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := services.ExportRequest{
		Format: param(r, "format"),
		Kind:   param(r, "kind"),
		Filter: core.TimeFilter{
			Month: param(r, "month"),
			From:  param(r, "from"),
			To:    param(r, "to"),
		},
		TopN:   paramInt(r, "topN"),
		UserID: userID(r),
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()
	result, err := s.reports.Export(ctx, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// handleDashboard serves GET /api/reports/dashboard: the aggregated pack as
// JSON, cached per filter+user+topN.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter := core.TimeFilter{
		Month: param(r, "month"),
		From:  param(r, "from"),
		To:    param(r, "to"),
	}
	uid := userID(r)
	topN := paramInt(r, "topN")

	key := dashboardCacheKey(filter, uid, topN)
	if pack, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "key", key)
		writeJSON(w, http.StatusOK, pack)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	pack, err := s.reports.Report(ctx, filter, uid, topN)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.dashboardCache.Set(key, pack)
	writeJSON(w, http.StatusOK, pack)
}

// handleWeekday serves GET /api/reports/weekday: per-weekday activity
// derived from the same aggregation.
func (s *Server) handleWeekday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter := core.TimeFilter{
		Month: param(r, "month"),
		From:  param(r, "from"),
		To:    param(r, "to"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	pack, err := s.reports.Report(ctx, filter, userID(r), 0)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Period   string              `json:"period"`
		Weekdays []core.WeekdayPoint `json:"weekdays"`
	}{
		Period:   pack.Meta.PeriodLabel,
		Weekdays: report.WeekdayBreakdown(pack),
	})
}

// writeServiceError maps the error taxonomy onto HTTP statuses: user errors
// are 4xx, everything else is a 500 with the detail kept in the log only.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "unknown export format")
	case errors.Is(err, core.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, "invalid time filter")
	default:
		var dsErr *core.DataSourceError
		var rErr *core.RenderError
		switch {
		case errors.As(err, &dsErr):
			s.structured.LogError(r.Context(), "Data source failure", err, applog.ComponentStorage, dsErr.Op, applog.NewFields())
		case errors.As(err, &rErr):
			s.structured.LogError(r.Context(), "Render failure", err, applog.ComponentRender, applog.OpRender,
				applog.LogFields{applog.FieldFormat: rErr.Format})
		default:
			s.structured.LogError(r.Context(), "Export failure", err, applog.ComponentExport, applog.OpExport, applog.NewFields())
		}
		writeError(w, http.StatusInternalServerError, "report generation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func param(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

func paramInt(r *http.Request, name string) int {
	v := param(r, name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// userID reads the authenticated user from the X-User-ID header. Zero means
// unscoped; authentication itself lives upstream.
func userID(r *http.Request) int64 {
	v := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func dashboardCacheKey(filter core.TimeFilter, userID int64, topN int) string {
	return strings.Join([]string{
		filter.Month, filter.From, filter.To,
		strconv.FormatInt(userID, 10),
		strconv.Itoa(topN),
	}, "|")
}
