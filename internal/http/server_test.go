package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rendiconto/internal/core"
	"rendiconto/internal/services"
)

type fakeReports struct {
	exportResult   *services.ExportResult
	exportErr      error
	pack           *core.ReportPack
	reportErr      error
	reportCalls    int
	lastRequest    services.ExportRequest
	exportDeadline bool
}

func (f *fakeReports) Export(ctx context.Context, req services.ExportRequest) (*services.ExportResult, error) {
	f.lastRequest = req
	_, f.exportDeadline = ctx.Deadline()
	return f.exportResult, f.exportErr
}

func (f *fakeReports) Report(context.Context, core.TimeFilter, int64, int) (*core.ReportPack, error) {
	f.reportCalls++
	return f.pack, f.reportErr
}

func testServer(t *testing.T, reports ReportService) *Server {
	t.Helper()
	s := NewServer(":0", reports, Options{CacheSize: 8, CacheTTL: time.Minute})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func dashboardPack() *core.ReportPack {
	return &core.ReportPack{
		Meta: core.Meta{
			GeneratedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			PeriodLabel: "2024-02",
			UserID:      7,
		},
		Totals: core.Totals{TotalExpense: 750, TotalIncome: 2000, Diff: 1250, TxCount: 4},
		Daily: []core.DailyPoint{
			{Day: "2024-02-05", Expense: 500},
			{Day: "2024-02-10", Expense: 250, Income: 2000},
		},
		Transactions: []core.TransactionRow{
			{ID: 1, Date: "2024-02-05", Kind: core.KindExpense, Amount: 500},
			{ID: 2, Date: "2024-02-10", Kind: core.KindExpense, Amount: 250},
			{ID: 3, Date: "2024-02-10", Kind: core.KindIncome, Amount: 2000},
		},
	}
}

func TestHandleExport(t *testing.T) {
	reports := &fakeReports{exportResult: &services.ExportResult{
		Data:        []byte("payload"),
		Filename:    "report-2024-02-both.csv",
		ContentType: "text/csv; charset=utf-8",
	}}
	s := testServer(t, reports)

	body := strings.NewReader("format=text&month=2024-02&topN=5&kind=expense")
	req := httptest.NewRequest(http.MethodPost, "/api/reports/export", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="report-2024-02-both.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "payload" {
		t.Errorf("body = %q", rec.Body.String())
	}

	if reports.lastRequest.Format != "text" || reports.lastRequest.Kind != "expense" {
		t.Errorf("request forwarded wrong: %+v", reports.lastRequest)
	}
	if reports.lastRequest.Filter.Month != "2024-02" || reports.lastRequest.TopN != 5 {
		t.Errorf("filter/topN forwarded wrong: %+v", reports.lastRequest)
	}
	if reports.lastRequest.UserID != 7 {
		t.Errorf("userID = %d, want 7", reports.lastRequest.UserID)
	}
	if !reports.exportDeadline {
		t.Error("export context must carry a deadline")
	}
}

func TestHandleExport_MethodNotAllowed(t *testing.T) {
	s := testServer(t, &fakeReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/export", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != "POST" {
		t.Errorf("Allow = %q", rec.Header().Get("Allow"))
	}
}

func TestHandleExport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid format", core.ErrInvalidFormat, http.StatusBadRequest},
		{"wrapped invalid format", errors.New("x"), http.StatusInternalServerError},
		{"invalid filter", core.ErrInvalidFilter, http.StatusBadRequest},
		{"data source error", &core.DataSourceError{Op: "totals", Err: errors.New("db gone")}, http.StatusInternalServerError},
		{"render error", &core.RenderError{Format: "document", Err: errors.New("font missing")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, &fakeReports{exportErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/reports/export", strings.NewReader("format=text"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body missing message")
			}
			// Internal detail must not leak to the client.
			if strings.Contains(body["error"], "db gone") || strings.Contains(body["error"], "font missing") {
				t.Errorf("internal detail leaked: %q", body["error"])
			}
		})
	}
}

func TestHandleDashboard(t *testing.T) {
	reports := &fakeReports{pack: dashboardPack()}
	s := testServer(t, reports)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/dashboard?month=2024-02", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var pack core.ReportPack
	if err := json.Unmarshal(rec.Body.Bytes(), &pack); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if pack.Totals.TotalExpense != 750 || pack.Meta.PeriodLabel != "2024-02" {
		t.Errorf("pack = %+v", pack.Totals)
	}
}

func TestHandleDashboard_Caches(t *testing.T) {
	reports := &fakeReports{pack: dashboardPack()}
	s := testServer(t, reports)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/reports/dashboard?month=2024-02", nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	if reports.reportCalls != 1 {
		t.Errorf("aggregation ran %d times, want 1 (cached)", reports.reportCalls)
	}

	// A different filter misses the cache.
	req := httptest.NewRequest(http.MethodGet, "/api/reports/dashboard?month=2024-03", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if reports.reportCalls != 2 {
		t.Errorf("aggregation ran %d times after new filter, want 2", reports.reportCalls)
	}
}

func TestHandleWeekday(t *testing.T) {
	reports := &fakeReports{pack: dashboardPack()}
	s := testServer(t, reports)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/weekday?month=2024-02", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Period   string              `json:"period"`
		Weekdays []core.WeekdayPoint `json:"weekdays"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Period != "2024-02" {
		t.Errorf("period = %q", body.Period)
	}
	if len(body.Weekdays) != 7 {
		t.Fatalf("got %d weekday points, want 7", len(body.Weekdays))
	}
	// 2024-02-05 is a Monday, 2024-02-10 a Saturday.
	if body.Weekdays[1].Expense != 500 {
		t.Errorf("Monday expense = %v, want 500", body.Weekdays[1].Expense)
	}
	if body.Weekdays[6].Income != 2000 {
		t.Errorf("Saturday income = %v, want 2000", body.Weekdays[6].Income)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t, &fakeReports{})
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		header string
		want   int64
	}{
		{"", 0},
		{"7", 7},
		{"-3", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("X-User-ID", tt.header)
		}
		if got := userID(req); got != tt.want {
			t.Errorf("userID(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
