package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rendiconto/internal/amqp"
	"rendiconto/internal/core"
	"rendiconto/internal/render"
	"rendiconto/internal/sheets"
	"rendiconto/internal/sheets/memory"
)

type fakeSchema struct {
	mapping core.ColumnMapping
	err     error
}

func (f *fakeSchema) ResolveColumns(context.Context) (core.ColumnMapping, error) {
	return f.mapping, f.err
}

type fakeAggregator struct {
	pack    *core.ReportPack
	err     error
	gotTopN int
}

func (f *fakeAggregator) Aggregate(_ context.Context, _ core.ColumnMapping, _ core.TimeFilter, _ int64, topN int) (*core.ReportPack, error) {
	f.gotTopN = topN
	return f.pack, f.err
}

type fakeEvents struct {
	messages []*amqp.ExportCompletedMessage
	err      error
}

func (f *fakeEvents) PublishExportCompleted(_ context.Context, msg *amqp.ExportCompletedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func testPack() *core.ReportPack {
	return &core.ReportPack{
		Meta: core.Meta{
			GeneratedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			PeriodLabel: "2024-02",
			UserID:      7,
		},
		Totals:       core.Totals{TotalExpense: 100, TxCount: 1},
		Monthly:      []core.MonthlyPoint{{Month: "2024-02", Expense: 100}},
		Daily:        []core.DailyPoint{},
		Categories:   []core.CategoryBreakdown{},
		TopExpense:   []core.TransactionRow{},
		TopIncome:    []core.TransactionRow{},
		Transactions: []core.TransactionRow{},
	}
}

func newTestService(agg *fakeAggregator, events EventPublisher, publisher *memory.Publisher) *ExportService {
	schema := &fakeSchema{mapping: core.ColumnMapping{
		DateExpr: "t.date", AmountExpr: "t.amount", KindExpr: "t.kind",
	}}
	var rp sheets.ReportPublisher
	if publisher != nil {
		rp = publisher
	}
	return NewExportService(schema, agg, render.DocumentAssets{}, events, rp)
}

func TestExport_Text(t *testing.T) {
	agg := &fakeAggregator{pack: testPack()}
	events := &fakeEvents{}
	publisher := memory.New()
	svc := newTestService(agg, events, publisher)

	res, err := svc.Export(context.Background(), ExportRequest{
		Format: "text",
		Filter: core.TimeFilter{Month: "2024-02"},
		UserID: 7,
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if res.Filename != "report-2024-02-both.csv" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.ContentType != "text/csv; charset=utf-8" {
		t.Errorf("content type = %q", res.ContentType)
	}
	if len(res.Data) == 0 {
		t.Error("empty payload")
	}
	if agg.gotTopN != core.DefaultTopN {
		t.Errorf("topN = %d, want default %d", agg.gotTopN, core.DefaultTopN)
	}

	if len(events.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(events.messages))
	}
	msg := events.messages[0]
	if msg.Format != "text" || msg.Period != "2024-02" || msg.UserID != 7 {
		t.Errorf("event = %+v", msg)
	}
	if msg.Bytes != len(res.Data) {
		t.Errorf("event bytes = %d, want %d", msg.Bytes, len(res.Data))
	}

	if got := publisher.Published(); len(got) != 1 {
		t.Errorf("published %d packs to spreadsheet, want 1", len(got))
	}
}

func TestExport_InvalidFormat(t *testing.T) {
	agg := &fakeAggregator{pack: testPack()}
	svc := newTestService(agg, nil, nil)

	_, err := svc.Export(context.Background(), ExportRequest{Format: "docx"})
	if !errors.Is(err, core.ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
	if agg.gotTopN != 0 {
		t.Error("aggregator must not run for an unknown format")
	}
}

func TestExport_InvalidKind(t *testing.T) {
	svc := newTestService(&fakeAggregator{pack: testPack()}, nil, nil)

	_, err := svc.Export(context.Background(), ExportRequest{Format: "text", Kind: "transfer"})
	if !errors.Is(err, core.ErrInvalidFilter) {
		t.Fatalf("error = %v, want ErrInvalidFilter", err)
	}
}

func TestExport_KindInFilename(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", "report-2024-02-both.csv"},
		{"both", "report-2024-02-both.csv"},
		{"expense", "report-2024-02-expense.csv"},
		{"income", "report-2024-02-income.csv"},
	}
	for _, tt := range tests {
		svc := newTestService(&fakeAggregator{pack: testPack()}, nil, nil)
		res, err := svc.Export(context.Background(), ExportRequest{Format: "csv", Kind: tt.kind})
		if err != nil {
			t.Fatalf("Export(kind=%q): %v", tt.kind, err)
		}
		if res.Filename != tt.want {
			t.Errorf("kind %q: filename = %q, want %q", tt.kind, res.Filename, tt.want)
		}
	}
}

func TestExport_AggregatorErrorPropagates(t *testing.T) {
	want := &core.DataSourceError{Op: "totals", Err: errors.New("boom")}
	svc := newTestService(&fakeAggregator{err: want}, nil, nil)

	_, err := svc.Export(context.Background(), ExportRequest{Format: "text"})
	var dsErr *core.DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("error = %v, want *core.DataSourceError", err)
	}
}

func TestExport_SideChannelFailureIsNonFatal(t *testing.T) {
	events := &fakeEvents{err: errors.New("broker down")}
	publisher := memory.New()
	publisher.FailWith(errors.New("sheets down"))
	svc := newTestService(&fakeAggregator{pack: testPack()}, events, publisher)

	res, err := svc.Export(context.Background(), ExportRequest{Format: "text"})
	if err != nil {
		t.Fatalf("Export must succeed despite side channel failures, got %v", err)
	}
	if len(res.Data) == 0 {
		t.Error("payload missing")
	}
}

func TestExportFilename_Sanitization(t *testing.T) {
	tests := []struct {
		period string
		want   string
	}{
		{"2024-02", "report-2024-02-both.csv"},
		{"2024-02-01 -> 2024-02-29", "report-2024-02-01_-_2024-02-29-both.csv"},
		{"a:b/c\\d", "report-a_b_c_d-both.csv"},
		{"a  b", "report-a_b-both.csv"},
	}
	for _, tt := range tests {
		if got := exportFilename(tt.period, "both", ".csv"); got != tt.want {
			t.Errorf("exportFilename(%q) = %q, want %q", tt.period, got, tt.want)
		}
	}
}

func TestNormalizeKind(t *testing.T) {
	if k, err := normalizeKind(""); err != nil || k != "both" {
		t.Errorf("normalizeKind(\"\") = %q, %v", k, err)
	}
	if _, err := normalizeKind("Expense"); !errors.Is(err, core.ErrInvalidFilter) {
		t.Errorf("case-sensitive kinds: error = %v, want ErrInvalidFilter", err)
	}
}
