package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rendiconto/internal/amqp"
	"rendiconto/internal/core"
	applog "rendiconto/internal/log"
	"rendiconto/internal/render"
	"rendiconto/internal/sheets"
)

// SchemaResolver yields the column mapping for report queries.
type SchemaResolver interface {
	ResolveColumns(ctx context.Context) (core.ColumnMapping, error)
}

// Aggregator builds a ReportPack for a filtered window.
type Aggregator interface {
	Aggregate(ctx context.Context, mapping core.ColumnMapping, filter core.TimeFilter, userID int64, topN int) (*core.ReportPack, error)
}

// EventPublisher emits export lifecycle events.
type EventPublisher interface {
	PublishExportCompleted(ctx context.Context, msg *amqp.ExportCompletedMessage) error
}

// ExportRequest is one export invocation as received from the transport
// layer, before normalization.
type ExportRequest struct {
	Format string
	Filter core.TimeFilter
	Kind   string
	TopN   int
	UserID int64
}

// ExportResult is the rendered payload plus the delivery metadata callers
// need to serve it as a download.
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
	Pack        *core.ReportPack
}

// ExportService orchestrates a full export: schema probe, aggregation,
// rendering and best-effort notification of downstream consumers.
type ExportService struct {
	schema     SchemaResolver
	aggregator Aggregator
	assets     render.DocumentAssets
	events     EventPublisher
	publisher  sheets.ReportPublisher
}

func NewExportService(schema SchemaResolver, aggregator Aggregator, assets render.DocumentAssets, events EventPublisher, publisher sheets.ReportPublisher) *ExportService {
	return &ExportService{
		schema:     schema,
		aggregator: aggregator,
		assets:     assets,
		events:     events,
		publisher:  publisher,
	}
}

// Export runs the whole pipeline for one request. Renderer selection happens
// before aggregation so an unknown format fails without touching the store.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	renderer, err := render.ForFormat(req.Format, s.assets)
	if err != nil {
		return nil, err
	}

	kind, err := normalizeKind(req.Kind)
	if err != nil {
		return nil, err
	}

	topN := req.TopN
	if topN == 0 {
		topN = core.DefaultTopN
	}

	mapping, err := s.schema.ResolveColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}

	pack, err := s.aggregator.Aggregate(ctx, mapping, req.Filter, req.UserID, topN)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(pack)
	if err != nil {
		slog.ErrorContext(ctx, "Report rendering failed",
			"format", renderer.Format(),
			"period", pack.Meta.PeriodLabel,
			"error", err)
		return nil, err
	}

	result := &ExportResult{
		Data:        data,
		Filename:    exportFilename(pack.Meta.PeriodLabel, kind, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Pack:        pack,
	}

	fields := applog.NewFields().
		WithExport(renderer.Format(), pack.Meta.PeriodLabel, req.UserID, len(data)).
		WithOperation(applog.OpExport).
		WithComponent(applog.ComponentExport)
	fields[applog.FieldFilename] = result.Filename
	slog.InfoContext(ctx, "Report exported", fields.ToSlice()...)

	s.notify(ctx, renderer.Format(), pack, len(data))
	return result, nil
}

// Report aggregates without rendering, for JSON consumers like the
// dashboard endpoint.
func (s *ExportService) Report(ctx context.Context, filter core.TimeFilter, userID int64, topN int) (*core.ReportPack, error) {
	if topN == 0 {
		topN = core.DefaultTopN
	}
	mapping, err := s.schema.ResolveColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}
	return s.aggregator.Aggregate(ctx, mapping, filter, userID, topN)
}

// notify fans the finished export out to the optional side channels. Both
// are best-effort: the export already succeeded, so failures only log.
func (s *ExportService) notify(ctx context.Context, format string, pack *core.ReportPack, size int) {
	if s.events != nil {
		msg := amqp.NewExportCompletedMessage(format, pack.Meta.PeriodLabel, pack.Meta.UserID, size, pack.Meta.GeneratedAt)
		if err := s.events.PublishExportCompleted(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export event", "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, pack); err != nil {
			slog.ErrorContext(ctx, "Failed to publish report to spreadsheet", "error", err)
		}
	}
}

// normalizeKind validates the requested transaction scope. Empty means both
// kinds; anything else must be a known kind.
func normalizeKind(kind string) (string, error) {
	switch kind {
	case "", "both":
		return "both", nil
	case string(core.KindExpense), string(core.KindIncome):
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", core.ErrInvalidFilter, kind)
	}
}

// exportFilename derives a download name from the period label and scope.
// Characters unsafe in filenames collapse to single underscores.
func exportFilename(period, kind, ext string) string {
	name := fmt.Sprintf("report-%s-%s", period, kind)
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch r {
		case ' ', ':', '/', '\\', '>':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return b.String() + ext
}
