package sheets

import (
	"context"

	"rendiconto/internal/core"
)

// ReportPublisher pushes a summary of a finished export to an external
// spreadsheet. Implementations must be safe for concurrent use.
type ReportPublisher interface {
	PublishReport(ctx context.Context, pack *core.ReportPack) error
}
