// Package render contains the three independent ReportPack renderers:
// delimited text, spreadsheet workbook and paginated vector document.
// None of them mutates the pack.
package render

import (
	"fmt"

	"rendiconto/internal/core"
)

const (
	appName       = "Rendiconto"
	reportVersion = "v1.2.0"
)

// Formats accepted by the export surface.
const (
	FormatText     = "text"
	FormatWorkbook = "workbook"
	FormatDocument = "document"
)

// Shared chart palette. Expense and income keep fixed colors everywhere so
// the legends stay consistent across sections.
const (
	colorExpense = "#ef4444"
	colorIncome  = "#10b981"
	colorDiff    = "#3b82f6"
	colorCount   = "#6366f1"
)

var categoryPalette = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#14b8a6", "#f97316", "#0ea5e9",
}

// Renderer serializes a ReportPack into one output format.
type Renderer interface {
	Render(pack *core.ReportPack) ([]byte, error)
	Format() string
	ContentType() string
	Extension() string
}

// DocumentAssets locates the static assets the document renderer needs.
type DocumentAssets struct {
	FontRegular string
	FontBold    string
}

// ForFormat returns the renderer for a requested format. The original
// format aliases (csv, excel, pdf) are accepted alongside the canonical
// names; anything else is an ErrInvalidFormat.
func ForFormat(format string, assets DocumentAssets) (Renderer, error) {
	switch format {
	case FormatText, "csv":
		return &TextRenderer{}, nil
	case FormatWorkbook, "excel", "xlsx":
		return &WorkbookRenderer{}, nil
	case FormatDocument, "pdf":
		return &DocumentRenderer{Assets: assets}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFormat, format)
	}
}
