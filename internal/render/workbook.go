package render

import (
	"bytes"
	"fmt"

	"rendiconto/internal/core"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names in their contractual order.
var workbookSheets = []string{
	"Meta", "Summary", "Monthly(3)", "Daily",
	"Categories", "TopExpense", "TopIncome", "Transactions",
}

// WorkbookRenderer emits one sheet per report section as plain row-of-object
// tables. No cross-sheet formulas.
type WorkbookRenderer struct{}

func (r *WorkbookRenderer) Format() string { return FormatWorkbook }
func (r *WorkbookRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (r *WorkbookRenderer) Extension() string { return ".xlsx" }

func (r *WorkbookRenderer) Render(pack *core.ReportPack) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheets[0]); err != nil {
		return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
	}
	for _, name := range workbookSheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#374151"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
	}

	if err := r.writeMeta(f, pack); err != nil {
		return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
	}

	sections := []struct {
		sheet   string
		headers []string
		rows    [][]any
	}{
		{"Summary", summaryHeaders, summaryRows(pack)},
		{"Monthly(3)", []string{"Month", "Expense", "Income"}, monthlyRows(pack)},
		{"Daily", []string{"Day", "Expense", "Income"}, dailyRows(pack)},
		{"Categories", []string{"ID", "Name", "Expense", "Income"}, categoryRows(pack)},
		{"TopExpense", txHeaders, txRows(pack.TopExpense)},
		{"TopIncome", txHeaders, txRows(pack.TopIncome)},
		{"Transactions", txHeaders, txRows(pack.Transactions)},
	}
	for _, sec := range sections {
		if err := writeTableSheet(f, sec.sheet, headerStyle, sec.headers, sec.rows); err != nil {
			return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
		}
	}

	if idx, err := f.GetSheetIndex(workbookSheets[0]); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, &core.RenderError{Format: FormatWorkbook, Err: err}
	}
	return buf.Bytes(), nil
}

var summaryHeaders = []string{
	"TotalExpense", "TotalIncome", "Difference", "Transactions",
	"AvgExpense", "AvgIncome", "MaxExpense", "MinExpense", "MaxIncome", "MinIncome",
}

var txHeaders = []string{"ID", "Date", "Kind", "Category", "Description", "Amount"}

func summaryRows(pack *core.ReportPack) [][]any {
	t := pack.Totals
	return [][]any{{
		t.TotalExpense, t.TotalIncome, t.Diff, t.TxCount,
		t.AvgExpense, t.AvgIncome, t.MaxExpense, t.MinExpense, t.MaxIncome, t.MinIncome,
	}}
}

func monthlyRows(pack *core.ReportPack) [][]any {
	rows := make([][]any, 0, len(pack.Monthly))
	for _, m := range pack.Monthly {
		rows = append(rows, []any{m.Month, m.Expense, m.Income})
	}
	return rows
}

func dailyRows(pack *core.ReportPack) [][]any {
	rows := make([][]any, 0, len(pack.Daily))
	for _, d := range pack.Daily {
		rows = append(rows, []any{d.Day, d.Expense, d.Income})
	}
	return rows
}

func categoryRows(pack *core.ReportPack) [][]any {
	rows := make([][]any, 0, len(pack.Categories))
	for _, c := range pack.Categories {
		rows = append(rows, []any{c.ID, c.Name, c.Expense, c.Income})
	}
	return rows
}

func txRows(txs []core.TransactionRow) [][]any {
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []any{t.ID, t.Date, string(t.Kind), t.Category, t.Description, t.Amount})
	}
	return rows
}

func (r *WorkbookRenderer) writeMeta(f *excelize.File, pack *core.ReportPack) error {
	rows := [][]any{
		{fmt.Sprintf("%s Report (%s)", appName, reportVersion)},
		{"Generated At", pack.Meta.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
		{"Period", pack.Meta.PeriodLabel},
		{"User ID", pack.Meta.UserID},
		{"Trend Month", pack.Meta.AnchorMonth},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Meta", cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth("Meta", "A", "A", 16)
}

func writeTableSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]any) error {
	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
