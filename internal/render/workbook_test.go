package render

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWorkbookRenderer_SheetOrder(t *testing.T) {
	out, err := (&WorkbookRenderer{}).Render(samplePack())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	defer f.Close()

	got := f.GetSheetList()
	if len(got) != len(workbookSheets) {
		t.Fatalf("got %d sheets %v, want %d", len(got), got, len(workbookSheets))
	}
	for i, want := range workbookSheets {
		if got[i] != want {
			t.Errorf("sheet[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestWorkbookRenderer_CellValues(t *testing.T) {
	out, err := (&WorkbookRenderer{}).Render(samplePack())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	defer f.Close()

	tests := []struct {
		sheet, cell, want string
	}{
		{"Meta", "B3", "2024-02"},
		{"Summary", "A1", "TotalExpense"},
		{"Summary", "A2", "750"},
		{"Summary", "D2", "4"},
		{"Monthly(3)", "A2", "2023-12"},
		{"Monthly(3)", "A4", "2024-02"},
		{"Monthly(3)", "C4", "2000"},
		{"Daily", "A2", "2024-02-01"},
		{"Categories", "B2", "Salary"},
		{"Categories", "A4", "0"},
		{"TopExpense", "F2", "500"},
		{"TopIncome", "C2", "income"},
		{"Transactions", "E2", "groceries,\nweekly"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", tt.sheet, tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 { // header + 4 transactions
		t.Errorf("Transactions rows = %d, want 5", len(rows))
	}
}
