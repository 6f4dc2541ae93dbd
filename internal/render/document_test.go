package render

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"rendiconto/internal/core"
)

func TestPaginateHeights(t *testing.T) {
	tests := []struct {
		name    string
		heights []float64
		usable  float64
		gap     float64
		want    [][]int
	}{
		{
			name:    "all fit on one page",
			heights: []float64{100, 100, 100},
			usable:  400,
			gap:     10,
			want:    [][]int{{0, 1, 2}},
		},
		{
			name:    "break before overflow",
			heights: []float64{200, 200, 200},
			usable:  450,
			gap:     10,
			want:    [][]int{{0, 1}, {2}},
		},
		{
			name:    "oversized section gets own page",
			heights: []float64{100, 900, 100},
			usable:  400,
			gap:     10,
			want:    [][]int{{0}, {1}, {2}},
		},
		{
			name:    "empty input",
			heights: nil,
			usable:  400,
			gap:     10,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginateHeights(tt.heights, tt.usable, tt.gap)
			if len(got) != len(tt.want) {
				t.Fatalf("pages = %v, want %v", got, tt.want)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("page %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Fatalf("page %d = %v, want %v", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}

func TestDocumentRenderer_MissingFonts(t *testing.T) {
	r := &DocumentRenderer{Assets: DocumentAssets{
		FontRegular: "testdata/nope-regular.ttf",
		FontBold:    "testdata/nope-bold.ttf",
	}}
	_, err := r.Render(samplePack())
	if err == nil {
		t.Fatal("expected error for missing fonts")
	}
	var rerr *core.RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("error type = %T, want *core.RenderError", err)
	}
	if rerr.Format != FormatDocument {
		t.Errorf("RenderError.Format = %q, want %q", rerr.Format, FormatDocument)
	}
}

func TestHexRGB(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b uint8
	}{
		{"#ef4444", 0xef, 0x44, 0x44},
		{"#10b981", 0x10, 0xb9, 0x81},
		{"#000000", 0, 0, 0},
		{"#ffffff", 255, 255, 255},
		{"nonsense", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := hexRGB(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("hexRGB(%q) = %d,%d,%d want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestCategoryTableRows(t *testing.T) {
	cats := []core.CategoryBreakdown{
		{ID: 1, Name: "Food", Expense: 700},
		{ID: 2, Name: "Salary", Expense: 0, Income: 2000},
		{ID: 0, Name: "Other", Expense: 50},
	}
	rows := categoryTableRows(cats, 750, func(c core.CategoryBreakdown) float64 { return c.Expense })

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (zero-value category skipped)", len(rows))
	}
	if rows[0][0] != "1" || rows[0][1] != "Food" || rows[0][3] != "93.3%" {
		t.Errorf("first row = %v", rows[0])
	}
	if rows[1][0] != "2" || rows[1][1] != "Other" {
		t.Errorf("second row = %v (rank must skip omitted categories)", rows[1])
	}
}

func TestTxTableRows_TruncatesDescription(t *testing.T) {
	long := make([]byte, 60)
	for i := range long {
		long[i] = 'x'
	}
	rows := txTableRows([]core.TransactionRow{
		{Date: "2024-02-01", Category: "Food", Description: string(long), Amount: 10},
	})
	if got := rows[0][2]; len(got) != 48 {
		t.Errorf("description length = %d, want 48", len(got))
	}
}

func TestTruncate_MultiByte(t *testing.T) {
	long := strings.Repeat("è", 60)
	got := truncate(long, 48)
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 48 {
		t.Errorf("rune count = %d, want 48", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text must end with ellipsis, got %q", got)
	}
	if short := "caffè"; truncate(short, 48) != short {
		t.Errorf("short text must pass through unchanged")
	}
}
