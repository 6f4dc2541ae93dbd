package render

import (
	"fmt"
	"strconv"
	"strings"

	"rendiconto/internal/core"
)

// TextRenderer emits the delimited text report: a BOM for encoding
// correctness, section banners, then key,value or tabular lines. Numbers
// stay raw decimals so the output remains machine-parseable.
type TextRenderer struct{}

func (r *TextRenderer) Format() string      { return FormatText }
func (r *TextRenderer) ContentType() string { return "text/csv; charset=utf-8" }
func (r *TextRenderer) Extension() string   { return ".csv" }

func (r *TextRenderer) Render(pack *core.ReportPack) ([]byte, error) {
	var b strings.Builder
	b.WriteRune('\uFEFF')

	line := func(parts ...string) {
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte('\n')
	}

	line(fmt.Sprintf("=== %s Report (%s) ===", appName, reportVersion))
	line("Generated At", csvSafe(pack.Meta.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")))
	line("Period", csvSafe(pack.Meta.PeriodLabel))
	line("User ID", strconv.FormatInt(pack.Meta.UserID, 10))
	line("")

	line("=== SUMMARY ===")
	line("Total Expense", num(pack.Totals.TotalExpense))
	line("Total Income", num(pack.Totals.TotalIncome))
	line("Difference", num(pack.Totals.Diff))
	line("Transactions", strconv.FormatInt(pack.Totals.TxCount, 10))
	line("Avg Expense", num(pack.Totals.AvgExpense))
	line("Avg Income", num(pack.Totals.AvgIncome))
	line("Max Expense", num(pack.Totals.MaxExpense))
	line("Min Expense", num(pack.Totals.MinExpense))
	line("Max Income", num(pack.Totals.MaxIncome))
	line("Min Income", num(pack.Totals.MinIncome))
	line("")

	line("=== MONTHLY (last 3, near export month) ===")
	line("Month", "Expense", "Income")
	for _, m := range pack.Monthly {
		line(m.Month, num(m.Expense), num(m.Income))
	}
	line("")

	line("=== DAILY BREAKDOWN ===")
	line("Date", "Expense", "Income")
	for _, d := range pack.Daily {
		line(d.Day, num(d.Expense), num(d.Income))
	}
	line("")

	line("=== CATEGORIES (EXPENSE) ===")
	line("Category", "Expense", "Percent")
	for _, c := range pack.Categories {
		line(csvSafe(c.Name), num(c.Expense), percent(c.Expense, pack.Totals.TotalExpense))
	}
	line("")

	line("=== CATEGORIES (INCOME) ===")
	line("Category", "Income", "Percent")
	for _, c := range pack.Categories {
		line(csvSafe(c.Name), num(c.Income), percent(c.Income, pack.Totals.TotalIncome))
	}
	line("")

	line(fmt.Sprintf("=== TOP %d TRANSACTIONS (EXPENSE) ===", len(pack.TopExpense)))
	line("ID", "Date", "Kind", "Category", "Description", "Amount")
	for _, t := range pack.TopExpense {
		txLine(line, t)
	}
	line("")

	line(fmt.Sprintf("=== TOP %d TRANSACTIONS (INCOME) ===", len(pack.TopIncome)))
	line("ID", "Date", "Kind", "Category", "Description", "Amount")
	for _, t := range pack.TopIncome {
		txLine(line, t)
	}
	line("")

	line("=== TRANSACTIONS (ALL) ===")
	line("ID", "Date", "Kind", "Category", "Description", "Amount")
	for _, t := range pack.Transactions {
		txLine(line, t)
	}

	return []byte(b.String()), nil
}

func txLine(line func(...string), t core.TransactionRow) {
	line(
		strconv.FormatInt(t.ID, 10),
		csvSafe(t.Date),
		string(t.Kind),
		csvSafe(t.Category),
		csvSafe(t.Description),
		num(t.Amount),
	)
}

// csvSafe quotes a free-text field when it contains a delimiter, quote or
// newline, doubling any internal quotes.
func csvSafe(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// num formats a monetary value as a raw decimal, never locale-formatted.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func percent(v, total float64) string {
	if total <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", v/total*100)
}
