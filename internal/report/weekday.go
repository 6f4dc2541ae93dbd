package report

import (
	"time"

	"rendiconto/internal/core"
)

// WeekdayBreakdown aggregates the pack's window transactions by day of
// week. The weekday is derived from the ISO date literal itself, never from
// the store's day-of-week function or the host timezone, so the result is
// stable across midnight and timezone boundaries. Rows whose date does not
// parse are skipped.
func WeekdayBreakdown(pack *core.ReportPack) []core.WeekdayPoint {
	points := make([]core.WeekdayPoint, 7)
	for i := range points {
		points[i].Weekday = time.Weekday(i).String()
	}

	for _, tx := range pack.Transactions {
		if len(tx.Date) < 10 {
			continue
		}
		day, err := time.Parse("2006-01-02", tx.Date[:10])
		if err != nil {
			continue
		}
		p := &points[int(day.Weekday())]
		p.Count++
		switch tx.Kind {
		case core.KindExpense:
			p.Expense += tx.Amount
		case core.KindIncome:
			p.Income += tx.Amount
		}
	}
	return points
}
