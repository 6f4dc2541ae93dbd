package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rendiconto/internal/core"

	"golang.org/x/sync/errgroup"
)

// Querier is the read capability the aggregator needs from the store.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Aggregator computes ReportPacks from the transaction store. It holds no
// per-request state; concurrent Aggregate calls are independent.
type Aggregator struct {
	store Querier
	now   func() time.Time
}

func NewAggregator(store Querier) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Aggregate computes the canonical ReportPack for the window. The grouped
// queries are independent single round trips and run concurrently; the
// first failure cancels the rest and aborts the whole report. An empty
// window yields a fully populated pack with zero totals and empty slices.
func (a *Aggregator) Aggregate(ctx context.Context, mapping core.ColumnMapping, filter core.TimeFilter, userID int64, topN int) (*core.ReportPack, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	topN = core.ClampTopN(topN)

	now := a.now()
	anchor := filter.AnchorMonth(now)
	where := windowFilter(mapping, filter, userID, anchor)

	pack := &core.ReportPack{
		Meta: core.Meta{
			GeneratedAt: now,
			PeriodLabel: filter.PeriodLabel(now),
			UserID:      userID,
			AnchorMonth: anchor,
		},
		Monthly:      make([]core.MonthlyPoint, 0, 3),
		Daily:        []core.DailyPoint{},
		Categories:   []core.CategoryBreakdown{},
		TopExpense:   []core.TransactionRow{},
		TopIncome:    []core.TransactionRow{},
		Transactions: []core.TransactionRow{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.queryTotals(gctx, mapping, where, &pack.Totals) })
	g.Go(func() error {
		daily, err := a.queryDaily(gctx, mapping, where)
		if err != nil {
			return err
		}
		pack.Daily = daily
		return nil
	})
	g.Go(func() error {
		cats, err := a.queryCategories(gctx, mapping, where)
		if err != nil {
			return err
		}
		pack.Categories = cats
		return nil
	})
	g.Go(func() error {
		rows, err := a.queryTop(gctx, mapping, where, core.KindExpense, topN)
		if err != nil {
			return err
		}
		pack.TopExpense = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.queryTop(gctx, mapping, where, core.KindIncome, topN)
		if err != nil {
			return err
		}
		pack.TopIncome = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.queryTransactions(gctx, mapping, where)
		if err != nil {
			return err
		}
		pack.Transactions = rows
		return nil
	})
	g.Go(func() error {
		monthly, err := a.queryMonthly(gctx, mapping, userID, anchor)
		if err != nil {
			return err
		}
		pack.Monthly = monthly
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pack, nil
}

// kindSum builds the partitioned aggregate expression for one kind, so an
// absent kind yields 0 instead of NULL or an error.
func kindSum(fn string, m core.ColumnMapping, kind core.Kind) string {
	return fmt.Sprintf("COALESCE(%s(CASE WHEN %s = '%s' THEN %s END), 0)", fn, m.KindExpr, kind, m.AmountExpr)
}

func (a *Aggregator) queryTotals(ctx context.Context, m core.ColumnMapping, where *whereClause, out *core.Totals) error {
	query := fmt.Sprintf(`SELECT
		%s, %s,
		COUNT(*),
		%s, %s,
		%s, %s,
		%s, %s
	FROM transactions t
	WHERE %s`,
		kindSum("SUM", m, core.KindExpense), kindSum("SUM", m, core.KindIncome),
		kindSum("AVG", m, core.KindExpense), kindSum("AVG", m, core.KindIncome),
		kindSum("MAX", m, core.KindExpense), kindSum("MIN", m, core.KindExpense),
		kindSum("MAX", m, core.KindIncome), kindSum("MIN", m, core.KindIncome),
		where.sql())

	row := a.store.QueryRowContext(ctx, query, where.args...)
	if err := row.Scan(
		&out.TotalExpense, &out.TotalIncome,
		&out.TxCount,
		&out.AvgExpense, &out.AvgIncome,
		&out.MaxExpense, &out.MinExpense,
		&out.MaxIncome, &out.MinIncome,
	); err != nil {
		return &core.DataSourceError{Op: "aggregate totals", Err: err}
	}
	out.Diff = out.TotalIncome - out.TotalExpense
	return nil
}

func (a *Aggregator) queryDaily(ctx context.Context, m core.ColumnMapping, where *whereClause) ([]core.DailyPoint, error) {
	// Day grouping truncates the ISO date to its first 10 characters,
	// which is also why report dates must be lexically sortable.
	query := fmt.Sprintf(`SELECT substr(%s,1,10) AS day, %s, %s
	FROM transactions t
	WHERE %s
	GROUP BY substr(%s,1,10)
	ORDER BY day ASC`,
		m.DateExpr,
		kindSum("SUM", m, core.KindExpense), kindSum("SUM", m, core.KindIncome),
		where.sql(), m.DateExpr)

	rows, err := a.store.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, &core.DataSourceError{Op: "aggregate daily", Err: err}
	}
	defer rows.Close()

	daily := []core.DailyPoint{}
	for rows.Next() {
		var p core.DailyPoint
		if err := rows.Scan(&p.Day, &p.Expense, &p.Income); err != nil {
			return nil, &core.DataSourceError{Op: "scan daily", Err: err}
		}
		daily = append(daily, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.DataSourceError{Op: "iterate daily", Err: err}
	}
	return daily, nil
}

func (a *Aggregator) queryCategories(ctx context.Context, m core.ColumnMapping, where *whereClause) ([]core.CategoryBreakdown, error) {
	nameExpr := categoryNameExpr(m)
	query := fmt.Sprintf(`SELECT
		COALESCE(%s, 0) AS id,
		%s AS name,
		%s AS expense,
		%s AS income
	FROM transactions t
	%s
	WHERE %s
	GROUP BY COALESCE(%s, 0), %s
	HAVING (expense + income) > 0
	ORDER BY (expense + income) DESC, name ASC`,
		m.CategoryIDExpr, nameExpr,
		kindSum("SUM", m, core.KindExpense), kindSum("SUM", m, core.KindIncome),
		categoryJoin(m), where.sql(),
		m.CategoryIDExpr, nameExpr)

	rows, err := a.store.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, &core.DataSourceError{Op: "aggregate categories", Err: err}
	}
	defer rows.Close()

	cats := []core.CategoryBreakdown{}
	for rows.Next() {
		var c core.CategoryBreakdown
		if err := rows.Scan(&c.ID, &c.Name, &c.Expense, &c.Income); err != nil {
			return nil, &core.DataSourceError{Op: "scan categories", Err: err}
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.DataSourceError{Op: "iterate categories", Err: err}
	}
	return cats, nil
}

func (a *Aggregator) transactionSelect(m core.ColumnMapping) string {
	nameExpr := "''"
	if m.HasCategoryName {
		nameExpr = "COALESCE(c.name, '')"
	}
	return fmt.Sprintf(`SELECT
		t.id,
		%s AS date,
		%s AS kind,
		%s AS category,
		%s AS description,
		COALESCE(%s, 0) AS amount
	FROM transactions t
	%s`,
		m.DateExpr, m.KindExpr, nameExpr, m.DescriptionExpr, m.AmountExpr, categoryJoin(m))
}

func (a *Aggregator) queryTop(ctx context.Context, m core.ColumnMapping, where *whereClause, kind core.Kind, topN int) ([]core.TransactionRow, error) {
	query := fmt.Sprintf(`%s
	WHERE %s AND %s = ?
	ORDER BY amount DESC
	LIMIT ?`, a.transactionSelect(m), where.sql(), m.KindExpr)

	args := append(append([]any{}, where.args...), string(kind), topN)
	return a.scanTransactions(ctx, fmt.Sprintf("top %s", kind), query, args)
}

func (a *Aggregator) queryTransactions(ctx context.Context, m core.ColumnMapping, where *whereClause) ([]core.TransactionRow, error) {
	query := fmt.Sprintf(`%s
	WHERE %s
	ORDER BY date ASC, t.id ASC`, a.transactionSelect(m), where.sql())

	return a.scanTransactions(ctx, "window transactions", query, where.args)
}

func (a *Aggregator) scanTransactions(ctx context.Context, op, query string, args []any) ([]core.TransactionRow, error) {
	rows, err := a.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.DataSourceError{Op: op, Err: err}
	}
	defer rows.Close()

	out := []core.TransactionRow{}
	for rows.Next() {
		var r core.TransactionRow
		if err := rows.Scan(&r.ID, &r.Date, &r.Kind, &r.Category, &r.Description, &r.Amount); err != nil {
			return nil, &core.DataSourceError{Op: "scan " + op, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.DataSourceError{Op: "iterate " + op, Err: err}
	}
	return out, nil
}

// queryMonthly returns the fixed 3-period trailing trend ending at the
// anchor month. Months with no data are zero-filled, never omitted, and the
// result is always ascending.
func (a *Aggregator) queryMonthly(ctx context.Context, m core.ColumnMapping, userID int64, anchor string) ([]core.MonthlyPoint, error) {
	months := core.TrailingMonths(anchor)

	w := &whereClause{}
	if m.HasUserScope {
		w.add("t.user_id = ?", userID)
	}
	w.add("substr("+m.DateExpr+",1,7) IN (?, ?, ?)", months[0], months[1], months[2])

	query := fmt.Sprintf(`SELECT substr(%s,1,7) AS month, %s, %s
	FROM transactions t
	WHERE %s
	GROUP BY substr(%s,1,7)`,
		m.DateExpr,
		kindSum("SUM", m, core.KindExpense), kindSum("SUM", m, core.KindIncome),
		w.sql(), m.DateExpr)

	rows, err := a.store.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, &core.DataSourceError{Op: "aggregate monthly", Err: err}
	}
	defer rows.Close()

	byMonth := make(map[string]core.MonthlyPoint, 3)
	for rows.Next() {
		var p core.MonthlyPoint
		if err := rows.Scan(&p.Month, &p.Expense, &p.Income); err != nil {
			return nil, &core.DataSourceError{Op: "scan monthly", Err: err}
		}
		byMonth[p.Month] = p
	}
	if err := rows.Err(); err != nil {
		return nil, &core.DataSourceError{Op: "iterate monthly", Err: err}
	}

	monthly := make([]core.MonthlyPoint, 0, 3)
	for _, month := range months {
		p, ok := byMonth[month]
		if !ok {
			p = core.MonthlyPoint{Month: month}
		}
		monthly = append(monthly, p)
	}
	return monthly, nil
}
