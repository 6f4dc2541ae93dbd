package core

import "time"

// Kind is the polarity of a transaction.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// ColumnMapping is the resolved set of SQL expressions for the transaction
// table, tolerant to schema variation. It is built once by the schema probe
// and never mutated afterwards. Expressions fall back to literals when a
// column is absent so every generated query still compiles.
type ColumnMapping struct {
	DateExpr        string
	AmountExpr      string
	DescriptionExpr string
	KindExpr        string
	CategoryIDExpr  string
	HasUserScope    bool
	HasCategoryID   bool
	HasCategoryName bool
}

// Meta describes when and for whom a report was generated.
type Meta struct {
	GeneratedAt time.Time `json:"generatedAt"`
	PeriodLabel string    `json:"periodText"`
	UserID      int64     `json:"userId"`
	AnchorMonth string    `json:"monthForTrend"`
}

// Totals holds the grouped aggregation over the filtered window.
// Diff is always TotalIncome - TotalExpense; every other monetary
// field is non-negative.
type Totals struct {
	TotalExpense float64 `json:"totalExpense"`
	TotalIncome  float64 `json:"totalIncome"`
	Diff         float64 `json:"diff"`
	TxCount      int64   `json:"txCount"`
	AvgExpense   float64 `json:"avgExpense"`
	AvgIncome    float64 `json:"avgIncome"`
	MaxExpense   float64 `json:"maxExpense"`
	MinExpense   float64 `json:"minExpense"`
	MaxIncome    float64 `json:"maxIncome"`
	MinIncome    float64 `json:"minIncome"`
}

// MonthlyPoint is one month of the trailing 3-month trend.
type MonthlyPoint struct {
	Month   string  `json:"month"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
}

// DailyPoint is one day with at least one transaction in the window.
type DailyPoint struct {
	Day     string  `json:"day"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
}

// CategoryBreakdown is the per-category activity in the window.
// Uncategorized transactions collapse into the synthetic id-0 bucket.
type CategoryBreakdown struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
}

// TransactionRow is a single transaction as exported in rankings and dumps.
type TransactionRow struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Kind        Kind    `json:"kind"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// WeekdayPoint aggregates activity by day of week. Weekday follows
// time.Weekday numbering (Sunday = 0).
type WeekdayPoint struct {
	Weekday string  `json:"weekday"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
	Count   int64   `json:"count"`
}

// ReportPack is the canonical aggregated result passed from the aggregator
// to the renderers. It is created fresh per request and read-only afterwards.
type ReportPack struct {
	Meta         Meta                `json:"meta"`
	Totals       Totals              `json:"totals"`
	Monthly      []MonthlyPoint      `json:"monthly"`
	Daily        []DailyPoint        `json:"daily"`
	Categories   []CategoryBreakdown `json:"categories"`
	TopExpense   []TransactionRow    `json:"topExpense"`
	TopIncome    []TransactionRow    `json:"topIncome"`
	Transactions []TransactionRow    `json:"transactions"`
}

const (
	// DefaultTopN is the ranking size used when the caller does not ask
	// for a specific one.
	DefaultTopN = 10

	minTopN = 3
	maxTopN = 50
)

// ClampTopN forces a requested ranking size into the supported range.
// Out-of-range values are clamped, never rejected.
func ClampTopN(n int) int {
	if n < minTopN {
		return minTopN
	}
	if n > maxTopN {
		return maxTopN
	}
	return n
}
