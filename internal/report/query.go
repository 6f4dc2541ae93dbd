package report

import (
	"strings"

	"rendiconto/internal/core"
)

// whereClause accumulates SQL predicates and their bind parameters so query
// fragments stay conditional without any value ever being spliced into the
// statement text.
type whereClause struct {
	preds []string
	args  []any
}

func (w *whereClause) add(pred string, args ...any) {
	w.preds = append(w.preds, pred)
	w.args = append(w.args, args...)
}

func (w *whereClause) sql() string {
	if len(w.preds) == 0 {
		return "1=1"
	}
	return strings.Join(w.preds, " AND ")
}

// windowFilter builds the shared predicate for the reporting window:
// user scope when the schema has one, then explicit bounds, falling back
// to the month filter.
func windowFilter(m core.ColumnMapping, f core.TimeFilter, userID int64, anchorMonth string) *whereClause {
	w := &whereClause{}
	if m.HasUserScope {
		w.add("t.user_id = ?", userID)
	}
	if f.HasRange() {
		if f.From != "" {
			w.add(m.DateExpr+" >= ?", f.From)
		}
		if f.To != "" {
			w.add(m.DateExpr+" <= ?", f.To)
		}
		return w
	}
	w.add("substr("+m.DateExpr+",1,7) = ?", anchorMonth)
	return w
}

// categoryJoin yields the LEFT JOIN fragment. Without a category_id column
// the join condition is impossible so every row keeps left-join semantics
// and lands in the synthetic bucket.
func categoryJoin(m core.ColumnMapping) string {
	if m.HasCategoryID {
		return "LEFT JOIN categories c ON c.id = t.category_id"
	}
	return "LEFT JOIN categories c ON 1=0"
}

// categoryNameExpr names the bucket a row belongs to. Uncategorized rows
// collapse into "Other".
func categoryNameExpr(m core.ColumnMapping) string {
	if m.HasCategoryName {
		return "COALESCE(c.name, 'Other')"
	}
	return "'Other'"
}
