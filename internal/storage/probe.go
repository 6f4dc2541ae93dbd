package storage

import (
	"context"
	"fmt"
	"log/slog"

	"rendiconto/internal/core"
)

// Column preference orders for the transaction table. The first existing
// column wins; when none exists a literal keeps downstream SQL valid while
// contributing no data. Missing optional columns are a supported schema
// variant, not an error.
var (
	datePreference        = []string{"date", "spent_at", "created_at"}
	amountPreference      = []string{"amount", "value"}
	descriptionPreference = []string{"description", "note", "content"}
)

// ResolveColumns probes the live schema and returns the column mapping used
// by every report query. The result is cached on the store; the schema is
// effectively static for the process lifetime.
func (s *Store) ResolveColumns(ctx context.Context) (core.ColumnMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mapping != nil {
		return *s.mapping, nil
	}

	txCols, err := s.tableColumns(ctx, "transactions")
	if err != nil {
		return core.ColumnMapping{}, &core.DataSourceError{Op: "probe transactions schema", Err: err}
	}
	catCols, err := s.tableColumns(ctx, "categories")
	if err != nil {
		return core.ColumnMapping{}, &core.DataSourceError{Op: "probe categories schema", Err: err}
	}

	m := resolveColumns(txCols, catCols)
	s.mapping = &m

	slog.InfoContext(ctx, "Resolved transaction column mapping",
		"date_expr", m.DateExpr,
		"amount_expr", m.AmountExpr,
		"description_expr", m.DescriptionExpr,
		"user_scoped", m.HasUserScope,
		"category_join", m.HasCategoryID)

	return m, nil
}

func resolveColumns(txCols, catCols map[string]bool) core.ColumnMapping {
	m := core.ColumnMapping{
		DateExpr:        "''",
		AmountExpr:      "0",
		DescriptionExpr: "''",
		KindExpr:        "''",
		CategoryIDExpr:  "NULL",
	}

	for _, c := range datePreference {
		if txCols[c] {
			m.DateExpr = "t." + c
			break
		}
	}
	for _, c := range amountPreference {
		if txCols[c] {
			m.AmountExpr = "t." + c
			break
		}
	}
	for _, c := range descriptionPreference {
		if txCols[c] {
			m.DescriptionExpr = "t." + c
			break
		}
	}
	if txCols["kind"] {
		m.KindExpr = "t.kind"
	}
	if txCols["category_id"] {
		m.CategoryIDExpr = "t.category_id"
		m.HasCategoryID = true
	}
	m.HasUserScope = txCols["user_id"]
	m.HasCategoryName = catCols["name"]

	return m
}

// tableColumns returns the set of column names on a table. A missing table
// yields an empty set, which downgrades every expression to its literal
// fallback.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info %s: %w", table, err)
	}
	return cols, nil
}
