package repository

import (
	"context"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/eslsoft/flashnet/pkg/filterexpr"
)

const (
	categoriesTable = "categories"
	flashcardsTable = "flashcards"
)

// sqlStore runs ent-built statements against a dialect driver.
type sqlStore struct {
	drv   dialect.Driver
	clock func() time.Time
}

func newSQLStore(drv dialect.Driver) sqlStore {
	return sqlStore{drv: drv, clock: func() time.Time { return time.Now().UTC() }}
}

func (s sqlStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s sqlStore) exec(ctx context.Context, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	var res entsql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s sqlStore) query(ctx context.Context, q entsql.Querier, scan func(*entsql.Rows) error) error {
	query, args := q.Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s sqlStore) count(ctx context.Context, sel *entsql.Selector) (int64, error) {
	var total int64
	err := s.query(ctx, sel.Count(), func(rows *entsql.Rows) error {
		return rows.Scan(&total)
	})
	return total, err
}

// applyOrder appends ORDER BY for the bound primary and secondary keys.
func applyOrder(sel *entsql.Selector, fields map[string]string, primary string, primaryDesc bool, secondary string, secondaryDesc bool) {
	for _, o := range []struct {
		key  string
		desc bool
	}{{primary, primaryDesc}, {secondary, secondaryDesc}} {
		column, ok := fields[o.key]
		if !ok {
			continue
		}
		if o.desc {
			sel.OrderBy(entsql.Desc(sel.C(column)))
		} else {
			sel.OrderBy(entsql.Asc(sel.C(column)))
		}
	}
}

func applyPage(sel *entsql.Selector, pageSize int32, offset int64) {
	if pageSize <= 0 {
		return
	}
	sel.Limit(int(pageSize))
	if offset > 0 {
		sel.Offset(int(offset))
	}
}

func orderColumns(fields map[string]filterexpr.OrderField) map[string]string {
	out := make(map[string]string, len(fields))
	for key, f := range fields {
		out[key] = f.Expr
	}
	return out
}
