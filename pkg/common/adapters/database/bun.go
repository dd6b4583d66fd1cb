package database

import (
	"context"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/uptrace/bun"
)

// BunAdapter adapts Bun to the common.Database interface, showing the
// abstraction works across ORMs.
type BunAdapter struct {
	db *bun.DB
}

// NewBunAdapter creates a new Bun adapter.
func NewBunAdapter(db *bun.DB) *BunAdapter {
	return &BunAdapter{db: db}
}

func (b *BunAdapter) NewSelect() common.SelectQuery {
	return &BunSelectQuery{query: b.db.NewSelect()}
}

func (b *BunAdapter) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return b.db.NewRaw(query, args...).Scan(ctx, dest)
}

// BunSelectQuery implements SelectQuery for Bun with the same buffered
// ORDER BY handling as the GORM adapter.
type BunSelectQuery struct {
	query  *bun.SelectQuery
	orders []string
}

func (b *BunSelectQuery) Model(model interface{}) common.SelectQuery {
	b.query = b.query.Model(model)
	return b
}

func (b *BunSelectQuery) Table(table string) common.SelectQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunSelectQuery) Column(columns ...string) common.SelectQuery {
	b.query = b.query.Column(columns...)
	return b
}

func (b *BunSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.WhereOr(query, args...)
	return b
}

func (b *BunSelectQuery) Preload(relation string, conditions ...interface{}) common.SelectQuery {
	b.query = b.query.Relation(relation)
	return b
}

func (b *BunSelectQuery) Order(order string) common.SelectQuery {
	if order != "" {
		b.orders = append(b.orders, order)
	}
	return b
}

func (b *BunSelectQuery) ClearOrder() common.SelectQuery {
	b.orders = nil
	return b
}

func (b *BunSelectQuery) Orders() []string {
	out := make([]string, len(b.orders))
	copy(out, b.orders)
	return out
}

func (b *BunSelectQuery) Limit(n int) common.SelectQuery {
	b.query = b.query.Limit(n)
	return b
}

func (b *BunSelectQuery) Offset(n int) common.SelectQuery {
	b.query = b.query.Offset(n)
	return b
}

func (b *BunSelectQuery) Count(ctx context.Context) (int, error) {
	return b.query.Count(ctx)
}

func (b *BunSelectQuery) Scan(ctx context.Context, dest interface{}) error {
	query := b.query
	for _, order := range b.orders {
		query = query.OrderExpr(order)
	}
	return query.Scan(ctx, dest)
}
