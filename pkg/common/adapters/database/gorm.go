package database

import (
	"context"

	"github.com/bitechdev/GridSpec/pkg/common"
	"gorm.io/gorm"
)

// GormAdapter adapts GORM to the common.Database interface.
type GormAdapter struct {
	db *gorm.DB
}

// NewGormAdapter creates a new GORM adapter.
func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func (g *GormAdapter) NewSelect() common.SelectQuery {
	return &GormSelectQuery{db: g.db}
}

func (g *GormAdapter) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return g.db.WithContext(ctx).Raw(query, args...).Find(dest).Error
}

// GormSelectQuery implements SelectQuery for GORM. ORDER BY entries are
// buffered instead of applied eagerly so callers can read them back via
// Orders and replace them via ClearOrder before execution.
type GormSelectQuery struct {
	db     *gorm.DB
	orders []string
}

func (g *GormSelectQuery) Model(model interface{}) common.SelectQuery {
	g.db = g.db.Model(model)
	return g
}

func (g *GormSelectQuery) Table(table string) common.SelectQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormSelectQuery) Column(columns ...string) common.SelectQuery {
	g.db = g.db.Select(columns)
	return g
}

func (g *GormSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Where(query, args...)
	return g
}

func (g *GormSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Or(query, args...)
	return g
}

func (g *GormSelectQuery) Preload(relation string, conditions ...interface{}) common.SelectQuery {
	g.db = g.db.Preload(relation, conditions...)
	return g
}

func (g *GormSelectQuery) Order(order string) common.SelectQuery {
	if order != "" {
		g.orders = append(g.orders, order)
	}
	return g
}

func (g *GormSelectQuery) ClearOrder() common.SelectQuery {
	g.orders = nil
	return g
}

func (g *GormSelectQuery) Orders() []string {
	out := make([]string, len(g.orders))
	copy(out, g.orders)
	return out
}

func (g *GormSelectQuery) Limit(n int) common.SelectQuery {
	g.db = g.db.Limit(n)
	return g
}

func (g *GormSelectQuery) Offset(n int) common.SelectQuery {
	g.db = g.db.Offset(n)
	return g
}

func (g *GormSelectQuery) Count(ctx context.Context) (int, error) {
	var count int64
	err := g.db.WithContext(ctx).Count(&count).Error
	return int(count), err
}

func (g *GormSelectQuery) Scan(ctx context.Context, dest interface{}) error {
	db := g.db.WithContext(ctx)
	for _, order := range g.orders {
		db = db.Order(order)
	}
	return db.Find(dest).Error
}
