package common

import "context"

// Database abstracts the underlying ORM so the engine works with GORM,
// Bun, or anything else that can build select queries.
type Database interface {
	NewSelect() SelectQuery
	Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// SelectQuery is a chainable select builder. Implementations must track
// applied ORDER BY entries so pre-attached sort can be read back with
// Orders and replaced via ClearOrder.
type SelectQuery interface {
	Model(model interface{}) SelectQuery
	Table(table string) SelectQuery
	Column(columns ...string) SelectQuery
	Where(query string, args ...interface{}) SelectQuery
	WhereOr(query string, args ...interface{}) SelectQuery
	Preload(relation string, conditions ...interface{}) SelectQuery
	Order(order string) SelectQuery
	ClearOrder() SelectQuery
	Orders() []string
	Limit(n int) SelectQuery
	Offset(n int) SelectQuery
	Count(ctx context.Context) (int, error)
	Scan(ctx context.Context, dest interface{}) error
}

// TableNameProvider is implemented by models that carry their own table
// name (GORM's TableName convention).
type TableNameProvider interface {
	TableName() string
}
