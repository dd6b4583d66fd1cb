package gridspec

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/filtertypes"
	"github.com/bitechdev/GridSpec/pkg/logger"
	"github.com/bitechdev/GridSpec/pkg/paging"
	"github.com/bitechdev/GridSpec/pkg/sorting"
	"github.com/google/uuid"
)

// QueryResult is what one query execution produces: a page of rows plus
// metadata, or a structured error with an empty row set. Execution
// failures never propagate out of the builder.
type QueryResult struct {
	Rows     []interface{}
	PageInfo common.PageInfo
	Err      error
}

// buildAndExecute assembles and runs the composed query in the fixed
// order: base query options, filters, sort (replacing any pre-attached
// sort), pagination, execute. Panics from the resource layer are
// captured and converted into the error result.
func (t *Table) buildAndExecute(ctx context.Context, state queryState) (result *QueryResult) {
	queryID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("Panic executing grid query",
				"table", t.resource.Table, "query_id", queryID,
				"panic", r, "stack", string(debug.Stack()))
			result = t.errorResult(state, fmt.Errorf("query panic: %v", r))
		}
	}()

	slicePtr, err := common.NewSliceOf(t.resource.Model)
	if err != nil {
		return t.errorResult(state, err)
	}

	query := t.newBaseQuery(slicePtr)
	query = t.applyFilters(query, state)
	query = t.applySort(query, state.Sort)

	switch {
	case !t.resource.SupportsPagination:
		result = t.executeFallback(ctx, query, slicePtr, state)
	case state.Pagination.Mode == common.PageModeKeyset && t.resource.SupportsKeyset:
		result = t.executeKeyset(ctx, query, slicePtr, state)
	default:
		result = t.executeOffset(ctx, query, slicePtr, state)
	}

	if result.Err != nil {
		logger.Errorw("Grid query failed",
			"table", t.resource.Table, "query_id", queryID,
			"filters", len(state.Filters), "sort", state.Sort,
			"page", state.Pagination.CurrentPage, "error", result.Err)
	}
	return result
}

// queryState is the immutable snapshot of table state one execution
// runs against, so an in-flight query is unaffected by newer events.
type queryState struct {
	Filters    common.FilterState
	Sort       common.SortState
	Pagination common.PaginationState
	Search     string
}

func (t *Table) newBaseQuery(slicePtr interface{}) common.SelectQuery {
	query := t.db.NewSelect().Model(slicePtr)

	// Only set Table() when the model does not name its own table.
	modelType := reflect.TypeOf(t.resource.Model)
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	tmp := reflect.New(modelType).Interface()
	if provider, ok := tmp.(common.TableNameProvider); !ok || provider.TableName() == "" {
		query = query.Table(t.resource.Table)
	}

	if len(t.opts.SelectColumns) > 0 {
		query = query.Column(t.opts.SelectColumns...)
	}
	for _, relation := range t.opts.Preload {
		query = query.Preload(relation)
	}

	// Caller hook for eager-load hints and actor/tenant scoping. The
	// engine passes it through without interpreting it.
	if t.opts.BaseQuery != nil {
		query = t.opts.BaseQuery(query)
	}
	return query
}

func (t *Table) applyFilters(query common.SelectQuery, state queryState) common.SelectQuery {
	for _, col := range t.columns {
		fv := state.Filters[col.Spec.Field]
		if fv == nil || col.Handler == nil {
			continue
		}
		logger.Debug("Applying filter: %s %s", col.Spec.Field, fv.Operator)
		query = t.pipeline.Apply(query, col.Spec, col.Handler, fv, t.resource)
	}
	return filtertypes.ApplySearch(query, t.resource, state.Search)
}

// applySort drops whatever sort the base query carried and applies the
// grid's own. UI-driven sort always wins to avoid double-sort artifacts.
func (t *Table) applySort(query common.SelectQuery, sort common.SortState) common.SelectQuery {
	query = query.ClearOrder()
	for _, opt := range sort {
		query = query.Order(t.orderClause(opt, false))
	}
	return query
}

func (t *Table) orderClause(opt common.SortOption, reversed bool) string {
	direction := opt.Direction
	if reversed {
		direction = reverseDirection(direction)
	}
	if col := t.column(opt.Field); col != nil && col.Spec.SortClause != nil {
		return col.Spec.SortClause(direction)
	}
	return sorting.OrderClause(opt.Field, direction)
}

func reverseDirection(d common.SortDirection) common.SortDirection {
	switch d {
	case common.SortAsc:
		return common.SortDesc
	case common.SortDesc:
		return common.SortAsc
	case common.SortAscNullsFirst:
		return common.SortDescNullsLast
	case common.SortAscNullsLast:
		return common.SortDescNullsFirst
	case common.SortDescNullsFirst:
		return common.SortAscNullsLast
	case common.SortDescNullsLast:
		return common.SortAscNullsFirst
	default:
		return d
	}
}

func (t *Table) executeOffset(ctx context.Context, query common.SelectQuery, slicePtr interface{}, state queryState) *QueryResult {
	pageSize := state.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = t.opts.PageSize
	}
	page := state.Pagination.CurrentPage
	if page < 1 {
		page = 1
	}

	total, err := query.Count(ctx)
	if err != nil {
		return t.errorResult(state, err)
	}

	query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	if err := query.Scan(ctx, slicePtr); err != nil {
		return t.errorResult(state, err)
	}

	rows := common.SliceRows(slicePtr)
	info := paging.OffsetPageInfo(total, pageSize, page)
	t.attachCursors(&info, rows)
	return &QueryResult{Rows: rows, PageInfo: info}
}

func (t *Table) executeKeyset(ctx context.Context, query common.SelectQuery, slicePtr interface{}, state queryState) *QueryResult {
	pageSize := state.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = t.opts.PageSize
	}

	backward := state.Pagination.BeforeCursor != ""
	token := state.Pagination.AfterCursor
	if backward {
		token = state.Pagination.BeforeCursor
	}

	if token != "" {
		cursorValue, ok := paging.DecodeCursor(token)
		if !ok {
			// Malformed cursors restart from the beginning.
			logger.Warn("Ignoring malformed cursor on %s", t.resource.Table)
			backward = false
		} else {
			direction := paging.CursorForward
			if backward {
				direction = paging.CursorBackward
			}
			filter, args, err := paging.CursorFilter(t.resource.Table, t.resource.PrimaryKey, state.Sort, cursorValue, direction)
			if err != nil {
				return t.errorResult(state, err)
			}
			query = query.Where(filter, args...)
		}
	}

	// Travelling backwards flips the sort so the window directly before
	// the cursor is fetched, then rows are un-flipped in memory.
	query = query.ClearOrder()
	for _, opt := range state.Sort {
		query = query.Order(t.orderClause(opt, backward))
	}
	query = query.Order(t.pkOrderClause(state.Sort, backward))

	// One row beyond the page signals another page in this direction.
	query = query.Limit(pageSize + 1)
	if err := query.Scan(ctx, slicePtr); err != nil {
		return t.errorResult(state, err)
	}

	rows := common.SliceRows(slicePtr)
	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	if backward {
		reverseRows(rows)
	}

	info := paging.KeysetPageInfo(len(rows), pageSize, state.Pagination, hasMore)
	t.attachCursors(&info, rows)
	return &QueryResult{Rows: rows, PageInfo: info}
}

// pkOrderClause appends the primary key as a deterministic tiebreaker
// unless the sort already includes it.
func (t *Table) pkOrderClause(sort common.SortState, reversed bool) string {
	for _, opt := range sort {
		if opt.Field == t.resource.PrimaryKey {
			return ""
		}
	}
	direction := common.SortAsc
	if reversed {
		direction = common.SortDesc
	}
	return sorting.OrderClause(t.resource.PrimaryKey, direction)
}

// executeFallback serves resources without native pagination: fetch the
// whole result once and return it as a single page, warning operators
// when it exceeds the configured threshold.
func (t *Table) executeFallback(ctx context.Context, query common.SelectQuery, slicePtr interface{}, state queryState) *QueryResult {
	if err := query.Scan(ctx, slicePtr); err != nil {
		return t.errorResult(state, err)
	}

	rows := common.SliceRows(slicePtr)
	info := paging.FallbackPageInfo(len(rows), state.Pagination.PageSize, t.opts.LargeDatasetThreshold)
	if info.LargeDatasetWarning {
		logger.Warnw("Non-paginated fetch exceeds threshold",
			"table", t.resource.Table, "rows", len(rows),
			"threshold", t.opts.LargeDatasetThreshold)
	}
	return &QueryResult{Rows: rows, PageInfo: info}
}

// attachCursors records the window's boundary cursors so next/previous
// navigation can be derived from the just-fetched page.
func (t *Table) attachCursors(info *common.PageInfo, rows []interface{}) {
	if len(rows) == 0 || !t.resource.SupportsKeyset {
		return
	}
	info.StartCursor = paging.EncodeCursor(common.PrimaryKeyValue(rows[0]))
	info.EndCursor = paging.EncodeCursor(common.PrimaryKeyValue(rows[len(rows)-1]))
}

func (t *Table) errorResult(state queryState, err error) *QueryResult {
	pageSize := state.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = t.opts.PageSize
	}
	return &QueryResult{
		Rows: []interface{}{},
		PageInfo: common.PageInfo{
			PageSize:    pageSize,
			CurrentPage: state.Pagination.CurrentPage,
			TotalPages:  1,
		},
		Err: err,
	}
}

func reverseRows(rows []interface{}) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func (t *Table) column(field string) *filtertypes.BoundColumn {
	for i := range t.columns {
		if t.columns[i].Spec.Field == field {
			return &t.columns[i]
		}
	}
	return nil
}
