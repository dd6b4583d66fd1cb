// Package gridspec ties the filter, sort and pagination engines together
// into a Table: a stateful controller for one data grid. The host feeds
// it UI events, the table rebuilds and re-runs its query asynchronously,
// and the host reads consistent snapshots of rows plus state.
package gridspec

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/filtertypes"
	"github.com/bitechdev/GridSpec/pkg/logger"
	"github.com/bitechdev/GridSpec/pkg/paging"
	"github.com/bitechdev/GridSpec/pkg/sorting"
	"github.com/bitechdev/GridSpec/pkg/urlstate"
)

// EventKind names a UI interaction the table reacts to.
type EventKind string

const (
	EventFilterChanged   EventKind = "filter-changed"
	EventFilterCleared   EventKind = "filter-cleared"
	EventSortToggled     EventKind = "sort-toggled"
	EventPageChanged     EventKind = "page-changed"
	EventNextPage        EventKind = "next-page"
	EventPreviousPage    EventKind = "previous-page"
	EventPageSizeChanged EventKind = "page-size-changed"
	EventSearchChanged   EventKind = "search-changed"
)

// Event is one UI interaction. Which fields matter depends on Kind:
// Field and Value for filter events, Field for sort toggles, Page and
// PageSize for pagination, Value (string) for search.
type Event struct {
	Kind     EventKind
	Field    string
	Value    interface{}
	Page     int
	PageSize int
}

// TableOptions configures optional behavior; the zero value works.
type TableOptions struct {
	// Registry supplies filter handlers. Nil means built-ins only.
	Registry *filtertypes.Registry

	PageSize              int
	PaginationMode        common.PaginationMode
	LargeDatasetThreshold int

	// Preload and SelectColumns seed every query built by the table.
	Preload       []string
	SelectColumns []string

	// BaseQuery runs after the table's own base options on every query,
	// for eager-load hints and actor/tenant scoping. The table passes the
	// query through without inspecting what the hook adds.
	BaseQuery func(q common.SelectQuery) common.SelectQuery
}

// Snapshot is a point-in-time copy of everything the host renders.
// While a query is in flight Loading is true and Rows/PageInfo hold the
// previous result.
type Snapshot struct {
	Rows     []interface{}
	PageInfo common.PageInfo
	Filters  common.FilterState
	Sort     common.SortState
	Search   string
	Loading  bool
	Err      error
}

// Table is the stateful grid controller. Methods are safe for
// concurrent use; query execution happens on background tasks with
// last-writer-wins result application.
type Table struct {
	db       common.Database
	resource *common.ResourceDescriptor
	columns  []filtertypes.BoundColumn
	pipeline *filtertypes.Pipeline
	codec    *urlstate.Codec
	opts     TableOptions

	mu       sync.Mutex
	filters  common.FilterState
	sort     common.SortState
	page     common.PaginationState
	search   string
	rows     []interface{}
	pageInfo common.PageInfo
	loading  bool
	lastErr  error

	tasks         dispatcher
	onStateChange func(url.Values)
}

// NewTable validates the table definition and returns a ready table.
// Configuration problems are programmer errors and fail here, all of
// them reported at once, rather than surfacing row by row later.
func NewTable(db common.Database, resource *common.ResourceDescriptor, columns []common.ColumnSpec, opts TableOptions) (*Table, error) {
	if db == nil {
		return nil, fmt.Errorf("gridspec: database is required")
	}
	if resource == nil || resource.Table == "" || resource.Model == nil {
		return nil, fmt.Errorf("gridspec: resource descriptor with table name and model is required")
	}
	if _, err := common.NewSliceOf(resource.Model); err != nil {
		return nil, fmt.Errorf("gridspec: invalid model for %s: %w", resource.Table, err)
	}
	if err := validateSearchColumns(resource); err != nil {
		return nil, err
	}

	registry := opts.Registry
	if registry == nil {
		registry = filtertypes.NewRegistry()
	}
	if errs := registry.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("gridspec: invalid filter registry: %v", errs)
	}

	bound, err := filtertypes.BindColumns(columns, resource, registry)
	if err != nil {
		return nil, fmt.Errorf("gridspec: %w", err)
	}

	if opts.PageSize <= 0 {
		opts.PageSize = paging.DefaultPageSize
	}
	if opts.LargeDatasetThreshold <= 0 {
		opts.LargeDatasetThreshold = paging.DefaultLargeDatasetThreshold
	}
	if opts.PaginationMode == common.PageModeKeyset && !resource.SupportsKeyset {
		logger.Warn("Resource %s does not support keyset pagination, using offset", resource.Table)
		opts.PaginationMode = common.PageModeOffset
	}

	pipeline := filtertypes.NewPipeline(registry)
	t := &Table{
		db:       db,
		resource: resource,
		columns:  bound,
		pipeline: pipeline,
		codec:    urlstate.NewCodec(bound, pipeline, opts.PageSize),
		opts:     opts,
		filters:  make(common.FilterState),
		page: common.PaginationState{
			Mode:        opts.PaginationMode,
			CurrentPage: 1,
			PageSize:    opts.PageSize,
		},
	}
	return t, nil
}

// validateSearchColumns checks the declared search columns against the
// model's actual columns. A typo here would otherwise surface as a SQL
// error on the first search instead of at table definition time.
func validateSearchColumns(resource *common.ResourceDescriptor) error {
	if len(resource.SearchColumns) == 0 {
		return nil
	}
	known := make(map[string]bool)
	for _, col := range common.ModelColumns(resource.Model) {
		known[col] = true
	}
	var missing []string
	for _, col := range resource.SearchColumns {
		if !known[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("gridspec: search columns %v not present on model for %s", missing, resource.Table)
	}
	return nil
}

// Columns exposes the resolved column definitions, e.g. for rendering
// filter controls via the pipeline.
func (t *Table) Columns() []filtertypes.BoundColumn {
	return t.columns
}

// Pipeline returns the filter pipeline bound to this table's registry.
func (t *Table) Pipeline() *filtertypes.Pipeline {
	return t.pipeline
}

// OnStateChange registers a listener called with the URL-encoded state
// after every accepted event, so the host can sync the address bar.
func (t *Table) OnStateChange(fn func(url.Values)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStateChange = fn
}

// Snapshot returns a consistent copy of the current state and result.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Rows:     t.rows,
		PageInfo: t.pageInfo,
		Filters:  t.filters.Clone(),
		Sort:     t.sort.Clone(),
		Search:   t.search,
		Loading:  t.loading,
		Err:      t.lastErr,
	}
}

// EncodeState returns the current state as URL parameters.
func (t *Table) EncodeState() url.Values {
	t.mu.Lock()
	state := t.urlState()
	t.mu.Unlock()
	return t.codec.Encode(state)
}

// LoadFromParams replaces the table state with one decoded from URL
// parameters, typically on initial page load, then runs the query.
func (t *Table) LoadFromParams(ctx context.Context, values url.Values) {
	decoded := t.codec.Decode(values)

	t.mu.Lock()
	t.filters = decoded.Filters
	t.sort = decoded.Sort
	t.search = decoded.Search
	t.page = decoded.Pagination
	if t.page.Mode == common.PageModeKeyset && !t.resource.SupportsKeyset {
		t.page.Mode = common.PageModeOffset
		t.page.Reset()
	}
	t.mu.Unlock()

	t.Refresh(ctx)
}

// SeedSortFromQuery adopts the ORDER BY already attached to a query as
// the initial sort state, so a pre-sorted base query and the grid's
// sort indicators start out agreeing.
func (t *Table) SeedSortFromQuery(query common.SelectQuery) {
	specs := make([]common.ColumnSpec, len(t.columns))
	for i, col := range t.columns {
		specs[i] = col.Spec
	}
	seeded := sorting.ExtractFromQuery(query, specs)
	t.mu.Lock()
	t.sort = seeded
	t.mu.Unlock()
}

// HandleEvent applies one UI event to the state and starts the
// re-query. State mutation is synchronous; the previous rows stay
// visible until the new result lands.
func (t *Table) HandleEvent(ctx context.Context, ev Event) {
	t.mu.Lock()
	accepted := t.applyEvent(ev)
	if !accepted {
		t.mu.Unlock()
		return
	}
	notify := t.onStateChange
	var encoded url.Values
	if notify != nil {
		encoded = t.codec.Encode(t.urlState())
	}
	t.mu.Unlock()

	if notify != nil {
		notify(encoded)
	}
	t.Refresh(ctx)
}

// applyEvent mutates state for one event. Caller holds t.mu. Returns
// false for events that change nothing (unknown fields, page clamped to
// where it already is), which skip the re-query.
func (t *Table) applyEvent(ev Event) bool {
	switch ev.Kind {
	case EventFilterChanged:
		col := t.column(ev.Field)
		if col == nil || col.Handler == nil {
			logger.Warn("Ignoring filter event for unknown column %q", ev.Field)
			return false
		}
		fv, err := t.pipeline.Process(col.Handler, ev.Value, col.Spec)
		if err != nil {
			logger.Warn("Rejecting filter input for %s: %v", ev.Field, err)
			return false
		}
		if fv == nil {
			delete(t.filters, ev.Field)
		} else {
			t.filters[ev.Field] = fv
		}
		t.page.Reset()
		return true

	case EventFilterCleared:
		if ev.Field == "" {
			if len(t.filters) == 0 {
				return false
			}
			t.filters = make(common.FilterState)
		} else {
			if _, ok := t.filters[ev.Field]; !ok {
				return false
			}
			delete(t.filters, ev.Field)
		}
		t.page.Reset()
		return true

	case EventSortToggled:
		col := t.column(ev.Field)
		if col == nil || !col.Spec.Sortable {
			logger.Warn("Ignoring sort event for unsortable column %q", ev.Field)
			return false
		}
		t.sort = sorting.Toggle(t.sort, ev.Field, col.Spec.SortCycle)
		t.page.Reset()
		return true

	case EventPageChanged:
		page := ev.Page
		if page < 1 {
			page = 1
		}
		if t.page.Mode == common.PageModeKeyset || page == t.page.CurrentPage {
			return false
		}
		t.page.CurrentPage = page
		return true

	case EventNextPage:
		if t.page.Mode == common.PageModeKeyset {
			if !t.pageInfo.HasNextPage || t.pageInfo.EndCursor == "" {
				return false
			}
			t.page.SetAfter(t.pageInfo.EndCursor)
			return true
		}
		if !t.pageInfo.HasNextPage {
			return false
		}
		t.page.CurrentPage++
		return true

	case EventPreviousPage:
		if t.page.Mode == common.PageModeKeyset {
			if !t.pageInfo.HasPreviousPage || t.pageInfo.StartCursor == "" {
				return false
			}
			t.page.SetBefore(t.pageInfo.StartCursor)
			return true
		}
		if t.page.CurrentPage <= 1 {
			return false
		}
		t.page.CurrentPage--
		return true

	case EventPageSizeChanged:
		size := ev.PageSize
		if size <= 0 {
			size = t.opts.PageSize
		}
		if size == t.page.PageSize {
			return false
		}
		t.page.PageSize = size
		// A resize invalidates both page numbers and cursors.
		t.page.Reset()
		return true

	case EventSearchChanged:
		term, _ := ev.Value.(string)
		if term == t.search {
			return false
		}
		t.search = term
		t.page.Reset()
		return true

	default:
		logger.Warn("Ignoring unknown grid event %q", ev.Kind)
		return false
	}
}

// Refresh re-runs the query against the current state. Any in-flight
// query is superseded.
func (t *Table) Refresh(ctx context.Context) {
	t.mu.Lock()
	t.loading = true
	state := queryState{
		Filters:    t.filters.Clone(),
		Sort:       t.sort.Clone(),
		Pagination: t.page,
		Search:     t.search,
	}
	t.mu.Unlock()

	t.tasks.Dispatch(ctx, func(ctx context.Context) *QueryResult {
		return t.buildAndExecute(ctx, state)
	}, t.applyResult)
}

// QueryParams decodes URL parameters and executes the resulting query
// synchronously, without touching the table's own state. This is the
// entry point for server-side rendering, where each request carries its
// full state in the URL and nothing persists between requests.
func (t *Table) QueryParams(ctx context.Context, values url.Values) *QueryResult {
	decoded := t.codec.Decode(values)
	if decoded.Pagination.Mode == common.PageModeKeyset && !t.resource.SupportsKeyset {
		decoded.Pagination.Mode = common.PageModeOffset
		decoded.Pagination.Reset()
	}
	return t.buildAndExecute(ctx, queryState{
		Filters:    decoded.Filters,
		Sort:       decoded.Sort,
		Pagination: decoded.Pagination,
		Search:     decoded.Search,
	})
}

// Cancel aborts any in-flight query without replacing the shown rows.
func (t *Table) Cancel() {
	t.tasks.Cancel()
	t.mu.Lock()
	t.loading = false
	t.mu.Unlock()
}

func (t *Table) applyResult(result *QueryResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
	t.lastErr = result.Err
	if result.Err != nil {
		// Keep the previous rows on screen; the host decides how to
		// surface the error from the snapshot.
		return
	}
	t.rows = result.Rows
	t.pageInfo = result.PageInfo
	if t.page.Mode == common.PageModeOffset && result.PageInfo.CurrentPage > 0 {
		t.page.CurrentPage = result.PageInfo.CurrentPage
	}
}

func (t *Table) urlState() urlstate.State {
	return urlstate.State{
		Filters:    t.filters,
		Sort:       t.sort,
		Pagination: t.page,
		Search:     t.search,
	}
}
