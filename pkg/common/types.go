package common

// FilterType identifies a filter handler in the registry.
type FilterType string

const (
	FilterText           FilterType = "text"
	FilterSelect         FilterType = "select"
	FilterMultiSelect    FilterType = "multi_select"
	FilterMultiCheckbox  FilterType = "multi_checkboxes"
	FilterBoolean        FilterType = "boolean"
	FilterRadioGroup     FilterType = "radio_group"
	FilterCheckbox       FilterType = "checkbox"
	FilterDateRange      FilterType = "date_range"
	FilterNumberRange    FilterType = "number_range"
)

// Operator is the comparison applied by a filter predicate.
type Operator string

const (
	OpEquals        Operator = "eq"
	OpNotEquals     Operator = "neq"
	OpContains      Operator = "contains"
	OpNotContains   Operator = "not_contains"
	OpStartsWith    Operator = "starts_with"
	OpNotStartsWith Operator = "not_starts_with"
	OpEndsWith      Operator = "ends_with"
	OpNotEndsWith   Operator = "not_ends_with"
	OpGreater       Operator = "gt"
	OpGreaterEqual  Operator = "gte"
	OpLess          Operator = "lt"
	OpLessEqual     Operator = "lte"
	OpIn            Operator = "in"
	OpBetween       Operator = "between"
)

// MatchMode controls multi-value matching on array-typed fields.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// FilterValue is the structured, validated form of one filter's input.
// Only the handler registered for Type produces values of that type, so
// the shape of Value/Values/From/To is consistent per tag.
type FilterValue struct {
	Type          FilterType  `json:"type"`
	Operator      Operator    `json:"operator"`
	Value         interface{} `json:"value,omitempty"`
	Values        []string    `json:"values,omitempty"`
	From          string      `json:"from,omitempty"`
	To            string      `json:"to,omitempty"`
	CaseSensitive bool        `json:"case_sensitive,omitempty"`
	MatchMode     MatchMode   `json:"match_mode,omitempty"`
}

// FilterState maps field path (raw string form) to its active filter value.
// An empty map means no filters. Entries are replaced wholesale per field.
type FilterState map[string]*FilterValue

// Clone returns a shallow copy so snapshots stay stable while the table
// keeps mutating its own state.
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// SortDirection covers the default asc/desc plus explicit nulls placement.
type SortDirection string

const (
	SortNone           SortDirection = ""
	SortAsc            SortDirection = "asc"
	SortDesc           SortDirection = "desc"
	SortAscNullsFirst  SortDirection = "asc_nulls_first"
	SortAscNullsLast   SortDirection = "asc_nulls_last"
	SortDescNullsFirst SortDirection = "desc_nulls_first"
	SortDescNullsLast  SortDirection = "desc_nulls_last"
)

type SortOption struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// SortState is ordered, primary sort first. No field appears twice.
type SortState []SortOption

func (s SortState) Clone() SortState {
	out := make(SortState, len(s))
	copy(out, s)
	return out
}

// Find returns the direction for a field, SortNone when absent.
func (s SortState) Find(field string) SortDirection {
	for _, opt := range s {
		if opt.Field == field {
			return opt.Direction
		}
	}
	return SortNone
}

// PaginationMode selects offset or keyset pagination.
type PaginationMode int

const (
	PageModeOffset PaginationMode = iota
	PageModeKeyset
)

// PaginationState tracks the current position. Cursors are mutually
// exclusive; setting one clears the other.
type PaginationState struct {
	Mode         PaginationMode `json:"mode"`
	CurrentPage  int            `json:"current_page"`
	PageSize     int            `json:"page_size"`
	AfterCursor  string         `json:"after_cursor,omitempty"`
	BeforeCursor string         `json:"before_cursor,omitempty"`
}

// Reset returns to the first page and drops any cursors. Called whenever
// filters, sort or search change, since stale cursors from a different
// filter context are not valid.
func (p *PaginationState) Reset() {
	p.CurrentPage = 1
	p.AfterCursor = ""
	p.BeforeCursor = ""
}

func (p *PaginationState) SetAfter(cursor string) {
	p.AfterCursor = cursor
	p.BeforeCursor = ""
}

func (p *PaginationState) SetBefore(cursor string) {
	p.BeforeCursor = cursor
	p.AfterCursor = ""
}

// PageInfo is the result metadata returned with every page of rows.
type PageInfo struct {
	TotalCount          *int   `json:"total_count,omitempty"`
	PageSize            int    `json:"page_size"`
	CurrentPage         int    `json:"current_page"`
	TotalPages          int    `json:"total_pages"`
	HasNextPage         bool   `json:"has_next_page"`
	HasPreviousPage     bool   `json:"has_previous_page"`
	StartIndex          int    `json:"start_index"`
	EndIndex            int    `json:"end_index"`
	StartCursor         string `json:"start_cursor,omitempty"`
	EndCursor           string `json:"end_cursor,omitempty"`
	NonPaginated        bool   `json:"non_paginated,omitempty"`
	LargeDatasetWarning bool   `json:"large_dataset_warning,omitempty"`
}

// PredicateFunc lets a column override how its filter becomes SQL.
type PredicateFunc func(query SelectQuery, field string, value *FilterValue) SelectQuery

// SortClauseFunc lets a column override its ORDER BY expression.
type SortClauseFunc func(direction SortDirection) string

// ColumnSpec declares one displayable/filterable/sortable field. Created
// once per table definition and immutable afterwards.
type ColumnSpec struct {
	Field         string
	Label         string
	Filterable    bool
	FilterType    FilterType // empty means inferred from the attribute type
	FilterOptions map[string]interface{}
	Sortable      bool
	SortCycle     []SortDirection // custom toggle cycle, SortNone = "no sort"
	SortClause    SortClauseFunc
	Predicate     PredicateFunc
}

// AttrKind is the declared type of a resource attribute, used to infer a
// default filter type and to validate checkbox configuration.
type AttrKind string

const (
	AttrString   AttrKind = "string"
	AttrInteger  AttrKind = "integer"
	AttrFloat    AttrKind = "float"
	AttrBoolean  AttrKind = "boolean"
	AttrDate     AttrKind = "date"
	AttrDateTime AttrKind = "datetime"
	AttrArray    AttrKind = "array"
	AttrMap      AttrKind = "map"
)

// AttributeDescriptor describes one attribute of the target resource.
type AttributeDescriptor struct {
	Name string
	Kind AttrKind
	Enum []string // one-of constraint, drives select inference
}

// RelationSpec describes one hop to a related table. JoinColumn lives on
// the related table, ParentColumn on the table the hop starts from.
type RelationSpec struct {
	Name         string
	Table        string
	JoinColumn   string
	ParentColumn string
}

// ResourceDescriptor is everything the engine needs to know about the
// target data resource. The caller builds it once per table definition.
type ResourceDescriptor struct {
	Table         string
	PrimaryKey    string
	Model         interface{} // struct instance rows are scanned into
	Attributes    map[string]AttributeDescriptor
	Relations     map[string]RelationSpec
	SearchColumns []string

	// SupportsPagination false triggers the in-memory fallback path.
	SupportsPagination bool
	// SupportsKeyset enables cursor pagination for this resource.
	SupportsKeyset bool
}

func (rd *ResourceDescriptor) Attribute(name string) (AttributeDescriptor, bool) {
	attr, ok := rd.Attributes[name]
	return attr, ok
}

func (rd *ResourceDescriptor) Relation(name string) (RelationSpec, bool) {
	rel, ok := rd.Relations[name]
	return rel, ok
}
