// Package urlstate maps the in-memory grid state (filters, sort,
// pagination, search) to and from a flat URL query parameter map.
// Decoding is tolerant by design: unknown or malformed parameters are
// ignored, an invalid page number defaults to 1, and an invalid sort
// token is dropped from the list rather than failing the whole decode.
package urlstate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
	"github.com/bitechdev/GridSpec/pkg/filtertypes"
	"github.com/bitechdev/GridSpec/pkg/logger"
	"github.com/bitechdev/GridSpec/pkg/paging"
	"github.com/bitechdev/GridSpec/pkg/sorting"
)

// Reserved parameter keys. Filter keys are the URL-safe field paths.
const (
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamPageSize = "page_size"
	ParamAfter    = "after"
	ParamBefore   = "before"
	ParamSearch   = "search"
)

// State is the portion of a table's state that round-trips through the
// URL.
type State struct {
	Filters    common.FilterState
	Sort       common.SortState
	Pagination common.PaginationState
	Search     string
}

// Codec encodes and decodes grid state for one table definition.
type Codec struct {
	columns  []filtertypes.BoundColumn
	pipeline *filtertypes.Pipeline

	// DefaultPageSize is omitted from the encoded form.
	DefaultPageSize int
}

func NewCodec(columns []filtertypes.BoundColumn, pipeline *filtertypes.Pipeline, defaultPageSize int) *Codec {
	if defaultPageSize <= 0 {
		defaultPageSize = paging.DefaultPageSize
	}
	return &Codec{columns: columns, pipeline: pipeline, DefaultPageSize: defaultPageSize}
}

// Encode renders the state as URL parameters. Defaults are omitted so
// the URL stays minimal: page 1, the configured page size, empty search
// and inactive filters produce no keys at all.
func (c *Codec) Encode(state State) url.Values {
	values := url.Values{}

	for _, col := range c.columns {
		fv := state.Filters[col.Spec.Field]
		if fv == nil || col.Handler == nil || col.Handler.IsEmpty(fv) {
			continue
		}
		key := col.URLKey()

		switch {
		case len(fv.Values) > 0:
			for _, v := range fv.Values {
				values.Add(key+"[]", v)
			}
		case fv.Operator == common.OpBetween:
			values.Set(key, fv.From+","+fv.To)
		case fv.Type == common.FilterCheckbox:
			// Presence means checked; the comparison value is fixed in
			// the column configuration, not the URL.
			values.Set(key, "true")
		default:
			values.Set(key, encodeScalar(fv.Value))
		}
	}

	if len(state.Sort) > 0 {
		tokens := make([]string, 0, len(state.Sort))
		for _, opt := range state.Sort {
			if tok := sorting.FormatToken(opt); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if len(tokens) > 0 {
			values.Set(ParamSort, strings.Join(tokens, ","))
		}
	}

	switch {
	case state.Pagination.AfterCursor != "":
		values.Set(ParamAfter, state.Pagination.AfterCursor)
	case state.Pagination.BeforeCursor != "":
		values.Set(ParamBefore, state.Pagination.BeforeCursor)
	case state.Pagination.CurrentPage > 1:
		values.Set(ParamPage, strconv.Itoa(state.Pagination.CurrentPage))
	}

	if state.Pagination.PageSize > 0 && state.Pagination.PageSize != c.DefaultPageSize {
		values.Set(ParamPageSize, strconv.Itoa(state.Pagination.PageSize))
	}

	if state.Search != "" {
		values.Set(ParamSearch, state.Search)
	}

	return values
}

// Decode rebuilds grid state from URL parameters.
func (c *Codec) Decode(values url.Values) State {
	state := State{
		Filters: make(common.FilterState),
		Pagination: common.PaginationState{
			Mode:        common.PageModeOffset,
			CurrentPage: 1,
			PageSize:    c.DefaultPageSize,
		},
	}

	for _, col := range c.columns {
		if col.Handler == nil {
			continue
		}
		raw, present := c.rawFilterInput(values, col)
		if !present {
			continue
		}
		fv, err := c.pipeline.Process(col.Handler, raw, col.Spec)
		if err != nil {
			logger.Debug("Ignoring malformed filter parameter for %s: %v", col.Spec.Field, err)
			continue
		}
		if fv != nil {
			state.Filters[col.Spec.Field] = fv
		}
	}

	state.Sort = c.decodeSort(values.Get(ParamSort))

	if size, err := strconv.Atoi(values.Get(ParamPageSize)); err == nil && size > 0 {
		state.Pagination.PageSize = size
	}

	// Cursors take precedence over a page number; "after" over "before".
	switch {
	case values.Get(ParamAfter) != "":
		state.Pagination.Mode = common.PageModeKeyset
		state.Pagination.SetAfter(values.Get(ParamAfter))
	case values.Get(ParamBefore) != "":
		state.Pagination.Mode = common.PageModeKeyset
		state.Pagination.SetBefore(values.Get(ParamBefore))
	default:
		if page, err := strconv.Atoi(values.Get(ParamPage)); err == nil && page >= 1 {
			state.Pagination.CurrentPage = page
		}
	}

	state.Search = values.Get(ParamSearch)

	return state
}

// rawFilterInput extracts the raw value(s) for one column, accepting
// every wire form: plain key, repeated "key[]", comma-joined lists, a
// comma-joined range pair, and discrete _from/_to or _min/_max keys.
func (c *Codec) rawFilterInput(values url.Values, col filtertypes.BoundColumn) (interface{}, bool) {
	key := col.URLKey()

	switch col.Type {
	case common.FilterMultiSelect, common.FilterMultiCheckbox:
		if list, ok := values[key+"[]"]; ok {
			return list, true
		}
		if list, ok := values[key]; ok {
			if len(list) == 1 {
				return list[0], true // comma-joined form
			}
			return list, true
		}
		return nil, false

	case common.FilterDateRange, common.FilterNumberRange:
		pair := map[string]interface{}{}
		for _, suffix := range []string{"from", "min"} {
			if v := values.Get(key + "_" + suffix); v != "" {
				pair["from"] = v
			}
		}
		for _, suffix := range []string{"to", "max"} {
			if v := values.Get(key + "_" + suffix); v != "" {
				pair["to"] = v
			}
		}
		if len(pair) > 0 {
			return pair, true
		}
		if v := values.Get(key); v != "" {
			return v, true
		}
		return nil, false

	default:
		if _, ok := values[key]; !ok {
			return nil, false
		}
		return values.Get(key), true
	}
}

// decodeSort parses the comma-joined sort parameter, dropping tokens
// that are malformed or name fields this table cannot sort by.
func (c *Codec) decodeSort(param string) common.SortState {
	if param == "" {
		return nil
	}

	sortable := make(map[string]bool, len(c.columns))
	for _, col := range c.columns {
		if col.Spec.Sortable {
			sortable[col.Spec.Field] = true
		}
	}

	var state common.SortState
	seen := make(map[string]bool)
	for _, token := range strings.Split(param, ",") {
		opt, ok := sorting.ParseToken(token)
		if !ok {
			continue
		}
		opt.Field = decodeFieldKey(opt.Field)
		if !sortable[opt.Field] || seen[opt.Field] {
			continue
		}
		seen[opt.Field] = true
		state = append(state, opt)
	}
	return state
}

func decodeFieldKey(key string) string {
	return fieldpath.FromURLSafe(key)
}

func encodeScalar(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
