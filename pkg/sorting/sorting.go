// Package sorting maintains the ordered multi-column sort state of a
// grid: direction cycling on toggle, ORDER BY clause generation, the
// "-field" URL token form, and extraction of pre-existing sort from an
// incoming query.
package sorting

import (
	"strings"

	"github.com/bitechdev/GridSpec/pkg/common"
)

// DefaultCycle is the 3-state toggle: unsorted, ascending, descending.
var DefaultCycle = []common.SortDirection{common.SortNone, common.SortAsc, common.SortDesc}

// Toggle advances one field's direction along its cycle and returns the
// new state. Fields not yet sorted append at the end (lowest priority);
// cycling to SortNone removes the entry; other fields keep their
// relative order. The input state is not mutated.
func Toggle(state common.SortState, field string, cycle []common.SortDirection) common.SortState {
	if len(cycle) == 0 {
		cycle = DefaultCycle
	}

	next := nextDirection(state.Find(field), cycle)

	out := make(common.SortState, 0, len(state)+1)
	found := false
	for _, opt := range state {
		if opt.Field == field {
			found = true
			if next != common.SortNone {
				out = append(out, common.SortOption{Field: field, Direction: next})
			}
			continue
		}
		out = append(out, opt)
	}
	if !found && next != common.SortNone {
		out = append(out, common.SortOption{Field: field, Direction: next})
	}
	return out
}

func nextDirection(current common.SortDirection, cycle []common.SortDirection) common.SortDirection {
	for i, dir := range cycle {
		if dir == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	// Current direction not in the cycle: start it from the beginning.
	return cycle[0]
}

// OrderClause renders one sort entry as an ORDER BY fragment.
func OrderClause(field string, direction common.SortDirection) string {
	switch direction {
	case common.SortAsc:
		return field + " ASC"
	case common.SortDesc:
		return field + " DESC"
	case common.SortAscNullsFirst:
		return field + " ASC NULLS FIRST"
	case common.SortAscNullsLast:
		return field + " ASC NULLS LAST"
	case common.SortDescNullsFirst:
		return field + " DESC NULLS FIRST"
	case common.SortDescNullsLast:
		return field + " DESC NULLS LAST"
	default:
		return ""
	}
}

// FormatToken renders a sort entry in URL form: "field" ascending,
// "-field" descending. Nulls placement collapses to its base direction.
func FormatToken(opt common.SortOption) string {
	switch opt.Direction {
	case common.SortDesc, common.SortDescNullsFirst, common.SortDescNullsLast:
		return "-" + opt.Field
	case common.SortAsc, common.SortAscNullsFirst, common.SortAscNullsLast:
		return opt.Field
	default:
		return ""
	}
}

// ParseToken parses a URL sort token. Supports the "-field"/"+field"
// prefixes and trailing " asc"/" desc" for compatibility with manually
// written URLs. Empty or malformed tokens report ok=false and are
// dropped from the list, not the whole list.
func ParseToken(token string) (common.SortOption, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.SortOption{}, false
	}

	direction := common.SortAsc
	field := token

	switch {
	case strings.HasPrefix(token, "-"):
		direction = common.SortDesc
		field = strings.TrimPrefix(token, "-")
	case strings.HasPrefix(token, "+"):
		field = strings.TrimPrefix(token, "+")
	case strings.HasSuffix(strings.ToLower(token), " desc"):
		direction = common.SortDesc
		field = strings.TrimSpace(token[:len(token)-5])
	case strings.HasSuffix(strings.ToLower(token), " asc"):
		field = strings.TrimSpace(token[:len(token)-4])
	}

	if field == "" {
		return common.SortOption{}, false
	}
	return common.SortOption{Field: field, Direction: direction}, true
}

// ExtractFromQuery reads whatever ORDER BY the caller pre-attached to an
// incoming query and filters it down to the given sortable columns,
// preserving order. This seeds the grid's sort indicators on first
// render without replacing the caller's query.
func ExtractFromQuery(query common.SelectQuery, columns []common.ColumnSpec) common.SortState {
	if query == nil {
		return nil
	}

	sortable := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Sortable {
			sortable[col.Field] = true
		}
	}

	var state common.SortState
	seen := make(map[string]bool)
	for _, clause := range query.Orders() {
		opt, ok := parseOrderClause(clause)
		if !ok || !sortable[opt.Field] || seen[opt.Field] {
			continue
		}
		seen[opt.Field] = true
		state = append(state, opt)
	}
	return state
}

// parseOrderClause parses an applied ORDER BY fragment back into a sort
// entry, including nulls placement.
func parseOrderClause(clause string) (common.SortOption, bool) {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return common.SortOption{}, false
	}

	field := fields[0]
	rest := strings.ToUpper(strings.Join(fields[1:], " "))

	direction := common.SortAsc
	switch rest {
	case "", "ASC":
		direction = common.SortAsc
	case "DESC":
		direction = common.SortDesc
	case "ASC NULLS FIRST":
		direction = common.SortAscNullsFirst
	case "ASC NULLS LAST":
		direction = common.SortAscNullsLast
	case "DESC NULLS FIRST":
		direction = common.SortDescNullsFirst
	case "DESC NULLS LAST":
		direction = common.SortDescNullsLast
	default:
		return common.SortOption{}, false
	}

	return common.SortOption{Field: field, Direction: direction}, true
}
