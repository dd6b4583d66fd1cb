package paging

import (
	"fmt"
	"strings"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
	"github.com/bitechdev/GridSpec/pkg/logger"
)

// CursorDirection defines keyset navigation direction.
type CursorDirection int

const (
	CursorForward  CursorDirection = 1
	CursorBackward CursorDirection = -1
)

// CursorFilter generates a sort-aware SQL EXISTS predicate for keyset
// pagination: it selects the rows positioned after (or before) the row
// whose primary key the cursor names, under the current sort order.
//
// Only direct sort fields participate; relationship or embedded sort
// entries are skipped. The primary key is always appended as a unique
// tiebreaker so rows with equal sort values page deterministically.
//
// Returns the SQL snippet and its bind argument (the cursor's primary
// key value) to embed in a WHERE clause.
func CursorFilter(table, pkName string, sort common.SortState, cursorValue string, direction CursorDirection) (string, []interface{}, error) {
	if cursorValue == "" {
		return "", nil, fmt.Errorf("no cursor provided for table %s", table)
	}
	if pkName == "" {
		return "", nil, fmt.Errorf("no primary key defined for table %s", table)
	}

	type sortCol struct {
		field string
		desc  bool
	}

	var cols []sortCol
	pkSorted := false
	for _, opt := range sort {
		path := fieldpath.Parse(opt.Field)
		if path.Kind != fieldpath.KindDirect {
			logger.Warn("Skipping non-direct sort column %q in cursor filter", opt.Field)
			continue
		}
		desc := opt.Direction == common.SortDesc ||
			opt.Direction == common.SortDescNullsFirst ||
			opt.Direction == common.SortDescNullsLast
		cols = append(cols, sortCol{field: path.Name, desc: desc})
		if path.Name == pkName {
			pkSorted = true
		}
	}
	if !pkSorted {
		cols = append(cols, sortCol{field: pkName, desc: false})
	}

	reverse := direction == CursorBackward

	// Priority chain: strict inequality on column i, equality on all
	// columns before it, OR'd together.
	var orClauses []string
	for i, col := range cols {
		var ands []string
		for _, prev := range cols[:i] {
			ands = append(ands, fmt.Sprintf("cursor_select.%s = %s.%s", prev.field, table, prev.field))
		}
		op := "<"
		if col.desc != reverse {
			op = ">"
		}
		ands = append(ands, fmt.Sprintf("cursor_select.%s %s %s.%s", col.field, op, table, col.field))
		orClauses = append(orClauses, "("+strings.Join(ands, " AND ")+")")
	}

	query := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s cursor_select WHERE cursor_select.%s = ? AND (%s))",
		table, pkName, strings.Join(orClauses, " OR "),
	)

	return query, []interface{}{cursorValue}, nil
}
