package filtertypes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
)

// leafExpr returns the SQL expression for a path's leaf value relative
// to the given table: a plain column for direct fields, JSON extraction
// for embedded ones.
func leafExpr(table string, path fieldpath.FieldPath) string {
	if path.Container == "" {
		return table + "." + path.Name
	}
	expr := table + "." + path.Container
	for i, name := range path.Path {
		if i == len(path.Path)-1 {
			expr += "->>'" + name + "'"
		} else {
			expr += "->'" + name + "'"
		}
	}
	return expr
}

// relationExists wraps a leaf condition in nested EXISTS subqueries, one
// per relationship hop. Hops are resolved against the descriptor by
// dotted path ("author", "author.publisher"). Unknown hops report false
// and the caller leaves the query unchanged.
func relationExists(resource *common.ResourceDescriptor, relations []string, leafCond func(table string) (string, []interface{}, bool)) (string, []interface{}, bool) {
	return relationHop(resource, resource.Table, "", relations, leafCond)
}

func relationHop(resource *common.ResourceDescriptor, parentTable, pathPrefix string, remaining []string, leafCond func(table string) (string, []interface{}, bool)) (string, []interface{}, bool) {
	key := pathPrefix + remaining[0]
	rel, ok := resource.Relation(key)
	if !ok {
		return "", nil, false
	}

	var innerSQL string
	var innerArgs []interface{}
	if len(remaining) == 1 {
		innerSQL, innerArgs, ok = leafCond(rel.Table)
	} else {
		innerSQL, innerArgs, ok = relationHop(resource, rel.Table, key+".", remaining[1:], leafCond)
	}
	if !ok {
		return "", nil, false
	}

	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s.%s = %s.%s AND (%s))",
		rel.Table, rel.Table, rel.JoinColumn, parentTable, rel.ParentColumn, innerSQL)
	return sql, innerArgs, true
}

// comparisonSQL renders one operator into SQL with placeholders. Text
// comparisons honor the case-sensitivity toggle by lowering both sides.
func comparisonSQL(expr string, value *common.FilterValue) (string, []interface{}, bool) {
	insensitive := value.Type == common.FilterText && !value.CaseSensitive

	like := func(pattern string, negate bool) (string, []interface{}, bool) {
		op := "LIKE"
		if negate {
			op = "NOT LIKE"
		}
		if insensitive {
			return fmt.Sprintf("LOWER(%s) %s LOWER(?)", expr, op), []interface{}{pattern}, true
		}
		return fmt.Sprintf("%s %s ?", expr, op), []interface{}{pattern}, true
	}

	term := rawString(value.Value)

	switch value.Operator {
	case common.OpEquals:
		if insensitive {
			return fmt.Sprintf("LOWER(%s) = LOWER(?)", expr), []interface{}{value.Value}, true
		}
		return expr + " = ?", []interface{}{value.Value}, true
	case common.OpNotEquals:
		if insensitive {
			return fmt.Sprintf("LOWER(%s) <> LOWER(?)", expr), []interface{}{value.Value}, true
		}
		return expr + " <> ?", []interface{}{value.Value}, true
	case common.OpContains:
		return like("%"+term+"%", false)
	case common.OpNotContains:
		return like("%"+term+"%", true)
	case common.OpStartsWith:
		return like(term+"%", false)
	case common.OpNotStartsWith:
		return like(term+"%", true)
	case common.OpEndsWith:
		return like("%"+term, false)
	case common.OpNotEndsWith:
		return like("%"+term, true)
	case common.OpGreater:
		return expr + " > ?", []interface{}{value.Value}, true
	case common.OpGreaterEqual:
		return expr + " >= ?", []interface{}{value.Value}, true
	case common.OpLess:
		return expr + " < ?", []interface{}{value.Value}, true
	case common.OpLessEqual:
		return expr + " <= ?", []interface{}{value.Value}, true
	case common.OpIn:
		if len(value.Values) == 0 {
			return "", nil, false
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(value.Values)), ", ")
		args := make([]interface{}, len(value.Values))
		for i, v := range value.Values {
			args[i] = v
		}
		return fmt.Sprintf("%s IN (%s)", expr, placeholders), args, true
	default:
		return "", nil, false
	}
}

// rangeSQL renders a between value as one or two bound conditions.
// Number endpoints are bound as floats so numeric columns compare
// numerically rather than lexically.
func rangeSQL(expr string, value *common.FilterValue) (string, []interface{}, bool) {
	bind := func(endpoint string) interface{} {
		if value.Type == common.FilterNumberRange {
			if f, err := strconv.ParseFloat(endpoint, 64); err == nil {
				return f
			}
		}
		return endpoint
	}

	var conds []string
	var args []interface{}
	if value.From != "" {
		conds = append(conds, expr+" >= ?")
		args = append(args, bind(value.From))
	}
	if value.To != "" {
		conds = append(conds, expr+" <= ?")
		args = append(args, bind(value.To))
	}
	if len(conds) == 0 {
		return "", nil, false
	}
	return strings.Join(conds, " AND "), args, true
}

// applyLeaf dispatches on the path variant: relationship variants get an
// EXISTS wrapper, everything else applies at the root table. Invalid
// paths and unresolvable relations leave the query unchanged, which is
// the documented degrade-safe policy for user-driven input.
func applyLeaf(query common.SelectQuery, path fieldpath.FieldPath, resource *common.ResourceDescriptor, leafCond func(table string) (string, []interface{}, bool)) common.SelectQuery {
	switch path.Kind {
	case fieldpath.KindDirect, fieldpath.KindEmbedded, fieldpath.KindNestedEmbedded:
		sql, args, ok := leafCond(resource.Table)
		if !ok {
			return query
		}
		return query.Where(sql, args...)
	case fieldpath.KindRelationship, fieldpath.KindRelationshipEmbedded, fieldpath.KindRelationshipNestedEmbedded:
		sql, args, ok := relationExists(resource, path.Relations, leafCond)
		if !ok {
			return query
		}
		return query.Where(sql, args...)
	default:
		return query
	}
}

func applyComparison(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	if value == nil {
		return query
	}
	return applyLeaf(query, path, resource, func(table string) (string, []interface{}, bool) {
		return comparisonSQL(leafExpr(table, path), value)
	})
}

func applyRange(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	if value == nil {
		return query
	}
	return applyLeaf(query, path, resource, func(table string) (string, []interface{}, bool) {
		return rangeSQL(leafExpr(table, path), value)
	})
}

// applyMultiValue handles IN semantics. Array-typed target fields get
// JSON containment with any/all match modes; scalar fields always use a
// plain IN regardless of match mode.
func applyMultiValue(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	if value == nil || len(value.Values) == 0 {
		return query
	}

	array := false
	if attr, ok := resource.Attribute(path.Raw); ok {
		array = attr.Kind == common.AttrArray
	} else if attr, ok := resource.Attribute(path.Name); ok {
		array = attr.Kind == common.AttrArray
	}

	if !array {
		return applyComparison(query, path, value, resource)
	}

	return applyLeaf(query, path, resource, func(table string) (string, []interface{}, bool) {
		expr := leafExpr(table, path)
		if value.MatchMode == common.MatchAll {
			// Containment of every selected value: one JSON1 probe each.
			conds := make([]string, 0, len(value.Values))
			args := make([]interface{}, 0, len(value.Values))
			for _, v := range value.Values {
				conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", expr))
				args = append(args, v)
			}
			return strings.Join(conds, " AND "), args, true
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(value.Values)), ", ")
		args := make([]interface{}, len(value.Values))
		for i, v := range value.Values {
			args[i] = v
		}
		sql := fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value IN (%s))", expr, placeholders)
		return sql, args, true
	})
}

// ApplySearch ORs a case-insensitive contains across the resource's
// declared search columns. Empty terms and resources without search
// columns leave the query unchanged.
func ApplySearch(query common.SelectQuery, resource *common.ResourceDescriptor, term string) common.SelectQuery {
	term = strings.TrimSpace(term)
	if term == "" || len(resource.SearchColumns) == 0 {
		return query
	}

	conds := make([]string, 0, len(resource.SearchColumns))
	args := make([]interface{}, 0, len(resource.SearchColumns))
	for _, col := range resource.SearchColumns {
		conds = append(conds, fmt.Sprintf("LOWER(%s.%s) LIKE LOWER(?)", resource.Table, col))
		args = append(args, "%"+term+"%")
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}
