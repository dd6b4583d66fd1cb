package filtertypes

import (
	"fmt"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
)

// BoundColumn is a ColumnSpec with its filter type resolved and its
// handler looked up once, at table-definition time. Per-event registry
// lookups are avoided and configuration errors surface at startup.
type BoundColumn struct {
	Spec    common.ColumnSpec
	Type    common.FilterType
	Handler Handler
	Path    fieldpath.FieldPath
}

// URLKey is the column's URL parameter key.
func (b BoundColumn) URLKey() string {
	return fieldpath.ToURLSafe(b.Spec.Field)
}

// BindColumns resolves every column against the registry and the
// resource descriptor. Configuration errors (unknown filter type,
// checkbox on a non-boolean field without an explicit comparison value)
// are programmer errors and fail fast; all of them are reported, not
// just the first.
func BindColumns(columns []common.ColumnSpec, resource *common.ResourceDescriptor, registry *Registry) ([]BoundColumn, error) {
	bound := make([]BoundColumn, 0, len(columns))
	var errs []string
	seen := make(map[string]bool, len(columns))

	for _, col := range columns {
		if seen[col.Field] {
			errs = append(errs, fmt.Sprintf("column %q declared twice", col.Field))
			continue
		}
		seen[col.Field] = true

		path := fieldpath.Parse(col.Field)
		b := BoundColumn{Spec: col, Path: path}

		// Relationship and embedded paths have no direct ORDER BY form;
		// sorting them needs a column-supplied clause.
		if col.Sortable && col.SortClause == nil && path.Kind != fieldpath.KindDirect {
			errs = append(errs, fmt.Sprintf("column %q cannot be sortable: %s paths require a custom sort clause", col.Field, path.Kind))
			continue
		}

		if col.Filterable {
			tag := col.FilterType
			if tag == "" {
				attr, _ := attributeFor(resource, path)
				tag = registry.InferType(attr)
			}
			handler := registry.Resolve(tag)
			if handler == nil {
				errs = append(errs, fmt.Sprintf("column %q uses unknown filter type %q", col.Field, tag))
				continue
			}
			if tag == common.FilterCheckbox {
				if err := validateCheckbox(col, path, resource); err != nil {
					errs = append(errs, err.Error())
					continue
				}
			}
			b.Type = tag
			b.Handler = handler
		}

		bound = append(bound, b)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid column configuration: %v", errs)
	}
	return bound, nil
}

// validateCheckbox enforces the explicit-value rule: a checkbox bound to
// a non-boolean field must declare the comparison value it toggles.
func validateCheckbox(col common.ColumnSpec, path fieldpath.FieldPath, resource *common.ResourceDescriptor) error {
	attr, known := attributeFor(resource, path)
	if known && attr.Kind == common.AttrBoolean {
		return nil
	}
	if col.FilterOptions != nil {
		if _, ok := col.FilterOptions["value"]; ok {
			return nil
		}
	}
	return fmt.Errorf("checkbox filter on non-boolean column %q requires an explicit value option", col.Field)
}

func attributeFor(resource *common.ResourceDescriptor, path fieldpath.FieldPath) (common.AttributeDescriptor, bool) {
	if resource == nil {
		return common.AttributeDescriptor{}, false
	}
	if attr, ok := resource.Attribute(path.Raw); ok {
		return attr, true
	}
	if attr, ok := resource.Attribute(path.Name); ok {
		return attr, true
	}
	return common.AttributeDescriptor{}, false
}
