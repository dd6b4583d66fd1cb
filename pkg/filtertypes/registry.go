// Package filtertypes implements the pluggable filter-type system: a
// registry of handlers keyed by filter-type tag, the built-in handlers,
// the raw-input processing pipeline, and FieldPath-aware predicate
// building against a SelectQuery.
package filtertypes

import (
	"fmt"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
)

// RenderSpec describes how a filter control should be rendered. The
// engine never produces markup; the host rendering layer consumes this.
type RenderSpec struct {
	Control  string                 `json:"control"`
	Options  map[string]interface{} `json:"options,omitempty"`
	Choices  []Choice               `json:"choices,omitempty"`
	Selected interface{}            `json:"selected,omitempty"`
}

// Choice is one selectable option of a select-style control.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Handler is the full capability set a filter type must implement.
type Handler interface {
	// DefaultOptions returns the handler's default FilterOptions.
	DefaultOptions() map[string]interface{}
	// Process converts raw form input into a structured FilterValue.
	// (nil, nil) means the input is empty and the filter is inactive.
	Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error)
	// Validate reports whether a structured value has the shape this
	// handler produces.
	Validate(value *common.FilterValue) bool
	// IsEmpty reports whether the value would not constrain the query.
	IsEmpty(value *common.FilterValue) bool
	// Render describes the filter control for the host rendering layer.
	Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error)
	// BuildPredicate applies the filter to the query, dispatching on the
	// field path variant. Invalid paths leave the query unchanged.
	BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery
}

// Registry maps filter-type tags to handlers. Built-ins are sealed;
// custom handlers register once at application startup, before any table
// is created, so lookups need no synchronization afterwards.
type Registry struct {
	handlers map[common.FilterType]Handler
	builtin  map[common.FilterType]bool
}

// NewRegistry returns a registry pre-populated with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[common.FilterType]Handler),
		builtin:  make(map[common.FilterType]bool),
	}

	builtins := map[common.FilterType]Handler{
		common.FilterText:          &textHandler{},
		common.FilterSelect:        &selectHandler{},
		common.FilterMultiSelect:   &multiSelectHandler{tag: common.FilterMultiSelect},
		common.FilterMultiCheckbox: &multiSelectHandler{tag: common.FilterMultiCheckbox},
		common.FilterRadioGroup:    &radioGroupHandler{tag: common.FilterRadioGroup},
		common.FilterBoolean:       &radioGroupHandler{tag: common.FilterBoolean, boolean: true},
		common.FilterCheckbox:      &checkboxHandler{},
		common.FilterDateRange:     &rangeHandler{tag: common.FilterDateRange},
		common.FilterNumberRange:   &rangeHandler{tag: common.FilterNumberRange},
	}
	for tag, h := range builtins {
		r.handlers[tag] = h
		r.builtin[tag] = true
	}
	return r
}

// Register adds a custom handler. Re-registering a built-in tag or
// registering a handler with missing capabilities is rejected.
func (r *Registry) Register(tag common.FilterType, handler Handler) error {
	if tag == "" {
		return fmt.Errorf("filter type tag cannot be empty")
	}
	if r.builtin[tag] {
		return fmt.Errorf("filter type %q is built-in and cannot be replaced", tag)
	}
	if handler == nil {
		return fmt.Errorf("handler for filter type %q is nil", tag)
	}
	if missing := missingCapabilities(handler); len(missing) > 0 {
		return fmt.Errorf("handler for filter type %q is missing capabilities: %v", tag, missing)
	}
	r.handlers[tag] = handler
	return nil
}

// Resolve returns the handler for a tag, or nil when unknown.
func (r *Registry) Resolve(tag common.FilterType) Handler {
	return r.handlers[tag]
}

// DefaultOptions delegates to the tag's handler. Unknown tags get nil.
func (r *Registry) DefaultOptions(tag common.FilterType) map[string]interface{} {
	if h := r.handlers[tag]; h != nil {
		return h.DefaultOptions()
	}
	return nil
}

// InferType picks a default filter type from an attribute descriptor.
// Precedence: one-of constraint, array, date family, boolean, numeric,
// then text.
func (r *Registry) InferType(attr common.AttributeDescriptor) common.FilterType {
	switch {
	case len(attr.Enum) > 0:
		return common.FilterSelect
	case attr.Kind == common.AttrArray:
		return common.FilterMultiSelect
	case attr.Kind == common.AttrDate || attr.Kind == common.AttrDateTime:
		return common.FilterDateRange
	case attr.Kind == common.AttrBoolean:
		return common.FilterBoolean
	case attr.Kind == common.AttrInteger || attr.Kind == common.AttrFloat:
		return common.FilterNumberRange
	default:
		return common.FilterText
	}
}

// Validate enumerates every registered custom handler and collects all
// capability problems instead of stopping at the first. Meant to run at
// application startup.
func (r *Registry) Validate() []error {
	var errs []error
	for tag, h := range r.handlers {
		if r.builtin[tag] {
			continue
		}
		if h == nil {
			errs = append(errs, fmt.Errorf("filter type %q has nil handler", tag))
			continue
		}
		for _, capability := range missingCapabilities(h) {
			errs = append(errs, fmt.Errorf("filter type %q is missing capability %q", tag, capability))
		}
	}
	return errs
}

// FuncHandler assembles a handler from individual functions, the usual
// way applications register custom filter types. Nil fields show up as
// missing capabilities at registration and startup validation.
type FuncHandler struct {
	DefaultOptionsFunc func() map[string]interface{}
	ProcessFunc        func(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error)
	ValidateFunc       func(value *common.FilterValue) bool
	IsEmptyFunc        func(value *common.FilterValue) bool
	RenderFunc         func(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error)
	PredicateFunc      func(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery
}

func (f *FuncHandler) DefaultOptions() map[string]interface{} {
	if f.DefaultOptionsFunc == nil {
		return nil
	}
	return f.DefaultOptionsFunc()
}

func (f *FuncHandler) Process(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
	if f.ProcessFunc == nil {
		return nil, fmt.Errorf("process capability not implemented")
	}
	return f.ProcessFunc(raw, col)
}

func (f *FuncHandler) Validate(value *common.FilterValue) bool {
	if f.ValidateFunc == nil {
		return false
	}
	return f.ValidateFunc(value)
}

func (f *FuncHandler) IsEmpty(value *common.FilterValue) bool {
	if f.IsEmptyFunc == nil {
		return value == nil
	}
	return f.IsEmptyFunc(value)
}

func (f *FuncHandler) Render(col common.ColumnSpec, value *common.FilterValue) (RenderSpec, error) {
	if f.RenderFunc == nil {
		return RenderSpec{}, fmt.Errorf("render capability not implemented")
	}
	return f.RenderFunc(col, value)
}

func (f *FuncHandler) BuildPredicate(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
	if f.PredicateFunc == nil {
		return query
	}
	return f.PredicateFunc(query, path, value, resource)
}

func missingCapabilities(h Handler) []string {
	fh, ok := h.(*FuncHandler)
	if !ok {
		// Statically typed handlers satisfy the interface by construction.
		return nil
	}
	var missing []string
	if fh.DefaultOptionsFunc == nil {
		missing = append(missing, "default_options")
	}
	if fh.ProcessFunc == nil {
		missing = append(missing, "process")
	}
	if fh.ValidateFunc == nil {
		missing = append(missing, "validate")
	}
	if fh.IsEmptyFunc == nil {
		missing = append(missing, "empty")
	}
	if fh.RenderFunc == nil {
		missing = append(missing, "render")
	}
	if fh.PredicateFunc == nil {
		missing = append(missing, "build_predicate")
	}
	return missing
}
