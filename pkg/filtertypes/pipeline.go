package filtertypes

import (
	"runtime/debug"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
	"github.com/bitechdev/GridSpec/pkg/logger"
)

// Pipeline converts raw form input into FilterValues and FilterValues
// into query predicates. Handlers run third-party code, so every call
// into one is panic-isolated: a misbehaving custom handler degrades that
// column to the built-in text handler instead of failing the table.
type Pipeline struct {
	registry *Registry
}

func NewPipeline(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Process runs the handler's Process under panic protection. On panic or
// error from a non-builtin handler it falls back to text processing for
// this input. Empty input yields (nil, nil).
func (p *Pipeline) Process(handler Handler, raw interface{}, col common.ColumnSpec) (value *common.FilterValue, err error) {
	fallback := p.registry.Resolve(common.FilterText)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Filter handler panicked processing %s: %v\n%s", col.Field, r, debug.Stack())
			value, err = fallback.Process(raw, col)
		}
	}()

	value, err = handler.Process(raw, col)
	if err != nil && handler != fallback {
		if _, builtin := p.registry.builtin[resolveTag(handler, col)]; !builtin {
			logger.Warn("Filter handler failed for %s, falling back to text: %v", col.Field, err)
			return fallback.Process(raw, col)
		}
	}
	return value, err
}

// Render runs the handler's Render under panic protection with the same
// text fallback as Process.
func (p *Pipeline) Render(handler Handler, col common.ColumnSpec, value *common.FilterValue) (spec RenderSpec, err error) {
	fallback := p.registry.Resolve(common.FilterText)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Filter handler panicked rendering %s: %v\n%s", col.Field, r, debug.Stack())
			spec, err = fallback.Render(col, value)
		}
	}()

	spec, err = handler.Render(col, value)
	if err != nil && handler != fallback {
		logger.Warn("Filter render failed for %s, falling back to text: %v", col.Field, err)
		return fallback.Render(col, value)
	}
	return spec, err
}

// Apply builds the predicate for one active filter. A column-level
// custom predicate wins over the handler's. Invalid field paths leave
// the query unchanged.
func (p *Pipeline) Apply(query common.SelectQuery, col common.ColumnSpec, handler Handler, value *common.FilterValue, resource *common.ResourceDescriptor) (result common.SelectQuery) {
	result = query
	if value == nil {
		return result
	}

	if col.Predicate != nil {
		return col.Predicate(query, col.Field, value)
	}

	path := fieldpath.Parse(col.Field)
	if path.Kind == fieldpath.KindInvalid {
		logger.Debug("Skipping filter on invalid field path %q", col.Field)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Filter predicate panicked for %s: %v\n%s", col.Field, r, debug.Stack())
			result = query
		}
	}()

	return handler.BuildPredicate(query, path, value, resource)
}

// resolveTag recovers the effective tag for a handler bound to a column.
func resolveTag(handler Handler, col common.ColumnSpec) common.FilterType {
	if col.FilterType != "" {
		return col.FilterType
	}
	return common.FilterText
}
