package filtertypes

import (
	"fmt"
	"testing"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/fieldpath"
)

func TestPipelinePanicFallsBackToText(t *testing.T) {
	registry := NewRegistry()
	h := completeFuncHandler()
	h.ProcessFunc = func(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
		panic("boom")
	}
	if err := registry.Register("rating", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p := NewPipeline(registry)
	col := common.ColumnSpec{Field: "title", FilterType: "rating"}

	value, err := p.Process(registry.Resolve("rating"), "dune", col)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if value == nil || value.Type != common.FilterText || value.Value != "dune" {
		t.Errorf("Process() = %+v, want text fallback value", value)
	}
}

func TestPipelineCustomErrorFallsBackToText(t *testing.T) {
	registry := NewRegistry()
	h := completeFuncHandler()
	h.ProcessFunc = func(raw interface{}, col common.ColumnSpec) (*common.FilterValue, error) {
		return nil, fmt.Errorf("bad input")
	}
	if err := registry.Register("rating", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p := NewPipeline(registry)
	col := common.ColumnSpec{Field: "title", FilterType: "rating"}

	value, err := p.Process(registry.Resolve("rating"), "dune", col)
	if err != nil {
		t.Fatalf("Process() error = %v, want fallback", err)
	}
	if value == nil || value.Type != common.FilterText {
		t.Errorf("Process() = %+v, want text fallback value", value)
	}
}

func TestPipelineBuiltinErrorPropagates(t *testing.T) {
	registry := NewRegistry()
	p := NewPipeline(registry)
	col := common.ColumnSpec{Field: "price", FilterType: common.FilterNumberRange}

	_, err := p.Process(registry.Resolve(common.FilterNumberRange), "abc,20", col)
	if err == nil {
		t.Fatal("Process() error = nil, want invalid endpoint error")
	}
}

func TestPipelineApplyInvalidPathNoOp(t *testing.T) {
	registry := NewRegistry()
	p := NewPipeline(registry)

	col := common.ColumnSpec{Field: "meta[:awards].title", FilterType: common.FilterText}
	value := &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "x"}

	q := &recordingQuery{}
	p.Apply(q, col, registry.Resolve(common.FilterText), value, booksResource())
	if len(q.wheres) != 0 {
		t.Errorf("invalid path produced %v, want no-op", q.wheres)
	}
}

func TestPipelineApplyPredicatePanicRestoresQuery(t *testing.T) {
	registry := NewRegistry()
	h := completeFuncHandler()
	h.PredicateFunc = func(query common.SelectQuery, path fieldpath.FieldPath, value *common.FilterValue, resource *common.ResourceDescriptor) common.SelectQuery {
		panic("boom")
	}
	if err := registry.Register("rating", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p := NewPipeline(registry)
	col := common.ColumnSpec{Field: "title", FilterType: "rating"}
	value := &common.FilterValue{Type: "rating", Operator: common.OpEquals, Value: "x"}

	q := &recordingQuery{}
	got := p.Apply(q, col, registry.Resolve("rating"), value, booksResource())
	if got != common.SelectQuery(q) {
		t.Error("Apply() after panic did not return the original query")
	}
}

func TestPipelineApplyColumnPredicateWins(t *testing.T) {
	registry := NewRegistry()
	p := NewPipeline(registry)

	col := common.ColumnSpec{
		Field:      "title",
		FilterType: common.FilterText,
		Predicate: func(query common.SelectQuery, field string, value *common.FilterValue) common.SelectQuery {
			return query.Where("custom_fts(title) MATCH ?", value.Value)
		},
	}
	value := &common.FilterValue{Type: common.FilterText, Operator: common.OpContains, Value: "dune"}

	q := &recordingQuery{}
	p.Apply(q, col, registry.Resolve(common.FilterText), value, booksResource())
	if len(q.wheres) != 1 || q.wheres[0] != "custom_fts(title) MATCH ?" {
		t.Errorf("wheres = %v, want column predicate output", q.wheres)
	}
}
