package filtertypes

import (
	"strings"
	"testing"

	"github.com/bitechdev/GridSpec/pkg/common"
)

func TestBindColumnsInfersTypes(t *testing.T) {
	resource := booksResource()
	columns := []common.ColumnSpec{
		{Field: "title", Filterable: true},
		{Field: "tags", Filterable: true},
		{Field: "year", Filterable: true, FilterType: common.FilterNumberRange},
		{Field: "label_only"},
	}

	bound, err := BindColumns(columns, resource, NewRegistry())
	if err != nil {
		t.Fatalf("BindColumns() error = %v", err)
	}
	if len(bound) != 4 {
		t.Fatalf("got %d bound columns, want 4", len(bound))
	}

	if bound[0].Type != common.FilterText {
		t.Errorf("title inferred %q, want text", bound[0].Type)
	}
	if bound[1].Type != common.FilterMultiSelect {
		t.Errorf("tags inferred %q, want multi_select", bound[1].Type)
	}
	if bound[2].Type != common.FilterNumberRange {
		t.Errorf("year bound %q, want number_range", bound[2].Type)
	}
	if bound[3].Handler != nil {
		t.Error("non-filterable column got a handler")
	}
}

func TestBindColumnsCollectsAllErrors(t *testing.T) {
	resource := booksResource()
	columns := []common.ColumnSpec{
		{Field: "title", Filterable: true, FilterType: "no_such_type"},
		{Field: "genre", Filterable: true, FilterType: common.FilterCheckbox}, // non-bool, no value option
		{Field: "year", Filterable: true},
		{Field: "year", Filterable: true}, // duplicate
	}

	_, err := BindColumns(columns, resource, NewRegistry())
	if err == nil {
		t.Fatal("BindColumns() error = nil, want three configuration errors")
	}
	for _, fragment := range []string{"no_such_type", "checkbox", "declared twice"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %q", err, fragment)
		}
	}
}

func TestBindColumnsCheckboxWithExplicitValue(t *testing.T) {
	resource := booksResource()
	columns := []common.ColumnSpec{
		{Field: "genre", Filterable: true, FilterType: common.FilterCheckbox,
			FilterOptions: map[string]interface{}{"value": "scifi"}},
	}

	if _, err := BindColumns(columns, resource, NewRegistry()); err != nil {
		t.Fatalf("BindColumns() error = %v, want checkbox accepted with explicit value", err)
	}
}

func TestBindColumnsRejectsSortableNonDirectPaths(t *testing.T) {
	resource := booksResource()

	for _, field := range []string{"author.name", "meta[:awards]"} {
		_, err := BindColumns([]common.ColumnSpec{{Field: field, Sortable: true}}, resource, NewRegistry())
		if err == nil {
			t.Errorf("BindColumns accepted sortable %q without a sort clause", field)
		}
	}

	// A column-supplied clause makes non-direct sort legitimate.
	columns := []common.ColumnSpec{{
		Field:    "author.name",
		Sortable: true,
		SortClause: func(direction common.SortDirection) string {
			return "(SELECT name FROM authors WHERE authors.id = books.author_id) " + strings.ToUpper(string(direction))
		},
	}}
	if _, err := BindColumns(columns, resource, NewRegistry()); err != nil {
		t.Errorf("BindColumns() error = %v, want custom sort clause accepted", err)
	}
}

func TestBoundColumnURLKey(t *testing.T) {
	b := BoundColumn{Spec: common.ColumnSpec{Field: "meta[:awards]"}}
	if got := b.URLKey(); got != "meta__awards" {
		t.Errorf("URLKey() = %q, want meta__awards", got)
	}
}
