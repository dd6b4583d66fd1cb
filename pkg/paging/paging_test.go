package paging

import (
	"strings"
	"testing"

	"github.com/bitechdev/GridSpec/pkg/common"
)

func TestOffsetPageInfo(t *testing.T) {
	tests := []struct {
		name        string
		total, size, page int
		wantPages   int
		wantStart   int
		wantEnd     int
		wantNext    bool
		wantPrev    bool
	}{
		{name: "middle page", total: 10, size: 3, page: 2, wantPages: 4, wantStart: 4, wantEnd: 6, wantNext: true, wantPrev: true},
		{name: "first page", total: 10, size: 3, page: 1, wantPages: 4, wantStart: 1, wantEnd: 3, wantNext: true},
		{name: "short last page", total: 10, size: 3, page: 4, wantPages: 4, wantStart: 10, wantEnd: 10, wantPrev: true},
		{name: "exact fit", total: 9, size: 3, page: 3, wantPages: 3, wantStart: 7, wantEnd: 9, wantPrev: true},
		{name: "empty result", total: 0, size: 3, page: 1, wantPages: 1, wantStart: 0, wantEnd: 0},
		{name: "single page", total: 2, size: 25, page: 1, wantPages: 1, wantStart: 1, wantEnd: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := OffsetPageInfo(tt.total, tt.size, tt.page)
			if info.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", info.TotalPages, tt.wantPages)
			}
			if info.StartIndex != tt.wantStart || info.EndIndex != tt.wantEnd {
				t.Errorf("indexes = %d..%d, want %d..%d", info.StartIndex, info.EndIndex, tt.wantStart, tt.wantEnd)
			}
			if info.HasNextPage != tt.wantNext || info.HasPreviousPage != tt.wantPrev {
				t.Errorf("next/prev = %v/%v, want %v/%v", info.HasNextPage, info.HasPreviousPage, tt.wantNext, tt.wantPrev)
			}
			if info.TotalCount == nil || *info.TotalCount != tt.total {
				t.Errorf("TotalCount = %v, want %d", info.TotalCount, tt.total)
			}
		})
	}
}

func TestOffsetPageInfoDefaults(t *testing.T) {
	info := OffsetPageInfo(100, 0, 0)
	if info.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", info.PageSize, DefaultPageSize)
	}
	if info.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", info.CurrentPage)
	}
}

func TestKeysetPageInfoForward(t *testing.T) {
	state := common.PaginationState{Mode: common.PageModeKeyset, AfterCursor: "abc"}

	info := KeysetPageInfo(5, 5, state, true)
	if !info.HasNextPage || !info.HasPreviousPage {
		t.Errorf("after-cursor with more: next/prev = %v/%v, want true/true", info.HasNextPage, info.HasPreviousPage)
	}

	info = KeysetPageInfo(3, 5, state, false)
	if info.HasNextPage || !info.HasPreviousPage {
		t.Errorf("after-cursor exhausted: next/prev = %v/%v, want false/true", info.HasNextPage, info.HasPreviousPage)
	}
}

func TestKeysetPageInfoFirstWindow(t *testing.T) {
	state := common.PaginationState{Mode: common.PageModeKeyset}

	info := KeysetPageInfo(5, 5, state, true)
	if !info.HasNextPage || info.HasPreviousPage {
		t.Errorf("first window: next/prev = %v/%v, want true/false", info.HasNextPage, info.HasPreviousPage)
	}
}

func TestKeysetPageInfoBackward(t *testing.T) {
	state := common.PaginationState{Mode: common.PageModeKeyset, BeforeCursor: "abc"}

	info := KeysetPageInfo(5, 5, state, false)
	// Travelling backwards, the page we came from is still ahead of us.
	if !info.HasNextPage || info.HasPreviousPage {
		t.Errorf("backward exhausted: next/prev = %v/%v, want true/false", info.HasNextPage, info.HasPreviousPage)
	}

	info = KeysetPageInfo(5, 5, state, true)
	if !info.HasPreviousPage {
		t.Error("backward with more rows behind: HasPreviousPage = false, want true")
	}
}

func TestFallbackPageInfo(t *testing.T) {
	info := FallbackPageInfo(5, 3, 10000)
	if !info.NonPaginated {
		t.Error("NonPaginated = false")
	}
	if info.TotalPages != 1 || info.CurrentPage != 1 {
		t.Errorf("pages = %d/%d, want single page", info.CurrentPage, info.TotalPages)
	}
	if info.StartIndex != 1 || info.EndIndex != 5 {
		t.Errorf("indexes = %d..%d, want 1..5", info.StartIndex, info.EndIndex)
	}
	if info.HasNextPage || info.HasPreviousPage {
		t.Error("fallback page reports navigation")
	}
	if info.LargeDatasetWarning {
		t.Error("LargeDatasetWarning = true below threshold")
	}

	info = FallbackPageInfo(10001, 25, 10000)
	if !info.LargeDatasetWarning {
		t.Error("LargeDatasetWarning = false above threshold")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	for _, pk := range []interface{}{int64(42), "uuid-123", 7} {
		token := EncodeCursor(pk)
		if token == "" {
			t.Fatalf("EncodeCursor(%v) = empty", pk)
		}
		decoded, ok := DecodeCursor(token)
		if !ok {
			t.Fatalf("DecodeCursor(%q) not ok", token)
		}
		if decoded == "" {
			t.Errorf("DecodeCursor(%q) = empty", token)
		}
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, token := range []string{"", "!!!not-base64!!!", "====" } {
		if _, ok := DecodeCursor(token); ok {
			t.Errorf("DecodeCursor(%q) ok = true, want false", token)
		}
	}
}

func TestCursorFilterSingleSort(t *testing.T) {
	sort := common.SortState{{Field: "year", Direction: common.SortDesc}}

	sql, args, err := CursorFilter("books", "id", sort, "42", CursorForward)
	if err != nil {
		t.Fatalf("CursorFilter() error = %v", err)
	}

	want := "EXISTS (SELECT 1 FROM books cursor_select WHERE cursor_select.id = ? AND (" +
		"(cursor_select.year > books.year) OR " +
		"(cursor_select.year = books.year AND cursor_select.id < books.id)))"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if len(args) != 1 || args[0] != "42" {
		t.Errorf("args = %v, want [42]", args)
	}
}

func TestCursorFilterBackwardReversesInequalities(t *testing.T) {
	sort := common.SortState{{Field: "year", Direction: common.SortDesc}}

	sql, _, err := CursorFilter("books", "id", sort, "42", CursorBackward)
	if err != nil {
		t.Fatalf("CursorFilter() error = %v", err)
	}

	want := "EXISTS (SELECT 1 FROM books cursor_select WHERE cursor_select.id = ? AND (" +
		"(cursor_select.year < books.year) OR " +
		"(cursor_select.year = books.year AND cursor_select.id > books.id)))"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
}

func TestCursorFilterSkipsNonDirectSorts(t *testing.T) {
	sort := common.SortState{
		{Field: "author.name", Direction: common.SortAsc},
		{Field: "year", Direction: common.SortAsc},
	}

	sql, _, err := CursorFilter("books", "id", sort, "42", CursorForward)
	if err != nil {
		t.Fatalf("CursorFilter() error = %v", err)
	}
	if want := "cursor_select.year < books.year"; !containsSQL(sql, want) {
		t.Errorf("sql = %q, want it to contain %q", sql, want)
	}
	if containsSQL(sql, "author") {
		t.Errorf("sql = %q, relationship sort leaked into cursor filter", sql)
	}
}

func TestCursorFilterPkAlreadySorted(t *testing.T) {
	sort := common.SortState{{Field: "id", Direction: common.SortDesc}}

	sql, _, err := CursorFilter("books", "id", sort, "42", CursorForward)
	if err != nil {
		t.Fatalf("CursorFilter() error = %v", err)
	}
	want := "EXISTS (SELECT 1 FROM books cursor_select WHERE cursor_select.id = ? AND ((cursor_select.id > books.id)))"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
}

func TestCursorFilterErrors(t *testing.T) {
	if _, _, err := CursorFilter("books", "id", nil, "", CursorForward); err == nil {
		t.Error("empty cursor accepted")
	}
	if _, _, err := CursorFilter("books", "", nil, "42", CursorForward); err == nil {
		t.Error("missing primary key accepted")
	}
}

func containsSQL(sql, fragment string) bool {
	return strings.Contains(sql, fragment)
}
