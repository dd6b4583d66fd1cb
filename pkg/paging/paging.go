// Package paging tracks pagination state and computes page metadata for
// offset mode, keyset (cursor) mode, and the in-memory fallback used
// when the target resource has no native pagination support.
package paging

import (
	"encoding/base64"
	"fmt"

	"github.com/bitechdev/GridSpec/pkg/common"
)

const (
	// DefaultPageSize applies when the caller configures none.
	DefaultPageSize = 25

	// DefaultLargeDatasetThreshold is the row count above which the
	// non-paginated fallback raises its operator warning flag.
	DefaultLargeDatasetThreshold = 10000
)

// OffsetPageInfo computes metadata for offset pagination. Indexes are
// 1-based inclusive bounds of the current page within the full result.
func OffsetPageInfo(totalCount, pageSize, currentPage int) common.PageInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if currentPage < 1 {
		currentPage = 1
	}

	totalPages := (totalCount + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (currentPage-1)*pageSize + 1
	end := currentPage * pageSize
	if end > totalCount {
		end = totalCount
	}
	if totalCount == 0 {
		start, end = 0, 0
	}

	return common.PageInfo{
		TotalCount:      &totalCount,
		PageSize:        pageSize,
		CurrentPage:     currentPage,
		TotalPages:      totalPages,
		HasNextPage:     currentPage < totalPages,
		HasPreviousPage: currentPage > 1,
		StartIndex:      start,
		EndIndex:        end,
	}
}

// KeysetPageInfo derives metadata from the fetched window instead of a
// computed page count: hasMore is the resource's "one row beyond the
// page existed" flag for the direction travelled.
func KeysetPageInfo(rowCount, pageSize int, state common.PaginationState, hasMore bool) common.PageInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	info := common.PageInfo{
		PageSize:   pageSize,
		StartIndex: 0,
		EndIndex:   0,
	}
	if rowCount > 0 {
		info.StartIndex = 1
		info.EndIndex = rowCount
	}

	if state.BeforeCursor != "" {
		// Travelling backwards: there is by definition a page after us.
		info.HasNextPage = true
		info.HasPreviousPage = hasMore
	} else {
		info.HasPreviousPage = state.AfterCursor != ""
		info.HasNextPage = hasMore
	}
	return info
}

// FallbackPageInfo covers resources without native pagination: the full
// result set is returned as one page, and datasets above the threshold
// flag a warning for operators since unpaginated full scans are a
// performance hazard.
func FallbackPageInfo(rowCount, pageSize, threshold int) common.PageInfo {
	if threshold <= 0 {
		threshold = DefaultLargeDatasetThreshold
	}

	start := 0
	end := 0
	if rowCount > 0 {
		start = 1
		end = rowCount
	}

	return common.PageInfo{
		TotalCount:          &rowCount,
		PageSize:            pageSize,
		CurrentPage:         1,
		TotalPages:          1,
		HasNextPage:         false,
		HasPreviousPage:     false,
		StartIndex:          start,
		EndIndex:            end,
		NonPaginated:        true,
		LargeDatasetWarning: rowCount > threshold,
	}
}

// EncodeCursor renders a row's primary key as an opaque cursor token.
func EncodeCursor(pk interface{}) string {
	if pk == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%v", pk)))
}

// DecodeCursor reverses EncodeCursor. Malformed tokens are treated as
// "no cursor" rather than an error.
func DecodeCursor(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}
