package domain

import "strings"

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// PageRequest is the normalized page/limit pair shared by list queries.
type PageRequest struct {
	Page  int
	Limit int
}

// NormalizePage clamps page to >= 1 and limit to [1, max], using def when unset.
func NormalizePage(page, limit, def, max int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string, def SortOrder) SortOrder {
	switch SortOrder(strings.ToLower(s)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	}
	return def
}
