package database

import "github.com/huynhanx03/go-repository/pkg/filter"

// PageRequest describes one page of a filtered, sorted result set.
// Page < 1 is treated as 1; Limit < 1 falls back to Options.DefaultLimit.
type PageRequest struct {
	Page   int
	Limit  int
	Sort   []Sort
	Filter filter.Expression
}

// Page is a page of entities plus totals. Total counts all matching records
// ignoring page/limit; TotalPages is ceil(Total/Limit), zero when Total is.
type Page struct {
	Items      []Entity `json:"items"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

func (req *PageRequest) normalize(defaultLimit int) (page, limit int) {
	page = req.Page
	if page < 1 {
		page = 1
	}
	limit = req.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
