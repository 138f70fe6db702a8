package transport

import (
	"net/http"
	"strconv"

	"github.com/frahmantamala/helpdesk/internal"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page struct {
	Offset int
	Limit  int
}

// ParsePage reads offset (or its alias skip) and limit from the query string.
// offset must be >= 0 and limit within [1, MaxPageLimit].
func ParsePage(r *http.Request) (Page, error) {
	q := r.URL.Query()
	page := Page{Offset: 0, Limit: DefaultPageLimit}

	raw := q.Get("offset")
	if raw == "" {
		raw = q.Get("skip")
	}
	if raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Page{}, internal.NewValidationError("offset must be a non-negative integer", internal.ErrCodeInvalidPage)
		}
		page.Offset = offset
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			return Page{}, internal.NewValidationError("limit must be between 1 and 100", internal.ErrCodeInvalidPage)
		}
		page.Limit = limit
	}

	return page, nil
}

// PageResult is the list envelope returned by paginated endpoints.
type PageResult[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

func NewPageResult[T any](items []T, total int64, page Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}
}
