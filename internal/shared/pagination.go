package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Page is a requested window of a listing.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// PageFromRequest reads ?page= and ?per_page= with sane bounds.
func PageFromRequest(r *http.Request) Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return NewPage(number, perPage)
}

// NewPage clamps number and perPage.
func NewPage(number, perPage int) Page {
	if number <= 0 {
		number = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page Page, total int) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(page.PerPage)))
	return Pagination{Page: page.Number, PerPage: page.PerPage, Total: total, TotalPages: totalPages}
}
