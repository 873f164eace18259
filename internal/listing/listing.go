// Package listing derives the visible page of a resource collection and owns the collection for a management screen.
//
// [VisiblePage] is a pure function of the collection and a [ViewState]: filter by search term and category,
// stable sort by the selected field, then slice to the clamped page. [Controller] holds the fetched collection and
// the view, committing only the most recent fetch.
package listing

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// PageSize is the number of records per page on every screen.
const PageSize = 10

// Order is a sort direction.
type Order int

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "desc"
	}
	return "asc"
}

// Flip returns the opposite direction.
func (o Order) Flip() Order {
	if o == Desc {
		return Asc
	}
	return Desc
}

// ParseOrder accepts "asc" or "desc" in any case.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("%w: sort order %q", shared.ErrInvalidArgument, s)
	}
}

// ViewState holds the search, facet, sort and page selection for a screen.
// Category is only meaningful for schemas with a facet.
type ViewState struct {
	SearchTerm  string
	Category    string
	SortField   string
	SortOrder   Order
	CurrentPage int
}

// Page is one page of a filtered, sorted collection.
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	// Matched is the number of records that passed the filters.
	Matched int
	// Total is the size of the underlying collection.
	Total int
}

// TotalPages returns max(1, ceil(n/pageSize)).
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return max(1, min(page, totalPages))
}

// newCollator returns a fresh collator; collators are not safe for concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// Filter returns the records matching the view's search term and category, preserving collection order.
func Filter[T any](items []T, view ViewState, schema Schema[T]) []T {
	term := strings.ToLower(view.SearchTerm)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if schema.Keep != nil && !schema.Keep(item) {
			continue
		}
		if view.Category != "" && schema.Category != nil && !schema.Category(item, view.Category) {
			continue
		}
		if term != "" && !matches(item, term, schema.Search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches[T any](item T, term string, fields []func(T) string) bool {
	for _, get := range fields {
		if strings.Contains(strings.ToLower(get(item)), term) {
			return true
		}
	}
	return false
}

// VisiblePage filters, stably sorts and paginates items without modifying them.
// Records with equal sort keys keep their collection order in both directions.
func VisiblePage[T any](items []T, view ViewState, schema Schema[T], pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = PageSize
	}

	filtered := Filter(items, view, schema)

	if field, ok := schema.Field(view.SortField); ok {
		c := newCollator()
		slices.SortStableFunc(filtered, func(a, b T) int {
			r := field.Compare(c, a, b)
			if view.SortOrder == Desc {
				return -r
			}
			return r
		})
	}

	totalPages := TotalPages(len(filtered), pageSize)
	page := ClampPage(view.CurrentPage, totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(filtered))

	return Page[T]{
		Items:      filtered[start:end],
		Page:       page,
		TotalPages: totalPages,
		Matched:    len(filtered),
		Total:      len(items),
	}
}
