package listing

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// Fetcher loads the full collection for a resource.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Controller owns one screen's collection and view. It is safe for concurrent use.
//
// Every [Controller.Load] takes a sequence number; a result, success or failure, is committed only when no later
// load was issued in the meantime. Stale results are dropped and that Load returns nil.
type Controller[T models.Record] struct {
	mu       sync.Mutex
	schema   Schema[T]
	fetch    Fetcher[T]
	pageSize int
	logger   *log.Logger

	items   []T
	view    ViewState
	issued  uint64
	loading bool
	loaded  bool
	err     error
}

// NewController creates a controller with the schema's initial view and [PageSize].
func NewController[T models.Record](schema Schema[T], fetch Fetcher[T], logger *log.Logger) *Controller[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller[T]{
		schema:   schema,
		fetch:    fetch,
		pageSize: PageSize,
		logger:   logger,
		view:     schema.InitialView(),
	}
}

// Load fetches the collection and commits it if this is still the latest load.
// On failure the previous collection is kept and the error returned.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.loading = true
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		c.logger.Debug("discarding stale fetch", "resource", c.schema.Resource, "seq", seq, "latest", c.issued)
		return nil
	}

	c.loading = false
	if err != nil {
		c.err = err
		return err
	}

	c.items = items
	c.loaded = true
	c.err = nil
	c.reclamp()
	c.logger.Debug("collection loaded", "resource", c.schema.Resource, "seq", seq, "count", len(items))
	return nil
}

// reclamp keeps CurrentPage within bounds. Callers hold mu.
func (c *Controller[T]) reclamp() {
	matched := len(Filter(c.items, c.view, c.schema))
	c.view.CurrentPage = ClampPage(c.view.CurrentPage, TotalPages(matched, c.pageSize))
}

// SetSearchTerm changes the search term and returns to the first page.
func (c *Controller[T]) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.SearchTerm = term
	c.view.CurrentPage = 1
}

// SetCategory changes the facet value ("" for all) and returns to the first page.
func (c *Controller[T]) SetCategory(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Category = value
	c.view.CurrentPage = 1
}

// ToggleSort flips the order when field is already selected, otherwise selects field with its default order.
// The current page is left alone.
func (c *Controller[T]) ToggleSort(field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.schema.Field(field)
	if !ok {
		return fmt.Errorf("%w: %q for %s", shared.ErrInvalidSortField, field, c.schema.Resource)
	}

	if c.view.SortField == field {
		c.view.SortOrder = c.view.SortOrder.Flip()
	} else {
		c.view.SortField = field
		c.view.SortOrder = f.DefaultOrder
	}
	return nil
}

// SetSort selects a field and order directly.
func (c *Controller[T]) SetSort(field string, order Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.schema.Field(field); !ok {
		return fmt.Errorf("%w: %q for %s", shared.ErrInvalidSortField, field, c.schema.Resource)
	}
	c.view.SortField = field
	c.view.SortOrder = order
	return nil
}

// SetPage moves to page n, clamped to the available pages. It reports whether the page changed.
func (c *Controller[T]) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := len(Filter(c.items, c.view, c.schema))
	page := ClampPage(n, TotalPages(matched, c.pageSize))
	changed := page != c.view.CurrentPage
	c.view.CurrentPage = page
	return changed
}

// NextPage and PrevPage step one page, reporting whether they moved.
func (c *Controller[T]) NextPage() bool { return c.SetPage(c.View().CurrentPage + 1) }
func (c *Controller[T]) PrevPage() bool { return c.SetPage(c.View().CurrentPage - 1) }

// VisiblePage derives the current page from the collection and view.
func (c *Controller[T]) VisiblePage() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return VisiblePage(c.items, c.view, c.schema, c.pageSize)
}

// Items returns a copy of the committed collection.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Find returns the committed record with the given key.
func (c *Controller[T]) Find(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Categories lists the facet values present in the collection, or nil when the schema has no facet.
func (c *Controller[T]) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schema.Categories == nil {
		return nil
	}
	return c.schema.Categories(c.items)
}

// View returns the current view.
func (c *Controller[T]) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Schema returns the schema the controller was built with.
func (c *Controller[T]) Schema() Schema[T] { return c.schema }

// Err returns the error of the last committed load, if it failed.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Loading reports whether the latest load is still outstanding.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Loaded reports whether any load has been committed successfully.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}
