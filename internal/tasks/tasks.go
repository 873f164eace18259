package tasks

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

// Journal records the history of mutations. repositories.MutationRepository satisfies it.
type Journal interface {
	Create(m *models.MutationRecord) error
	Update(m *models.MutationRecord) error
}

// Action is a named mutation against one record.
type Action struct {
	Name string
	Do   func(ctx context.Context) error
}

// ToggleAction names the status toggle every management screen offers.
const ToggleAction = "toggle-status"

// CoordinatorOpts configures a [Coordinator].
type CoordinatorOpts struct {
	// Resource names the collection in logs, errors and the journal.
	Resource string
	// Reload refetches the owning collection after a successful mutation; typically a Controller's Load.
	Reload   func(ctx context.Context) error
	Journal  Journal
	Progress chan<- Update
	Logger   *log.Logger
}

// Coordinator owns the in-flight set for one resource family. It is safe for concurrent use.
type Coordinator struct {
	resource string
	reload   func(ctx context.Context) error
	journal  Journal
	progress chan<- Update
	logger   *log.Logger

	mu        sync.Mutex
	inFlight  map[string]struct{}
	observers []func(id string, inFlight bool)
}

// NewCoordinator creates a [Coordinator].
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{
		resource: opts.Resource,
		reload:   opts.Reload,
		journal:  opts.Journal,
		progress: opts.Progress,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Run performs action for the record id.
//
// It fails with [shared.ErrMutationInFlight], without calling the action, when id is already in flight. The mark is
// cleared once the action returns, whatever the outcome. Action errors are returned unchanged. After a success the
// collection is reloaded; a reload failure is logged and left for the collection's owner to report, since the
// mutation itself went through.
func (c *Coordinator) Run(ctx context.Context, id string, action Action) error {
	if !c.acquire(id) {
		err := fmt.Errorf("%w: %s %s", shared.ErrMutationInFlight, c.resource, id)
		c.logger.Debug("mutation rejected", "resource", c.resource, "id", id, "action", action.Name)
		sendUpdate(c.progress, mutationRejectedUpdate(c.resource, id, action.Name, err))
		return err
	}

	record := c.begin(id, action.Name)
	err := c.perform(ctx, id, action)
	c.finish(record, err)

	if err != nil {
		c.logger.Warn("mutation failed", "resource", c.resource, "id", id, "action", action.Name, "error", err)
		sendUpdate(c.progress, mutationFailedUpdate(c.resource, id, action.Name, err))
		return err
	}

	c.logger.Info("mutation succeeded", "resource", c.resource, "id", id, "action", action.Name)
	sendUpdate(c.progress, mutationSucceededUpdate(c.resource, id, action.Name))

	if c.reload != nil {
		rerr := c.reload(ctx)
		if rerr != nil {
			c.logger.Warn("reload after mutation failed", "resource", c.resource, "error", rerr)
		}
		sendUpdate(c.progress, reloadedUpdate(c.resource, id, rerr))
	}
	return nil
}

// Toggle runs fn as the status toggle for id.
func (c *Coordinator) Toggle(ctx context.Context, id string, fn func(ctx context.Context, id string) error) error {
	return c.Run(ctx, id, Action{
		Name: ToggleAction,
		Do:   func(ctx context.Context) error { return fn(ctx, id) },
	})
}

func (c *Coordinator) perform(ctx context.Context, id string, action Action) error {
	defer c.release(id)
	sendUpdate(c.progress, mutationStartedUpdate(c.resource, id, action.Name))
	return action.Do(ctx)
}

func (c *Coordinator) acquire(id string) bool {
	c.mu.Lock()
	if _, busy := c.inFlight[id]; busy {
		c.mu.Unlock()
		return false
	}
	c.inFlight[id] = struct{}{}
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(id, true)
	}
	return true
}

func (c *Coordinator) release(id string) {
	c.mu.Lock()
	delete(c.inFlight, id)
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(id, false)
	}
}

// begin journals a running entry. Journal failures never block the mutation.
func (c *Coordinator) begin(id, action string) *models.MutationRecord {
	if c.journal == nil {
		return nil
	}
	record := models.NewMutationRecord(c.resource, id, action)
	if err := c.journal.Create(record); err != nil {
		c.logger.Warn("failed to journal mutation", "resource", c.resource, "id", id, "error", err)
		return nil
	}
	return record
}

func (c *Coordinator) finish(record *models.MutationRecord, err error) {
	if record == nil {
		return
	}
	record.Complete(err)
	if jerr := c.journal.Update(record); jerr != nil {
		c.logger.Warn("failed to journal mutation result", "id", record.ID, "error", jerr)
	}
}

// InFlight reports whether a mutation for id is outstanding.
func (c *Coordinator) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id]
	return ok
}

// Pending lists the ids in flight, sorted.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.inFlight))
	for id := range c.inFlight {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// OnChange registers fn to be called whenever an id enters or leaves the in-flight set.
// Observers run outside the coordinator's lock.
func (c *Coordinator) OnChange(fn func(id string, inFlight bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Resource returns the resource name the coordinator was built with.
func (c *Coordinator) Resource() string { return c.resource }
