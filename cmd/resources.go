package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/listing"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
	"github.com/desertthunder/reeladmin/internal/tasks"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// applyListFlags copies --search, --genre, --sort and --order onto ctrl. --page is applied after the load, once
// the page count is known.
func applyListFlags[T models.Record](ctrl *listing.Controller[T], cmd *cli.Command) error {
	if term := cmd.String("search"); term != "" {
		ctrl.SetSearchTerm(term)
	}
	if genre := cmd.String("genre"); genre != "" {
		ctrl.SetCategory(genre)
	}

	view := ctrl.View()
	field, order := view.SortField, view.SortOrder
	if cmd.IsSet("sort") {
		field = cmd.String("sort")
		f, ok := ctrl.Schema().Field(field)
		if !ok {
			return fmt.Errorf("%w: %q (one of %s)", shared.ErrInvalidSortField, field, strings.Join(ctrl.Schema().FieldNames(), ", "))
		}
		order = f.DefaultOrder
	}
	if cmd.IsSet("order") {
		var err error
		if order, err = listing.ParseOrder(cmd.String("order")); err != nil {
			return err
		}
	}
	return ctrl.SetSort(field, order)
}

// listResource fetches a collection and prints the page selected by the list flags.
func listResource[T models.Record](ctx context.Context, r *Runner, cmd *cli.Command, schema listing.Schema[T], fetch listing.Fetcher[T], rows func([]T) formatter.Table) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ctrl := listing.NewController(schema, fetch, r.logger)
	if err := applyListFlags(ctrl, cmd); err != nil {
		return err
	}
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	if n := cmd.Int("page"); n > 1 {
		ctrl.SetPage(n)
	}

	page := ctrl.VisiblePage()
	if err := formatter.Write(r.output, format, rows(page.Items), page.Items); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if format == formatter.Text {
		return r.writePlainln("%s", formatter.PageFooter(page.Page, page.TotalPages, page.Matched, page.Total))
	}
	return nil
}

// toggle runs a status toggle through a [tasks.Coordinator] so it is journaled like TUI mutations.
func (r *Runner) toggle(ctx context.Context, resource, id string, fn func(ctx context.Context, id string) error) error {
	coord := tasks.NewCoordinator(tasks.CoordinatorOpts{
		Resource: resource,
		Journal:  r.journal,
		Logger:   r.logger,
	})
	return coord.Toggle(ctx, id, fn)
}

// MoviesList prints a page of the catalog.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	return listResource(ctx, r, cmd, listing.Movies, r.movies.List, formatter.Movies)
}

// MoviesToggle flips a movie between active and inactive.
func (r *Runner) MoviesToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	var movie *models.Movie
	err = r.toggle(ctx, "movies", id, func(ctx context.Context, id string) error {
		var err error
		movie, err = r.movies.ToggleStatus(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s is now %s\n", movie.Title, shared.StatusString(movie.IsActive))
}

// UsersList prints a page of user accounts.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	return listResource(ctx, r, cmd, listing.Users, r.users.List, formatter.Users)
}

// UsersToggle flips a user between active and inactive.
func (r *Runner) UsersToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	var user *models.User
	err = r.toggle(ctx, "users", id, func(ctx context.Context, id string) error {
		var err error
		user, err = r.users.ToggleStatus(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s is now %s\n", user.FullName(), shared.StatusString(user.IsActive))
}

// PaymentsList prints a page of payments, newest first by default.
func (r *Runner) PaymentsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	return listResource(ctx, r, cmd, listing.Payments, r.payments.List, formatter.Payments)
}

// MessagesList prints a page of contact messages.
func (r *Runner) MessagesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	return listResource(ctx, r, cmd, listing.Messages, r.messages.List, formatter.Messages)
}
