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
	"github.com/desertthunder/reeladmin/internal/ui"
)

const tuiLogPath = "./tmp/reeladmin-tui.log"

// TUI opens the interactive management screen for one resource.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	resource := strings.ToLower(strings.TrimSpace(cmd.StringArg("resource")))
	if resource == "" {
		resource = "movies"
	}

	// Logs go to a file while the program owns the terminal.
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.connect(); err != nil {
		return err
	}

	switch resource {
	case "movies":
		return runEditable(ctx, r, listing.Movies, r.movies.List, formatter.Movies, ui.Screen[models.Movie]{
			Title:       "Movies",
			Header:      ui.MovieStatsHeader,
			SortColumns: map[string]string{"title": "Title", "year": "Year"},
		}, func(ctx context.Context, id string) error {
			_, err := r.movies.ToggleStatus(ctx, id)
			return err
		})
	case "users":
		return runEditable(ctx, r, listing.Users, r.users.List, formatter.Users, ui.Screen[models.User]{
			Title:       "Users",
			SortColumns: map[string]string{"name": "Name", "email": "Email", "contact": "Contact", "userId": "ID"},
		}, func(ctx context.Context, id string) error {
			_, err := r.users.ToggleStatus(ctx, id)
			return err
		})
	case "payments":
		return runReadOnly(ctx, r, listing.Payments, r.payments.List, formatter.Payments, ui.Screen[models.Payment]{
			Title:       "Payments",
			SortColumns: map[string]string{"amount": "Amount", "date": "Date"},
		})
	case "messages":
		return runReadOnly(ctx, r, listing.Messages, r.messages.List, formatter.Messages, ui.Screen[models.ContactMessage]{
			Title:       "Messages",
			SortColumns: map[string]string{"name": "Name", "email": "Email", "createdAt": "Received"},
		})
	default:
		return fmt.Errorf("%w: unknown resource %q (movies, users, payments or messages)", shared.ErrInvalidArgument, resource)
	}
}

// runEditable wires a coordinator so the screen can toggle records.
func runEditable[T models.Record](
	ctx context.Context, r *Runner, schema listing.Schema[T], fetch listing.Fetcher[T],
	rows func([]T) formatter.Table, screen ui.Screen[T], toggle func(ctx context.Context, id string) error,
) error {
	ctrl := listing.NewController(schema, fetch, r.logger)
	updates := make(chan tasks.Update, 16)

	screen.Controller = ctrl
	screen.Rows = rows
	screen.Toggle = toggle
	screen.Updates = updates
	screen.Coordinator = tasks.NewCoordinator(tasks.CoordinatorOpts{
		Resource: schema.Resource,
		Reload:   ctrl.Load,
		Journal:  r.journal,
		Progress: updates,
		Logger:   r.logger,
	})
	return ui.Run(ctx, screen)
}

func runReadOnly[T models.Record](
	ctx context.Context, r *Runner, schema listing.Schema[T], fetch listing.Fetcher[T],
	rows func([]T) formatter.Table, screen ui.Screen[T],
) error {
	screen.Controller = listing.NewController(schema, fetch, r.logger)
	screen.Rows = rows
	return ui.Run(ctx, screen)
}
