package main

import (
	"context"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/tasks"
)

// exportSources adapts each resource service to a [tasks.ExportSource].
func (r *Runner) exportSources() []tasks.ExportSource {
	return []tasks.ExportSource{
		{Name: "movies", Fetch: func(ctx context.Context) (formatter.Table, any, error) {
			movies, err := r.movies.List(ctx)
			return formatter.Movies(movies), movies, err
		}},
		{Name: "users", Fetch: func(ctx context.Context) (formatter.Table, any, error) {
			users, err := r.users.List(ctx)
			return formatter.Users(users), users, err
		}},
		{Name: "payments", Fetch: func(ctx context.Context) (formatter.Table, any, error) {
			payments, err := r.payments.List(ctx)
			return formatter.Payments(payments), payments, err
		}},
		{Name: "messages", Fetch: func(ctx context.Context) (formatter.Table, any, error) {
			messages, err := r.messages.List(ctx)
			return formatter.Messages(messages), messages, err
		}},
	}
}

// Export writes every resource collection to files in the output directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	progress := make(chan tasks.Update, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			if u.Phase == tasks.ExportStarted {
				continue
			}
			r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
		}
	}()

	result, err := tasks.BulkExport(ctx, progress, r.exportSources(), tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
	})
	close(progress)
	wg.Wait()

	if result != nil {
		r.writePlainln("✓ Exported %d of %d resources to %s", result.Successful, result.Total, result.OutputDirectory)
	}
	return err
}
