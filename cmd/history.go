package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/formatter"
)

// History prints the local mutation journal, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	if days := cmd.Int("prune-days"); days > 0 {
		n, err := r.journal.Prune(time.Now().AddDate(0, 0, -days))
		if err != nil {
			return err
		}
		r.logger.Info("pruned mutation history", "deleted", n, "days", days)
	}

	records, err := r.journal.List(map[string]any{
		"resource":   cmd.String("resource"),
		"record_key": cmd.String("record"),
		"status":     cmd.String("status"),
		"limit":      cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if len(records) == 0 && format == formatter.Text {
		return r.writePlain("No mutations recorded.\n")
	}
	return formatter.Write(r.output, format, formatter.Mutations(records), records)
}
