// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/formatter"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, csv or markdown",
		Value:   string(formatter.Text),
	}
}

// listFlags are shared by every list subcommand. Genre is added for movies only.
func listFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Case-insensitive search term"},
		&cli.StringFlag{Name: "sort", Usage: "Field to sort by"},
		&cli.StringFlag{Name: "order", Usage: "Sort order: asc or desc"},
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Page to show", Value: 1},
		formatFlag(),
	}
	return append(flags, extra...)
}

func movieFormFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Movie title"},
		&cli.IntFlag{Name: "year", Usage: "Release year"},
		&cli.StringFlag{Name: "genres", Usage: "Comma separated genres"},
		&cli.StringFlag{Name: "description", Usage: "Synopsis"},
		&cli.StringFlag{Name: "duration", Usage: "Running time, e.g. 2h 5m"},
		&cli.FloatFlag{Name: "price", Usage: "Rental price"},
		&cli.StringFlag{Name: "video", Usage: "Video link"},
		&cli.StringFlag{Name: "trailer", Usage: "Trailer link"},
		&cli.BoolFlag{Name: "upcoming", Usage: "Mark as upcoming"},
		&cli.StringFlag{Name: "portrait", Usage: "Path to the portrait poster image"},
		&cli.StringFlag{Name: "landscape", Usage: "Path to the landscape poster image"},
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "check", Usage: "Validate the existing config instead of writing one"},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with a staff account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)", Sources: cli.EnvVars("REELADMIN_PASSWORD")},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and clear the local session",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the cached staff profile",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.Whoami,
	}
}

func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "movies",
		Usage: "Manage the movie catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List movies",
				Flags:  listFlags(&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Only show movies tagged with genre"}),
				Action: r.MoviesList,
			},
			{
				Name:   "stats",
				Usage:  "Show catalog counters",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.MoviesStats,
			},
			{
				Name:   "add",
				Usage:  "Add a movie",
				Flags:  movieFormFlags(),
				Action: r.MoviesAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a movie; omitted flags keep their current value",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     movieFormFlags(),
				Action:    r.MoviesEdit,
			},
			{
				Name:      "toggle",
				Usage:     "Activate or deactivate a movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.MoviesToggle,
			},
			{
				Name:      "trailer",
				Usage:     "Open a movie's trailer in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.MoviesTrailer,
			},
		},
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage customer accounts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  listFlags(),
				Action: r.UsersList,
			},
			{
				Name:      "toggle",
				Usage:     "Activate or deactivate a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.UsersToggle,
			},
		},
	}
}

func paymentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "payments",
		Usage: "Read payment history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List payments",
				Flags:  listFlags(),
				Action: r.PaymentsList,
			},
		},
	}
}

func messagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Read contact form submissions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List messages",
				Flags:  listFlags(),
				Action: r.MessagesList,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show mutations sent from this machine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resource", Usage: "Only show one resource family"},
			&cli.StringFlag{Name: "record", Usage: "Only show one record key"},
			&cli.StringFlag{Name: "status", Usage: "running, succeeded or failed"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum entries", Value: 50},
			&cli.IntFlag{Name: "prune-days", Usage: "Delete entries older than this many days first"},
			formatFlag(),
		},
		Action: r.History,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every resource to files",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent fetches", Value: 4},
		},
		Action: r.Export,
	}
}

// tuiCommand returns the top-level TUI command for an interactive management screen.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Open a management screen: movies, users, payments or messages",
		Arguments: []cli.Argument{&cli.StringArg{Name: "resource", Value: "movies"}},
		Action:    r.TUI,
	}
}

func sandboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sandbox",
		Usage: "Run a local backend and identity emulator with demo data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host"},
			&cli.IntFlag{Name: "port", Usage: "Listen port"},
			&cli.IntFlag{Name: "token-ttl", Usage: "Identity token lifetime in seconds"},
			&cli.BoolFlag{Name: "empty", Usage: "Start without demo data"},
			&cli.StringFlag{Name: "write-config", Usage: "Write a client config pointing at the sandbox to this path"},
		},
		Action: r.Sandbox,
	}
}
