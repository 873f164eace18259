package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/repositories"
	"github.com/desertthunder/reeladmin/internal/services"
	"github.com/desertthunder/reeladmin/internal/session"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// ErrSessionExpiredHint replaces session expiry errors at the top level.
var ErrSessionExpiredHint = errors.New("session expired, run `reeladmin login`")

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API stack is built on first use by [Runner.connect] so setup commands work without a database or credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader

	// defaultHTTP is set when the runner built httpClient itself, so its timeout follows the loaded config.
	defaultHTTP bool
	// interactive is set when prompts read from a terminal.
	interactive bool

	db       *sql.DB
	tokens   auth.TokenProvider
	session  *session.Session
	client   *services.Client
	auth     *services.AuthService
	movies   *services.MovieService
	users    *services.UserService
	payments *services.PaymentService
	messages *services.MessageService
	journal  *repositories.MutationRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Input is read for prompts when stdin is not a terminal.
	Input io.Reader
	// DB and Tokens replace the configured database and identity provider.
	DB     *sql.DB
	Tokens auth.TokenProvider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	interactive := false
	if opts.Input == nil {
		opts.Input = os.Stdin
		interactive = term.IsTerminal(int(os.Stdin.Fd()))
	}
	defaultHTTP := opts.HTTPClient == nil
	if defaultHTTP {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       bufio.NewReader(opts.Input),
		defaultHTTP: defaultHTTP,
		interactive: interactive,
		db:          opts.DB,
		tokens:      opts.Tokens,
	}
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
// It must be called before the API stack is built.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, whoamiCommand,
		moviesCommand, usersCommand, paymentsCommand, messagesCommand,
		historyCommand, exportCommand, tuiCommand, sandboxCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// connect opens the database and builds the session, identity provider, API client and resource services.
func (r *Runner) connect() error {
	if r.client != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if r.db == nil {
		db, err := shared.OpenConfigured(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
	}

	if r.tokens == nil {
		provider := auth.NewFirebaseProvider(
			r.config.Firebase,
			repositories.NewCredentialRepository(r.db),
			r.httpClient,
			shared.WithLogger(r.logger, "component", "auth"),
		)
		if _, err := provider.Restore(); err != nil {
			r.logger.Warn("failed to restore provider credentials", "error", err)
		}
		r.tokens = provider
	}

	r.session = session.New(repositories.NewSessionRepository(r.db), shared.WithLogger(r.logger, "component", "session"))
	if _, err := r.session.Restore(); err != nil {
		r.logger.Warn("failed to restore session", "error", err)
	}
	r.session.OnInvalidate(func(reason error) {
		r.logger.Debug("session invalidated", "reason", reason)
	})

	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Tokens:     r.tokens,
		Session:    r.session,
		RateLimit:  r.config.API.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "api"),
	})
	r.auth = services.NewAuthService(r.client, r.tokens, r.session, r.logger)
	r.movies = services.NewMovieService(r.client)
	r.users = services.NewUserService(r.client)
	r.payments = services.NewPaymentService(r.client)
	r.messages = services.NewMessageService(r.client)
	r.journal = repositories.NewMutationRepository(r.db)
	return nil
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// friendlyError rewrites errors the user can act on. Session expiry has already cleared local state by the time it
// surfaces here.
func friendlyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrSessionExpired):
		return ErrSessionExpiredHint
	case errors.Is(err, shared.ErrUnauthenticated):
		return fmt.Errorf("%w, run `reeladmin login`", shared.ErrUnauthenticated)
	default:
		return err
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
