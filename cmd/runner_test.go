package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/reeladmin/internal/server"
	"github.com/desertthunder/reeladmin/internal/shared"
	tu "github.com/desertthunder/reeladmin/internal/testing"
)

const (
	adminEmail    = "admin@reeladmin.test"
	adminPassword = "sandbox"
)

// fixture is a runner wired to an in-process sandbox and an in-memory database.
type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	sandbox *server.Sandbox
	config  string
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()

	sb := server.New(shared.SandboxConfig{Seed: true, AdminEmail: adminEmail, AdminPassword: adminPassword}, nil)
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := server.ClientConfig(*shared.DefaultConfig(), srv.URL)
	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Config:     &cfg,
		HTTPClient: srv.Client(),
		Output:     output,
		DB:         db,
	}
	if input != "" {
		opts.Input = strings.NewReader(input)
	}
	runner := NewRunner(opts)
	t.Cleanup(func() { runner.Close() })

	return &fixture{
		runner:  runner,
		output:  output,
		sandbox: sb,
		config:  filepath.Join(t.TempDir(), "missing.toml"),
	}
}

// run executes args against a fresh command tree and returns what was printed.
func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	f.output.Reset()
	argv := append([]string{"reeladmin", "--config", f.config}, args...)
	err := newApp(f.runner).Run(context.Background(), argv)
	return f.output.String(), err
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if _, err := f.run(t, "login", "--email", adminEmail, "--password", adminPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Input:      strings.NewReader(""),
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.defaultHTTP {
				t.Error("expected injected httpClient to keep its own timeout")
			}
			if runner.interactive {
				t.Error("expected injected input to be non-interactive")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient builds one from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.TimeoutSeconds = 7
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient == nil || runner.httpClient == http.DefaultClient {
				t.Fatal("expected a dedicated httpClient")
			}
			if runner.httpClient.Timeout != config.API.Timeout() {
				t.Errorf("expected timeout %v, got %v", config.API.Timeout(), runner.httpClient.Timeout)
			}
			if !runner.defaultHTTP {
				t.Error("expected defaultHTTP to be set")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "login", "logout", "whoami", "movies", "users", "payments", "messages", "history", "export", "tui", "sandbox"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("friendlyError", func(t *testing.T) {
		t.Run("maps session expiry to a login hint", func(t *testing.T) {
			err := friendlyError(errors.Join(shared.ErrSessionExpired, errors.New("refresh rejected")))
			if !errors.Is(err, ErrSessionExpiredHint) {
				t.Errorf("expected hint, got %v", err)
			}
		})

		t.Run("maps missing session", func(t *testing.T) {
			err := friendlyError(shared.ErrUnauthenticated)
			if !strings.Contains(err.Error(), "reeladmin login") {
				t.Errorf("expected login hint, got %v", err)
			}
		})

		t.Run("passes other errors through", func(t *testing.T) {
			if err := friendlyError(shared.ErrValidation); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if friendlyError(nil) != nil {
				t.Error("expected nil for nil")
			}
		})
	})
}

func TestCommands(t *testing.T) {
	t.Run("login with flags and whoami", func(t *testing.T) {
		f := newFixture(t, "")

		out, err := f.run(t, "login", "--email", adminEmail, "--password", adminPassword)
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(out, "Welcome back, Sandbox") {
			t.Errorf("expected greeting, got %q", out)
		}

		out, err = f.run(t, "whoami")
		if err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		if !strings.Contains(out, "ADM-0001") || !strings.Contains(out, adminEmail) {
			t.Errorf("expected profile, got %q", out)
		}
	})

	t.Run("login prompts for missing credentials", func(t *testing.T) {
		f := newFixture(t, adminEmail+"\n"+adminPassword+"\n")

		out, err := f.run(t, "login")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(out, "Email: ") || !strings.Contains(out, "Password: ") {
			t.Errorf("expected prompts, got %q", out)
		}
	})

	t.Run("login with empty prompt input", func(t *testing.T) {
		f := newFixture(t, "\n")

		if _, err := f.run(t, "login"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("login with wrong password", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.run(t, "login", "--email", adminEmail, "--password", "nope")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("whoami without a session", func(t *testing.T) {
		f := newFixture(t, "")

		if _, err := f.run(t, "whoami"); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("movies list with search", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		out, err := f.run(t, "movies", "list", "--search", "heat")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "Heat") {
			t.Errorf("expected Heat in output, got %q", out)
		}
		if strings.Contains(out, "Casablanca") {
			t.Errorf("expected search to filter, got %q", out)
		}
	})

	t.Run("movies list rejects unknown sort field", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		if _, err := f.run(t, "movies", "list", "--sort", "budget"); !errors.Is(err, shared.ErrInvalidSortField) {
			t.Errorf("expected ErrInvalidSortField, got %v", err)
		}
	})

	t.Run("payments list as JSON", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		out, err := f.run(t, "payments", "list", "--format", "json")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.HasPrefix(strings.TrimSpace(out), "[") {
			t.Errorf("expected a JSON array, got %q", out)
		}
	})

	t.Run("toggle logs name the resource once", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		logs := &bytes.Buffer{}
		f.runner.SetLogger(shared.NewLogger(logs))

		if _, err := f.run(t, "movies", "toggle", "MOV-0001"); err != nil {
			t.Fatalf("movie toggle failed: %v", err)
		}

		var found bool
		for line := range strings.SplitSeq(logs.String(), "\n") {
			if !strings.Contains(line, "mutation succeeded") {
				continue
			}
			found = true
			if n := strings.Count(line, "resource="); n != 1 {
				t.Errorf("expected one resource key, got %d in %q", n, line)
			}
		}
		if !found {
			t.Errorf("expected a mutation log entry, got %q", logs.String())
		}
	})

	t.Run("toggles are journaled", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		out, err := f.run(t, "movies", "toggle", "MOV-0001")
		if err != nil {
			t.Fatalf("movie toggle failed: %v", err)
		}
		if !strings.Contains(out, "The Godfather is now inactive") {
			t.Errorf("unexpected output %q", out)
		}

		out, err = f.run(t, "users", "toggle", "USR-4")
		if err != nil {
			t.Fatalf("user toggle failed: %v", err)
		}
		if !strings.Contains(out, "Edsger Dijkstra is now active") {
			t.Errorf("unexpected output %q", out)
		}

		out, err = f.run(t, "history")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "MOV-0001") || !strings.Contains(out, "USR-4") {
			t.Errorf("expected both mutations in history, got %q", out)
		}

		out, err = f.run(t, "history", "--resource", "users")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if strings.Contains(out, "MOV-0001") {
			t.Errorf("expected movie mutation to be filtered out, got %q", out)
		}
	})

	t.Run("history when empty", func(t *testing.T) {
		f := newFixture(t, "")

		out, err := f.run(t, "history")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "No mutations recorded.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("movies add and edit", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		out, err := f.run(t, "movies", "add", "--title", "Paprika", "--year", "2006", "--genres", "Animation, Sci-Fi", "--price", "2.5")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(out, "Added Paprika as MOV-0017") {
			t.Errorf("unexpected output %q", out)
		}

		if _, err := f.run(t, "movies", "edit", "MOV-0017", "--duration", "1h 30m"); err != nil {
			t.Fatalf("edit failed: %v", err)
		}
		movie, ok := f.sandbox.Store().Movie("MOV-0017")
		if !ok {
			t.Fatal("expected movie in store")
		}
		if movie.Duration != "1h 30m" || movie.Year != 2006 {
			t.Errorf("expected edit to keep other fields, got %+v", movie)
		}
	})

	t.Run("movies edit unknown id", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		if _, err := f.run(t, "movies", "edit", "MOV-9999", "--title", "x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("export writes every resource", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)
		dir := filepath.Join(t.TempDir(), "export")

		out, err := f.run(t, "export", "--format", "csv", "--output", dir, "--workers", "2")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "Exported 4 of 4") {
			t.Errorf("unexpected output %q", out)
		}

		for _, name := range []string{"movies.csv", "users.csv", "payments.csv", "messages.csv", "export_manifest.json"} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}
		if content := tu.MustReadFile(t, filepath.Join(dir, "movies.csv")); !strings.Contains(content, "The Godfather") {
			t.Errorf("expected catalog in csv, got %q", content)
		}
	})

	t.Run("expired session surfaces after logout", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		if _, err := f.run(t, "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, err := f.run(t, "users", "list"); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated after logout, got %v", err)
		}
		if _, err := f.run(t, "payments", "list"); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated for payments after logout, got %v", err)
		}

		out, err := f.run(t, "movies", "list", "--search", "heat")
		if err != nil {
			t.Fatalf("expected anonymous movie listing to succeed, got %v", err)
		}
		if !strings.Contains(out, "Heat") {
			t.Errorf("expected seeded movies in output, got %q", out)
		}
	})

	t.Run("revoked refresh ends the session", func(t *testing.T) {
		f := newFixture(t, "")
		f.login(t)

		f.sandbox.Issuer().ExpireTokens(server.AdminUID)
		f.sandbox.Issuer().RevokeRefresh(server.AdminUID)

		_, err := f.run(t, "users", "list")
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if !errors.Is(friendlyError(err), ErrSessionExpiredHint) {
			t.Errorf("expected login hint, got %v", friendlyError(err))
		}
	})

	t.Run("setup config writes template", func(t *testing.T) {
		f := newFixture(t, "")
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := newApp(f.runner).Run(context.Background(), []string{"reeladmin", "--config", path, "setup", "config"}); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
	})
}
