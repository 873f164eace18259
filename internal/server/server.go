// package server contains the local sandbox: an in-memory back office API and identity emulator
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                                          // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler, extra ...Middleware) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                                               // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)                      // ServeHTTP implements http.Handler for the entire router
}

const (
	// APIPrefix is where the back office API is mounted.
	APIPrefix = "/api"
	// IdentityPrefix is where the identity emulator is mounted.
	IdentityPrefix = "/identity/v1"
	// SandboxAPIKey is the key written into client configs pointing at the sandbox. Any non-empty key is accepted.
	SandboxAPIKey = "sandbox-key"
)

// Sandbox bundles the store, the token issuer and the router serving both.
type Sandbox struct {
	cfg    shared.SandboxConfig
	store  *Store
	issuer *TokenIssuer
	router *BasicRouter
	logger *log.Logger
}

// New builds a sandbox from cfg. The staff account is registered when cfg.AdminEmail is set and demo data is
// added when cfg.Seed is set. A nil logger discards output.
func New(cfg shared.SandboxConfig, logger *log.Logger) *Sandbox {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Sandbox{
		cfg:    cfg,
		store:  NewStore(),
		issuer: NewTokenIssuer(cfg.TokenTTL()),
		router: NewBasicRouter(),
		logger: logger,
	}

	if cfg.AdminEmail != "" {
		if err := SeedAdmin(s.store, s.issuer, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to register staff account", "email", cfg.AdminEmail, "error", err)
		}
	}
	if cfg.Seed {
		Seed(s.store)
	}

	s.router.Use(RequestIDs(), RequestLogger(logger), Recover(logger))
	s.router.Handler(NewIdentityHandler(s.issuer, IdentityPrefix))
	NewBackend(s.store, s.issuer, APIPrefix, logger).Register(s.router)
	return s
}

// Handler returns the root handler.
func (s *Sandbox) Handler() http.Handler { return s.router }

// Store returns the backing store.
func (s *Sandbox) Store() *Store { return s.store }

// Issuer returns the identity token issuer.
func (s *Sandbox) Issuer() *TokenIssuer { return s.issuer }

// ClientConfig returns a client configuration pointing at a sandbox reachable at baseURL, e.g. "http://127.0.0.1:5000".
// Settings other than the API and identity endpoints are copied from base.
func ClientConfig(base shared.Config, baseURL string) shared.Config {
	cfg := base
	cfg.API.BaseURL = baseURL + APIPrefix
	cfg.Firebase = shared.FirebaseConfig{
		APIKey:      SandboxAPIKey,
		IdentityURL: baseURL + IdentityPrefix,
		TokenURL:    baseURL + IdentityPrefix + "/token",
	}
	return cfg
}

// Serve listens on the configured address until ctx is cancelled, then shuts down gracefully.
// ready, when non-nil, receives the bound base URL once the listener is open.
func (s *Sandbox) Serve(ctx context.Context, ready func(baseURL string)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	baseURL := "http://" + ln.Addr().String()
	s.logger.Info("sandbox listening", "url", baseURL, "seeded", s.cfg.Seed)
	if ready != nil {
		ready(baseURL)
	}

	select {
	case err, ok := <-errs:
		if ok {
			return fmt.Errorf("sandbox server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down sandbox", "error", err)
		return err
	}
	return nil
}
