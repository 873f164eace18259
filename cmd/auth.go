package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// Login signs in with the identity provider, exchanges the token with the backend and starts the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		var err error
		if email, err = r.prompt("Email: "); err != nil {
			return err
		}
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptSecret("Password: "); err != nil {
			return err
		}
	}

	profile, err := r.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	r.logger.Debug("session started", "user", profile.UserID)
	return r.writePlain("✓ Welcome back, %s\n", profile.DisplayName())
}

// Logout signs out of the provider and clears the session, even when the provider call fails.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	if err := r.auth.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// Whoami prints the cached profile. The profile is advisory; the next API call decides whether it is still valid.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	profile := r.auth.CurrentProfile()
	if profile == nil {
		return shared.ErrUnauthenticated
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlain("%s %s <%s>\n", profile.FirstName, profile.LastName, profile.Email)
	r.writePlain("  ID:   %s\n", profile.UserID)
	r.writePlain("  Role: %s\n", profile.Role)
	if identity := r.tokens.CurrentUser(); identity != nil {
		r.writePlain("  Token expires: %s\n", identity.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s", label)
	line, _ := r.input.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.TrimSuffix(label, ": "))
	}
	return line, nil
}

// promptSecret reads without echo when attached to a terminal.
func (r *Runner) promptSecret(label string) (string, error) {
	if !r.interactive {
		return r.prompt(label)
	}

	r.writePlain("%s", label)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return string(data), nil
}
