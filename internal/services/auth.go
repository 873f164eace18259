package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// SessionManager is the session lifecycle [AuthService] drives.
type SessionManager interface {
	SessionState
	Start(profile models.Profile, accessToken string) error
	Profile() *models.Profile
}

// AuthService ties provider sign in to the backend login exchange and the local session.
type AuthService struct {
	client  *Client
	tokens  auth.TokenProvider
	session SessionManager
	logger  *log.Logger
}

func NewAuthService(c *Client, tokens auth.TokenProvider, session SessionManager, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AuthService{client: c, tokens: tokens, session: session, logger: logger}
}

type loginResponse struct {
	Result json.RawMessage `json:"result"`
}

// Login signs in with the identity provider, exchanges the identity token at POST /auth/login and starts the session.
// When the backend rejects the exchange the provider is signed out again.
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	identity, err := a.tokens.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	req, err := JSONRequest(http.MethodPost, "/auth/login", "auth", map[string]string{"firebaseToken": identity.IDToken})
	if err != nil {
		return nil, err
	}
	req.RequireAuth = false

	var out loginResponse
	if err := a.client.Do(ctx, req, &out); err != nil {
		a.abandon(ctx)
		return nil, err
	}

	if len(out.Result) == 0 || string(out.Result) == "null" {
		a.abandon(ctx)
		return nil, fmt.Errorf("%w: login response has no result", shared.ErrDecode)
	}

	profile, err := models.ParseProfile(out.Result)
	if err != nil {
		a.abandon(ctx)
		return nil, fmt.Errorf("%w: %w", shared.ErrDecode, err)
	}

	if err := a.session.Start(*profile, identity.IDToken); err != nil {
		return nil, err
	}

	a.logger.Info("logged in", "user", profile.UserID, "email", profile.Email)
	return profile, nil
}

func (a *AuthService) abandon(ctx context.Context) {
	if err := a.tokens.SignOut(ctx); err != nil {
		a.logger.Warn("failed to sign out after rejected login", "error", err)
	}
}

// Logout signs out of the provider and invalidates the session. The session is cleared even when sign out fails;
// the sign out error is still returned.
func (a *AuthService) Logout(ctx context.Context) error {
	err := a.tokens.SignOut(ctx)
	a.session.Invalidate(shared.ErrSignedOut)
	if err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

// CurrentProfile returns the cached profile. It is advisory and does not prove the token is still valid.
func (a *AuthService) CurrentProfile() *models.Profile {
	return a.session.Profile()
}
