package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/reeladmin/internal/shared"
)

var (
	// ErrNoToken is returned by [TokenProvider.Token] when nobody is signed in.
	ErrNoToken = fmt.Errorf("%w: no identity token", shared.ErrUnauthenticated)
	// ErrProviderUnavailable is returned when the identity provider cannot be reached or fails unexpectedly.
	ErrProviderUnavailable = fmt.Errorf("%w: identity provider", shared.ErrServiceUnavailable)
)

// Identity is the account currently signed in to the identity provider.
type Identity struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenProvider supplies bearer tokens for the admin API.
type TokenProvider interface {
	// Token returns the current identity token.
	// When forceRefresh is set the provider must obtain a fresh token rather than return a cached one.
	// Returns [ErrNoToken] when signed out.
	Token(ctx context.Context, forceRefresh bool) (string, error)

	// CurrentUser returns the signed in identity, or nil.
	CurrentUser() *Identity

	// SignIn authenticates with email and password.
	// Fails with [shared.ErrInvalidCredentials] or [ErrProviderUnavailable].
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignOut forgets the current identity.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers fn to be called after every sign in and sign out.
	OnAuthStateChange(fn func(signedIn bool))
}

// CredentialStore persists provider credentials between runs.
type CredentialStore interface {
	SaveCredentials(identity Identity) error
	// LoadCredentials returns [shared.ErrNotFound] when nothing is stored.
	LoadCredentials() (*Identity, error)
	ClearCredentials() error
}
