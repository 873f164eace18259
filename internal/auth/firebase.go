package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/reeladmin/internal/shared"
)

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type identityError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FirebaseProvider implements [TokenProvider] against the Firebase Auth REST API.
type FirebaseProvider struct {
	mu         sync.Mutex
	apiKey     string
	signInURL  string
	oauth      *oauth2.Config
	httpClient *http.Client
	store      CredentialStore
	logger     *log.Logger

	identity  *Identity
	listeners []func(bool)
}

// NewFirebaseProvider creates a provider for the project identified by cfg.APIKey.
// store may be nil, in which case credentials only live in memory. A nil httpClient uses [http.DefaultClient].
func NewFirebaseProvider(cfg shared.FirebaseConfig, store CredentialStore, httpClient *http.Client, logger *log.Logger) *FirebaseProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	keyed := func(base string) string {
		return base + "?" + url.Values{"key": {cfg.APIKey}}.Encode()
	}

	return &FirebaseProvider{
		apiKey:    cfg.APIKey,
		signInURL: keyed(strings.TrimSuffix(cfg.IdentityURL, "/") + "/accounts:signInWithPassword"),
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  keyed(cfg.TokenURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		store:      store,
		logger:     logger,
	}
}

// Restore loads persisted credentials. It reports whether an identity was found.
func (p *FirebaseProvider) Restore() (bool, error) {
	if p.store == nil {
		return false, nil
	}

	identity, err := p.store.LoadCredentials()
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load credentials: %w", err)
	}

	p.mu.Lock()
	p.identity = identity
	p.mu.Unlock()

	p.logger.Debug("restored provider credentials", "uid", identity.UID)
	return true, nil
}

// CurrentUser returns a copy of the signed in identity, or nil.
func (p *FirebaseProvider) CurrentUser() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.identity == nil {
		return nil
	}
	identity := *p.identity
	return &identity
}

// OnAuthStateChange registers a listener for sign in and sign out.
func (p *FirebaseProvider) OnAuthStateChange(fn func(signedIn bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *FirebaseProvider) notify(signedIn bool) {
	p.mu.Lock()
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(signedIn)
	}
}

// Token returns the Firebase ID token, refreshing it when forced or near expiry.
func (p *FirebaseProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.identity == nil {
		return "", ErrNoToken
	}

	cached := &oauth2.Token{AccessToken: p.identity.IDToken, Expiry: p.identity.ExpiresAt}
	if !forceRefresh && cached.Valid() {
		return p.identity.IDToken, nil
	}

	if p.identity.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: p.identity.RefreshToken}).Token()
	if err != nil {
		return "", p.refreshError(err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		idToken = tok.AccessToken
	}

	p.identity.IDToken = idToken
	p.identity.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		p.identity.RefreshToken = tok.RefreshToken
	}

	if p.store != nil {
		if err := p.store.SaveCredentials(*p.identity); err != nil {
			p.logger.Warn("failed to persist refreshed credentials", "error", err)
		}
	}

	p.logger.Debug("refreshed identity token", "uid", p.identity.UID, "forced", forceRefresh)
	return idToken, nil
}

func (p *FirebaseProvider) refreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
		code := re.ErrorCode
		if code == "" {
			code = re.Response.Status
		}
		return fmt.Errorf("%w: %s", shared.ErrRefreshFailed, code)
	}
	return fmt.Errorf("%w: %w: %w", shared.ErrRefreshFailed, ErrProviderUnavailable, err)
}

// SignIn exchanges email and password for an identity.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidCredentials)
	}

	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.signInURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var ie identityError
		_ = json.Unmarshal(data, &ie)
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, ie.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var out signInResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	identity := &Identity{
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    expiry(out.ExpiresIn),
	}

	p.mu.Lock()
	p.identity = identity
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.SaveCredentials(*identity); err != nil {
			p.logger.Warn("failed to persist credentials", "error", err)
		}
	}

	p.logger.Info("signed in", "email", identity.Email)
	p.notify(true)

	copied := *identity
	return &copied, nil
}

// SignOut forgets the identity locally. Firebase ID tokens cannot be revoked from the client.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.identity = nil
	p.mu.Unlock()

	var err error
	if p.store != nil {
		if err = p.store.ClearCredentials(); err != nil {
			err = fmt.Errorf("failed to clear credentials: %w", err)
		}
	}

	p.notify(false)
	return err
}

// expiry turns an expiresIn seconds string into an absolute time, defaulting to one hour.
func expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}
