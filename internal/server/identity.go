package server

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

var (
	errUnknownAccount = errors.New("INVALID_LOGIN_CREDENTIALS")
	errBadRefresh     = errors.New("INVALID_REFRESH_TOKEN")
)

// passwordCost keeps sandbox sign in fast. Accounts are throwaway.
const passwordCost = bcrypt.MinCost

type account struct {
	uid   string
	email string
	hash  []byte
}

// idClaims are the claims carried by a sandbox ID token.
type idClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenIssuer mints and verifies sandbox identity tokens. ID tokens are HS256 JWTs signed with a per-issuer key;
// a token is only accepted while its jti is live, so tokens can be revoked before they expire. It is safe for
// concurrent use.
type TokenIssuer struct {
	mu       sync.Mutex
	ttl      time.Duration
	key      []byte
	now      func() time.Time
	accounts map[string]account // by email
	live     map[string]string  // jti -> uid
	refresh  map[string]string  // refresh token -> uid
}

// NewTokenIssuer creates an issuer whose ID tokens live for ttl.
func NewTokenIssuer(ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate signing key: %v", err))
	}
	return &TokenIssuer{
		ttl:      ttl,
		key:      key,
		now:      time.Now,
		accounts: make(map[string]account),
		live:     make(map[string]string),
		refresh:  make(map[string]string),
	}
}

// AddAccount registers an email/password pair for uid.
func (t *TokenIssuer) AddAccount(uid, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password for %s: %w", email, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.accounts[email] = account{uid: uid, email: email, hash: hash}
	return nil
}

// SignIn checks credentials and issues a token pair.
func (t *TokenIssuer) SignIn(email, password string) (*oauth2.Token, string, error) {
	t.mu.Lock()
	acct, ok := t.accounts[email]
	t.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, "", errUnknownAccount
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	tok, err := t.issue(acct.uid, acct.email, "")
	return tok, acct.uid, err
}

// Refresh exchanges a refresh token for a new ID token. The refresh token stays valid.
func (t *TokenIssuer) Refresh(refreshToken string) (*oauth2.Token, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	uid, ok := t.refresh[refreshToken]
	if !ok {
		return nil, "", errBadRefresh
	}
	tok, err := t.issue(uid, t.emailOf(uid), refreshToken)
	return tok, uid, err
}

// emailOf finds the account email for uid. Callers hold mu.
func (t *TokenIssuer) emailOf(uid string) string {
	for _, acct := range t.accounts {
		if acct.uid == uid {
			return acct.email
		}
	}
	return ""
}

// issue signs an ID token for uid. Callers hold mu.
func (t *TokenIssuer) issue(uid, email, refreshToken string) (*oauth2.Token, error) {
	now := t.now()
	jti := uuid.NewString()
	claims := idClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   uid,
			Issuer:    "reeladmin-sandbox",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign id token: %w", err)
	}

	if refreshToken == "" {
		refreshToken = uuid.NewString()
		t.refresh[refreshToken] = uid
	}
	t.live[jti] = uid

	return &oauth2.Token{
		AccessToken:  signed,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       claims.ExpiresAt.Time,
	}, nil
}

// lifetime is the expires_in value reported for new tokens, in seconds.
func (t *TokenIssuer) lifetime() int {
	return int(t.ttl / time.Second)
}

// Verify returns the uid a valid, unexpired and unrevoked ID token was issued to.
func (t *TokenIssuer) Verify(idToken string) (string, bool) {
	if idToken == "" {
		return "", false
	}

	var claims idClaims
	_, err := jwt.ParseWithClaims(idToken, &claims, func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		delete(t.live, claims.ID)
		return "", false
	}
	uid, ok := t.live[claims.ID]
	if !ok || uid != claims.Subject {
		return "", false
	}
	return uid, true
}

// ExpireTokens revokes every ID token issued to uid while keeping its refresh tokens, so the next call with an
// old token gets 401 and a refresh recovers.
func (t *TokenIssuer) ExpireTokens(uid string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for jti, owner := range t.live {
		if owner == uid {
			delete(t.live, jti)
			n++
		}
	}
	return n
}

// RevokeRefresh invalidates every refresh token issued to uid as well as its ID tokens.
func (t *TokenIssuer) RevokeRefresh(uid string) {
	t.mu.Lock()
	for tok, owner := range t.refresh {
		if owner == uid {
			delete(t.refresh, tok)
		}
	}
	t.mu.Unlock()
	t.ExpireTokens(uid)
}

// IdentityHandler emulates the subset of the Firebase Auth REST API the client uses: password sign in on the
// identity toolkit endpoint and refresh on the secure token endpoint. It implements [Handler].
type IdentityHandler struct {
	issuer *TokenIssuer
	prefix string
}

// NewIdentityHandler creates a handler serving under prefix, e.g. "/identity/v1".
func NewIdentityHandler(issuer *TokenIssuer, prefix string) *IdentityHandler {
	return &IdentityHandler{issuer: issuer, prefix: prefix}
}

// Routes returns the HTTP patterns this handler serves.
func (h *IdentityHandler) Routes() []string {
	return []string{
		"POST " + h.prefix + "/accounts:signInWithPassword",
		"POST " + h.prefix + "/token",
	}
}

type identitySignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP dispatches between sign in and refresh. Both require a non-empty key query parameter.
func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") == "" {
		identityFailure(w, http.StatusForbidden, "API_KEY_INVALID")
		return
	}

	if r.URL.Path == h.prefix+"/token" {
		h.refresh(w, r)
		return
	}
	h.signIn(w, r)
}

func (h *IdentityHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req identitySignIn
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		identityFailure(w, http.StatusBadRequest, "INVALID_JSON")
		return
	}

	tok, uid, err := h.issuer.SignIn(req.Email, req.Password)
	if err != nil {
		identityFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"localId":      uid,
		"email":        req.Email,
		"idToken":      tok.AccessToken,
		"refreshToken": tok.RefreshToken,
		"expiresIn":    strconv.Itoa(h.issuer.lifetime()),
	})
}

// refresh answers the OAuth2 refresh_token grant with both access_token and id_token set to the new ID token.
func (h *IdentityHandler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "refresh_token" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	tok, uid, err := h.issuer.Refresh(r.PostForm.Get("refresh_token"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  tok.AccessToken,
		"id_token":      tok.AccessToken,
		"refresh_token": tok.RefreshToken,
		"token_type":    tok.TokenType,
		"expires_in":    h.issuer.lifetime(),
		"user_id":       uid,
	})
}

func identityFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
