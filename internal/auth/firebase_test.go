package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/reeladmin/internal/shared"
)

type memoryStore struct {
	identity *Identity
	saves    int
}

func (m *memoryStore) SaveCredentials(identity Identity) error {
	m.identity = &identity
	m.saves++
	return nil
}

func (m *memoryStore) LoadCredentials() (*Identity, error) {
	if m.identity == nil {
		return nil, shared.ErrNotFound
	}
	identity := *m.identity
	return &identity, nil
}

func (m *memoryStore) ClearCredentials() error {
	m.identity = nil
	return nil
}

type identityServer struct {
	*httptest.Server
	refreshes    atomic.Int32
	refreshFails bool
}

func newIdentityServer(t *testing.T) *identityServer {
	t.Helper()

	s := &identityServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch req.Password {
		case "correct":
			json.NewEncoder(w).Encode(signInResponse{
				LocalID:      "uid-1",
				Email:        req.Email,
				IDToken:      "id-1",
				RefreshToken: "refresh-1",
				ExpiresIn:    "3600",
			})
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
		}
	})

	mux.HandleFunc("POST /v1/token", func(w http.ResponseWriter, r *http.Request) {
		n := s.refreshes.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if s.refreshFails || r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		id := "id-refreshed-" + string(rune('0'+n))
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  id,
			"id_token":      id,
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"token_type":    "Bearer",
		})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *identityServer) config() shared.FirebaseConfig {
	return shared.FirebaseConfig{
		APIKey:      "test-key",
		IdentityURL: s.URL + "/v1",
		TokenURL:    s.URL + "/v1/token",
	}
}

func TestFirebaseProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("SignIn", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			srv := newIdentityServer(t)
			store := &memoryStore{}
			p := NewFirebaseProvider(srv.config(), store, srv.Client(), nil)

			var states []bool
			p.OnAuthStateChange(func(signedIn bool) { states = append(states, signedIn) })

			identity, err := p.SignIn(ctx, "staff@example.com", "correct")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if identity.UID != "uid-1" || identity.IDToken != "id-1" {
				t.Errorf("unexpected identity %+v", identity)
			}
			if time.Until(identity.ExpiresAt) < 50*time.Minute {
				t.Errorf("expected expiry about an hour out, got %v", identity.ExpiresAt)
			}
			if store.identity == nil || store.identity.RefreshToken != "refresh-1" {
				t.Error("expected credentials to be persisted")
			}
			if len(states) != 1 || !states[0] {
				t.Errorf("expected one signed-in notification, got %v", states)
			}
			if p.CurrentUser() == nil {
				t.Error("expected current user after sign in")
			}
		})

		t.Run("invalid credentials", func(t *testing.T) {
			srv := newIdentityServer(t)
			p := NewFirebaseProvider(srv.config(), nil, srv.Client(), nil)

			_, err := p.SignIn(ctx, "staff@example.com", "wrong")
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if p.CurrentUser() != nil {
				t.Error("expected no current user")
			}
		})

		t.Run("provider failure", func(t *testing.T) {
			srv := newIdentityServer(t)
			p := NewFirebaseProvider(srv.config(), nil, srv.Client(), nil)

			if _, err := p.SignIn(ctx, "staff@example.com", "boom"); !errors.Is(err, ErrProviderUnavailable) {
				t.Fatalf("expected ErrProviderUnavailable, got %v", err)
			}
		})

		t.Run("unreachable", func(t *testing.T) {
			srv := newIdentityServer(t)
			cfg := srv.config()
			srv.Close()

			p := NewFirebaseProvider(cfg, nil, nil, nil)
			if _, err := p.SignIn(ctx, "staff@example.com", "correct"); !errors.Is(err, ErrProviderUnavailable) {
				t.Fatalf("expected ErrProviderUnavailable, got %v", err)
			}
		})

		t.Run("blank input", func(t *testing.T) {
			p := NewFirebaseProvider(shared.FirebaseConfig{APIKey: "k"}, nil, nil, nil)
			if _, err := p.SignIn(ctx, " ", ""); !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})

	t.Run("Token", func(t *testing.T) {
		t.Run("signed out", func(t *testing.T) {
			p := NewFirebaseProvider(shared.FirebaseConfig{APIKey: "k"}, nil, nil, nil)
			if _, err := p.Token(ctx, false); !errors.Is(err, ErrNoToken) {
				t.Fatalf("expected ErrNoToken, got %v", err)
			}
			if !errors.Is(ErrNoToken, shared.ErrUnauthenticated) {
				t.Error("expected ErrNoToken to match ErrUnauthenticated")
			}
		})

		t.Run("cached", func(t *testing.T) {
			srv := newIdentityServer(t)
			p := NewFirebaseProvider(srv.config(), nil, srv.Client(), nil)
			if _, err := p.SignIn(ctx, "staff@example.com", "correct"); err != nil {
				t.Fatalf("sign in failed: %v", err)
			}

			tok, err := p.Token(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "id-1" {
				t.Errorf("expected cached token, got %s", tok)
			}
			if srv.refreshes.Load() != 0 {
				t.Errorf("expected no refresh, got %d", srv.refreshes.Load())
			}
		})

		t.Run("forced refresh", func(t *testing.T) {
			srv := newIdentityServer(t)
			store := &memoryStore{}
			p := NewFirebaseProvider(srv.config(), store, srv.Client(), nil)
			if _, err := p.SignIn(ctx, "staff@example.com", "correct"); err != nil {
				t.Fatalf("sign in failed: %v", err)
			}

			tok, err := p.Token(ctx, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "id-refreshed-1" {
				t.Errorf("expected refreshed token, got %s", tok)
			}
			if srv.refreshes.Load() != 1 {
				t.Errorf("expected one refresh, got %d", srv.refreshes.Load())
			}
			if store.identity.RefreshToken != "refresh-2" || store.identity.IDToken != tok {
				t.Errorf("expected rotated credentials to be persisted, got %+v", store.identity)
			}

			again, _ := p.Token(ctx, false)
			if again != tok {
				t.Errorf("expected refreshed token to be cached, got %s", again)
			}
		})

		t.Run("expired token refreshes without force", func(t *testing.T) {
			srv := newIdentityServer(t)
			store := &memoryStore{identity: &Identity{UID: "uid-1", IDToken: "stale", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(-time.Minute)}}
			p := NewFirebaseProvider(srv.config(), store, srv.Client(), nil)
			if ok, err := p.Restore(); !ok || err != nil {
				t.Fatalf("expected restore, got %v %v", ok, err)
			}

			tok, err := p.Token(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok == "stale" {
				t.Error("expected stale token to be refreshed")
			}
		})

		t.Run("refresh rejected", func(t *testing.T) {
			srv := newIdentityServer(t)
			srv.refreshFails = true
			p := NewFirebaseProvider(srv.config(), nil, srv.Client(), nil)
			if _, err := p.SignIn(ctx, "staff@example.com", "correct"); err != nil {
				t.Fatalf("sign in failed: %v", err)
			}

			if _, err := p.Token(ctx, true); !errors.Is(err, shared.ErrRefreshFailed) {
				t.Fatalf("expected ErrRefreshFailed, got %v", err)
			}
		})
	})

	t.Run("Restore", func(t *testing.T) {
		t.Run("empty store", func(t *testing.T) {
			p := NewFirebaseProvider(shared.FirebaseConfig{APIKey: "k"}, &memoryStore{}, nil, nil)
			ok, err := p.Restore()
			if ok || err != nil {
				t.Errorf("expected nothing restored, got %v %v", ok, err)
			}
		})

		t.Run("no store", func(t *testing.T) {
			p := NewFirebaseProvider(shared.FirebaseConfig{APIKey: "k"}, nil, nil, nil)
			if ok, _ := p.Restore(); ok {
				t.Error("expected nothing restored")
			}
		})
	})

	t.Run("SignOut", func(t *testing.T) {
		srv := newIdentityServer(t)
		store := &memoryStore{}
		p := NewFirebaseProvider(srv.config(), store, srv.Client(), nil)
		if _, err := p.SignIn(ctx, "staff@example.com", "correct"); err != nil {
			t.Fatalf("sign in failed: %v", err)
		}

		var last *bool
		p.OnAuthStateChange(func(signedIn bool) { last = &signedIn })

		if err := p.SignOut(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if last == nil || *last {
			t.Error("expected signed-out notification")
		}
		if store.identity != nil {
			t.Error("expected stored credentials to be cleared")
		}
		if _, err := p.Token(ctx, false); !errors.Is(err, ErrNoToken) {
			t.Errorf("expected ErrNoToken after sign out, got %v", err)
		}
	})
}
