// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// FakeTokenProvider is a test double for [auth.TokenProvider].
//
// Non-forced calls return Current. Forced calls pop the next value from Refreshed,
// returning RefreshErr (or [auth.ErrNoToken]) once it is exhausted.
type FakeTokenProvider struct {
	mu          sync.Mutex
	Current     string
	Refreshed   []string
	RefreshErr  error
	SignInErr   error
	SignOutErr  error
	Calls       int
	ForcedCalls int
	SignOuts    int
	identity    *auth.Identity
	listeners   []func(bool)
}

// NewFakeTokenProvider returns a provider that is signed in with token, or signed out when token is empty.
func NewFakeTokenProvider(token string, refreshed ...string) *FakeTokenProvider {
	p := &FakeTokenProvider{Current: token, Refreshed: refreshed}
	if token != "" {
		p.identity = &auth.Identity{UID: "uid-test", IDToken: token}
	}
	return p
}

func (p *FakeTokenProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !forceRefresh {
		p.Calls++
		if p.Current == "" {
			return "", auth.ErrNoToken
		}
		return p.Current, nil
	}

	p.ForcedCalls++
	if len(p.Refreshed) == 0 {
		if p.RefreshErr != nil {
			return "", p.RefreshErr
		}
		return "", auth.ErrNoToken
	}
	p.Current, p.Refreshed = p.Refreshed[0], p.Refreshed[1:]
	return p.Current, nil
}

func (p *FakeTokenProvider) CurrentUser() *auth.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity == nil {
		return nil
	}
	identity := *p.identity
	return &identity
}

func (p *FakeTokenProvider) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	p.mu.Lock()
	if p.SignInErr != nil {
		p.mu.Unlock()
		return nil, p.SignInErr
	}
	p.identity = &auth.Identity{UID: "uid-test", Email: email, IDToken: "id-" + email}
	p.Current = p.identity.IDToken
	identity := *p.identity
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(true)
	}
	return &identity, nil
}

func (p *FakeTokenProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.identity = nil
	p.Current = ""
	p.SignOuts++
	listeners := slices.Clone(p.listeners)
	err := p.SignOutErr
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(false)
	}
	return err
}

func (p *FakeTokenProvider) OnAuthStateChange(fn func(signedIn bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// MemorySessionStore is an in-memory session.Store.
type MemorySessionStore struct {
	mu      sync.Mutex
	profile []byte
	token   string
	Clears  int
}

func (m *MemorySessionStore) Save(profile []byte, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile, m.token = append([]byte(nil), profile...), accessToken
	return nil
}

func (m *MemorySessionStore) Load() ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil, "", shared.ErrNotFound
	}
	return m.profile, m.token, nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile, m.token = nil, ""
	m.Clears++
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
