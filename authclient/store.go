// Package authclient holds the client-side half of the session lifecycle:
// a Store tracking who is logged in, a Flow finishing the redirect
// handshake, and a route-guard Decide function.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailed is the coarse failure surfaced for every
// unsuccessful store operation. The store cannot safely distinguish
// "server down" from "token rejected"; Err() keeps the underlying cause
// for callers who want it.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Identity mirrors the canonical user returned by the status check.
type Identity struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	AvatarURL    *string `json:"avatarUrl,omitempty"`
	IsGoogleUser bool    `json:"isGoogleUser"`
}

// State is a snapshot of the session. Loading suppresses any
// authenticated/unauthenticated UI decision.
type State struct {
	User          *Identity
	Authenticated bool
	Loading       bool
}

// Store is the per-instance source of truth for "is this client
// authenticated". Two Stores never share hidden globals; each carries its
// own token store and HTTP client.
type Store struct {
	baseURL string
	tokens  TokenStore
	http    *http.Client

	mu            sync.Mutex
	user          *Identity
	authenticated bool
	loading       bool
	lastErr       error
	initialized   bool
}

// New builds a Store talking to the server at baseURL. A nil tokens falls
// back to an in-memory store.
func New(baseURL string, tokens TokenStore) *Store {
	if tokens == nil {
		tokens = NewMemoryStore()
	}
	return &Store{
		baseURL: baseURL,
		tokens:  tokens,
		http: &http.Client{
			Transport: &bearerTransport{tokens: tokens, base: http.DefaultTransport},
		},
		loading: true,
	}
}

// bearerTransport derives the Authorization header from the token store
// at call time, so storage and header can never disagree.
type bearerTransport struct {
	tokens TokenStore
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token, err := t.tokens.Load(); err == nil && token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Authenticated: s.authenticated, Loading: s.loading}
}

// Err returns the error behind the most recent failure, nil after a
// successful operation.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Initialize resolves the persisted token into a session exactly once.
// Every exit path, including errors, terminates the loading state.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, err := s.tokens.Load()
	if err != nil || token == "" {
		return nil
	}

	// Local expiry peek is a fast path, not a security boundary; the
	// server check below is what actually decides.
	if locallyExpired(token) {
		_ = s.tokens.Clear()
		return nil
	}

	identity, err := s.checkStatus(ctx)
	if err != nil {
		s.clear(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	s.setAuthenticated(identity)
	return nil
}

// Login adopts an externally obtained token. On failure the persisted
// token is rolled back to its pre-call value, leaving the store exactly
// as it was.
func (s *Store) Login(ctx context.Context, token string) error {
	previous, _ := s.tokens.Load()

	if err := s.tokens.Save(token); err != nil {
		s.setErr(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	identity, err := s.checkStatus(ctx)
	if err != nil {
		if previous == "" {
			_ = s.tokens.Clear()
		} else {
			_ = s.tokens.Save(previous)
		}
		s.setErr(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	s.setAuthenticated(identity)
	return nil
}

// Logout discards the session. Calling it while logged out is a no-op.
func (s *Store) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()

	return err
}

// RefreshToken swaps the current credential for a fresh one. A refusal
// means the credential is no longer trustworthy, so the store logs out
// fully.
func (s *Store) RefreshToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/refresh-token", nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		_ = s.Logout()
		s.setErr(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_ = s.Logout()
		err := fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
		s.setErr(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		_ = s.Logout()
		s.setErr(err)
		return fmt.Errorf("%w: malformed refresh response", ErrAuthenticationFailed)
	}

	if err := s.tokens.Save(body.Token); err != nil {
		_ = s.Logout()
		s.setErr(err)
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	s.setErr(nil)
	return nil
}

func (s *Store) checkStatus(ctx context.Context) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/auth/check-status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Authenticated bool      `json:"authenticated"`
		User          *Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.Authenticated || body.User == nil {
		return nil, errors.New("server reported unauthenticated")
	}
	return body.User, nil
}

func (s *Store) setAuthenticated(identity *Identity) {
	s.mu.Lock()
	s.user = identity
	s.authenticated = true
	s.lastErr = nil
	s.mu.Unlock()
}

// clear drops both the persisted token and the in-memory identity.
func (s *Store) clear(cause error) {
	_ = s.tokens.Clear()
	s.mu.Lock()
	s.user = nil
	s.authenticated = false
	s.lastErr = cause
	s.mu.Unlock()
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// locallyExpired decodes the token's expiry without verifying the
// signature. Garbled tokens count as expired so they get cleared.
func locallyExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Before(time.Now())
}
