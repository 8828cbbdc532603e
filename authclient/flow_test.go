package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newFlowFixture(t *testing.T, validToken string) (*Flow, *Store) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/check-status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+validToken || validToken == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"authenticated": false, "user": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": true,
			"user":          Identity{ID: 7, Email: "alice@example.com"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := New(srv.URL, nil)
	return NewFlow(store), store
}

func TestHandleCallbackErrorParam(t *testing.T) {
	flow, _ := newFlowFixture(t, "")

	outcome := flow.HandleCallback(context.Background(), "http://localhost:3000/auth/success?error=user_exists")

	if outcome.Status != FlowError {
		t.Fatalf("expected error outcome, got %+v", outcome)
	}
	if outcome.Message != "An account with this email already exists. Please log in instead." {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
	if outcome.Target != "/login?error=user_exists" {
		t.Fatalf("unexpected target: %q", outcome.Target)
	}
	if outcome.Delay != RedirectDelay {
		t.Fatalf("unexpected delay: %v", outcome.Delay)
	}
}

func TestHandleCallbackUnknownErrorCode(t *testing.T) {
	flow, _ := newFlowFixture(t, "")

	outcome := flow.HandleCallback(context.Background(), "http://localhost:3000/auth/success?error=account_blocked")
	if outcome.Status != FlowError || outcome.Message != "account_blocked" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestHandleCallbackMissingToken(t *testing.T) {
	flow, _ := newFlowFixture(t, "")

	outcome := flow.HandleCallback(context.Background(), "http://localhost:3000/auth/success")
	if outcome.Status != FlowError {
		t.Fatalf("expected error outcome, got %+v", outcome)
	}
	if outcome.Message != "No authentication token found" {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
	if !strings.HasPrefix(outcome.Target, LoginPath) {
		t.Fatalf("unexpected target: %q", outcome.Target)
	}
}

func TestHandleCallbackSuccessWithRedirect(t *testing.T) {
	token := testToken(t, "7", time.Hour)
	flow, store := newFlowFixture(t, token)

	outcome := flow.HandleCallback(context.Background(),
		"http://localhost:3000/auth/success?token="+token+"&redirect=/dashboard")

	if outcome.Status != FlowSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Target != "/dashboard" {
		t.Fatalf("unexpected target: %q", outcome.Target)
	}
	if outcome.Delay != RedirectDelay {
		t.Fatalf("unexpected delay: %v", outcome.Delay)
	}
	if !store.State().Authenticated {
		t.Fatalf("store not authenticated after callback")
	}
}

func TestHandleCallbackSuccessDefaultsLanding(t *testing.T) {
	token := testToken(t, "7", time.Hour)
	flow, _ := newFlowFixture(t, token)

	outcome := flow.HandleCallback(context.Background(),
		"http://localhost:3000/auth/success?token="+token)
	if outcome.Status != FlowSuccess || outcome.Target != DefaultLanding {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestHandleCallbackLoginFailure(t *testing.T) {
	flow, store := newFlowFixture(t, "only-this-one")

	outcome := flow.HandleCallback(context.Background(),
		"http://localhost:3000/auth/success?token=some-other-token")

	if outcome.Status != FlowError {
		t.Fatalf("expected error outcome, got %+v", outcome)
	}
	if outcome.Message != "Failed to authenticate. Please try again." {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
	if store.State().Authenticated {
		t.Fatalf("store authenticated after failed callback")
	}
}

func TestHandleCallbackAlreadyAuthenticated(t *testing.T) {
	token := testToken(t, "7", time.Hour)
	flow, store := newFlowFixture(t, token)

	if err := store.Login(context.Background(), token); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// back button onto the callback page: no second handshake, no delay
	outcome := flow.HandleCallback(context.Background(),
		"http://localhost:3000/auth/success?token="+token+"&redirect=/editor/1")
	if outcome.Status != FlowSuccess || outcome.Target != "/editor/1" || outcome.Delay != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}
