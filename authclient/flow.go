package authclient

import (
	"context"
	"net/url"
	"time"
)

const (
	// DefaultLanding is where a successful handshake lands when the
	// callback carries no redirect.
	DefaultLanding = "/dashboard"
	// LoginPath is the view a failed handshake falls back to.
	LoginPath = "/login"
	// RedirectDelay is how long success/failure indicators stay visible
	// before navigation.
	RedirectDelay = 1500 * time.Millisecond
)

type FlowStatus string

const (
	FlowSuccess FlowStatus = "success"
	FlowError   FlowStatus = "error"
)

// Outcome tells the caller where to navigate, after what delay, and what
// to display meanwhile.
type Outcome struct {
	Status  FlowStatus
	Target  string
	Message string
	Delay   time.Duration
}

// Flow drives the page that receives the server's handshake redirect.
type Flow struct {
	store *Store
}

func NewFlow(store *Store) *Flow {
	return &Flow{store: store}
}

// HandleCallback parses the callback URL and runs the handshake to
// completion. Every failure is terminal for this flow instance; the user
// retries by re-initiating from the login view.
func (f *Flow) HandleCallback(ctx context.Context, rawURL string) Outcome {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return f.fail("missing_token", "No authentication token found")
	}
	query := parsed.Query()

	// back-button case: an authenticated store skips the whole flow
	if f.store.State().Authenticated {
		return Outcome{
			Status: FlowSuccess,
			Target: targetOrDefault(query.Get("redirect")),
		}
	}

	if errCode := query.Get("error"); errCode != "" {
		return f.fail(errCode, errorMessage(errCode))
	}

	token := query.Get("token")
	if token == "" {
		return f.fail("missing_token", "No authentication token found")
	}

	if err := f.store.Login(ctx, token); err != nil {
		// Login rolled back its own side effects already
		return f.fail("auth_failed", "Failed to authenticate. Please try again.")
	}

	return Outcome{
		Status:  FlowSuccess,
		Target:  targetOrDefault(query.Get("redirect")),
		Message: "Successfully signed in! Redirecting...",
		Delay:   RedirectDelay,
	}
}

func (f *Flow) fail(code, message string) Outcome {
	params := url.Values{}
	params.Set("error", code)
	return Outcome{
		Status:  FlowError,
		Target:  LoginPath + "?" + params.Encode(),
		Message: message,
		Delay:   RedirectDelay,
	}
}

func errorMessage(code string) string {
	switch code {
	case "user_exists":
		return "An account with this email already exists. Please log in instead."
	default:
		return code
	}
}

func targetOrDefault(redirect string) string {
	if redirect != "" {
		return redirect
	}
	return DefaultLanding
}
