package authclient

// Decision is what the route guard tells the caller to do with a
// navigation to a protected view.
type Decision int

const (
	// ShowLoading blocks with a placeholder while the session resolves.
	ShowLoading Decision = iota
	// Render shows the protected content.
	Render
	// RedirectLogin sends the user to the login view.
	RedirectLogin
)

// Decide is a pure function of store state. While loading it never
// redirects and never renders protected content, so a page reload cannot
// flash the login view.
func Decide(state State) Decision {
	if state.Loading {
		return ShowLoading
	}
	if state.Authenticated {
		return Render
	}
	return RedirectLogin
}
