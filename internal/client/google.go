package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/writeitupx/backend/internal/config"
	"github.com/writeitupx/backend/internal/model"
	"golang.org/x/oauth2"
)

var (
	ErrProviderDenied      = errors.New("provider denied authorization")
	ErrInvalidProfile      = errors.New("provider profile missing email")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Profile is the normalized identity handed back after the code exchange.
type Profile struct {
	SubjectID    string
	Email        string
	Name         string
	AvatarURL    string
	AccessToken  string
	RefreshToken string
}

type GoogleClient struct {
	oauth    *oauth2.Config
	provider *oidc.Provider
}

func NewGoogleClient(ctx context.Context, cfg config.GoogleConfig) (*GoogleClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("missing GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET")
	}

	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to discover google oidc provider: %w", err)
	}

	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
				"https://www.googleapis.com/auth/drive.file",
			},
		},
		provider: provider,
	}, nil
}

// AuthURL builds the consent URL. Offline access plus forced consent so a
// refresh credential is granted for the Drive export path.
func (g *GoogleClient) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the single-use authorization code for tokens and resolves
// the userinfo claims into a Profile. Never retried internally.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s", ErrProviderDenied, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	userInfo, err := g.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrProviderUnavailable, err)
	}

	if userInfo.Email == "" {
		return nil, ErrInvalidProfile
	}

	var claims struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	_ = userInfo.Claims(&claims)

	name := claims.Name
	if name == "" {
		name = userInfo.Email
	}

	return &Profile{
		SubjectID:    userInfo.Subject,
		Email:        userInfo.Email,
		Name:         name,
		AvatarURL:    claims.Picture,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// TokenSource rebuilds a delegated token source from the credentials stored
// on the identity record. The expiry is forced into the past so a stored
// refresh credential always wins over a possibly stale access token.
func (g *GoogleClient) TokenSource(ctx context.Context, user *model.User) oauth2.TokenSource {
	token := &oauth2.Token{}
	if user.GoogleAccessToken != nil {
		token.AccessToken = *user.GoogleAccessToken
	}
	if user.GoogleRefreshToken != nil {
		token.RefreshToken = *user.GoogleRefreshToken
		token.Expiry = time.Now().Add(-time.Minute)
	}
	return g.oauth.TokenSource(ctx, token)
}
