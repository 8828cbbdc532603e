package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/writeitupx/backend/internal/client"
	"github.com/writeitupx/backend/internal/config"
	"github.com/writeitupx/backend/internal/db"
	"github.com/writeitupx/backend/internal/model"
)

var (
	ErrMisconfigured     = errors.New("auth config invalid")
	ErrMissingCredential = errors.New("missing credential")
	ErrTokenExpired      = errors.New("token expired")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserBlocked       = errors.New("account blocked")
	ErrUserExists        = errors.New("account already exists")
	ErrNoAccount         = errors.New("no account for this identity")
)

// Intent tags which half of the handshake the browser initiated. Carried
// inside the signed state token, never as a bare string.
type Intent string

const (
	IntentLogin  Intent = "login"
	IntentSignup Intent = "signup"
)

func ParseIntent(value string) (Intent, error) {
	switch Intent(value) {
	case IntentLogin:
		return IntentLogin, nil
	case IntentSignup:
		return IntentSignup, nil
	default:
		return "", fmt.Errorf("%w: unknown intent %q", ErrInvalidToken, value)
	}
}

type userStore interface {
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetUserByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*model.User, error)
	CreateGoogleUser(ctx context.Context, email, name string, avatarURL *string, googleID, accessToken string, refreshToken *string) (*model.User, error)
	UpdateGoogleCredentials(ctx context.Context, userID int64, googleID, accessToken string, refreshToken *string) error
	StampLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// AuthService is the only component holding the signing secret. It mints
// and validates access tokens and finalizes the provider handshake.
type AuthService struct {
	users     userStore
	jwtSecret []byte
	accessTTL time.Duration
	stateTTL  time.Duration
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type stateClaims struct {
	Intent   string `json:"intent"`
	Redirect string `json:"redirect,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthService(users userStore, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	stateTTL, err := time.ParseDuration(cfg.JWTStateTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_STATE_TTL", ErrMisconfigured)
	}

	return &AuthService{
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: accessTTL,
		stateTTL:  stateTTL,
	}, nil
}

// Mint issues a short-lived access token. Expiry is always set.
func (s *AuthService) Mint(userID int64, email string) (string, int64, error) {
	now := time.Now()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

// Validate checks signature and expiry, then resolves the subject against
// the identity store so deleted or blocked accounts are rejected even
// while their tokens are cryptographically valid.
func (s *AuthService) Validate(ctx context.Context, tokenStr string) (*model.AuthUser, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrMissingCredential
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, s.keyFunc)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}

	return &model.AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}, nil
}

// CurrentUser loads the canonical identity record for an authenticated
// subject, rejecting deleted or blocked accounts.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}
	return user, nil
}

// Refresh mints a replacement token for a still-valid credential. An
// expired token is rejected; the client must repeat the full handshake.
func (s *AuthService) Refresh(ctx context.Context, tokenStr string) (string, int64, error) {
	user, err := s.Validate(ctx, tokenStr)
	if err != nil {
		return "", 0, err
	}
	return s.Mint(user.ID, user.Email)
}

// MintState issues the short-lived state token that rides through the
// provider redirect, carrying intent and the post-login destination.
func (s *AuthService) MintState(intent Intent, redirect string) (string, error) {
	now := time.Now()
	claims := stateClaims{
		Intent:   string(intent),
		Redirect: redirect,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) ParseState(stateStr string) (Intent, string, error) {
	if strings.TrimSpace(stateStr) == "" {
		return "", "", ErrInvalidToken
	}

	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(stateStr, claims, s.keyFunc)
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	intent, err := ParseIntent(claims.Intent)
	if err != nil {
		return "", "", err
	}
	return intent, claims.Redirect, nil
}

// CompleteHandshake resolves the provider profile into an identity record:
// signup creates (rejecting duplicates), login updates (rejecting unknown
// or blocked accounts), and both rotate the stored delegated credentials.
func (s *AuthService) CompleteHandshake(ctx context.Context, intent Intent, profile *client.Profile) (*model.User, error) {
	user, err := s.users.GetUserByGoogleIDOrEmail(ctx, profile.SubjectID, profile.Email)
	if err != nil && !db.IsNoRows(err) {
		return nil, err
	}
	found := err == nil

	switch intent {
	case IntentSignup:
		if found {
			return nil, ErrUserExists
		}
		return s.users.CreateGoogleUser(ctx,
			profile.Email,
			profile.Name,
			optional(profile.AvatarURL),
			profile.SubjectID,
			profile.AccessToken,
			optional(profile.RefreshToken),
		)
	case IntentLogin:
		if !found {
			return nil, ErrNoAccount
		}
	default:
		return nil, fmt.Errorf("%w: unknown intent %q", ErrInvalidToken, intent)
	}

	if user.Blocked {
		return nil, ErrUserBlocked
	}

	if err := s.users.UpdateGoogleCredentials(ctx, user.ID, profile.SubjectID, profile.AccessToken, optional(profile.RefreshToken)); err != nil {
		return nil, err
	}
	if err := s.users.StampLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, err
	}

	return s.users.GetUserByID(ctx, user.ID)
}

func (s *AuthService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.jwtSecret, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
