package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/writeitupx/backend/internal/client"
	"github.com/writeitupx/backend/internal/model"
	"github.com/writeitupx/backend/internal/service"
)

type AuthHandler struct {
	svc       *service.AuthService
	google    *client.GoogleClient
	clientURL string
}

func NewAuthHandler(svc *service.AuthService, google *client.GoogleClient, clientURL string) *AuthHandler {
	return &AuthHandler{svc: svc, google: google, clientURL: strings.TrimRight(clientURL, "/")}
}

// GoogleLogin godoc
// @Summary Start the Google handshake with login intent
// @Tags auth
// @Param redirect query string false "Path to land on after success"
// @Success 302
// @Router /api/auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	h.initiate(c, service.IntentLogin)
}

// GoogleSignup godoc
// @Summary Start the Google handshake with signup intent
// @Tags auth
// @Param redirect query string false "Path to land on after success"
// @Success 302
// @Router /api/auth/google/signup [get]
func (h *AuthHandler) GoogleSignup(c *gin.Context) {
	h.initiate(c, service.IntentSignup)
}

func (h *AuthHandler) initiate(c *gin.Context, intent service.Intent) {
	redirect := c.Query("redirect")
	// only relative paths survive into the state token, never full URLs
	if !strings.HasPrefix(redirect, "/") {
		redirect = ""
	}

	state, err := h.svc.MintState(intent, redirect)
	if err != nil {
		log.Printf("Failed to mint state token: %v", err)
		h.redirectLoginError(c, "auth_failed")
		return
	}

	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

// GoogleCallback godoc
// @Summary Finalize the Google handshake
// @Description Exchanges the code, resolves the identity record, mints a
// token and redirects to the client success page.
// @Tags auth
// @Success 302
// @Router /api/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	ctx := c.Request.Context()

	if providerErr := c.Query("error"); providerErr != "" {
		log.Printf("Provider reported handshake failure: %s", providerErr)
		h.redirectLoginError(c, "auth_failed")
		return
	}

	intent, redirect, err := h.svc.ParseState(c.Query("state"))
	if err != nil {
		log.Printf("Failed to parse state token: %v", err)
		h.redirectLoginError(c, "auth_failed")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectLoginError(c, "auth_failed")
		return
	}

	profile, err := h.google.Exchange(ctx, code)
	if err != nil {
		log.Printf("Failed to exchange authorization code: %v", err)
		h.redirectLoginError(c, "auth_failed")
		return
	}

	user, err := h.svc.CompleteHandshake(ctx, intent, profile)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			h.redirectLoginError(c, "user_exists")
		case errors.Is(err, service.ErrNoAccount):
			h.redirectLoginError(c, "user_not_found")
		case errors.Is(err, service.ErrUserBlocked):
			h.redirectLoginError(c, "account_blocked")
		default:
			log.Printf("Failed to complete handshake: %v", err)
			h.redirectLoginError(c, "auth_failed")
		}
		return
	}

	token, _, err := h.svc.Mint(user.ID, user.Email)
	if err != nil {
		log.Printf("Failed to mint access token: %v", err)
		h.redirectLoginError(c, "token_generation_failed")
		return
	}

	params := url.Values{}
	params.Set("token", token)
	if redirect != "" {
		params.Set("redirect", redirect)
	}
	c.Redirect(http.StatusFound, h.clientURL+"/auth/success?"+params.Encode())
}

// CheckStatus godoc
// @Summary Validate the presented credential and return the canonical identity
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Router /api/auth/check-status [get]
func (h *AuthHandler) CheckStatus(c *gin.Context) {
	authUser, err := h.svc.Validate(c.Request.Context(), bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.StatusResponse{Authenticated: false, User: nil})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), authUser.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.StatusResponse{Authenticated: false, User: nil})
		return
	}

	c.JSON(http.StatusOK, model.StatusResponse{
		Authenticated: true,
		User:          model.UserInfoFrom(user),
	})
}

// RefreshToken godoc
// @Summary Mint a replacement access token for a still-valid credential
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.RefreshResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, expiresIn, err := h.svc.Refresh(c.Request.Context(), bearerToken(c))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.RefreshResponse{Token: token, ExpiresIn: expiresIn})
}

// Logout godoc
// @Summary Acknowledge logout
// @Description The server keeps no revocation list; discarding the token
// client-side is the operative act.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.LogoutResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, err := h.svc.Validate(c.Request.Context(), bearerToken(c)); err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.LogoutResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) redirectLoginError(c *gin.Context, code string) {
	params := url.Values{}
	params.Set("error", code)
	c.Redirect(http.StatusFound, h.clientURL+"/login?"+params.Encode())
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("MISSING_TOKEN", "Authentication token is required"))
	case errors.Is(err, service.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("TOKEN_EXPIRED", "Authentication token has expired"))
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("INVALID_TOKEN", "Invalid authentication token"))
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("USER_NOT_FOUND", "User not found"))
	case errors.Is(err, service.ErrUserBlocked):
		c.JSON(http.StatusForbidden, model.NewErrorResponse("ACCOUNT_BLOCKED", "This account has been blocked"))
	default:
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("INTERNAL_ERROR", "An unexpected error occurred"))
	}
}
