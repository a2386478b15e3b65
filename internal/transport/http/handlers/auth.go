package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/middleware"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	// The refresh cookie is scoped to the refresh endpoint so the
	// long-lived token never travels with ordinary API calls.
	refreshCookiePath = "/api/v1/auth/refresh"
)

// CookieSettings controls how credential cookies are written.
type CookieSettings struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

// AuthHandler exposes registration, verification, and session endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	cookies CookieSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// Register creates an inactive account and emails a verification code.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "invalid registration payload")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
		Phone:    req.Phone,
		Address:  req.Address.toDomain(),
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusCreated,
		"registration successful, please verify your email", newUserView(user))
}

// VerifyEmail activates an account using the emailed one-time code.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "email and code are required")
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "email verified successfully", newUserView(user))
}

// ResendOTP issues a fresh verification code, invalidating the old one.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "email is required")
		return
	}

	if err := h.auth.ResendOTP(c.Request.Context(), req.Email); err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "verification code sent", nil)
}

// Login authenticates credentials and sets the token pair as cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "invalid login payload")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusOK, "login successful", newUserView(result.User))
}

// Refresh rotates the token pair using the refresh cookie or body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		RespondError(c, usecase.ErrInvalidRefreshToken)
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusOK, "token refreshed", newUserView(result.User))
}

// Logout revokes the session and clears both cookies. Safe to repeat.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		RespondError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "logout successful", nil)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	respond(c, http.StatusOK, "user profile", newUserView(user))
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, access,
		int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, refresh,
		int(h.cookies.RefreshTTL.Seconds()), refreshCookiePath, "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, refreshCookiePath, "", h.cookies.Secure, true)
}
