package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

// accessTokenCookie is the cookie carrying the access JWT. It takes
// precedence over the Authorization header when both are present.
const accessTokenCookie = "access_token"

// errorBody mirrors the handlers error envelope. Redeclared here to
// keep the middleware package free of a handlers import.
type errorBody struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
}

func abortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, errorBody{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Code:       code,
	})
}

// Authenticate resolves the caller's identity from the access token
// cookie or the Authorization header and attaches the sanitized user
// to the request context. Requests without a valid identity are
// rejected with 401.
func Authenticate(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "authentication required", "UNAUTHORIZED")
			return
		}

		user, err := auth.AuthenticateToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredAccessToken):
				abortWithError(c, http.StatusUnauthorized, "access token expired", "TOKEN_EXPIRED")
			case errors.Is(err, usecase.ErrInvalidAccessToken):
				abortWithError(c, http.StatusUnauthorized, "invalid access token", "UNAUTHORIZED")
			default:
				_ = c.Error(err)
				abortWithError(c, http.StatusInternalServerError, "authentication failed", "INTERNAL_ERROR")
			}
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and
// silently continues otherwise.
func OptionalAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if user, err := auth.AuthenticateToken(c.Request.Context(), token); err == nil {
				c.Set(CurrentUserKey, user)
			}
		}
		c.Next()
	}
}

// RequireRole rejects requests whose authenticated user holds none of
// the allowed roles. Must run after Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "authentication required", "UNAUTHORIZED")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "insufficient permissions", "FORBIDDEN")
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
