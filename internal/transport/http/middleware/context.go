package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
)

// CurrentUserKey is the gin context key holding the authenticated user.
const CurrentUserKey = "current_user"

// CurrentUser retrieves the authenticated user attached by Authenticate
// or OptionalAuth.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	value, exists := c.Get(CurrentUserKey)
	if !exists {
		return domain.User{}, false
	}

	user, ok := value.(domain.User)
	return user, ok
}
