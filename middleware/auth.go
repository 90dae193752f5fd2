package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// bearerToken reads "Authorization: Bearer <token>", falling back to
// X-Auth-Token for mobile clients.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.GetHeader("X-Auth-Token")
	}
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}

// authenticate resolves the request's access token to a user and stores
// it on the context. It is a no-op when a user is already attached.
func authenticate(c *gin.Context) error {
	if CurrentUser(c) != nil {
		return nil
	}
	token := bearerToken(c)
	if token == "" {
		return utils.NewUnauthorizedError("Access token is required")
	}

	svc := GetServices(c)
	db := c.MustGet(KeyDB).(*gorm.DB)
	user, claims, err := svc.ResolveSession(c.Request.Context(), db, token)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrExpiredToken):
		return utils.NewUnauthorizedError("Token has expired")
	case errors.Is(err, services.ErrRevokedToken):
		return utils.NewUnauthorizedError("Token has been revoked")
	case errors.Is(err, services.ErrInvalidToken):
		return utils.NewUnauthorizedError("Invalid token")
	case errors.Is(err, services.ErrUserNotFound):
		return utils.NewUnauthorizedError("User not found")
	case errors.Is(err, services.ErrAccountDeactivated):
		return utils.NewForbiddenError("Account is deactivated")
	case errors.Is(err, services.ErrAccountBlocked):
		return utils.NewForbiddenError("Account is blocked")
	default:
		return utils.NewInternalError(err)
	}

	c.Set(KeyUser, user)
	c.Set(KeyUserID, user.ID.String())
	c.Set(KeyRole, string(user.Role))
	c.Set(KeyToken, token)
	c.Set(KeyClaims, claims)
	return nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c); err != nil {
			utils.Fail(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present
// and otherwise lets the request through anonymously.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearerToken(c) != "" {
			_ = authenticate(c)
		}
		c.Next()
	}
}
