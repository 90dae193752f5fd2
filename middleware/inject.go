package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
)

// Context keys shared by middleware and controllers.
const (
	KeyDB       = "db"
	KeyServices = "services"
	KeyUserID   = "user_id"
	KeyRole     = "role"
	KeyUser     = "user"
	KeyToken    = "token"
	KeyClaims   = "claims"
)

// DBMiddleware exposes a request-scoped gorm handle under "db".
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(KeyDB, db.WithContext(c.Request.Context()))
		c.Next()
	}
}

func ServicesMiddleware(svc *services.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(KeyServices, svc)
		c.Next()
	}
}

func GetServices(c *gin.Context) *services.Container {
	return c.MustGet(KeyServices).(*services.Container)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(KeyUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func CurrentUserID(c *gin.Context) uuid.UUID {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return uuid.Nil
}
