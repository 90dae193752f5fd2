package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// RequireRoles authenticates the request and admits only the listed roles.
func RequireRoles(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c); err != nil {
			utils.Fail(c, err)
			return
		}

		user := CurrentUser(c)
		for _, allowed := range allowedRoles {
			if user.Role == allowed {
				c.Next()
				return
			}
		}
		utils.Fail(c, utils.NewForbiddenError("Access denied. Insufficient permissions."))
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

func RequireMusician() gin.HandlerFunc {
	return RequireRoles(models.RoleMusician)
}

// RequireMusicianAccess admits admins and the musician whose public id is
// the path parameter param.
func RequireMusicianAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c); err != nil {
			utils.Fail(c, err)
			return
		}
		user := CurrentUser(c)
		if user.Role == models.RoleAdmin {
			c.Next()
			return
		}

		target, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil {
			utils.Fail(c, utils.NewValidationError("Invalid musician ID"))
			return
		}
		if user.Role != models.RoleMusician || user.MusicianID == nil || uint64(*user.MusicianID) != target {
			utils.Fail(c, utils.NewForbiddenError("Access denied. You can only access your own resources."))
			return
		}
		c.Next()
	}
}
