package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
)

const Version = "1.0.0"

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Prince Music API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// HealthCheck pings the database and reports websocket load. A failed ping
// answers 503 with status "degraded".
func HealthCheck(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)

	response := gin.H{
		"success":   true,
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"db":        "ok",
	}
	if svc.Hub != nil {
		response["websocket"] = gin.H{
			"enabled": true,
			"stats":   svc.Hub.GetStats(),
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		response["success"] = false
		response["status"] = "degraded"
		response["db"] = "error: cannot get DB instance"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response["success"] = false
		response["status"] = "degraded"
		response["db"] = "error: cannot connect to DB"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
