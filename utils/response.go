package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Success writes the standard success envelope.
func Success(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"success":   true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Fail records err for the error handler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorBody is the standard error envelope.
func ErrorBody(message string, fields []FieldError) gin.H {
	body := gin.H{
		"success":   false,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return body
}
