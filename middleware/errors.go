package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/utils"
)

// ErrorHandler renders the last error recorded on the context as the
// standard error envelope. Stack details are included outside production.
func ErrorHandler(logger *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := Translate(err)

		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		if c.Writer.Written() {
			return
		}

		body := utils.ErrorBody(appErr.Message, appErr.Errors)
		if !production && appErr.Status >= http.StatusInternalServerError {
			body["stack"] = err.Error()
		}
		c.JSON(appErr.Status, body)
	}
}

// Translate maps any error to an AppError with a client-safe message.
func Translate(err error) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]utils.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, utils.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return utils.NewValidationError("Validation failed", fields...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return utils.NewValidationError("Invalid request body")
	case errors.As(err, &typeErr):
		return utils.NewValidationError("Invalid request body",
			utils.FieldError{Field: typeErr.Field, Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.NewNotFoundError("Resource not found")
	case isDuplicateKey(err):
		return utils.NewConflictError("Duplicate field value entered")
	case errors.Is(err, models.ErrPaidCourseWithoutPrice):
		return utils.NewValidationError(models.ErrPaidCourseWithoutPrice.Error())
	case errors.Is(err, services.ErrExpiredToken):
		return utils.NewUnauthorizedError("Token has expired")
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrRevokedToken):
		return utils.NewUnauthorizedError("Invalid token")
	}
	return utils.NewInternalError(err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "otp6":
		return "OTP must be exactly 6 digits"
	case "countrycode":
		return "Invalid country code"
	case "url":
		return fe.Field() + " must be a valid URL"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// Recovery turns panics into a 500 envelope.
func Recovery(logger *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				body := utils.ErrorBody("Internal Server Error", nil)
				if !production {
					body["stack"] = fmt.Sprint(r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.ErrorBody("Not found - "+c.Request.URL.Path, nil))
	}
}
