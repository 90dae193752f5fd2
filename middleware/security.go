package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/prince-music-backend/utils"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'")
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// secretFields are passed through verbatim.
var secretFields = map[string]bool{
	"password":        true,
	"newPassword":     true,
	"currentPassword": true,
	"confirmPassword": true,
	"oldPassword":     true,
	"refreshToken":    true,
	"idToken":         true,
	"token":           true,
	"signature_key":   true,
}

const maxSanitizedBody = 1 << 20

// SanitizeInput cleans query values and JSON bodies and rejects values that
// look like SQL injection. Multipart uploads are left alone.
func SanitizeInput() gin.HandlerFunc {
	invalid := func(c *gin.Context) {
		utils.Fail(c, utils.NewValidationError("Invalid input detected"))
	}
	return func(c *gin.Context) {
		if raw := c.Request.URL.RawQuery; raw != "" {
			q := c.Request.URL.Query()
			for key, values := range q {
				if secretFields[key] {
					continue
				}
				for i, v := range values {
					clean := utils.SanitizeString(v)
					if utils.DetectSQLInjection(clean) {
						invalid(c)
						return
					}
					values[i] = clean
				}
				q[key] = values
			}
			c.Request.URL.RawQuery = q.Encode()
		}

		if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
			c.Next()
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSanitizedBody+1))
		if err != nil {
			utils.Fail(c, utils.NewValidationError("Unable to read request body"))
			return
		}
		if len(body) > maxSanitizedBody {
			utils.Fail(c, utils.NewAppError(http.StatusRequestEntityTooLarge, "Request body too large"))
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Next()
			return
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var payload interface{}
		if err := dec.Decode(&payload); err != nil {
			// leave malformed JSON for the binding layer to report
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Next()
			return
		}
		clean, ok := utils.SanitizeValue(payload, secretFields)
		if !ok {
			invalid(c)
			return
		}
		out, err := json.Marshal(clean)
		if err != nil {
			utils.Fail(c, utils.NewInternalError(err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(out))
		c.Request.ContentLength = int64(len(out))
		c.Next()
	}
}
