package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (string, error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browsers on any allowed CORS origin connect here; the token is the gate
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleUserWebSocket upgrades GET /ws/notifications?token=... and keeps the
// connection registered until the client goes away.
func HandleUserWebSocket(h *Hub, authenticate Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access token is required"})
			return
		}
		userID, err := authenticate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := h.RegisterUser(userID, conn)
		logger.Debug("websocket connected", zap.String("userId", userID))

		client.Send <- []byte(`{"type":"connected","message":"Connected to notifications"}`)
		go client.writePump()
		client.readPump(h)

		logger.Debug("websocket disconnected", zap.String("userId", userID))
	}
}
