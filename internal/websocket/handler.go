package websocket

import (
	"net/http"
	"strconv"

	"github.com/MontyPithon/bancroff/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

var upgrader = gorillaWS.Upgrader{
	// 浏览器无法给 WebSocket 握手加自定义头,来源检查交给 CORS 配置
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler 订阅单个申请的状态变更
// 浏览器端通过 query 参数携带访问令牌,validator 为 nil 时拒绝连接
func Handler(hub *Hub, validator *auth.KeycloakTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "identity provider not configured"})
			return
		}

		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已写入错误响应
			return
		}

		client := NewClient(uuid.New().String(), claims.Subject, uint(requestID), hub, conn)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
