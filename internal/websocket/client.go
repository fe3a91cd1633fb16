package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second

	// pong 超时,ping 周期必须小于它
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 订阅方不应发送大消息,入站只用于保活
	maxMessageSize = 4 * 1024
)

// Client 一个订阅了某申请状态变更的 WebSocket 连接
type Client struct {
	ID        string
	UserID    string
	RequestID uint

	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient 创建客户端
func NewClient(id string, userID string, requestID uint, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:        id,
		UserID:    userID,
		RequestID: requestID,
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
}

// ReadPump 消费入站帧,维持 pong 保活,连接断开时注销客户端
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"client_id":  c.ID,
					"request_id": c.RequestID,
				}).WithError(err).Warn("websocket read failed")
			}
			return
		}
	}
}

// WritePump 将 Send 队列中的事件写入连接并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 已注销该客户端
				c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
