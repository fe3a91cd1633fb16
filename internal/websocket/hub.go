package websocket

import (
	"encoding/json"
	"sync"
	"time"
)

// StatusEvent 申请状态变更事件
// 审批决策提交后推送给订阅了该申请的客户端
type StatusEvent struct {
	RequestID uint      `json:"request_id"`
	Step      string    `json:"step,omitempty"`
	Action    string    `json:"action,omitempty"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor,omitempty"`
	Time      time.Time `json:"time"`
}

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息到所有客户端
	Broadcast chan []byte

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁，保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyStatusChange 向订阅了某申请的客户端推送状态变更
// 实现 service.Notifier 接口
func (h *Hub) NotifyStatusChange(event *StatusEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.BroadcastToRequest(event.RequestID, message)
}

// BroadcastToRequest 向订阅了特定申请的客户端广播消息
// 发送缓冲已满的客户端视为失联,直接移除
func (h *Hub) BroadcastToRequest(requestID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.RequestID == requestID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
