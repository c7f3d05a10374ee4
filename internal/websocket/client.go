package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"go.uber.org/zap"
)

// 最大消息大小，观战端只会发送pong
const maxMessageSize = 4 * 1024

// Client 观战客户端
type Client struct {
	ID         string          // 客户端ID
	RemoteAddr string          // 远端地址
	Hub        *Hub            // Hub引用
	Conn       *websocket.Conn // WebSocket连接
	Send       chan []byte     // 发送通道
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:         uuid.New().String(),
		RemoteAddr: conn.RemoteAddr().String(),
		Hub:        hub,
		Conn:       conn,
		Send:       make(chan []byte, 256),
	}
}

// ServeHTTP 升级为WebSocket连接并注册观战客户端
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  h.opts.ReadBufferSize,
		WriteBufferSize: h.opts.WriteBufferSize,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(apperrors.Wrap(err, apperrors.ErrWebSocketConnect)))
		return
	}

	client := NewClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	pongWait := c.Hub.opts.PongTimeout
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump 写入消息，每条消息单独一帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.opts.PingInterval)
	writeWait := c.Hub.opts.WriteTimeout
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("WebSocket写入失败",
					zap.String("client_id", c.ID),
					zap.Error(apperrors.Wrap(err, apperrors.ErrWebSocketSend)))
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

// handleMessage 处理客户端消息
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Warn("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError(apperrors.New(apperrors.ErrMessageFormat))
		return
	}

	switch msg.Type {
	case MessageTypePong:
		c.Hub.logger.Debug("收到pong", zap.String("client_id", c.ID))
	case MessageTypePing:
		c.Hub.reply(c, newMessage(MessageTypePong, nil))
	default:
		// 观战端只读，不接受控制消息
		c.Hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError(apperrors.New(apperrors.ErrMessageFormat, "不支持的消息类型: "+msg.Type))
	}
}

// sendError 发送错误消息
func (c *Client) sendError(appErr *apperrors.AppError) {
	appErr.Stack = nil
	data, err := json.Marshal(appErr)
	if err != nil {
		return
	}
	c.Hub.reply(c, newMessage(MessageTypeError, data))
}
