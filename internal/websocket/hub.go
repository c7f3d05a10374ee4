package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/jewel-duel/internal/game"
	"go.uber.org/zap"
)

// Hub 观战连接管理中心，向所有客户端广播对局快照
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 最近一次快照，新连接建立后立即下发
	latest   *game.Snapshot
	latestMu sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	done chan struct{}

	opts   Options
	logger *zap.Logger
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`           // 消息类型
	Data      json.RawMessage `json:"data,omitempty"` // 消息数据
	Timestamp int64           `json:"timestamp"`      // 时间戳
}

// MessageType 消息类型
const (
	MessageTypeConnected  = "connected"
	MessageTypeMatchState = "match_state"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeError      = "error"
)

// Options 连接参数
type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
}

// withDefaults 补全未设置的参数
func (o Options) withDefaults() Options {
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = 1024
	}
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = 1024
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = (o.PongTimeout * 9) / 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// NewHub 创建Hub
func NewHub(opts Options, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		opts:       opts.withDefaults(),
		logger:     logger.Named("websocket"),
	}
}

// Run 运行Hub直到ctx取消，退出时关闭所有客户端
func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(h.opts.PingInterval)
	defer heartbeat.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-heartbeat.C:
			h.broadcastMessage(newMessage(MessageTypePing, nil))
		}
	}
}

// Publish 推送对局快照，实现engine.Publisher
//
// 由驱动协程调用，广播通道已满时丢弃本次快照。
func (h *Hub) Publish(snapshot game.Snapshot) {
	h.latestMu.Lock()
	h.latest = &snapshot
	h.latestMu.Unlock()

	msg, err := snapshotMessage(snapshot)
	if err != nil {
		h.logger.Error("序列化快照失败", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("广播通道已满，丢弃快照", zap.String("match_id", snapshot.MatchID))
	}
}

// Latest 最近一次推送的快照
func (h *Hub) Latest() (game.Snapshot, bool) {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()
	if h.latest == nil {
		return game.Snapshot{}, false
	}
	return *h.latest, true
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("观战客户端连接",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr))

	// 发送连接成功消息
	h.sendToClient(client, newMessage(MessageTypeConnected, json.RawMessage(`{"message":"连接成功","client_id":"`+client.ID+`"}`)))

	if snapshot, ok := h.Latest(); ok {
		if msg, err := snapshotMessage(snapshot); err == nil {
			h.sendToClient(client, msg)
		}
	}
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("观战客户端断开", zap.String("client_id", client.ID))
}

// closeAll 关闭所有客户端
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
	h.clientsMu.Unlock()
	h.logger.Info("观战Hub已停止")
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", client.ID))
		}
	}
	h.clientsMu.RUnlock()
}

// sendToClient 发送消息给指定客户端
func (h *Hub) sendToClient(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
	}
}

// reply 从客户端协程回复消息，客户端已注销时忽略
func (h *Hub) reply(client *Client, message *Message) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	h.sendToClient(client, message)
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// newMessage 创建带时间戳的消息
func newMessage(msgType string, data json.RawMessage) *Message {
	return &Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// snapshotMessage 将快照封装为match_state消息
func snapshotMessage(snapshot game.Snapshot) (*Message, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return newMessage(MessageTypeMatchState, data), nil
}
