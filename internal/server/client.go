package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 超速次数超过该值时断开连接
	maxRateWarnings = 5
)

// frame 待发送的一帧
type frame struct {
	messageType int
	data        []byte
}

// Client 代表一个 WebSocket 连接。
// 服务端按客户端最近一次发来的帧类型回复：文本帧用 JSON，二进制帧用 protobuf。
type Client struct {
	IP string // 客户端 IP 地址

	server *Server
	conn   *websocket.Conn
	send   chan frame

	mu       sync.RWMutex
	id       string // 重连后会改成原来的玩家 ID
	roomCode string
	encoding codec.Encoding
	closed   bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan frame, 256),
	}
}

// ReadPump 从 WebSocket 读取消息，连接断开时通知服务器
func (c *Client) ReadPump() {
	defer func() {
		c.server.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		enc := codec.JSON
		if messageType == websocket.BinaryMessage {
			enc = codec.Protobuf
		}
		c.setEncoding(enc)

		// 消息速率限制检查
		allowed, warning := c.server.messageLimiter.AllowMessage(c.GetID())
		if !allowed {
			log.Printf("⚠️ 客户端 %s (IP: %s) 消息过于频繁", c.GetID(), c.IP)
			c.SendMessage(codec.NewErrorMessageWithText(apperrors.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.GetWarningCount(c.GetID()) > maxRateWarnings {
				log.Printf("🚫 客户端 %s 因多次超速被断开连接", c.GetID())
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(apperrors.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := codec.Decode(data, enc)
		if err != nil {
			log.Printf("消息解析错误 (%s): %v", enc, err)
			c.SendMessage(codec.NewErrorMessage(apperrors.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c.server.ctx, c, msg)
	}
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按客户端的编码方式发送消息。缓冲区满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	data, err := codec.Encode(msg, c.encoding)
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}
	messageType := websocket.TextMessage
	if c.encoding == codec.Protobuf {
		messageType = websocket.BinaryMessage
	}

	select {
	case c.send <- frame{messageType: messageType, data: data}:
	default:
		log.Printf("客户端 %s 发送缓冲区已满", c.id)
		go c.Close()
	}
}

// Close 关闭客户端连接，可以重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// GetID 获取玩家 ID
func (c *Client) GetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Client) setID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// Encoding 当前使用的编码方式
func (c *Client) Encoding() codec.Encoding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoding
}

func (c *Client) setEncoding(enc codec.Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoding = enc
}
