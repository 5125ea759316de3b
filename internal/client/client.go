package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/protocol"
	"github.com/palemoky/judgment/internal/protocol/codec"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// ErrClosed 连接已关闭
var ErrClosed = errors.New("connection closed")

// ServerError 服务器返回的错误消息
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Client WebSocket 客户端。Encoding 决定发送文本帧（JSON）还是二进制帧（protobuf），
// 服务器会用同样的方式回复
type Client struct {
	ServerURL string
	Encoding  codec.Encoding

	mu             sync.RWMutex
	writeMu        sync.Mutex
	conn           *websocket.Conn
	receive        chan *protocol.Message
	done           chan struct{}
	closed         bool
	playerID       string
	reconnectToken string
}

// NewClient 创建客户端
func NewClient(serverURL string, enc codec.Encoding) *Client {
	return &Client{ServerURL: serverURL, Encoding: enc}
}

// Connect 连接服务器并等待 connected 消息
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	msg, err := c.Expect(ctx, protocol.MsgConnected)
	if err != nil {
		return err
	}
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.playerID = payload.PlayerID
	c.reconnectToken = payload.ReconnectToken
	c.mu.Unlock()
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("连接 %s 失败: %w", c.ServerURL, err)
	}

	receive := make(chan *protocol.Message, 256)
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.receive = receive
	c.done = done
	c.closed = false
	c.mu.Unlock()

	go c.readPump(conn, receive, done)
	return nil
}

// readPump 读取服务器消息，连接断开时关闭 receive
func (c *Client) readPump(conn *websocket.Conn, receive chan<- *protocol.Message, done <-chan struct{}) {
	defer close(receive)

	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		enc := codec.JSON
		if frameType == websocket.BinaryMessage {
			enc = codec.Protobuf
		}
		msg, err := codec.Decode(data, enc)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			continue
		}

		select {
		case receive <- msg:
		case <-done:
			return
		}
	}
}

// Send 发送一条消息
func (c *Client) Send(msgType protocol.MessageType, payload any) error {
	c.mu.RLock()
	conn, closed := c.conn, c.closed
	c.mu.RUnlock()
	if closed || conn == nil {
		return ErrClosed
	}

	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	data, err := codec.Encode(msg, c.Encoding)
	if err != nil {
		return err
	}
	frameType := websocket.TextMessage
	if c.Encoding == codec.Protobuf {
		frameType = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(frameType, data)
}

// Receive 接收下一条消息（阻塞）
func (c *Client) Receive(ctx context.Context) (*protocol.Message, error) {
	c.mu.RLock()
	receive := c.receive
	c.mu.RUnlock()
	if receive == nil {
		return nil, ErrClosed
	}

	select {
	case msg, ok := <-receive:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Expect 丢弃其他消息直到收到 msgType；中途收到的错误消息作为 *ServerError 返回
func (c *Client) Expect(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error) {
	for {
		msg, err := c.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Type == msgType {
			return msg, nil
		}
		if msg.Type == protocol.MsgError {
			return nil, toServerError(msg)
		}
	}
}

// WaitState 等待满足条件的状态推送
func (c *Client) WaitState(ctx context.Context, match func(*protocol.StatePayload) bool) (*protocol.StatePayload, error) {
	for {
		msg, err := c.Expect(ctx, protocol.MsgState)
		if err != nil {
			return nil, err
		}
		payload, err := codec.ParsePayload[protocol.StatePayload](msg)
		if err != nil {
			return nil, err
		}
		if match(payload) {
			return payload, nil
		}
	}
}

func toServerError(msg *protocol.Message) error {
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return err
	}
	return &ServerError{Code: payload.Code, Message: payload.Message}
}

// Close 关闭连接，可以重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return
	}
	c.closed = true
	close(c.done)

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	_ = c.conn.Close()
}

// PlayerID 服务器分配的玩家 ID
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// ReconnectToken 重连令牌
func (c *Client) ReconnectToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnectToken
}

// --- 便捷方法 ---

// CreateRoom 创建房间并返回房间号
func (c *Client) CreateRoom(ctx context.Context, name string) (string, error) {
	if err := c.Send(protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: name}); err != nil {
		return "", err
	}
	return c.expectJoined(ctx)
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(ctx context.Context, roomCode, name string) error {
	if err := c.Send(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: roomCode, Name: name}); err != nil {
		return err
	}
	_, err := c.expectJoined(ctx)
	return err
}

func (c *Client) expectJoined(ctx context.Context) (string, error) {
	msg, err := c.Expect(ctx, protocol.MsgRoomJoined)
	if err != nil {
		return "", err
	}
	payload, err := codec.ParsePayload[protocol.RoomJoinedPayload](msg)
	if err != nil {
		return "", err
	}
	return payload.RoomCode, nil
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	return c.Send(protocol.MsgLeaveRoom, nil)
}

// Act 发送游戏操作；结果通过状态推送或错误消息返回
func (c *Client) Act(action game.Action) error {
	return c.Send(protocol.MsgAction, protocol.ActionPayload{Action: action})
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.Send(protocol.MsgPing, protocol.PingPayload{Timestamp: time.Now().UnixMilli()})
}

// Leaderboard 查询排行榜
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]protocol.LeaderboardEntry, error) {
	if err := c.Send(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: limit}); err != nil {
		return nil, err
	}
	msg, err := c.Expect(ctx, protocol.MsgLeaderboardResult)
	if err != nil {
		return nil, err
	}
	payload, err := codec.ParsePayload[protocol.LeaderboardResultPayload](msg)
	if err != nil {
		return nil, err
	}
	return payload.Entries, nil
}

// Reconnect 断开当前连接，用保存的令牌重新连接并回到原来的房间，返回房间号
func (c *Client) Reconnect(ctx context.Context) (string, error) {
	token, playerID := c.ReconnectToken(), c.PlayerID()
	if token == "" || playerID == "" {
		return "", errors.New("no reconnect token")
	}

	c.Close()
	if err := c.dial(ctx); err != nil {
		return "", err
	}
	if _, err := c.Expect(ctx, protocol.MsgConnected); err != nil {
		return "", err
	}
	if err := c.Send(protocol.MsgReconnect, protocol.ReconnectPayload{Token: token, PlayerID: playerID}); err != nil {
		return "", err
	}

	msg, err := c.Expect(ctx, protocol.MsgReconnected)
	if err != nil {
		return "", err
	}
	payload, err := codec.ParsePayload[protocol.ReconnectedPayload](msg)
	if err != nil {
		return "", err
	}
	log.Printf("🔄 重连成功，玩家 %s", payload.PlayerID)
	return payload.RoomCode, nil
}
